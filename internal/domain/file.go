package domain

import (
	"io"
	"os"
	"strconv"
	"time"
)

// File описывает файл внутри хранилища.
type File struct {
	UID              string
	Storage          int
	Identifier       string
	Name             string
	Extension        string
	MimeType         string
	Size             int64
	ModificationTime time.Time
	CreationTime     time.Time
	PublicURL        string
}

// CombinedIdentifier returns "storage:identifier".
func (f File) CombinedIdentifier() string {
	return CombineIdentifier(f.Storage, f.Identifier)
}

// Properties отдает все простые свойства файла для сериализации.
func (f File) Properties() map[string]any {
	return map[string]any{
		"id":                f.CombinedIdentifier(),
		"uid":               f.UID,
		"storage":           f.Storage,
		"identifier":        f.Identifier,
		"name":              f.Name,
		"extension":         f.Extension,
		"mimetype":          f.MimeType,
		"size":              f.Size,
		"modification_date": f.ModificationTime.Unix(),
		"creation_date":     f.CreationTime.Unix(),
		"url":               f.PublicURL,
	}
}

// Folder описывает директорию внутри хранилища. Identifier всегда заканчивается на "/".
type Folder struct {
	Storage    int
	Identifier string
	Name       string
}

func (f Folder) CombinedIdentifier() string {
	return CombineIdentifier(f.Storage, f.Identifier)
}

func CombineIdentifier(storage int, identifier string) string {
	return strconv.Itoa(storage) + IdentifierSeparator + identifier
}

// UploadedFile - файл из multipart запроса, уже сохраненный во временный файл.
type UploadedFile struct {
	Filename string
	Size     int64
	TempPath string
}

// Uploads группирует загруженные файлы по имени поля формы (upload_<slot>).
type Uploads map[string][]UploadedFile

// FileStorage для операций работы с файловым хранилищем.
type FileStorage interface {
	ReadDirectory(relPath string) ([]os.FileInfo, error)
	Stat(relPath string) (os.FileInfo, error)
	WriteFile(relPath string, file io.Reader) error
	Remove(relPath string) error
	Move(oldRel, newRel string) error
	Copy(srcRel, dstRel string) error
	CreateDirectory(relPath string) error
	GetAbsolutePath(relPath string) string
}

// FolderHandle - директория, полученная через ResourceResolver.
type FolderHandle interface {
	Folder() Folder
	HasFile(name string) bool
	SanitizeFileName(name string) string
	GetFile(name string) (File, error)
}

// ResourceResolver превращает "storage:identifier" в директорию.
type ResourceResolver interface {
	RetrieveFolder(combinedIdentifier string) (FolderHandle, error)
}

// FileProcessor выполняет пакет файловых команд. Экземпляр живет один запрос.
type FileProcessor interface {
	ConfigurePermissions()
	SetConflictMode(mode ConflictMode)
	Submit(batch CommandBatch) ResultSet
	ErrorMessages() []string
}

// ProcessorFactory создает FileProcessor для одного запроса.
type ProcessorFactory func(uploads Uploads) FileProcessor

// Clipboard раскрывает сохраненный буфер обмена в пакет команд.
// pad выбирается на один вызов, пустое имя означает текущий сохраненный буфер.
type Clipboard interface {
	ExpandPaste(pad, target string) (CommandBatch, error)
	ExpandDelete(pad string) (CommandBatch, error)
}

type IconRenderer interface {
	IconForExtension(ext string) string
}

// PreviewProcessor возвращает публичный URL превью или "", если превью не получилось.
type PreviewProcessor interface {
	Preview(file File) (string, error)
}

// SignalSink доставляет сигналы интерфейсу бэкенда, без гарантий.
type SignalSink interface {
	Broadcast(signal string)
}
