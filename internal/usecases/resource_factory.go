package usecases

import (
	"fmt"
	"mime"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"file-controller/internal/config"
	"file-controller/internal/domain"
)

var (
	invalidFileNameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-. ]`)
	repeatedUnderscores  = regexp.MustCompile(`_+`)
)

// ResourceFactory превращает идентификаторы "storage:/path" в файлы и директории хранилища.
type ResourceFactory struct {
	storage   domain.FileStorage
	uid       int
	publicURL string
	lowercase bool
}

func NewResourceFactory(storage domain.FileStorage, cfg *config.Config) *ResourceFactory {
	return &ResourceFactory{
		storage:   storage,
		uid:       cfg.Storage.UID,
		publicURL: cfg.Storage.PublicURL,
		lowercase: cfg.File.LowercaseNames,
	}
}

// ParseIdentifier разбирает "1:/docs/a.txt". Без префикса хранилища берется хранилище по умолчанию.
func (f *ResourceFactory) ParseIdentifier(combined string) (int, string, error) {
	combined = strings.TrimSpace(combined)
	if combined == domain.PathEmpty {
		return 0, "", fmt.Errorf("empty identifier: %w", domain.ErrInvalidIdentifier)
	}

	storageUID := f.uid
	identifier := combined
	if idx := strings.Index(combined, domain.IdentifierSeparator); idx >= 0 {
		parsed, err := strconv.Atoi(combined[:idx])
		if err != nil {
			return 0, "", fmt.Errorf("identifier '%s': %w", combined, domain.ErrInvalidIdentifier)
		}
		storageUID = parsed
		identifier = combined[idx+1:]
	}

	if storageUID != f.uid {
		return 0, "", fmt.Errorf("storage %d: %w", storageUID, domain.ErrStorageNotFound)
	}

	return storageUID, normalizeIdentifier(identifier), nil
}

// normalizeIdentifier приводит путь к виду "/a/b" без выхода за корень хранилища.
func normalizeIdentifier(identifier string) string {
	return path.Clean(domain.PathRoot + strings.ReplaceAll(identifier, "\\", "/"))
}

func folderIdentifier(identifier string) string {
	if identifier == domain.PathRoot {
		return identifier
	}
	return strings.TrimSuffix(identifier, "/") + "/"
}

// RetrieveFolder возвращает директорию по идентификатору.
func (f *ResourceFactory) RetrieveFolder(combined string) (domain.FolderHandle, error) {
	storageUID, identifier, err := f.ParseIdentifier(combined)
	if err != nil {
		return nil, err
	}

	info, err := f.storage.Stat(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("folder '%s': %w", combined, domain.ErrFileNotFound)
		}
		return nil, fmt.Errorf("failed to stat folder '%s': %w", combined, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("'%s': %w", combined, domain.ErrNotAFolder)
	}

	return &folderHandle{
		factory: f,
		folder:  f.folderAt(storageUID, identifier),
	}, nil
}

// RetrieveFileOrFolder возвращает файл или директорию в виде результата.
func (f *ResourceFactory) RetrieveFileOrFolder(combined string) (domain.Result, error) {
	storageUID, identifier, err := f.ParseIdentifier(combined)
	if err != nil {
		return domain.Result{}, err
	}

	info, err := f.storage.Stat(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Result{}, fmt.Errorf("'%s': %w", combined, domain.ErrFileNotFound)
		}
		return domain.Result{}, fmt.Errorf("failed to stat '%s': %w", combined, err)
	}

	if info.IsDir() {
		return domain.FolderResult(f.folderAt(storageUID, identifier)), nil
	}
	return domain.FileResult(f.fileFromInfo(storageUID, identifier, info)), nil
}

// FileAt читает свежие метаданные файла по идентификатору.
func (f *ResourceFactory) FileAt(identifier string) (domain.File, error) {
	info, err := f.storage.Stat(identifier)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.File{}, fmt.Errorf("file '%s': %w", identifier, domain.ErrFileNotFound)
		}
		return domain.File{}, err
	}
	if info.IsDir() {
		return domain.File{}, fmt.Errorf("'%s' is a folder: %w", identifier, domain.ErrUnsupportedOperation)
	}
	return f.fileFromInfo(f.uid, identifier, info), nil
}

func (f *ResourceFactory) folderAt(storageUID int, identifier string) domain.Folder {
	identifier = folderIdentifier(identifier)
	name := path.Base(strings.TrimSuffix(identifier, "/"))
	if identifier == domain.PathRoot {
		name = domain.PathEmpty
	}
	return domain.Folder{Storage: storageUID, Identifier: identifier, Name: name}
}

func (f *ResourceFactory) fileFromInfo(storageUID int, identifier string, info os.FileInfo) domain.File {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(info.Name())), ".")
	mimeType := mime.TypeByExtension(path.Ext(info.Name()))
	if mimeType == domain.PathEmpty {
		mimeType = domain.MIMEOctetStream
	}

	combined := domain.CombineIdentifier(storageUID, identifier)
	return domain.File{
		UID:              uuid.NewSHA1(uuid.NameSpaceURL, []byte(combined)).String(),
		Storage:          storageUID,
		Identifier:       identifier,
		Name:             info.Name(),
		Extension:        ext,
		MimeType:         mimeType,
		Size:             info.Size(),
		ModificationTime: info.ModTime(),
		CreationTime:     info.ModTime(),
		PublicURL:        strings.TrimSuffix(f.publicURL, "/") + identifier,
	}
}

// SanitizeFileName приводит имя к правилам хранилища: недопустимые символы заменяются на "_".
func (f *ResourceFactory) SanitizeFileName(name string) string {
	clean := strings.TrimSpace(name)
	clean = invalidFileNameChars.ReplaceAllString(clean, "_")
	clean = repeatedUnderscores.ReplaceAllString(clean, "_")
	clean = strings.TrimRight(clean, ".")
	if f.lowercase {
		clean = strings.ToLower(clean)
	}
	return clean
}

type folderHandle struct {
	factory *ResourceFactory
	folder  domain.Folder
}

func (h *folderHandle) Folder() domain.Folder {
	return h.folder
}

func (h *folderHandle) HasFile(name string) bool {
	info, err := h.factory.storage.Stat(h.folder.Identifier + name)
	return err == nil && !info.IsDir()
}

func (h *folderHandle) SanitizeFileName(name string) string {
	return h.factory.SanitizeFileName(name)
}

func (h *folderHandle) GetFile(name string) (domain.File, error) {
	return h.factory.FileAt(h.folder.Identifier + name)
}
