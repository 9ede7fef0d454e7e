package usecases

import (
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"file-controller/internal/config"
	"file-controller/internal/domain"
)

// Права на действия, которые проверяет FileProcessor.
const (
	PermissionAddFile         = "addFile"
	PermissionWriteFile       = "writeFile"
	PermissionCopyFile        = "copyFile"
	PermissionMoveFile        = "moveFile"
	PermissionRenameFile      = "renameFile"
	PermissionDeleteFile      = "deleteFile"
	PermissionAddFolder       = "addFolder"
	PermissionCopyFolder      = "copyFolder"
	PermissionMoveFolder      = "moveFolder"
	PermissionRenameFolder    = "renameFolder"
	PermissionDeleteFolder    = "deleteFolder"
	PermissionRecursiveDelete = "recursivedeleteFolder"
)

const (
	uploadFieldPrefix = "upload_"
	maxUniqueSuffix   = 99
	replaceTempPrefix = domain.HiddenFilePrefix + "replace-"
)

// FileProcessor выполняет пакет файловых команд над хранилищем.
// Экземпляр создается на один запрос: права, режим конфликтов и ошибки не переживают запрос.
type FileProcessor struct {
	storage     domain.FileStorage
	resources   *ResourceFactory
	cfg         *config.Config
	validName   *regexp.Regexp
	uploads     domain.Uploads
	permissions map[string]bool
	mode        domain.ConflictMode
	errors      []string
}

func NewFileProcessor(
	storage domain.FileStorage,
	resources *ResourceFactory,
	cfg *config.Config,
	uploads domain.Uploads,
) *FileProcessor {
	return &FileProcessor{
		storage:     storage,
		resources:   resources,
		cfg:         cfg,
		validName:   regexp.MustCompile(cfg.File.ValidNameRegex),
		uploads:     uploads,
		permissions: map[string]bool{},
		mode:        domain.ConflictModeCancel,
	}
}

// NewProcessorFactory собирает фабрику процессоров для контроллера.
func NewProcessorFactory(storage domain.FileStorage, resources *ResourceFactory, cfg *config.Config) domain.ProcessorFactory {
	return func(uploads domain.Uploads) domain.FileProcessor {
		return NewFileProcessor(storage, resources, cfg, uploads)
	}
}

// ConfigurePermissions загружает права из конфигурации.
func (p *FileProcessor) ConfigurePermissions() {
	p.permissions = make(map[string]bool, len(p.cfg.Permissions))
	for action, allowed := range p.cfg.Permissions {
		p.permissions[action] = allowed
	}
}

// SetConflictMode задает поведение при совпадении имен. Unset означает cancel.
func (p *FileProcessor) SetConflictMode(mode domain.ConflictMode) {
	if mode == domain.ConflictModeUnset {
		mode = domain.ConflictModeCancel
	}
	p.mode = mode
}

func (p *FileProcessor) ErrorMessages() []string {
	return p.errors
}

// Submit выполняет команды по порядку. Ошибка одного элемента не останавливает остальные.
func (p *FileProcessor) Submit(batch domain.CommandBatch) domain.ResultSet {
	var results domain.ResultSet
	for _, op := range batch.Operations() {
		for _, element := range op.Elements {
			entry, err := p.run(op.Name, element.Payload)
			if err != nil {
				p.fail(op.Name, element.Key, err)
				// upload может вернуть часть сохраненных файлов вместе с ошибкой.
				if len(entry) == 0 {
					entry = domain.ResultEntry{domain.FlagResult(false)}
				}
			}
			results.Append(op.Name, entry)
		}
	}
	return results
}

// fail записывает каждую ошибку элемента отдельным сообщением.
func (p *FileProcessor) fail(operation, key string, err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	for _, e := range errs {
		p.errors = append(p.errors, e.Error())
		logrus.WithFields(logrus.Fields{
			"operation": operation,
			"element":   key,
		}).Warnf("File command failed: %v", e)
	}
}

func (p *FileProcessor) run(operation string, payload domain.Payload) (domain.ResultEntry, error) {
	switch operation {
	case domain.OperationUpload:
		return p.upload(payload)
	case domain.OperationReplace:
		return single(p.replace(payload))
	case domain.OperationNewFolder:
		return single(p.newFolder(payload))
	case domain.OperationNewFile:
		return single(p.newFile(payload))
	case domain.OperationEditFile:
		return single(p.editFile(payload))
	case domain.OperationRename:
		return single(p.rename(payload))
	case domain.OperationCopy:
		return single(p.transfer(payload, false))
	case domain.OperationMove:
		return single(p.transfer(payload, true))
	case domain.OperationDelete:
		return single(p.delete(payload))
	default:
		return nil, fmt.Errorf("operation '%s': %w", operation, domain.ErrUnsupportedOperation)
	}
}

func single(result domain.Result, err error) (domain.ResultEntry, error) {
	if err != nil {
		return nil, err
	}
	return domain.ResultEntry{result}, nil
}

func (p *FileProcessor) allowed(action string) error {
	if !p.permissions[action] {
		return fmt.Errorf("action '%s': %w", action, domain.ErrPermissionDenied)
	}
	return nil
}

// checkIdentifier проверяет длину пути и допустимые символы в последнем сегменте.
func (p *FileProcessor) checkIdentifier(identifier string) error {
	if len(identifier) > p.cfg.File.MaxNameLength {
		return fmt.Errorf("path '%s' too long (%d > %d): %w",
			identifier, len(identifier), p.cfg.File.MaxNameLength, domain.ErrPathTooLong)
	}
	base := path.Base(strings.TrimSuffix(identifier, "/"))
	if base != domain.PathRoot && base != domain.PathCurrent && !p.validName.MatchString(base) {
		return fmt.Errorf("base name '%s' is invalid: %w", base, domain.ErrInvalidName)
	}
	return nil
}

// cleanName готовит имя нового файла или директории.
func (p *FileProcessor) cleanName(name string) (string, error) {
	clean := p.resources.SanitizeFileName(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if clean == domain.PathEmpty || clean == domain.PathCurrent || strings.HasPrefix(clean, domain.PathTraversalPrefix) {
		return "", fmt.Errorf("name '%s': %w", name, domain.ErrInvalidName)
	}
	return clean, nil
}

func (p *FileProcessor) exists(identifier string) bool {
	_, err := p.storage.Stat(identifier)
	return err == nil
}

// placement - идентификатор для записи. replace означает, что по нему уже лежит
// объект, который нужно заменить.
type placement struct {
	identifier string
	replace    bool
	isDir      bool
}

// resolveTarget подбирает идентификатор для записи name в folder с учетом режима конфликтов.
// Существующий объект здесь не удаляется, это делает place после успешной записи.
func (p *FileProcessor) resolveTarget(folder domain.Folder, name string, mode domain.ConflictMode, isDir bool) (placement, error) {
	identifier := folder.Identifier + name
	if isDir {
		identifier = folderIdentifier(identifier)
	}
	if err := p.checkIdentifier(identifier); err != nil {
		return placement{}, err
	}
	if !p.exists(identifier) {
		return placement{identifier: identifier, isDir: isDir}, nil
	}

	switch mode {
	case domain.ConflictModeReplace:
		return placement{identifier: identifier, replace: true, isDir: isDir}, nil
	case domain.ConflictModeRename:
		return placement{identifier: p.uniqueIdentifier(folder, name, isDir), isDir: isDir}, nil
	default:
		return placement{}, fmt.Errorf("'%s': %w", domain.CombineIdentifier(folder.Storage, identifier), domain.ErrFileExists)
	}
}

// place выполняет write для target. При замене write пишет во временный путь рядом
// с целью, и старый объект удаляется только после успешной записи.
// discard откатывает временный путь, если старый объект удалить не удалось.
func (p *FileProcessor) place(target placement, write, discard func(identifier string) error) error {
	if !target.replace {
		return write(target.identifier)
	}

	tmp := path.Join(path.Dir(strings.TrimSuffix(target.identifier, "/")), replaceTempPrefix+uuid.NewString()[:8])
	if target.isDir {
		tmp = folderIdentifier(tmp)
	}

	if err := write(tmp); err != nil {
		if removeErr := p.storage.Remove(tmp); removeErr != nil {
			logrus.Warnf("Failed to clean up %s: %v", tmp, removeErr)
		}
		return err
	}
	if err := p.storage.Remove(target.identifier); err != nil {
		if discardErr := discard(tmp); discardErr != nil {
			logrus.Errorf("Failed to roll back %s: %v", tmp, discardErr)
		}
		return fmt.Errorf("could not replace '%s': %w", target.identifier, err)
	}
	if err := p.storage.Move(tmp, target.identifier); err != nil {
		logrus.Errorf("Replacement for %s left at %s: %v", target.identifier, tmp, err)
		return fmt.Errorf("could not replace '%s': %w", target.identifier, err)
	}
	return nil
}

// uniqueIdentifier ищет свободное имя вида name_01.ext, после 99 попыток добавляет случайный суффикс.
func (p *FileProcessor) uniqueIdentifier(folder domain.Folder, name string, isDir bool) string {
	ext := path.Ext(name)
	if isDir {
		ext = ""
	}
	base := strings.TrimSuffix(name, ext)

	build := func(suffix string) string {
		identifier := folder.Identifier + base + "_" + suffix + ext
		if isDir {
			identifier = folderIdentifier(identifier)
		}
		return identifier
	}

	for i := 1; i <= maxUniqueSuffix; i++ {
		candidate := build(fmt.Sprintf("%02d", i))
		if !p.exists(candidate) {
			return candidate
		}
	}
	return build(uuid.NewString()[:8])
}

func (p *FileProcessor) resolveFolder(combined string) (domain.Folder, error) {
	handle, err := p.resources.RetrieveFolder(combined)
	if err != nil {
		return domain.Folder{}, err
	}
	return handle.Folder(), nil
}

func (p *FileProcessor) upload(payload domain.Payload) (domain.ResultEntry, error) {
	if err := p.allowed(PermissionAddFile); err != nil {
		return nil, err
	}
	folder, err := p.resolveFolder(payload[domain.FieldTarget])
	if err != nil {
		return nil, err
	}

	files := p.uploads[uploadFieldPrefix+payload[domain.FieldData]]
	if len(files) == 0 {
		return nil, fmt.Errorf("no file uploaded for slot '%s': %w", payload[domain.FieldData], domain.ErrFileNotFound)
	}

	// Ошибка одного файла не отменяет уже сохраненные: на его месте false.
	entry := make(domain.ResultEntry, 0, len(files))
	var errs []error
	for _, uploaded := range files {
		file, uploadErr := p.storeUpload(folder, uploaded, p.mode)
		if uploadErr != nil {
			errs = append(errs, uploadErr)
			entry = append(entry, domain.FlagResult(false))
			continue
		}
		entry = append(entry, domain.FileResult(file))
	}
	return entry, errors.Join(errs...)
}

func (p *FileProcessor) checkUploadSize(uploaded domain.UploadedFile) error {
	if uploaded.Size > p.cfg.Server.MaxUploadSize {
		return fmt.Errorf("file size %d exceeds maximum %d: %w",
			uploaded.Size, p.cfg.Server.MaxUploadSize, domain.ErrUnsupportedOperation)
	}
	return nil
}

func (p *FileProcessor) storeUpload(folder domain.Folder, uploaded domain.UploadedFile, mode domain.ConflictMode) (domain.File, error) {
	if err := p.checkUploadSize(uploaded); err != nil {
		return domain.File{}, err
	}
	name, err := p.cleanName(uploaded.Filename)
	if err != nil {
		return domain.File{}, err
	}
	target, err := p.resolveTarget(folder, name, mode, false)
	if err != nil {
		return domain.File{}, err
	}
	if writeErr := p.placeUpload(target, uploaded); writeErr != nil {
		return domain.File{}, writeErr
	}
	return p.resources.FileAt(target.identifier)
}

func (p *FileProcessor) placeUpload(target placement, uploaded domain.UploadedFile) error {
	return p.place(target, func(identifier string) error {
		return p.writeUpload(identifier, uploaded)
	}, p.storage.Remove)
}

func (p *FileProcessor) writeUpload(identifier string, uploaded domain.UploadedFile) error {
	src, err := os.Open(uploaded.TempPath)
	if err != nil {
		return fmt.Errorf("failed to open upload '%s': %w", uploaded.Filename, err)
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil {
			logrus.Warnf("Failed to close upload %s: %v", uploaded.TempPath, closeErr)
		}
	}()

	if writeErr := p.storage.WriteFile(identifier, src); writeErr != nil {
		return fmt.Errorf("failed to upload file to '%s': %w", identifier, writeErr)
	}
	return nil
}

func (p *FileProcessor) replace(payload domain.Payload) (domain.Result, error) {
	if err := p.allowed(PermissionWriteFile); err != nil {
		return domain.Result{}, err
	}
	existing, err := p.resources.RetrieveFileOrFolder(payload[domain.FieldUID])
	if err != nil {
		return domain.Result{}, err
	}
	if existing.Kind() != domain.ResultKindFile {
		return domain.Result{}, fmt.Errorf("replace '%s': %w", payload[domain.FieldUID], domain.ErrUnsupportedOperation)
	}

	files := p.uploads[uploadFieldPrefix+payload[domain.FieldData]]
	if len(files) == 0 {
		return domain.Result{}, fmt.Errorf("no file uploaded for slot '%s': %w", payload[domain.FieldData], domain.ErrFileNotFound)
	}

	// Старый файл удаляется только после того, как новый записан.
	old := existing.File()
	uploaded := files[0]
	if sizeErr := p.checkUploadSize(uploaded); sizeErr != nil {
		return domain.Result{}, sizeErr
	}

	if payload[domain.FieldKeepFilename] == "1" {
		if writeErr := p.placeUpload(placement{identifier: old.Identifier, replace: true}, uploaded); writeErr != nil {
			return domain.Result{}, writeErr
		}
		file, fileErr := p.resources.FileAt(old.Identifier)
		return domain.FileResult(file), fileErr
	}

	name, err := p.cleanName(uploaded.Filename)
	if err != nil {
		return domain.Result{}, err
	}
	parent := p.resources.folderAt(old.Storage, path.Dir(old.Identifier))
	if parent.Identifier+name == old.Identifier {
		file, storeErr := p.storeUpload(parent, uploaded, domain.ConflictModeReplace)
		return domain.FileResult(file), storeErr
	}

	file, err := p.storeUpload(parent, uploaded, domain.ConflictModeRename)
	if err != nil {
		return domain.Result{}, err
	}
	if removeErr := p.storage.Remove(old.Identifier); removeErr != nil {
		return domain.Result{}, fmt.Errorf("could not remove '%s': %w", old.Identifier, removeErr)
	}
	return domain.FileResult(file), nil
}

func (p *FileProcessor) newFolder(payload domain.Payload) (domain.Result, error) {
	if err := p.allowed(PermissionAddFolder); err != nil {
		return domain.Result{}, err
	}
	parent, err := p.resolveFolder(payload[domain.FieldTarget])
	if err != nil {
		return domain.Result{}, err
	}
	name, err := p.cleanName(payload[domain.FieldData])
	if err != nil {
		return domain.Result{}, err
	}
	target, err := p.resolveTarget(parent, name, domain.ConflictModeCancel, true)
	if err != nil {
		return domain.Result{}, err
	}
	if createErr := p.storage.CreateDirectory(target.identifier); createErr != nil {
		return domain.Result{}, fmt.Errorf("could not create folder '%s': %w", target.identifier, createErr)
	}
	return domain.FolderResult(p.resources.folderAt(parent.Storage, target.identifier)), nil
}

func (p *FileProcessor) newFile(payload domain.Payload) (domain.Result, error) {
	if err := p.allowed(PermissionAddFile); err != nil {
		return domain.Result{}, err
	}
	parent, err := p.resolveFolder(payload[domain.FieldTarget])
	if err != nil {
		return domain.Result{}, err
	}
	name, err := p.cleanName(payload[domain.FieldData])
	if err != nil {
		return domain.Result{}, err
	}
	target, err := p.resolveTarget(parent, name, domain.ConflictModeCancel, false)
	if err != nil {
		return domain.Result{}, err
	}
	if writeErr := p.storage.WriteFile(target.identifier, strings.NewReader("")); writeErr != nil {
		return domain.Result{}, fmt.Errorf("could not create file '%s': %w", target.identifier, writeErr)
	}
	file, err := p.resources.FileAt(target.identifier)
	return domain.FileResult(file), err
}

func (p *FileProcessor) editFile(payload domain.Payload) (domain.Result, error) {
	if err := p.allowed(PermissionWriteFile); err != nil {
		return domain.Result{}, err
	}
	target, err := p.resources.RetrieveFileOrFolder(payload[domain.FieldTarget])
	if err != nil {
		return domain.Result{}, err
	}
	if target.Kind() != domain.ResultKindFile {
		return domain.Result{}, fmt.Errorf("edit '%s': %w", payload[domain.FieldTarget], domain.ErrUnsupportedOperation)
	}
	if writeErr := p.storage.WriteFile(target.File().Identifier, strings.NewReader(payload[domain.FieldData])); writeErr != nil {
		return domain.Result{}, fmt.Errorf("could not write '%s': %w", target.File().Identifier, writeErr)
	}
	return domain.FlagResult(true), nil
}

func (p *FileProcessor) rename(payload domain.Payload) (domain.Result, error) {
	source, err := p.resources.RetrieveFileOrFolder(payload[domain.FieldData])
	if err != nil {
		return domain.Result{}, err
	}
	name, err := p.cleanName(payload[domain.FieldTarget])
	if err != nil {
		return domain.Result{}, err
	}

	isDir := source.Kind() == domain.ResultKindFolder
	permission := PermissionRenameFile
	oldIdentifier := source.File().Identifier
	storageUID := source.File().Storage
	if isDir {
		permission = PermissionRenameFolder
		oldIdentifier = source.Folder().Identifier
		storageUID = source.Folder().Storage
	}
	if permErr := p.allowed(permission); permErr != nil {
		return domain.Result{}, permErr
	}
	if oldIdentifier == domain.PathRoot {
		return domain.Result{}, fmt.Errorf("cannot rename storage root: %w", domain.ErrUnsupportedOperation)
	}

	parent := p.resources.folderAt(storageUID, path.Dir(strings.TrimSuffix(oldIdentifier, "/")))
	dst, err := p.resolveTarget(parent, name, p.mode, isDir)
	if err != nil {
		return domain.Result{}, err
	}
	// Замена объекта самим собой ничего не делает.
	if dst.replace && dst.identifier == oldIdentifier {
		return p.resultAt(storageUID, oldIdentifier, isDir)
	}
	if moveErr := p.place(dst, p.moveFrom(oldIdentifier), p.moveBack(oldIdentifier)); moveErr != nil {
		return domain.Result{}, fmt.Errorf("could not rename '%s' to '%s': %w", oldIdentifier, dst.identifier, moveErr)
	}
	return p.resultAt(storageUID, dst.identifier, isDir)
}

// transfer копирует или перемещает файл/директорию в целевую директорию.
func (p *FileProcessor) transfer(payload domain.Payload, move bool) (domain.Result, error) {
	source, err := p.resources.RetrieveFileOrFolder(payload[domain.FieldData])
	if err != nil {
		return domain.Result{}, err
	}
	target, err := p.resolveFolder(payload[domain.FieldTarget])
	if err != nil {
		return domain.Result{}, err
	}

	isDir := source.Kind() == domain.ResultKindFolder
	var permission, srcIdentifier, name string
	switch {
	case isDir && move:
		permission, srcIdentifier, name = PermissionMoveFolder, source.Folder().Identifier, source.Folder().Name
	case isDir:
		permission, srcIdentifier, name = PermissionCopyFolder, source.Folder().Identifier, source.Folder().Name
	case move:
		permission, srcIdentifier, name = PermissionMoveFile, source.File().Identifier, source.File().Name
	default:
		permission, srcIdentifier, name = PermissionCopyFile, source.File().Identifier, source.File().Name
	}
	if permErr := p.allowed(permission); permErr != nil {
		return domain.Result{}, permErr
	}
	if isDir && strings.HasPrefix(target.Identifier, srcIdentifier) {
		return domain.Result{}, fmt.Errorf("cannot put '%s' into itself: %w", srcIdentifier, domain.ErrUnsupportedOperation)
	}

	mode := p.mode
	if alt := payload[domain.FieldAltName]; alt != "" && alt != "0" {
		mode = domain.ConflictModeRename
	}
	dst, err := p.resolveTarget(target, name, mode, isDir)
	if err != nil {
		return domain.Result{}, err
	}
	if dst.replace && dst.identifier == srcIdentifier {
		if move {
			return p.resultAt(target.Storage, srcIdentifier, isDir)
		}
		return domain.Result{}, fmt.Errorf("cannot replace '%s' with its own copy: %w", srcIdentifier, domain.ErrUnsupportedOperation)
	}

	if move {
		err = p.place(dst, p.moveFrom(srcIdentifier), p.moveBack(srcIdentifier))
	} else {
		err = p.place(dst, func(identifier string) error {
			return p.storage.Copy(srcIdentifier, identifier)
		}, p.storage.Remove)
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("could not transfer '%s' to '%s': %w", srcIdentifier, dst.identifier, err)
	}
	return p.resultAt(target.Storage, dst.identifier, isDir)
}

func (p *FileProcessor) moveFrom(src string) func(identifier string) error {
	return func(identifier string) error {
		return p.storage.Move(src, identifier)
	}
}

func (p *FileProcessor) moveBack(src string) func(identifier string) error {
	return func(identifier string) error {
		return p.storage.Move(identifier, src)
	}
}

func (p *FileProcessor) delete(payload domain.Payload) (domain.Result, error) {
	source, err := p.resources.RetrieveFileOrFolder(payload[domain.FieldData])
	if err != nil {
		return domain.Result{}, err
	}

	identifier := source.File().Identifier
	if source.Kind() == domain.ResultKindFolder {
		identifier = source.Folder().Identifier
		if identifier == domain.PathRoot {
			return domain.Result{}, fmt.Errorf("cannot delete storage root: %w", domain.ErrUnsupportedOperation)
		}
		if permErr := p.allowed(PermissionDeleteFolder); permErr != nil {
			return domain.Result{}, permErr
		}
		entries, readErr := p.storage.ReadDirectory(identifier)
		if readErr != nil {
			return domain.Result{}, fmt.Errorf("could not read folder '%s': %w", identifier, readErr)
		}
		if len(entries) > 0 {
			if permErr := p.allowed(PermissionRecursiveDelete); permErr != nil {
				return domain.Result{}, fmt.Errorf("folder '%s' is not empty: %w", identifier, permErr)
			}
		}
	} else if permErr := p.allowed(PermissionDeleteFile); permErr != nil {
		return domain.Result{}, permErr
	}

	if removeErr := p.storage.Remove(identifier); removeErr != nil {
		return domain.Result{}, fmt.Errorf("could not delete file/folder '%s': %w", identifier, removeErr)
	}
	return domain.FlagResult(true), nil
}

func (p *FileProcessor) resultAt(storageUID int, identifier string, isDir bool) (domain.Result, error) {
	if isDir {
		return domain.FolderResult(p.resources.folderAt(storageUID, identifier)), nil
	}
	file, err := p.resources.FileAt(identifier)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.FileResult(file), nil
}
