package localstorage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// LocalStorageService - драйвер хранилища поверх локальной директории.
// Все пути относительные к basePath.
type LocalStorageService struct {
	basePath string
	dirPerm  os.FileMode
}

func NewLocalStorageService(basePath string, dirPerm os.FileMode) *LocalStorageService {
	return &LocalStorageService{
		basePath: basePath,
		dirPerm:  dirPerm,
	}
}

func (s *LocalStorageService) GetAbsolutePath(relPath string) string {
	return filepath.Join(s.basePath, relPath)
}

func (s *LocalStorageService) ReadDirectory(relPath string) ([]os.FileInfo, error) {
	fullPath := s.GetAbsolutePath(relPath)
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	files := make([]os.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, infoErr := e.Info()
		if infoErr != nil {
			// пропуск файл, например, с битыми симлинками.
			logrus.Warnf("Failed to get info for %s: %v", e.Name(), infoErr)
			continue
		}
		files = append(files, info)
	}

	return files, nil
}

func (s *LocalStorageService) Stat(relPath string) (os.FileInfo, error) {
	return os.Stat(s.GetAbsolutePath(relPath))
}

// WriteFile записывает файл в хранилище, создавая родительские директории.
func (s *LocalStorageService) WriteFile(relPath string, file io.Reader) error {
	fullPath := s.GetAbsolutePath(relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), s.dirPerm); err != nil {
		return err
	}
	return s.writeAbs(fullPath, file)
}

func (s *LocalStorageService) writeAbs(fullPath string, file io.Reader) error {
	out, err := os.Create(fullPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			logrus.Warnf("Failed to close file %s: %v", fullPath, closeErr)
		}
	}()

	_, err = io.Copy(out, file)
	return err
}

func (s *LocalStorageService) Remove(relPath string) error {
	return os.RemoveAll(s.GetAbsolutePath(relPath))
}

// Move переименовывает файл или директорий внутри базового хранилища.
// пустой путь отклоняется, чтобы избежать случайную потерю данных.
func (s *LocalStorageService) Move(oldRel, newRel string) error {
	if newRel == "" {
		return os.ErrInvalid
	}
	return os.Rename(s.GetAbsolutePath(oldRel), s.GetAbsolutePath(newRel))
}

// Copy копирует файл или директорию целиком. Существующий файл назначения перезаписывается.
func (s *LocalStorageService) Copy(srcRel, dstRel string) error {
	if dstRel == "" {
		return os.ErrInvalid
	}
	src := s.GetAbsolutePath(srcRel)
	dst := s.GetAbsolutePath(dstRel)

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return s.copyFile(src, dst)
	}

	return filepath.Walk(src, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(src, path)
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dst, rel)
		if fi.IsDir() {
			return os.MkdirAll(target, s.dirPerm)
		}
		return s.copyFile(path, target)
	})
}

func (s *LocalStorageService) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := in.Close(); closeErr != nil {
			logrus.Warnf("Failed to close file %s: %v", src, closeErr)
		}
	}()

	if mkErr := os.MkdirAll(filepath.Dir(dst), s.dirPerm); mkErr != nil {
		return mkErr
	}
	return s.writeAbs(dst, in)
}

func (s *LocalStorageService) CreateDirectory(relPath string) error {
	return os.MkdirAll(s.GetAbsolutePath(relPath), s.dirPerm)
}
