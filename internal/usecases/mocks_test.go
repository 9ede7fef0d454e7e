package usecases

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"file-controller/internal/adapters/localstorage"
	"file-controller/internal/config"
	"file-controller/internal/domain"
)

// mockProcessor записывает порядок вызовов протокола процессора.
type mockProcessor struct {
	calls    []string
	mode     domain.ConflictMode
	batch    domain.CommandBatch
	results  domain.ResultSet
	messages []string
}

func (m *mockProcessor) ConfigurePermissions() {
	m.calls = append(m.calls, "permissions")
}

func (m *mockProcessor) SetConflictMode(mode domain.ConflictMode) {
	m.calls = append(m.calls, "conflict")
	m.mode = mode
}

func (m *mockProcessor) Submit(batch domain.CommandBatch) domain.ResultSet {
	m.calls = append(m.calls, "submit")
	m.batch = batch
	return m.results
}

func (m *mockProcessor) ErrorMessages() []string {
	return m.messages
}

type mockClipboard struct {
	expandPasteFunc  func(pad, target string) (domain.CommandBatch, error)
	expandDeleteFunc func(pad string) (domain.CommandBatch, error)
	calls            int
}

func (m *mockClipboard) ExpandPaste(pad, target string) (domain.CommandBatch, error) {
	m.calls++
	if m.expandPasteFunc != nil {
		return m.expandPasteFunc(pad, target)
	}
	return domain.CommandBatch{}, nil
}

func (m *mockClipboard) ExpandDelete(pad string) (domain.CommandBatch, error) {
	m.calls++
	if m.expandDeleteFunc != nil {
		return m.expandDeleteFunc(pad)
	}
	return domain.CommandBatch{}, nil
}

type mockIcons struct{}

func (mockIcons) IconForExtension(ext string) string {
	return "<icon:" + ext + ">"
}

type mockPreviews struct {
	previewFunc func(file domain.File) (string, error)
	calls       int
}

func (m *mockPreviews) Preview(file domain.File) (string, error) {
	m.calls++
	if m.previewFunc != nil {
		return m.previewFunc(file)
	}
	return "/_processed_/" + file.Name, nil
}

func testConfig(basePath string) *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{MaxUploadSize: 1024 * 1024},
		Storage: config.StorageConfig{UID: 1, BasePath: basePath, PublicURL: "/files"},
		File: config.FileConfig{
			MaxNameLength:  255,
			DirPermissions: 0o755,
			ValidNameRegex: `^[\p{L}\p{N}_\-. ]+$`,
		},
		GFX:     config.GFXConfig{ImageFileExt: []string{"jpg", "png"}},
		Display: config.DisplayConfig{DateFormat: "2006-01-02 15:04"},
		Permissions: map[string]bool{
			PermissionAddFile:      true,
			PermissionWriteFile:    true,
			PermissionCopyFile:     true,
			PermissionMoveFile:     true,
			PermissionRenameFile:   true,
			PermissionDeleteFile:   true,
			PermissionAddFolder:    true,
			PermissionCopyFolder:   true,
			PermissionMoveFolder:   true,
			PermissionRenameFolder: true,
			PermissionDeleteFolder: true,
		},
	}
}

// newTestStorage поднимает хранилище во временной директории.
func newTestStorage(t *testing.T) (*localstorage.LocalStorageService, *config.Config) {
	t.Helper()
	base := t.TempDir()
	cfg := testConfig(base)
	return localstorage.NewLocalStorageService(base, cfg.File.DirPermissions), cfg
}

func writeFile(t *testing.T, cfg *config.Config, rel, content string) {
	t.Helper()
	full := filepath.Join(cfg.Storage.BasePath, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	mod := time.Date(2024, 5, 17, 10, 30, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(full, mod, mod))
}

func readFile(t *testing.T, cfg *config.Config, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.Storage.BasePath, rel))
	require.NoError(t, err)
	return string(data)
}

func writeUpload(t *testing.T, name, content string) domain.UploadedFile {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "upload")
	require.NoError(t, os.WriteFile(tmp, []byte(content), 0o644))
	return domain.UploadedFile{Filename: name, Size: int64(len(content)), TempPath: tmp}
}
