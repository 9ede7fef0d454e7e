package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfig = `
server:
  port: 8080
  max_upload_size: 1024
storage:
  uid: 1
  base_path: ./storage
file:
  max_name_length: 255
  dir_permissions: 0755
  valid_name_regex: '^[\w\-. ]+$'
routes:
  process: /file/commit
  process_ajax: /ajax/file/process
  file_exists: /ajax/file/exists
  file_edit: /file/edit
clipboard:
  path: ./var/clipboard.yaml
preview:
  processed_path: ./var/processed
  public_prefix: /_processed_/
  width: 64
  height: 64
gfx:
  image_file_ext: [jpg, png]
permissions:
  addFile: true
  deleteFile: false
`

func TestLoadConfigWithError(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

		cfg, err := LoadConfigWithError(path)
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.True(t, filepath.IsAbs(cfg.Storage.BasePath))
		assert.True(t, filepath.IsAbs(cfg.Clipboard.Path))
		assert.Equal(t, os.FileMode(0o755), cfg.File.DirPermissions)
		assert.Equal(t, []string{"jpg", "png"}, cfg.GFX.ImageFileExt)
		assert.Equal(t, "2006-01-02 15:04", cfg.Display.DateFormat)
		assert.True(t, cfg.Permissions["addFile"])
		assert.False(t, cfg.Permissions["deleteFile"])
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigWithError(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("broken yaml", func(t *testing.T) {
		_, err := ParseConfig([]byte("server: [1, 2"))
		assert.Error(t, err)
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"valid", func(cfg *Config) {}, ""},
		{"bad port", func(cfg *Config) { cfg.Server.Port = 70000 }, "server.port"},
		{"no storage uid", func(cfg *Config) { cfg.Storage.UID = 0 }, "storage.uid"},
		{"no edit route", func(cfg *Config) { cfg.Routes.FileEdit = "" }, "routes.file_edit"},
		{"zero preview width", func(cfg *Config) { cfg.Preview.Width = 0 }, "preview.width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(validConfig))
			require.NoError(t, err)

			tt.mutate(cfg)
			err = validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
