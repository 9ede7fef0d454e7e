package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port          int   `yaml:"port"`
	MaxUploadSize int64 `yaml:"max_upload_size"`
}

type StorageConfig struct {
	UID      int    `yaml:"uid"`
	BasePath string `yaml:"base_path"`
	// PublicURL - префикс, по которому файлы хранилища отдаются наружу.
	PublicURL string `yaml:"public_url"`
}

type FileConfig struct {
	MaxNameLength  int         `yaml:"max_name_length"`
	DirPermissions os.FileMode `yaml:"dir_permissions"`
	ValidNameRegex string      `yaml:"valid_name_regex"`
	LowercaseNames bool        `yaml:"lowercase_names"`
}

type RoutesConfig struct {
	Process     string `yaml:"process"`
	ProcessAjax string `yaml:"process_ajax"`
	FileExists  string `yaml:"file_exists"`
	FileEdit    string `yaml:"file_edit"`
	Clipboard   string `yaml:"clipboard"`
	Signals     string `yaml:"signals"`
	Files       string `yaml:"files"`
}

type ClipboardConfig struct {
	Path string `yaml:"path"`
}

type PreviewConfig struct {
	ProcessedPath string `yaml:"processed_path"`
	PublicPrefix  string `yaml:"public_prefix"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
}

type GFXConfig struct {
	// ImageFileExt - расширения, для которых строится превью.
	ImageFileExt []string `yaml:"image_file_ext"`
}

type DisplayConfig struct {
	DateFormat string `yaml:"date_format"`
}

type Messages struct {
	InternalError string `yaml:"internal_error"`
	ForbiddenFile string `yaml:"forbidden_file"`
	NotFound      string `yaml:"not_found"`
	BadRequest    string `yaml:"bad_request"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	File        FileConfig        `yaml:"file"`
	Routes      RoutesConfig      `yaml:"routes"`
	Clipboard   ClipboardConfig   `yaml:"clipboard"`
	Preview     PreviewConfig     `yaml:"preview"`
	GFX         GFXConfig         `yaml:"gfx"`
	Display     DisplayConfig     `yaml:"display"`
	Icons       map[string]string `yaml:"icons"`
	Permissions map[string]bool   `yaml:"permissions"`
	Messages    Messages          `yaml:"messages"`
}

func LoadConfig(filename string) *Config {
	cfg, err := LoadConfigWithError(filename)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func LoadConfigWithError(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig разбирает yaml и приводит пути к абсолютным.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if unmarshalErr := yaml.Unmarshal(data, &cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	// делаю абсолютные пути относительными для стабильности, независимо от рабочего каталога.
	paths := map[string]*string{
		"storage base path":      &cfg.Storage.BasePath,
		"clipboard path":         &cfg.Clipboard.Path,
		"preview processed path": &cfg.Preview.ProcessedPath,
	}

	for name, path := range paths {
		if *path == "" {
			continue
		}
		absPath, absErr := filepath.Abs(*path)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", name, absErr)
		}
		*path = absPath
	}

	if cfg.Display.DateFormat == "" {
		cfg.Display.DateFormat = "2006-01-02 15:04"
	}

	// валидация конфига
	if validationErr := validateConfig(&cfg); validationErr != nil {
		return nil, validationErr
	}

	return &cfg, nil
}

type validationError struct {
	field string
	msg   string
}

func (e validationError) Error() string {
	return fmt.Sprintf("%s: %s", e.field, e.msg)
}

func validateConfig(cfg *Config) error {
	type validator func() error

	validators := []validator{
		func() error { return validateRequiredString("storage.base_path", cfg.Storage.BasePath) },
		func() error { return validateRequiredString("clipboard.path", cfg.Clipboard.Path) },
		func() error { return validateRequiredString("preview.processed_path", cfg.Preview.ProcessedPath) },
		func() error { return validateRequiredString("preview.public_prefix", cfg.Preview.PublicPrefix) },
		func() error { return validateRequiredString("file.valid_name_regex", cfg.File.ValidNameRegex) },
		func() error { return validateRequiredString("routes.process", cfg.Routes.Process) },
		func() error { return validateRequiredString("routes.process_ajax", cfg.Routes.ProcessAjax) },
		func() error { return validateRequiredString("routes.file_exists", cfg.Routes.FileExists) },
		func() error { return validateRequiredString("routes.file_edit", cfg.Routes.FileEdit) },
		func() error { return validatePort(cfg.Server.Port) },
		func() error { return validatePositiveInt("storage.uid", cfg.Storage.UID) },
		func() error { return validatePositiveInt64("server.max_upload_size", cfg.Server.MaxUploadSize) },
		func() error { return validatePositiveInt("file.max_name_length", cfg.File.MaxNameLength) },
		func() error { return validatePositiveInt("preview.width", cfg.Preview.Width) },
		func() error { return validatePositiveInt("preview.height", cfg.Preview.Height) },
	}

	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}

	return nil
}

func validateRequiredString(field, value string) error {
	if value == "" {
		return validationError{field: field, msg: "is required"}
	}
	return nil
}

func validatePositiveInt(field string, value int) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePositiveInt64(field string, value int64) error {
	if value <= 0 {
		return validationError{field: field, msg: "must be greater than 0"}
	}
	return nil
}

func validatePort(port int) error {
	if port <= 0 || port > 65535 {
		return validationError{
			field: "server.port",
			msg:   fmt.Sprintf("must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}
