package preview

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // регистрирует декодер gif
	_ "image/jpeg" // регистрирует декодер jpeg
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"file-controller/internal/config"
	"file-controller/internal/domain"
)

// Processor строит уменьшенные копии изображений в processed_path.
type Processor struct {
	storage      domain.FileStorage
	outputPath   string
	publicPrefix string
	width        int
	height       int
	dirPerm      os.FileMode
}

func NewProcessor(storage domain.FileStorage, cfg *config.Config) *Processor {
	return &Processor{
		storage:      storage,
		outputPath:   cfg.Preview.ProcessedPath,
		publicPrefix: cfg.Preview.PublicPrefix,
		width:        cfg.Preview.Width,
		height:       cfg.Preview.Height,
		dirPerm:      cfg.File.DirPermissions,
	}
}

// Preview возвращает публичный URL превью. Файл, который не удалось
// декодировать как изображение, дает "" без ошибки.
func (p *Processor) Preview(file domain.File) (string, error) {
	name := p.fileName(file)
	target := filepath.Join(p.outputPath, name)

	if _, err := os.Stat(target); err == nil {
		return p.publicURL(name), nil
	}

	src, err := os.Open(p.storage.GetAbsolutePath(file.Identifier))
	if err != nil {
		return "", fmt.Errorf("failed to open '%s': %w", file.Identifier, err)
	}
	defer src.Close()

	img, _, err := image.Decode(src)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", nil
		}
		logrus.Warnf("Failed to decode image %s: %v", file.Identifier, err)
		return "", nil
	}

	if mkErr := os.MkdirAll(p.outputPath, p.dirPerm); mkErr != nil {
		return "", fmt.Errorf("failed to create preview directory: %w", mkErr)
	}

	if writeErr := p.write(target, scale(img, p.width, p.height)); writeErr != nil {
		return "", writeErr
	}
	return p.publicURL(name), nil
}

// PathFor отдает путь к готовому превью по имени из URL.
func (p *Processor) PathFor(name string) (string, bool) {
	clean := filepath.Base(name)
	if clean != name || filepath.Ext(clean) != ".png" {
		return "", false
	}
	return filepath.Join(p.outputPath, clean), true
}

func (p *Processor) write(target string, img image.Image) error {
	tmp, err := os.CreateTemp(p.outputPath, ".preview-*")
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	defer os.Remove(tmp.Name())

	if encErr := png.Encode(tmp, img); encErr != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode preview: %w", encErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		return fmt.Errorf("failed to write preview: %w", closeErr)
	}
	return os.Rename(tmp.Name(), target)
}

// fileName зависит от файла, его времени изменения и размеров превью,
// поэтому новая версия файла получает новое превью.
func (p *Processor) fileName(file domain.File) string {
	key := strings.Join([]string{
		file.CombinedIdentifier(),
		strconv.FormatInt(file.ModificationTime.UnixNano(), 10),
		strconv.Itoa(p.width) + "x" + strconv.Itoa(p.height),
	}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String() + ".png"
}

func (p *Processor) publicURL(name string) string {
	return strings.TrimRight(p.publicPrefix, "/") + "/" + name
}

// scale уменьшает изображение (ближайший сосед) с сохранением пропорций.
// Изображения меньше рамки не увеличиваются.
func scale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || (w <= maxW && h <= maxH) {
		return src
	}

	ratio := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	dw := max(1, int(float64(w)*ratio))
	dh := max(1, int(float64(h)*ratio))

	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < dh; y++ {
		sy := b.Min.Y + y*h/dh
		for x := 0; x < dw; x++ {
			sx := b.Min.X + x*w/dw
			dst.Set(x, y, color.NRGBAModel.Convert(src.At(sx, sy)))
		}
	}
	return dst
}
