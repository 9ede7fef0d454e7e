package usecases

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"file-controller/internal/config"
	"file-controller/internal/domain"
)

// ResultNormalizer превращает результаты процессора в простые значения для ответа.
type ResultNormalizer struct {
	icons      domain.IconRenderer
	previews   domain.PreviewProcessor
	imageExt   map[string]struct{}
	dateFormat string
}

func NewResultNormalizer(icons domain.IconRenderer, previews domain.PreviewProcessor, cfg *config.Config) *ResultNormalizer {
	imageExt := make(map[string]struct{}, len(cfg.GFX.ImageFileExt))
	for _, ext := range cfg.GFX.ImageFileExt {
		imageExt[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &ResultNormalizer{
		icons:      icons,
		previews:   previews,
		imageExt:   imageExt,
		dateFormat: cfg.Display.DateFormat,
	}
}

// Flatten сохраняет порядок операций и элементов. Вложенные результаты одного элемента
// разворачиваются на один уровень.
func (n *ResultNormalizer) Flatten(results domain.ResultSet) (domain.FlatResult, error) {
	var flat domain.FlatResult
	for _, op := range results.Operations() {
		for _, entry := range op.Entries {
			for _, result := range entry {
				value, err := n.FlattenValue(result)
				if err != nil {
					return domain.FlatResult{}, fmt.Errorf("operation '%s': %w", op.Name, err)
				}
				flat.Append(op.Name, value)
			}
		}
	}
	return flat, nil
}

// FlattenValue: флаг как есть, директория - идентификатор, файл - набор свойств.
func (n *ResultNormalizer) FlattenValue(result domain.Result) (any, error) {
	switch result.Kind() {
	case domain.ResultKindFlag:
		return result.Flag(), nil
	case domain.ResultKindFolder:
		return result.Folder().Identifier, nil
	case domain.ResultKindFile:
		return n.FlattenFile(result.File()), nil
	default:
		return nil, fmt.Errorf("kind %d: %w", result.Kind(), domain.ErrUnknownResultKind)
	}
}

func (n *ResultNormalizer) FlattenFile(file domain.File) map[string]any {
	record := file.Properties()
	record["date"] = file.ModificationTime.Format(n.dateFormat)
	record["icon"] = n.icons.IconForExtension(file.Extension)
	record["thumbUrl"] = n.thumbURL(file)
	return record
}

func (n *ResultNormalizer) thumbURL(file domain.File) string {
	if _, ok := n.imageExt[strings.ToLower(file.Extension)]; !ok {
		return ""
	}
	publicURL, err := n.previews.Preview(file)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file": file.CombinedIdentifier(),
		}).Warnf("Preview failed: %v", err)
		return ""
	}
	return publicURL
}
