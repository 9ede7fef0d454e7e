package usecases

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"file-controller/internal/domain"
)

// Outcome - результат выполнения пакета.
type Outcome struct {
	Results domain.ResultSet
	Errors  []string
}

// FileController связывает разбор запроса, буфер обмена, процессор и нормализацию результатов.
type FileController struct {
	newProcessor domain.ProcessorFactory
	clipboard    domain.Clipboard
	resolver     domain.ResourceResolver
	normalizer   *ResultNormalizer
}

func NewFileController(
	newProcessor domain.ProcessorFactory,
	clipboard domain.Clipboard,
	resolver domain.ResourceResolver,
	normalizer *ResultNormalizer,
) *FileController {
	return &FileController{
		newProcessor: newProcessor,
		clipboard:    clipboard,
		resolver:     resolver,
		normalizer:   normalizer,
	}
}

// Execute раскрывает буфер обмена и один раз передает пакет процессору. Повторов нет.
func (c *FileController) Execute(req CommandRequest, uploads domain.Uploads) (Outcome, error) {
	batch := req.Batch
	if req.Clipboard != nil {
		expanded, err := c.ExpandClipboard(*req.Clipboard, batch)
		if err != nil {
			return Outcome{}, err
		}
		batch = expanded
	}

	processor := c.newProcessor(uploads)
	processor.ConfigurePermissions()
	processor.SetConflictMode(req.ConflictMode)
	results := processor.Submit(batch)
	errs := processor.ErrorMessages()

	logrus.WithFields(logrus.Fields{
		"operations":    len(batch.Operations()),
		"elements":      batch.Len(),
		"conflict_mode": req.ConflictMode.String(),
		"errors":        len(errs),
	}).Info(LogBatchProcessed)

	return Outcome{Results: results, Errors: errs}, nil
}

// ExpandClipboard заменяет пакет командами из буфера обмена.
// Без paste и delete пакет возвращается без изменений.
func (c *FileController) ExpandClipboard(cmd ClipboardCommand, batch domain.CommandBatch) (domain.CommandBatch, error) {
	if cmd.Paste == "" && !cmd.Delete {
		return batch, nil
	}

	if cmd.Paste != "" {
		expanded, err := c.clipboard.ExpandPaste(cmd.Pad, cmd.Paste)
		if err != nil {
			return domain.CommandBatch{}, fmt.Errorf("failed to expand paste: %w", err)
		}
		batch = expanded
	}

	if cmd.Delete {
		expanded, err := c.clipboard.ExpandDelete(cmd.Pad)
		if err != nil {
			return domain.CommandBatch{}, fmt.Errorf("failed to expand delete: %w", err)
		}
		batch = expanded
	}

	return batch, nil
}

func (c *FileController) Flatten(results domain.ResultSet) (domain.FlatResult, error) {
	return c.normalizer.Flatten(results)
}

// FileExistsInFolder возвращает описание файла с таким (очищенным) именем или пустой список.
// Ошибка поиска директории не перехватывается.
func (c *FileController) FileExistsInFolder(target, fileName string) (any, error) {
	folder, err := c.resolver.RetrieveFolder(target)
	if err != nil {
		return nil, err
	}

	name := folder.SanitizeFileName(fileName)
	if !folder.HasFile(name) {
		return []any{}, nil
	}

	file, err := folder.GetFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", name, err)
	}
	return c.normalizer.FlattenFile(file), nil
}
