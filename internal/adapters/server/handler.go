package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"file-controller/internal/adapters/signal"
	"file-controller/internal/config"
	"file-controller/internal/domain"
	"file-controller/internal/usecases"
)

// Controller - сценарии, которые обслуживает Handler.
type Controller interface {
	Execute(req usecases.CommandRequest, uploads domain.Uploads) (usecases.Outcome, error)
	Flatten(results domain.ResultSet) (domain.FlatResult, error)
	FileExistsInFolder(target, fileName string) (any, error)
}

// ClipboardWriter сохраняет содержимое буфера обмена.
type ClipboardWriter interface {
	SetPad(id, mode string, items []string) error
}

// FileLocator отдает метаданные файла хранилища.
type FileLocator interface {
	FileAt(identifier string) (domain.File, error)
}

// PreviewLocator находит готовое превью по имени.
type PreviewLocator interface {
	PathFor(name string) (string, bool)
}

type Handler struct {
	controller    Controller
	clipboard     ClipboardWriter
	files         FileLocator
	storage       domain.FileStorage
	previews      PreviewLocator
	signals       domain.SignalSink
	routes        config.RoutesConfig
	previewPrefix string
	maxUploadSize int64
	messages      config.Messages
}

func NewHandler(
	controller Controller,
	clipboard ClipboardWriter,
	files FileLocator,
	storage domain.FileStorage,
	previews PreviewLocator,
	signals domain.SignalSink,
	cfg *config.Config,
) *Handler {
	return &Handler{
		controller:    controller,
		clipboard:     clipboard,
		files:         files,
		storage:       storage,
		previews:      previews,
		signals:       signals,
		routes:        cfg.Routes,
		previewPrefix: cfg.Preview.PublicPrefix,
		maxUploadSize: cfg.Server.MaxUploadSize,
		messages:      cfg.Messages,
	}
}

// Routes регистрирует маршруты контроллера. Пути берутся из config.yaml.
func (h *Handler) Routes(r chi.Router) {
	r.HandleFunc(h.routes.Process, h.Process)
	r.Post(h.routes.ProcessAjax, h.ProcessAjax)
	r.Get(h.routes.FileExists, h.FileExists)
	r.Post(h.routes.FileExists, h.FileExists)
	if h.routes.Clipboard != "" {
		r.Post(h.routes.Clipboard, h.Clipboard)
	}
	if h.routes.Files != "" {
		r.Get(wildcard(h.routes.Files), h.ServeFile)
	}
	r.Get(wildcard(h.previewPrefix), h.ServePreview)
}

func wildcard(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/*"
}

// Process выполняет пакет и отвечает редиректом 303.
// Ошибки отдельных команд в этом режиме не показываются.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	outcome, req, err := h.execute(w, r)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}

	redirect := req.Redirect
	if req.Edit {
		redirect = h.editRedirect(outcome.Results, redirect)
	}

	logrus.WithFields(logrus.Fields{
		"mode":     ModeRedirect,
		"redirect": redirect,
		"errors":   len(outcome.Errors),
	}).Info(LogCommandsProcessed)

	if redirect == "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set(HeaderLocation, absoluteURL(r, redirect))
	w.WriteHeader(http.StatusSeeOther)
}

// ProcessAjax выполняет пакет и отвечает JSON с плоскими результатами
// либо 500 с сообщениями об ошибках.
func (h *Handler) ProcessAjax(w http.ResponseWriter, r *http.Request) {
	outcome, _, err := h.execute(w, r)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}

	logrus.WithFields(logrus.Fields{
		"mode":   ModeAjax,
		"errors": len(outcome.Errors),
	}).Info(LogCommandsProcessed)

	if len(outcome.Errors) > 0 {
		w.Header().Set(HeaderContentType, ContentTypeHTML)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, ErrorTagOpen+strings.Join(outcome.Errors, ErrorDelimiter)+ErrorTagClose)
		return
	}

	flat, err := h.controller.Flatten(outcome.Results)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}
	h.writeJSON(w, flat)
}

// execute разбирает запрос и передает пакет контроллеру.
// Сигнал обновления дерева папок отправляется один раз, даже при ошибках.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request) (usecases.Outcome, usecases.CommandRequest, error) {
	signals := signal.NewSet(h.signals)
	defer signals.Flush()
	signals.Set(domain.SignalUpdateFolderTree)

	data, err := h.readRequest(w, r)
	if err != nil {
		return usecases.Outcome{}, usecases.CommandRequest{}, err
	}
	defer data.cleanup()

	req := usecases.ParseCommandRequest(data.params, data.body, r.Host)
	outcome, err := h.controller.Execute(req, data.uploads)
	return outcome, req, err
}

// editRedirect ведет на редактор первого созданного файла.
// Без созданного файла адрес возврата не меняется.
func (h *Handler) editRedirect(results domain.ResultSet, returnURL string) string {
	first, ok := results.First(domain.OperationNewFile)
	if !ok || first.Kind() != domain.ResultKindFile {
		return returnURL
	}

	query := url.Values{}
	query.Set(ParamTarget, first.File().CombinedIdentifier())
	if returnURL != "" {
		query.Set(ParamReturnURL, returnURL)
	}
	return h.routes.FileEdit + "?" + query.Encode()
}

// absoluteURL дополняет относительный адрес схемой и хостом запроса.
func absoluteURL(r *http.Request, target string) string {
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() {
		return target
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	base := scheme + "://" + r.Host

	if strings.HasPrefix(target, domain.PathRoot) {
		return base + target
	}
	return base + strings.TrimSuffix(path.Dir(r.URL.Path), domain.PathRoot) + domain.PathRoot + target
}

// FileExists отвечает описанием файла с таким именем в папке или [].
func (h *Handler) FileExists(w http.ResponseWriter, r *http.Request) {
	data, err := h.readRequest(w, r)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}
	defer data.cleanup()

	fileName := data.params.Get(ParamFileName)
	target := data.params.Get(ParamFileTarget)

	result, err := h.controller.FileExistsInFolder(target, fileName)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}

	logrus.WithFields(logrus.Fields{
		"target":    target,
		"file_name": fileName,
	}).Debug(LogExistenceChecked)

	h.writeJSON(w, result)
}

// Clipboard заполняет буфер: pad, mode (copy|cut) и items[] с идентификаторами.
func (h *Handler) Clipboard(w http.ResponseWriter, r *http.Request) {
	data, err := h.readRequest(w, r)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}
	defer data.cleanup()

	itemsNode := data.params.Lookup(ParamItems)
	var items []string
	if itemsNode != nil {
		for _, key := range itemsNode.Keys() {
			if item := itemsNode.Get(key); item != "" {
				items = append(items, item)
			}
		}
	}

	pad := data.params.Get(ParamPad)
	mode := data.params.Get(ParamMode)
	if setErr := h.clipboard.SetPad(pad, mode, items); setErr != nil {
		h.handleError(w, setErr, h.messages.InternalError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ServeFile отдает файл хранилища по публичному URL.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	identifier := path.Clean(domain.PathRoot + chi.URLParam(r, "*"))

	if strings.HasPrefix(path.Base(identifier), domain.HiddenFilePrefix) {
		h.handleError(w, fmt.Errorf("'%s': %w", identifier, domain.ErrPermissionDenied), h.messages.ForbiddenFile)
		return
	}

	file, err := h.files.FileAt(identifier)
	if err != nil {
		h.handleError(w, err, h.messages.InternalError)
		return
	}

	// MIME по расширению, иначе octet-stream.
	mimeType := mime.TypeByExtension(filepath.Ext(file.Name))
	if mimeType == domain.PathEmpty {
		mimeType = domain.MIMEOctetStream
	}
	w.Header().Set(HeaderContentType, mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	http.ServeFile(w, r, h.storage.GetAbsolutePath(identifier))
}

func (h *Handler) ServePreview(w http.ResponseWriter, r *http.Request) {
	fullPath, ok := h.previews.PathFor(chi.URLParam(r, "*"))
	if !ok {
		h.handleError(w, domain.ErrFileNotFound, h.messages.NotFound)
		return
	}
	http.ServeFile(w, r, fullPath)
}

func (h *Handler) writeJSON(w http.ResponseWriter, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.handleError(w, fmt.Errorf("failed to encode response: %w", err), h.messages.InternalError)
		return
	}
	w.Header().Set(HeaderContentType, ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type errorType int

const (
	errorTypeBadRequest errorType = iota
	errorTypeForbidden
	errorTypeNotFound
	errorTypeInternal
)

// getErrorType сопоставляет доменные ошибки с HTTP-кодами статуса.
func (h *Handler) getErrorType(err error) errorType {
	switch {
	case errors.Is(err, domain.ErrPathTraversal) || errors.Is(err, domain.ErrInvalidName) ||
		errors.Is(err, domain.ErrPathTooLong) || errors.Is(err, domain.ErrInvalidIdentifier) ||
		errors.Is(err, domain.ErrNotAFolder) || errors.Is(err, domain.ErrUnknownPad):
		return errorTypeBadRequest
	case errors.Is(err, domain.ErrUnsupportedOperation) || errors.Is(err, domain.ErrPermissionDenied):
		return errorTypeForbidden
	case errors.Is(err, domain.ErrFileNotFound) || errors.Is(err, domain.ErrStorageNotFound):
		return errorTypeNotFound
	default:
		return errorTypeInternal
	}
}

func (h *Handler) handleError(w http.ResponseWriter, err error, message string) {
	var httpStatus int
	var clientMessage string

	switch h.getErrorType(err) {
	case errorTypeBadRequest:
		httpStatus = http.StatusBadRequest
		clientMessage = h.messages.BadRequest
	case errorTypeForbidden:
		httpStatus = http.StatusForbidden
		clientMessage = h.messages.ForbiddenFile
	case errorTypeNotFound:
		httpStatus = http.StatusNotFound
		clientMessage = h.messages.NotFound
	case errorTypeInternal:
		httpStatus = http.StatusInternalServerError
		clientMessage = message
	}

	logrus.Errorf("HTTP %d Error: %s. Details: %+v", httpStatus, clientMessage, err)
	http.Error(w, clientMessage, httpStatus)
}
