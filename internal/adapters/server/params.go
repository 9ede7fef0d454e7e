package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"file-controller/internal/domain"
)

const (
	contentTypeMultipart  = "multipart/form-data"
	contentTypeURLEncoded = "application/x-www-form-urlencoded"
	uploadTempPattern     = "upload-*"
)

// requestData - параметры запроса в порядке появления и загруженные файлы.
// body содержит только поля тела.
type requestData struct {
	params  *domain.Params
	body    *domain.Params
	uploads domain.Uploads
}

func (d *requestData) addBody(key, value string) {
	d.params.Add(key, value)
	d.body.Add(key, value)
}

// cleanup удаляет временные файлы загрузок.
func (d *requestData) cleanup() {
	for _, files := range d.uploads {
		for _, f := range files {
			if err := os.Remove(f.TempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				logrus.Warnf("Failed to remove temp upload %s: %v", f.TempPath, err)
			}
		}
	}
}

// readRequest собирает параметры: сначала query, затем тело.
// Значения из тела перекрывают одноименные значения query.
func (h *Handler) readRequest(w http.ResponseWriter, r *http.Request) (*requestData, error) {
	data := &requestData{params: domain.NewParams(), body: domain.NewParams(), uploads: domain.Uploads{}}

	addEncoded(data.params.Add, r.URL.RawQuery)

	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return data, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case contentTypeMultipart:
		if err := h.readMultipart(r, data); err != nil {
			data.cleanup()
			return nil, bodyError(err)
		}
	case contentTypeURLEncoded:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, bodyError(fmt.Errorf("failed to read body: %w", err))
		}
		addEncoded(data.addBody, string(body))
	}

	return data, nil
}

func (h *Handler) readMultipart(r *http.Request, data *requestData) error {
	reader, err := r.MultipartReader()
	if err != nil {
		return fmt.Errorf("failed to read multipart body: %w", err)
	}

	for {
		part, partErr := reader.NextPart()
		if errors.Is(partErr, io.EOF) {
			return nil
		}
		if partErr != nil {
			return fmt.Errorf("failed to read multipart part: %w", partErr)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		if part.FileName() == "" {
			value, readErr := io.ReadAll(part)
			part.Close()
			if readErr != nil {
				return fmt.Errorf("failed to read field '%s': %w", name, readErr)
			}
			data.addBody(name, string(value))
			continue
		}

		uploaded, saveErr := saveUpload(part)
		part.Close()
		if saveErr != nil {
			return saveErr
		}
		uploaded.Filename = part.FileName()
		key := strings.TrimSuffix(name, "[]")
		data.uploads[key] = append(data.uploads[key], uploaded)
	}
}

func saveUpload(src io.Reader) (domain.UploadedFile, error) {
	tmp, err := os.CreateTemp("", uploadTempPattern)
	if err != nil {
		return domain.UploadedFile{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, copyErr := io.Copy(tmp, src)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp.Name())
		return domain.UploadedFile{}, fmt.Errorf("failed to store upload: %w", errors.Join(copyErr, closeErr))
	}

	return domain.UploadedFile{Size: size, TempPath: tmp.Name()}, nil
}

// addEncoded разбирает a=1&b[c]=2 с сохранением порядка ключей,
// url.ParseQuery порядок теряет. Битые пары пропускаются.
func addEncoded(add func(key, value string), raw string) {
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, keyErr := url.QueryUnescape(rawKey)
		value, valueErr := url.QueryUnescape(rawValue)
		if keyErr != nil || valueErr != nil {
			logrus.Warnf("Skipping malformed parameter %q", pair)
			continue
		}
		if key == "" {
			continue
		}
		add(key, value)
	}
}

// bodyError помечает превышение лимита размера тела как запрещенную операцию.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, domain.ErrUnsupportedOperation)
	}
	return err
}
