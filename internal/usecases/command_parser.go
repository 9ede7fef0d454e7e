package usecases

import (
	"net/url"
	"strings"

	"file-controller/internal/domain"
)

// Имена параметров запроса.
const (
	ParamData                   = "data"
	ParamRedirect               = "redirect"
	ParamClipboard              = "CB"
	ParamClipboardPad           = "pad"
	ParamClipboardPaste         = "paste"
	ParamClipboardDelete        = "delete"
	ParamOverwriteExistingFiles = "overwriteExistingFiles"
	ParamEdit                   = "edit"
)

// ClipboardCommand - инструкция вставить или удалить содержимое буфера обмена.
type ClipboardCommand struct {
	Pad    string
	Paste  string
	Delete bool
}

// CommandRequest - разобранный запрос к контроллеру.
type CommandRequest struct {
	Batch        domain.CommandBatch
	Redirect     string
	ConflictMode domain.ConflictMode
	Clipboard    *ClipboardCommand
	Edit         bool
}

// ParseCommandRequest собирает пакет команд, адрес возврата и режим конфликтов.
// params - query и тело вместе, body - только тело: флаг edit читается лишь из него.
// Некорректные данные не считаются ошибкой: получаем пустой пакет и пустой redirect.
func ParseCommandRequest(params, body *domain.Params, host string) CommandRequest {
	var req CommandRequest

	if !params.Has(ParamData) {
		// только буфер обмена
		req.Redirect = SanitizeLocalURL(params.Get(ParamRedirect), host)
	} else {
		req.Batch = batchFromParams(params.Lookup(ParamData))
		// адрес возврата один на весь пакет - берется у первого элемента первой операции.
		if first, ok := req.Batch.First(); ok {
			req.Redirect = SanitizeLocalURL(first.Payload[domain.FieldRedirect], host)
		}
	}

	req.ConflictMode = resolveConflictMode(&req.Batch, params.Get(ParamOverwriteExistingFiles))

	if params.Has(ParamClipboard) {
		req.Clipboard = &ClipboardCommand{
			Pad:    params.Get(ParamClipboard, ParamClipboardPad),
			Paste:  params.Get(ParamClipboard, ParamClipboardPaste),
			Delete: isTruthy(params.Get(ParamClipboard, ParamClipboardDelete)),
		}
	}
	req.Edit = isTruthy(body.Get(ParamEdit))

	return req
}

func batchFromParams(data *domain.Params) domain.CommandBatch {
	var batch domain.CommandBatch
	for _, operation := range data.Keys() {
		opNode := data.Lookup(operation)
		for _, key := range opNode.Keys() {
			elementNode := opNode.Lookup(key)
			payload := domain.Payload{}
			if elementNode.HasValue() {
				payload[domain.FieldData] = elementNode.Value()
			}
			for _, field := range elementNode.Keys() {
				if fieldNode := elementNode.Lookup(field); fieldNode.HasValue() {
					payload[field] = fieldNode.Value()
				}
			}
			batch.Add(operation, key, payload)
		}
	}
	return batch
}

// resolveConflictMode: conflictMode первого элемента rename важнее общего параметра
// и удаляется из команды перед выполнением.
func resolveConflictMode(batch *domain.CommandBatch, requestWide string) domain.ConflictMode {
	if rename, ok := batch.Operation(domain.OperationRename); ok && len(rename.Elements) > 0 {
		payload := rename.Elements[0].Payload
		if raw, has := payload[domain.FieldConflictMode]; has {
			delete(payload, domain.FieldConflictMode)
			return domain.ParseConflictMode(raw)
		}
	}
	return domain.ParseConflictMode(requestWide)
}

// SanitizeLocalURL пропускает только относительные адреса и адреса текущего хоста.
func SanitizeLocalURL(raw, host string) string {
	raw = strings.TrimSpace(raw)
	if raw == domain.PathEmpty || strings.HasPrefix(raw, "\\") || strings.HasPrefix(raw, "/\\") {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme == "" && u.Host == "" {
		return raw
	}
	if (u.Scheme == "http" || u.Scheme == "https") && host != "" && strings.EqualFold(u.Host, host) {
		return raw
	}
	return ""
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "off":
		return false
	default:
		return true
	}
}
