package server

const (
	ModeRedirect = "redirect"
	ModeAjax     = "ajax"

	LogCommandsProcessed = "File commands processed"
	LogExistenceChecked  = "File existence checked"

	ParamFileName   = "fileName"
	ParamFileTarget = "fileTarget"
	ParamTarget     = "target"
	ParamReturnURL  = "returnUrl"
	ParamPad        = "pad"
	ParamMode       = "mode"
	ParamItems      = "items"

	ErrorTagOpen      = "<t3err>"
	ErrorTagClose     = "</t3err>"
	ErrorDelimiter    = ","
	ContentTypeHTML   = "text/html; charset=utf-8"
	ContentTypeJSON   = "application/json"
	HeaderLocation    = "Location"
	HeaderContentType = "Content-Type"
)
