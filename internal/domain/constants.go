package domain

const (
	PathEmpty           = ""
	PathCurrent         = "."
	PathRoot            = "/"
	PathTraversalPrefix = ".."
	HiddenFilePrefix    = "."
	IdentifierSeparator = ":"
	MIMEOctetStream     = "application/octet-stream"
)

// Operation names understood by the file processor.
const (
	OperationUpload    = "upload"
	OperationReplace   = "replace"
	OperationNewFolder = "newfolder"
	OperationNewFile   = "newfile"
	OperationEditFile  = "editfile"
	OperationRename    = "rename"
	OperationCopy      = "copy"
	OperationMove      = "move"
	OperationDelete    = "delete"
)

// Payload fields of a single command element.
const (
	FieldData         = "data"
	FieldTarget       = "target"
	FieldRedirect     = "redirect"
	FieldConflictMode = "conflictMode"
	FieldAltName      = "altName"
	FieldUID          = "uid"
	FieldKeepFilename = "keepFilename"
)

// SignalUpdateFolderTree tells the backend UI to reload its folder tree.
const SignalUpdateFolderTree = "updateFolderTree"
