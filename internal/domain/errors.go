package domain

import "errors"

var (
	ErrPathTraversal        = errors.New("path traversal is not allowed")
	ErrPathTooLong          = errors.New("path too long")
	ErrInvalidName          = errors.New("invalid file or folder name")
	ErrFileNotFound         = errors.New("file or folder not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrStorageNotFound      = errors.New("storage not found")
	ErrInvalidIdentifier    = errors.New("invalid combined identifier")
	ErrFileExists           = errors.New("file or folder already exists")
	ErrNotAFolder           = errors.New("target is not a folder")
	ErrUnknownPad           = errors.New("unknown clipboard pad")
	ErrUnknownResultKind    = errors.New("unknown result kind")
)
