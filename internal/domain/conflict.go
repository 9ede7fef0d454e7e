package domain

import "strings"

// ConflictMode определяет поведение при записи поверх существующего имени.
type ConflictMode int

const (
	// ConflictModeUnset - решение остается за FileProcessor.
	ConflictModeUnset ConflictMode = iota
	ConflictModeRename
	ConflictModeReplace
	ConflictModeCancel
)

func ParseConflictMode(raw string) ConflictMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "rename":
		return ConflictModeRename
	case "replace":
		return ConflictModeReplace
	case "cancel":
		return ConflictModeCancel
	default:
		return ConflictModeUnset
	}
}

func (m ConflictMode) String() string {
	switch m {
	case ConflictModeRename:
		return "rename"
	case ConflictModeReplace:
		return "replace"
	case ConflictModeCancel:
		return "cancel"
	default:
		return ""
	}
}
