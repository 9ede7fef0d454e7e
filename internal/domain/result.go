package domain

import (
	"bytes"
	"encoding/json"
)

type ResultKind int

const (
	ResultKindFlag ResultKind = iota
	ResultKindFolder
	ResultKindFile
)

// Result - результат одной команды: файл, директория или флаг.
type Result struct {
	kind   ResultKind
	flag   bool
	folder Folder
	file   File
}

func FlagResult(ok bool) Result {
	return Result{kind: ResultKindFlag, flag: ok}
}

func FolderResult(folder Folder) Result {
	return Result{kind: ResultKindFolder, folder: folder}
}

func FileResult(file File) Result {
	return Result{kind: ResultKindFile, file: file}
}

func (r Result) Kind() ResultKind { return r.kind }
func (r Result) Flag() bool       { return r.flag }
func (r Result) Folder() Folder   { return r.folder }
func (r Result) File() File       { return r.file }

// ResultEntry - все результаты одного элемента. Обычно один, у загрузки нескольких файлов - несколько.
type ResultEntry []Result

type ResultOperation struct {
	Name    string
	Entries []ResultEntry
}

// ResultSet - результаты пакета в порядке выполнения.
type ResultSet struct {
	operations []ResultOperation
}

func (s *ResultSet) Append(operation string, entry ResultEntry) {
	for i := range s.operations {
		if s.operations[i].Name == operation {
			s.operations[i].Entries = append(s.operations[i].Entries, entry)
			return
		}
	}
	s.operations = append(s.operations, ResultOperation{Name: operation, Entries: []ResultEntry{entry}})
}

func (s *ResultSet) Operations() []ResultOperation {
	return s.operations
}

// First возвращает первый результат операции.
func (s *ResultSet) First(operation string) (Result, bool) {
	for _, op := range s.operations {
		if op.Name != operation {
			continue
		}
		for _, entry := range op.Entries {
			if len(entry) > 0 {
				return entry[0], true
			}
		}
	}
	return Result{}, false
}

type FlatOperation struct {
	Name   string
	Values []any
}

// FlatResult - результаты, пригодные для передачи клиенту.
// В JSON это объект, ключи которого идут в порядке операций.
type FlatResult struct {
	operations []FlatOperation
}

func (r *FlatResult) Append(operation string, value any) {
	for i := range r.operations {
		if r.operations[i].Name == operation {
			r.operations[i].Values = append(r.operations[i].Values, value)
			return
		}
	}
	r.operations = append(r.operations, FlatOperation{Name: operation, Values: []any{value}})
}

func (r *FlatResult) Operations() []FlatOperation {
	return r.operations
}

func (r FlatResult) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, op := range r.operations {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(op.Name)
		if err != nil {
			return nil, err
		}
		values, err := json.Marshal(op.Values)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
