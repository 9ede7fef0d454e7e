package clipboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"file-controller/internal/domain"
)

const (
	PadNormal = "normal"
	ModeCopy  = "copy"
	ModeCut   = "cut"

	LogPadUpdated = "Clipboard pad updated"
)

// Pads - допустимые имена буферов.
var Pads = []string{PadNormal, "tab_1", "tab_2", "tab_3"}

type Pad struct {
	Mode  string   `yaml:"mode"`
	Items []string `yaml:"items"`
}

type state struct {
	Current string         `yaml:"current"`
	Pads    map[string]Pad `yaml:"pads"`
}

// Store хранит буферы обмена в yaml файле.
// Состояние не кешируется: каждый вызов читает файл, выбирает буфер и
// раскрывает его под одной блокировкой, поэтому выбор буфера не переживает вызов.
type Store struct {
	path    string
	dirPerm os.FileMode

	mu sync.Mutex
}

func NewStore(path string, dirPerm os.FileMode) *Store {
	return &Store{
		path:    path,
		dirPerm: dirPerm,
	}
}

func emptyState() state {
	return state{Current: PadNormal, Pads: map[string]Pad{}}
}

func isKnownPad(id string) bool {
	for _, p := range Pads {
		if p == id {
			return true
		}
	}
	return false
}

// load читает состояние с диска. Отсутствующий файл - пустой буфер.
// Вызывается под s.mu.
func (s *Store) load() (state, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return emptyState(), nil
		}
		return state{}, fmt.Errorf("failed to read clipboard: %w", err)
	}

	loaded := emptyState()
	if unmarshalErr := yaml.Unmarshal(data, &loaded); unmarshalErr != nil {
		return state{}, fmt.Errorf("failed to parse clipboard: %w", unmarshalErr)
	}
	if loaded.Pads == nil {
		loaded.Pads = map[string]Pad{}
	}
	if !isKnownPad(loaded.Current) {
		loaded.Current = PadNormal
	}
	return loaded, nil
}

func (s *Store) save(st state) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to encode clipboard: %w", err)
	}
	if mkErr := os.MkdirAll(filepath.Dir(s.path), s.dirPerm); mkErr != nil {
		return fmt.Errorf("failed to create clipboard directory: %w", mkErr)
	}
	if writeErr := os.WriteFile(s.path, data, 0o600); writeErr != nil {
		return fmt.Errorf("failed to write clipboard: %w", writeErr)
	}
	return nil
}

// resolvePad: пустое имя - текущий сохраненный буфер.
func resolvePad(st state, id string) (string, error) {
	if id == "" {
		return st.Current, nil
	}
	if !isKnownPad(id) {
		return "", fmt.Errorf("pad '%s': %w", id, domain.ErrUnknownPad)
	}
	return id, nil
}

// SetPad заменяет содержимое буфера, делает его текущим и сохраняет.
func (s *Store) SetPad(id, mode string, items []string) error {
	if !isKnownPad(id) {
		return fmt.Errorf("pad '%s': %w", id, domain.ErrUnknownPad)
	}
	if mode != ModeCut {
		mode = ModeCopy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return err
	}
	st.Pads[id] = Pad{Mode: mode, Items: append([]string(nil), items...)}
	st.Current = id

	logrus.WithFields(logrus.Fields{
		"pad":   id,
		"mode":  mode,
		"items": len(items),
	}).Info(LogPadUpdated)

	return s.save(st)
}

// ExpandPaste строит команды copy/move всех элементов буфера padID в target.
// Буфер в режиме cut после этого очищается.
func (s *Store) ExpandPaste(padID, target string) (domain.CommandBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return domain.CommandBatch{}, err
	}
	id, err := resolvePad(st, padID)
	if err != nil {
		return domain.CommandBatch{}, err
	}

	pad := st.Pads[id]
	operation := domain.OperationMove
	if pad.Mode != ModeCut {
		operation = domain.OperationCopy
	}

	var batch domain.CommandBatch
	for i, item := range pad.Items {
		batch.Add(operation, strconv.Itoa(i), domain.Payload{
			domain.FieldData:   item,
			domain.FieldTarget: target,
		})
	}

	if pad.Mode == ModeCut && len(pad.Items) > 0 {
		delete(st.Pads, id)
		if saveErr := s.save(st); saveErr != nil {
			return domain.CommandBatch{}, saveErr
		}
	}

	return batch, nil
}

// ExpandDelete строит команды delete для всех элементов буфера padID.
func (s *Store) ExpandDelete(padID string) (domain.CommandBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return domain.CommandBatch{}, err
	}
	id, err := resolvePad(st, padID)
	if err != nil {
		return domain.CommandBatch{}, err
	}

	var batch domain.CommandBatch
	for i, item := range st.Pads[id].Items {
		batch.Add(domain.OperationDelete, strconv.Itoa(i), domain.Payload{domain.FieldData: item})
	}
	return batch, nil
}

// Current возвращает имя и содержимое текущего сохраненного буфера.
func (s *Store) Current() (string, Pad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load()
	if err != nil {
		return "", Pad{}, err
	}
	return st.Current, st.Pads[st.Current], nil
}

