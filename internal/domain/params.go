package domain

import (
	"strconv"
	"strings"
)

// Params - дерево параметров запроса из ключей вида data[copy][e1][target].
// Порядок дочерних ключей сохраняется в порядке первого появления.
type Params struct {
	value    string
	hasValue bool
	keys     []string
	children map[string]*Params
	// next - индекс для "[]": больше любого целого ключа.
	next int
}

func NewParams() *Params {
	return &Params{children: make(map[string]*Params)}
}

// Add записывает значение по ключу. Повторная запись перезаписывает значение, но не меняет порядок.
// Пустые скобки ("items[]") добавляют элемент со следующим свободным целым индексом.
func (p *Params) Add(key, value string) {
	segments := SplitParamKey(key)
	if len(segments) == 0 {
		return
	}

	node := p
	for _, segment := range segments {
		if segment == "" {
			segment = strconv.Itoa(node.next)
		}
		node = node.child(segment)
	}
	node.value = value
	node.hasValue = true
}

func (p *Params) child(name string) *Params {
	if p.children == nil {
		p.children = make(map[string]*Params)
	}
	c, ok := p.children[name]
	if !ok {
		c = NewParams()
		p.children[name] = c
		p.keys = append(p.keys, name)
		if n, err := strconv.Atoi(name); err == nil && n >= p.next {
			p.next = n + 1
		}
	}
	return c
}

// Lookup возвращает узел по пути или nil.
func (p *Params) Lookup(path ...string) *Params {
	node := p
	for _, name := range path {
		if node == nil {
			return nil
		}
		node = node.children[name]
	}
	return node
}

// Get возвращает значение листа по пути или "".
func (p *Params) Get(path ...string) string {
	node := p.Lookup(path...)
	if node == nil {
		return ""
	}
	return node.value
}

// Has - есть ли по пути хоть что-то (значение или вложенные ключи).
func (p *Params) Has(path ...string) bool {
	node := p.Lookup(path...)
	return node != nil && (node.hasValue || len(node.keys) > 0)
}

func (p *Params) Value() string {
	if p == nil {
		return ""
	}
	return p.value
}

func (p *Params) HasValue() bool {
	return p != nil && p.hasValue
}

// Keys возвращает дочерние ключи в порядке появления.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return p.keys
}

func (p *Params) IsEmpty() bool {
	return p == nil || (!p.hasValue && len(p.keys) == 0)
}

// SplitParamKey разбирает "a[b][c]" в ["a", "b", "c"].
// Незакрытая скобка оставляет остаток ключа как есть.
func SplitParamKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		if key == "" {
			return nil
		}
		return []string{key}
	}

	segments := []string{key[:open]}
	rest := key[open:]
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			segments[len(segments)-1] += rest
			return segments
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	return segments
}
