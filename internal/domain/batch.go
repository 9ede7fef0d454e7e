package domain

// Payload - поля одной команды (data, target, redirect, ...).
type Payload map[string]string

func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Element - одна цель внутри операции.
type Element struct {
	Key     string
	Payload Payload
}

type Operation struct {
	Name     string
	Elements []Element
}

// CommandBatch - пакет команд одного запроса: операция -> элементы.
// Порядок операций и элементов внутри операции сохраняется.
type CommandBatch struct {
	operations []Operation
}

// Add добавляет элемент в операцию, создавая ее при первом обращении.
func (b *CommandBatch) Add(operation, key string, payload Payload) {
	if payload == nil {
		payload = Payload{}
	}
	for i := range b.operations {
		if b.operations[i].Name == operation {
			b.operations[i].Elements = append(b.operations[i].Elements, Element{Key: key, Payload: payload})
			return
		}
	}
	b.operations = append(b.operations, Operation{
		Name:     operation,
		Elements: []Element{{Key: key, Payload: payload}},
	})
}

func (b *CommandBatch) Operations() []Operation {
	return b.operations
}

// Operation возвращает операцию по имени. Изменения через указатель видны в пакете.
func (b *CommandBatch) Operation(name string) (*Operation, bool) {
	for i := range b.operations {
		if b.operations[i].Name == name {
			return &b.operations[i], true
		}
	}
	return nil, false
}

// First возвращает первый элемент первой операции.
func (b *CommandBatch) First() (*Element, bool) {
	if len(b.operations) == 0 || len(b.operations[0].Elements) == 0 {
		return nil, false
	}
	return &b.operations[0].Elements[0], true
}

func (b *CommandBatch) IsEmpty() bool {
	return len(b.operations) == 0
}

// Len - общее число элементов во всех операциях.
func (b *CommandBatch) Len() int {
	n := 0
	for _, op := range b.operations {
		n += len(op.Elements)
	}
	return n
}
