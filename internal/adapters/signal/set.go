package signal

import "file-controller/internal/domain"

// Set собирает сигналы одного запроса. Повторный Set того же сигнала ничего не добавляет.
type Set struct {
	sink  domain.SignalSink
	names []string
}

func NewSet(sink domain.SignalSink) *Set {
	return &Set{sink: sink}
}

func (s *Set) Set(name string) {
	for _, n := range s.names {
		if n == name {
			return
		}
	}
	s.names = append(s.names, name)
}

// Flush отправляет собранные сигналы и очищает набор.
func (s *Set) Flush() {
	if s.sink != nil {
		for _, n := range s.names {
			s.sink.Broadcast(n)
		}
	}
	s.names = nil
}
