package signal

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout = 5 * time.Second
	// sendBuffer - сколько сигналов ждут записи у одного подписчика.
	sendBuffer = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type message struct {
	Signal string `json:"signal"`
}

// subscriber - соединение и его очередь отправки. Пишет в conn только writeLoop.
type subscriber struct {
	conn   *websocket.Conn
	send   chan []byte
	remote string
}

// Hub рассылает сигналы интерфейса всем подписчикам websocket.
// Доставка не гарантируется: подписчик с переполненной очередью или ошибкой записи отключается.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[*subscriber]struct{})}
}

// Broadcast ставит сигнал в очередь каждого подписчика и не ждет записи в сеть.
func (h *Hub) Broadcast(signal string) {
	payload, err := json.Marshal(message{Signal: signal})
	if err != nil {
		logrus.Warnf("Failed to encode signal %s: %v", signal, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subscribers {
		select {
		case s.send <- payload:
		default:
			logrus.Warnf("Dropping slow subscriber %s, signal %s not delivered", s.remote, signal)
			h.removeLocked(s)
		}
	}
}

// Subscribers возвращает число активных подписчиков.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// ServeHTTP подписывает клиента и держит соединение, пока клиент его не закроет.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	s := &subscriber{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: conn.RemoteAddr().String(),
	}
	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(s)
	defer h.unsubscribe(s)

	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Warnf("WebSocket error: %v", readErr)
			}
			return
		}
	}
}

// writeLoop отправляет очередь подписчика и закрывает соединение, когда очередь закрыта.
func (h *Hub) writeLoop(s *subscriber) {
	defer s.conn.Close()

	for payload := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logrus.Warnf("Failed to deliver signal to %s: %v", s.remote, err)
			h.unsubscribe(s)
			return
		}
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *Hub) unsubscribe(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

// removeLocked вызывается под h.mu.
func (h *Hub) removeLocked(s *subscriber) {
	if _, ok := h.subscribers[s]; ok {
		delete(h.subscribers, s)
		close(s.send)
	}
}
