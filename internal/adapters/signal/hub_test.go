package signal

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitSubscribers(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Subscribers() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitSubscribers(t, h, 2)

	h.Broadcast("updateFolderTree")

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"signal":"updateFolderTree"}`, string(data))
	}
}

func TestHub_UnsubscribeOnClose(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitSubscribers(t, h, 1)

	require.NoError(t, conn.Close())
	waitSubscribers(t, h, 0)

	h.Broadcast("updateFolderTree")
}

func TestHub_StalledSubscriberDoesNotBlockBroadcast(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	live := dial(t, srv)
	waitSubscribers(t, h, 1)

	// очередь без буфера и без читателя
	stalled := &subscriber{send: make(chan []byte), remote: "stalled"}
	h.mu.Lock()
	h.subscribers[stalled] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.Broadcast("updateFolderTree")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a stalled subscriber")
	}

	assert.Equal(t, 1, h.Subscribers())
	_, open := <-stalled.send
	assert.False(t, open)

	require.NoError(t, live.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := live.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"signal":"updateFolderTree"}`, string(data))
}

type recordingSink struct {
	signals []string
}

func (r *recordingSink) Broadcast(signal string) {
	r.signals = append(r.signals, signal)
}

func TestSet_DeduplicatesUntilFlush(t *testing.T) {
	sink := &recordingSink{}
	s := NewSet(sink)

	s.Set("updateFolderTree")
	s.Set("updateFolderTree")
	s.Set("other")
	s.Flush()
	assert.Equal(t, []string{"updateFolderTree", "other"}, sink.signals)

	s.Flush()
	assert.Len(t, sink.signals, 2)
}

func TestSet_NilSink(t *testing.T) {
	s := NewSet(nil)
	s.Set("updateFolderTree")
	assert.NotPanics(t, s.Flush)
}
