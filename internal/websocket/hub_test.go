package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodtrack/internal/shared/testutil"
	"prodtrack/pkg/contracts/events"
)

// fakeConn records written frames and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn { return &fakeConn{closed: make(chan struct{})} }

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	<-c.closed
	return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadLimit(int64)               {}
func (c *fakeConn) SetPongHandler(func(string) error) {}
func (c *fakeConn) RemoteAddr() string               { return "127.0.0.1:1234" }

type countingRecorder struct {
	mu    sync.Mutex
	types []string
}

func (r *countingRecorder) RecordBroadcast(_ context.Context, messageType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, messageType)
}

func newTestHub(t *testing.T, recorder BroadcastRecorder) *Hub {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, recorder)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func readMessage(t *testing.T, ch <-chan []byte) events.WebSocketMessage {
	t.Helper()
	select {
	case data, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var msg events.WebSocketMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return events.WebSocketMessage{}
	}
}

func TestHub_RegisterSendsConnectMessage(t *testing.T) {
	hub := newTestHub(t, nil)
	client := NewClient(hub, newFakeConn(), "", nil)

	hub.Register(client)

	msg := readMessage(t, client.send)
	assert.Equal(t, events.MessageTypeConnect, msg.Type)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastDataUpdate(t *testing.T) {
	recorder := &countingRecorder{}
	hub := newTestHub(t, recorder)

	a := NewClient(hub, newFakeConn(), "", nil)
	b := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(a)
	hub.Register(b)
	readMessage(t, a.send)
	readMessage(t, b.send)

	fetchedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	hub.BroadcastDataUpdate(context.Background(), events.DataUpdate{
		Source:    "csv",
		FetchedAt: fetchedAt,
		Rows:      3,
		Options:   []string{"all", "A", "B"},
	})

	for _, c := range []*Client{a, b} {
		msg := readMessage(t, c.send)
		assert.Equal(t, events.MessageTypeDataUpdate, msg.Type)
		data := msg.Data.(map[string]interface{})
		assert.Equal(t, "csv", data["source"])
		assert.Equal(t, float64(3), data["rows"])
	}

	recorder.mu.Lock()
	assert.Equal(t, []string{"data_update"}, recorder.types)
	recorder.mu.Unlock()
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := newTestHub(t, nil)
	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)
	readMessage(t, client.send)

	hub.Unregister(client)

	select {
	case _, ok := <-client.send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
	assert.Equal(t, 0, hub.ClientCount())

	// A second unregister is harmless.
	hub.Unregister(client)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	hub := newTestHub(t, nil)
	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)

	// Never drained: the connect message plus sendBuffer broadcasts overflow.
	for i := 0; i < sendBuffer+1; i++ {
		hub.BroadcastDataUpdate(context.Background(), events.DataUpdate{Rows: i})
	}

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_StopIsIdempotent(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()
	hub.Start()

	client := NewClient(hub, newFakeConn(), "", nil)
	hub.Register(client)
	readMessage(t, client.send)

	hub.Stop()
	hub.Stop()

	_, ok := <-client.send
	assert.False(t, ok)

	// Broadcasting after stop does not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 64; i++ {
			hub.BroadcastDataUpdate(context.Background(), events.DataUpdate{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}

func TestClient_WritePumpForwardsMessages(t *testing.T) {
	hub := newTestHub(t, nil)
	conn := newFakeConn()
	client := NewClient(hub, conn, "trace-1", nil)

	client.send <- []byte(`{"type":"data_update"}`)
	close(client.send)
	client.WritePump()

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.writes, 2, "message then close frame")
	assert.Equal(t, `{"type":"data_update"}`, string(conn.writes[0]))
}

func TestServe_EndToEnd(t *testing.T) {
	hub := newTestHub(t, nil)
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(hub, conn, "", nil)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var connect events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&connect))
	assert.Equal(t, events.MessageTypeConnect, connect.Type)

	hub.BroadcastRefreshFailure(context.Background(), events.RefreshFailure{Source: "csv", Message: "down"})

	var failure events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&failure))
	assert.Equal(t, events.MessageTypeRefreshFailed, failure.Type)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
