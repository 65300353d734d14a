package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodtrack/internal/shared/testutil"
	"prodtrack/internal/websocket"
	"prodtrack/pkg/contracts/events"
)

func startWebSocketServer(t *testing.T, origins []string) (*websocket.Hub, string) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := websocket.NewHub(logger, nil)
	hub.Start()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(NewWebSocketHandler(hub, origins, logger))
	t.Cleanup(server.Close)
	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketHandler_ConnectAndReceiveUpdate(t *testing.T) {
	hub, url := startWebSocketServer(t, []string{"http://dashboard.local"})

	header := http.Header{}
	header.Set("Origin", "http://dashboard.local")
	conn, _, err := gorilla.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var connected events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&connected))
	assert.Equal(t, events.MessageTypeConnect, connected.Type)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastDataUpdate(context.Background(), events.DataUpdate{Source: "sheet", Rows: 3})

	var update events.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, events.MessageTypeDataUpdate, update.Type)
	data, ok := update.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 3.0, data["rows"])
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	_, url := startWebSocketServer(t, []string{"http://dashboard.local"})

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocketHandler_AllowsMissingOrigin(t *testing.T) {
	_, url := startWebSocketServer(t, nil)

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()
}
