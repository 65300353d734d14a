package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gorilla "github.com/gorilla/websocket"

	"prodtrack/internal/infrastructure"
	"prodtrack/internal/websocket"
)

// WebSocketHandler upgrades GET /ws and attaches the connection to the hub.
type WebSocketHandler struct {
	hub            *websocket.Hub
	allowedOrigins []string
	upgrader       gorilla.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler creates a websocket handler. An Origin header must
// match one of allowedOrigins or the request host; "*" allows any origin.
func NewWebSocketHandler(hub *websocket.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		allowedOrigins: allowedOrigins,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = gorilla.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "websocket upgrade rejected",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already answered the request
		return
	}

	ctx := infrastructure.EnsureTraceID(r.Context())
	client := websocket.Serve(h.hub, conn, infrastructure.GetTraceID(ctx), h.logger)

	h.logger.InfoContext(ctx, "websocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	// Same-origin pages are always allowed
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}
