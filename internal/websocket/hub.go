// Package websocket pushes dashboard events to connected browsers.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"prodtrack/internal/infrastructure"
	"prodtrack/pkg/contracts/events"
)

// BroadcastRecorder counts broadcasts. *infrastructure.DashboardMetrics
// implements it.
type BroadcastRecorder interface {
	RecordBroadcast(ctx context.Context, messageType string)
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics BroadcastRecorder

	totalConnections int64
	messagesSent     int64

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a Hub. metrics may be nil.
func NewHub(logger *slog.Logger, metrics BroadcastRecorder) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in a goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalConnections++
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendConnected(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()

			h.logger.Info("Client unregistered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) sendConnected(client *Client) {
	msg := events.NewMessage(events.MessageTypeConnect, map[string]string{
		"status":    "connected",
		"client_id": client.id,
	})
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

// deliver fans message out, dropping clients whose buffer is full.
func (h *Hub) deliver(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	failed := 0
	for client := range h.clients {
		select {
		case client.send <- message:
			h.messagesSent++
		default:
			failed++
			close(client.send)
			delete(h.clients, client)
			h.logger.Warn("Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("client_count", len(h.clients)),
		slog.Int("failed", failed),
		slog.Int("message_size", len(message)))
}

// Broadcast queues msg for every connected client. It drops the message
// once the hub has stopped.
func (h *Hub) Broadcast(ctx context.Context, msg events.WebSocketMessage) {
	if msg.TraceID == "" {
		msg.TraceID = infrastructure.GetTraceID(ctx)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return
	}

	select {
	case h.broadcast <- data:
		if h.metrics != nil {
			h.metrics.RecordBroadcast(ctx, string(msg.Type))
		}
	case <-h.quit:
	}
}

// BroadcastDataUpdate announces a freshly loaded snapshot.
func (h *Hub) BroadcastDataUpdate(ctx context.Context, update events.DataUpdate) {
	h.Broadcast(ctx, events.NewMessage(events.MessageTypeDataUpdate, update))
}

// BroadcastRefreshFailure reports a failed background refresh.
func (h *Hub) BroadcastRefreshFailure(ctx context.Context, failure events.RefreshFailure) {
	h.Broadcast(ctx, events.NewMessage(events.MessageTypeRefreshFailed, failure))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetHubMetrics returns current hub counters
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Stop ends the loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
