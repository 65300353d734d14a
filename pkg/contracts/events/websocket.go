// Package events defines the messages pushed to dashboard websocket clients.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeDataUpdate announces that a new snapshot was loaded.
	MessageTypeDataUpdate MessageType = "data_update"
	// MessageTypeRefreshFailed reports a background refresh that failed.
	MessageTypeRefreshFailed MessageType = "refresh_failed"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// DataUpdate is the payload of a data_update message.
type DataUpdate struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Rows      int       `json:"rows"`
	Options   []string  `json:"options"`
}

// RefreshFailure is the payload of a refresh_failed message.
type RefreshFailure struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ErrorMessage is the payload of an error message.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewMessage stamps a message of type t.
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{Type: t, Timestamp: time.Now().UTC()},
		Data:        data,
	}
}
