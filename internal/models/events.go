package models

import "encoding/json"

// ClientEvent is the inbound websocket frame: an event name plus a payload
// decoded per event type.
type ClientEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerEvent is the outbound websocket frame.
type ServerEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound payloads.
type JoinChatPayload struct {
	ChatID int `json:"chat_id"`
}

type TypingPayload struct {
	ChatID int `json:"chat_id"`
}

type SendMessagePayload struct {
	ChatID      int    `json:"chat_id"`
	Body        string `json:"body"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

type MarkSeenPayload struct {
	ChatID int `json:"chat_id"`
}

// CallSignalPayload carries opaque call-signaling blobs. The gateway relays
// them to other room members without inspecting the signal.
type CallSignalPayload struct {
	ChatID int             `json:"chat_id"`
	Signal json.RawMessage `json:"signal"`
}

// Outbound data shapes.
type MessageAck struct {
	ChatID      int    `json:"chat_id"`
	MessageID   int    `json:"message_id"`
	ClientMsgID string `json:"client_msg_id,omitempty"`
}

type SeenNotice struct {
	ChatID     int   `json:"chat_id"`
	MessageIDs []int `json:"message_ids"`
	SeenBy     int   `json:"seen_by"`
}

type TypingNotice struct {
	ChatID   int    `json:"chat_id"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}

type CallSignal struct {
	ChatID     int             `json:"chat_id"`
	FromUserID int             `json:"from_user_id"`
	Signal     json.RawMessage `json:"signal"`
}

// EventError is sent only to the originating session, never broadcast.
type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients.
const (
	ErrCodeInvalidPayload = "invalid_payload"
	ErrCodeInvalidChat    = "invalid_chat"
	ErrCodeEmptyMessage   = "empty_message"
	ErrCodeForbidden      = "forbidden"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeNotFriends     = "not_friends"
	ErrCodeInternal       = "internal"
)
