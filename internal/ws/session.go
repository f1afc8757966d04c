package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"plufi-chat/internal/models"
)

// Conn is the subset of *websocket.Conn the session needs; tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session is one authenticated websocket connection. Writes are serialized
// through its mutex because broadcasts arrive from other users' goroutines.
type Session struct {
	ID          string
	UserID      int
	Username    string
	IP          string
	ConnectedAt time.Time

	conn    Conn
	writeMu sync.Mutex

	// chats is the set of joined conversation rooms, guarded by Hub.mu.
	chats map[int]bool
}

// NewSession wraps an accepted connection.
func NewSession(conn Conn, userID int, username, ip string) *Session {
	return &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		Username:    username,
		IP:          ip,
		ConnectedAt: time.Now(),
		conn:        conn,
		chats:       make(map[int]bool),
	}
}

// Send marshals and writes one server event.
func (s *Session) Send(event models.ServerEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(textMessage, payload)
}

// SendError reports a failure to this session only.
func (s *Session) SendError(code, message string) {
	_ = s.Send(models.ServerEvent{
		Type: "error",
		Data: models.EventError{Code: code, Message: message},
	})
}

// Close tears down the underlying connection.
func (s *Session) Close() {
	_ = s.conn.Close()
}

// textMessage mirrors websocket.TextMessage without importing gorilla here.
const textMessage = 1
