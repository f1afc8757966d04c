package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plufi-chat/internal/models"
)

type fakeConn struct {
	mu         sync.Mutex
	frames     [][]byte
	closed     bool
	failWrites bool
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("read not supported")
}

func (c *fakeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("write failed")
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events(t *testing.T) []models.ServerEvent {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	events := make([]models.ServerEvent, 0, len(c.frames))
	for _, frame := range c.frames {
		var event models.ServerEvent
		require.NoError(t, json.Unmarshal(frame, &event))
		events = append(events, event)
	}
	return events
}

func (c *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	types := []string{}
	for _, event := range c.events(t) {
		types = append(types, event.Type)
	}
	return types
}

func newTestSession(userID int, username string) (*Session, *fakeConn) {
	conn := &fakeConn{}
	return NewSession(conn, userID, username, "127.0.0.1"), conn
}

func TestBroadcastToChatExcludesSender(t *testing.T) {
	hub := NewHub()
	alice, aliceConn := newTestSession(1, "alice")
	bob, bobConn := newTestSession(2, "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinChat(5, alice)
	hub.JoinChat(5, bob)

	hub.BroadcastToChat(5, models.ServerEvent{Type: "new_message"}, alice)

	assert.Empty(t, aliceConn.eventTypes(t))
	assert.Equal(t, []string{"new_message"}, bobConn.eventTypes(t))
}

func TestBroadcastToChatNilExcludeReachesEveryone(t *testing.T) {
	hub := NewHub()
	alice, aliceConn := newTestSession(1, "alice")
	bob, bobConn := newTestSession(2, "bob")
	hub.Register(alice)
	hub.Register(bob)
	hub.JoinChat(5, alice)
	hub.JoinChat(5, bob)

	hub.BroadcastToChat(5, models.ServerEvent{Type: "messages_seen"}, nil)

	assert.Equal(t, []string{"messages_seen"}, aliceConn.eventTypes(t))
	assert.Equal(t, []string{"messages_seen"}, bobConn.eventTypes(t))
}

func TestSendToUserReachesAllSessions(t *testing.T) {
	hub := NewHub()
	phone, phoneConn := newTestSession(1, "alice")
	laptop, laptopConn := newTestSession(1, "alice")
	hub.Register(phone)
	hub.Register(laptop)

	hub.SendToUser(1, models.ServerEvent{Type: "unread_summary"})

	assert.Equal(t, []string{"unread_summary"}, phoneConn.eventTypes(t))
	assert.Equal(t, []string{"unread_summary"}, laptopConn.eventTypes(t))
}

func TestUnregisterReportsRemainingSessions(t *testing.T) {
	hub := NewHub()
	phone, _ := newTestSession(1, "alice")
	laptop, _ := newTestSession(1, "alice")
	hub.Register(phone)
	hub.Register(laptop)
	hub.JoinChat(5, phone)

	require.True(t, hub.UserOnline(1))
	assert.Equal(t, 1, hub.Unregister(phone))
	require.True(t, hub.UserOnline(1))
	assert.Equal(t, 0, hub.Unregister(laptop))
	assert.False(t, hub.UserOnline(1))
}

func TestJoinChatIsIdempotent(t *testing.T) {
	hub := NewHub()
	alice, aliceConn := newTestSession(1, "alice")
	hub.Register(alice)
	hub.JoinChat(5, alice)
	hub.JoinChat(5, alice)

	hub.BroadcastToChat(5, models.ServerEvent{Type: "typing_start"}, nil)

	assert.Equal(t, []string{"typing_start"}, aliceConn.eventTypes(t))
}

func TestBroadcastSkipsOtherChats(t *testing.T) {
	hub := NewHub()
	alice, aliceConn := newTestSession(1, "alice")
	hub.Register(alice)
	hub.JoinChat(5, alice)

	hub.BroadcastToChat(9, models.ServerEvent{Type: "new_message"}, nil)

	assert.Empty(t, aliceConn.eventTypes(t))
}
