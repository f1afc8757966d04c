package ws

import (
	"log"
	"sync"

	"plufi-chat/internal/models"
)

// Hub maintains the process-local room state: one room per conversation and
// one private room per user. It is ephemeral; rooms are rebuilt from
// reconnections and never persisted.
type Hub struct {
	chatRooms map[int]map[*Session]bool
	userRooms map[int]map[*Session]bool
	mu        sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		chatRooms: make(map[int]map[*Session]bool),
		userRooms: make(map[int]map[*Session]bool),
	}
}

// Register adds a session to its private user room.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.userRooms[s.UserID]; !ok {
		h.userRooms[s.UserID] = make(map[*Session]bool)
	}
	h.userRooms[s.UserID][s] = true
}

// Unregister removes a session from its user room and every joined chat
// room, and reports how many sessions the user still has.
func (h *Hub) Unregister(s *Session) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range s.chats {
		if room, ok := h.chatRooms[chatID]; ok {
			delete(room, s)
			if len(room) == 0 {
				delete(h.chatRooms, chatID)
			}
		}
	}
	s.chats = make(map[int]bool)

	remaining := 0
	if room, ok := h.userRooms[s.UserID]; ok {
		delete(room, s)
		remaining = len(room)
		if remaining == 0 {
			delete(h.userRooms, s.UserID)
		}
	}
	return remaining
}

// JoinChat subscribes the session to a conversation room. Idempotent.
func (h *Hub) JoinChat(chatID int, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.chatRooms[chatID]; !ok {
		h.chatRooms[chatID] = make(map[*Session]bool)
	}
	h.chatRooms[chatID][s] = true
	s.chats[chatID] = true
}

// BroadcastToChat sends an event to every session in a conversation room,
// optionally excluding one (the sender).
func (h *Hub) BroadcastToChat(chatID int, event models.ServerEvent, exclude *Session) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.chatRooms[chatID]))
	for s := range h.chatRooms[chatID] {
		if s != exclude {
			sessions = append(sessions, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(event); err != nil {
			log.Printf("websocket write error: %v", err)
			s.Close()
		}
	}
}

// SendToUser delivers an event to every session in a user's private room.
func (h *Hub) SendToUser(userID int, event models.ServerEvent) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.userRooms[userID]))
	for s := range h.userRooms[userID] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Send(event); err != nil {
			log.Printf("websocket write error: %v", err)
			s.Close()
		}
	}
}

// UserOnline reports whether the user has at least one live session.
func (h *Hub) UserOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userRooms[userID]) > 0
}
