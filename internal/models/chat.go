package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Chat is a conversation: a 2-party direct chat or a named group.
type Chat struct {
	ID        int            `db:"id"`
	IsGroup   bool           `db:"is_group"`
	Name      sql.NullString `db:"name"`
	CreatedAt time.Time      `db:"created_at"`
}

// MarshalJSON flattens the nullable name; direct chats omit it.
func (c Chat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        int       `json:"id"`
		IsGroup   bool      `json:"is_group"`
		Name      string    `json:"name,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}{
		ID:        c.ID,
		IsGroup:   c.IsGroup,
		Name:      c.Name.String,
		CreatedAt: c.CreatedAt,
	})
}

// ChatSummary is the list-view projection of a chat for one user.
type ChatSummary struct {
	ChatID        int        `json:"chat_id"`
	IsGroup       bool       `json:"is_group"`
	Name          string     `json:"name,omitempty"`
	PeerID        int        `json:"peer_id,omitempty"`
	PeerUsername  string     `json:"peer_username,omitempty"`
	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	UnreadCount   int        `json:"unread_count"`
}

// ChatUnread is one row of a user's unread summary.
type ChatUnread struct {
	ChatID int `db:"chat_id" json:"chat_id"`
	Count  int `db:"count" json:"count"`
}

// UnreadSummary is the per-user unread projection pushed to private rooms.
type UnreadSummary struct {
	Chats []ChatUnread `json:"chats"`
	Total int          `json:"total"`
}
