package models

import "time"

// Message is immutable once created; only the seen flag transitions, and
// only false -> true, triggered by recipients.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ChatID         int       `db:"chat_id" json:"chat_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	SenderUsername string    `db:"sender_username" json:"sender_username,omitempty"`
	Body           string    `db:"body" json:"body"`
	Seen           bool      `db:"seen" json:"seen"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
