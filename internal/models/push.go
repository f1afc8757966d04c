package models

import (
	"database/sql"
	"time"
)

// PushSubscription holds one browser push endpoint for a user. The
// (user_id, endpoint) pair is unique; resubscribing replaces key material.
type PushSubscription struct {
	ID        int            `db:"id" json:"id"`
	UserID    int            `db:"user_id" json:"user_id"`
	Endpoint  string         `db:"endpoint" json:"endpoint"`
	P256dh    string         `db:"p256dh" json:"-"`
	Auth      string         `db:"auth" json:"-"`
	UserAgent sql.NullString `db:"user_agent" json:"-"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// PushPayload is the JSON body delivered to push endpoints.
type PushPayload struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	ChatID int    `json:"chat_id"`
	URL    string `json:"url"`
}
