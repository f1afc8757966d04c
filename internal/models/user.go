package models

import (
	"database/sql"
	"time"
)

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID           int            `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	Email        sql.NullString `db:"email" json:"-"`
	PasswordHash string         `db:"password_hash" json:"-"`
	IsOnline     bool           `db:"is_online" json:"is_online"`
	LastSeen     sql.NullTime   `db:"last_seen" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}

// PublicUser is the API projection of a user.
type PublicUser struct {
	ID       int        `json:"id"`
	Username string     `json:"username"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// Public strips credential and nullable internals.
func (u User) Public() PublicUser {
	pub := PublicUser{ID: u.ID, Username: u.Username, IsOnline: u.IsOnline}
	if u.LastSeen.Valid {
		seen := u.LastSeen.Time
		pub.LastSeen = &seen
	}
	return pub
}

// LoginEvent records an authentication attempt.
type LoginEvent struct {
	ID        int           `db:"id" json:"id"`
	UserID    sql.NullInt64 `db:"user_id" json:"-"`
	Username  string        `db:"username" json:"username"`
	Success   bool          `db:"success" json:"success"`
	IPAddress string        `db:"ip_address" json:"ip_address"`
	UserAgent string        `db:"user_agent" json:"user_agent"`
	Source    string        `db:"source" json:"source"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
