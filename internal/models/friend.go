package models

import (
	"database/sql"
	"time"
)

// Friend request lifecycle states. A request is terminal once responded.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest is a directed sender -> receiver edge.
type FriendRequest struct {
	ID          int          `db:"id" json:"id"`
	SenderID    int          `db:"sender_id" json:"sender_id"`
	ReceiverID  int          `db:"receiver_id" json:"receiver_id"`
	Status      string       `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	RespondedAt sql.NullTime `db:"responded_at" json:"-"`
}

// PendingRequest annotates an incoming request with the sender's username.
type PendingRequest struct {
	ID             int       `db:"id" json:"id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	SenderUsername string    `db:"sender_username" json:"sender_username"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CanonicalPair orders two user ids so (a,b) and (b,a) map to one row.
func CanonicalPair(a, b int) (int, int) {
	if a < b {
		return a, b
	}
	return b, a
}
