package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"plufi-chat/internal/models"
)

// FriendRequestOutcome classifies the result of SendFriendRequest.
type FriendRequestOutcome string

const (
	// RequestSent means a new pending request row was inserted.
	RequestSent FriendRequestOutcome = "sent"
	// RequestAlreadyFriends means a friendship edge already exists.
	RequestAlreadyFriends FriendRequestOutcome = "already_friends"
	// RequestPendingExists means a pending request in the same direction exists.
	RequestPendingExists FriendRequestOutcome = "pending_exists"
	// RequestAutoAccepted means a reverse pending request existed and was
	// accepted, creating the friendship. Mutual requests resolve instead of
	// deadlocking as two pending rows.
	RequestAutoAccepted FriendRequestOutcome = "auto_accepted"
)

var ErrSelfRequest = errors.New("cannot send a friend request to yourself")

// FriendRepository is the social graph: requests, friendships, gating.
type FriendRepository interface {
	SendFriendRequest(ctx context.Context, senderID, receiverID int) (FriendRequestOutcome, error)
	RespondToFriendRequest(ctx context.Context, requestID, responderID int, accept bool) (bool, error)
	AreFriends(ctx context.Context, a, b int) (bool, error)
	ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error)
	ListIncomingPending(ctx context.Context, userID int) ([]models.PendingRequest, error)
	ListOutgoingPendingReceivers(ctx context.Context, userID int) ([]int, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// SendFriendRequest inserts a pending request, or accepts the reverse one if
// the receiver already requested the sender. The whole decision runs in one
// transaction so the reciprocal auto-accept is atomic.
func (r *FriendRepo) SendFriendRequest(ctx context.Context, senderID, receiverID int) (FriendRequestOutcome, error) {
	if senderID == receiverID {
		return "", ErrSelfRequest
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	user1, user2 := models.CanonicalPair(senderID, receiverID)
	var exists bool
	if err := tx.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user1_id=$1 AND user2_id=$2)`, user1, user2); err != nil {
		return "", err
	}
	if exists {
		return RequestAlreadyFriends, nil
	}

	// A reverse pending request means both sides want the friendship.
	var reverseID int
	err = tx.GetContext(ctx, &reverseID,
		`SELECT id FROM friend_requests
         WHERE sender_id=$1 AND receiver_id=$2 AND status=$3
         FOR UPDATE`, receiverID, senderID, models.FriendRequestPending)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`UPDATE friend_requests SET status=$1, responded_at=NOW() WHERE id=$2`,
			models.FriendRequestAccepted, reverseID); err != nil {
			return "", err
		}
		if err := insertFriendship(ctx, tx, user1, user2); err != nil {
			return "", err
		}
		if err := tx.Commit(); err != nil {
			return "", err
		}
		return RequestAutoAccepted, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", err
	}

	var samePending bool
	if err := tx.GetContext(ctx, &samePending,
		`SELECT EXISTS(SELECT 1 FROM friend_requests
         WHERE sender_id=$1 AND receiver_id=$2 AND status=$3)`,
		senderID, receiverID, models.FriendRequestPending); err != nil {
		return "", err
	}
	if samePending {
		return RequestPendingExists, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO friend_requests (sender_id, receiver_id) VALUES ($1, $2)`,
		senderID, receiverID); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return RequestSent, nil
}

// RespondToFriendRequest resolves a pending request. It is one-shot: false is
// returned when the request is absent, belongs to someone else, or was
// already responded to.
func (r *FriendRepo) RespondToFriendRequest(ctx context.Context, requestID, responderID int, accept bool) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var request models.FriendRequest
	err = tx.GetContext(ctx, &request,
		`SELECT id, sender_id, receiver_id, status, created_at, responded_at
         FROM friend_requests WHERE id=$1 FOR UPDATE`, requestID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if request.ReceiverID != responderID || request.Status != models.FriendRequestPending {
		return false, nil
	}

	status := models.FriendRequestRejected
	if accept {
		status = models.FriendRequestAccepted
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE friend_requests SET status=$1, responded_at=NOW() WHERE id=$2`, status, requestID); err != nil {
		return false, err
	}

	if accept {
		user1, user2 := models.CanonicalPair(request.SenderID, request.ReceiverID)
		if err := insertFriendship(ctx, tx, user1, user2); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// insertFriendship is idempotent on the canonical pair.
func insertFriendship(ctx context.Context, tx *sqlx.Tx, user1, user2 int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO friendships (user1_id, user2_id) VALUES ($1, $2)
         ON CONFLICT (user1_id, user2_id) DO NOTHING`, user1, user2)
	return err
}

// AreFriends reports whether a friendship edge exists.
func (r *FriendRepo) AreFriends(ctx context.Context, a, b int) (bool, error) {
	user1, user2 := models.CanonicalPair(a, b)
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM friendships WHERE user1_id=$1 AND user2_id=$2)`, user1, user2)
	return exists, err
}

// ListFriends returns the user's friends as public projections.
func (r *FriendRepo) ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.username, u.email, u.password_hash, u.is_online, u.last_seen, u.created_at
         FROM friendships f
         JOIN users u ON u.id = CASE WHEN f.user1_id=$1 THEN f.user2_id ELSE f.user1_id END
         WHERE f.user1_id=$1 OR f.user2_id=$1
         ORDER BY u.username ASC`, userID)
	if err != nil {
		return nil, err
	}
	result := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// ListIncomingPending returns pending requests addressed to the user.
func (r *FriendRepo) ListIncomingPending(ctx context.Context, userID int) ([]models.PendingRequest, error) {
	var requests []models.PendingRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT fr.id, fr.sender_id, u.username AS sender_username, fr.created_at
         FROM friend_requests fr
         JOIN users u ON u.id = fr.sender_id
         WHERE fr.receiver_id=$1 AND fr.status=$2
         ORDER BY fr.created_at DESC`, userID, models.FriendRequestPending)
	return requests, err
}

// ListOutgoingPendingReceivers returns ids the user has pending requests to.
func (r *FriendRepo) ListOutgoingPendingReceivers(ctx context.Context, userID int) ([]int, error) {
	var receivers []int
	err := r.db.SelectContext(ctx, &receivers,
		`SELECT receiver_id FROM friend_requests
         WHERE sender_id=$1 AND status=$2
         ORDER BY created_at DESC`, userID, models.FriendRequestPending)
	return receivers, err
}
