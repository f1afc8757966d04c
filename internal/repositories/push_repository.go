package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"plufi-chat/internal/models"
)

// PushRepository stores browser push subscriptions.
type PushRepository interface {
	UpsertSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, userAgent string) error
	DeleteSubscription(ctx context.Context, userID int, endpoint string) error
	ListForUsers(ctx context.Context, userIDs []int) ([]models.PushSubscription, error)
}

// PushRepo is a sqlx implementation of PushRepository.
type PushRepo struct {
	db *sqlx.DB
}

// NewPushRepo constructs a PushRepo.
func NewPushRepo(db *sqlx.DB) *PushRepo {
	return &PushRepo{db: db}
}

// UpsertSubscription inserts or refreshes key material for an endpoint.
func (r *PushRepo) UpsertSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, userAgent string) error {
	var userAgentValue any
	if userAgent != "" {
		userAgentValue = userAgent
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (user_id, endpoint, p256dh, auth, user_agent)
         VALUES ($1, $2, $3, $4, $5)
         ON CONFLICT (user_id, endpoint)
         DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth,
                       user_agent = EXCLUDED.user_agent, updated_at = NOW()`,
		userID, endpoint, p256dh, auth, userAgentValue)
	return err
}

// DeleteSubscription removes a subscription row; used both for explicit
// unsubscribes and for self-healing after a gone delivery signal.
func (r *PushRepo) DeleteSubscription(ctx context.Context, userID int, endpoint string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id=$1 AND endpoint=$2`, userID, endpoint)
	return err
}

// ListForUsers returns all subscriptions held by the given users.
func (r *PushRepo) ListForUsers(ctx context.Context, userIDs []int) ([]models.PushSubscription, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, user_id, endpoint, p256dh, auth, user_agent, created_at, updated_at
         FROM push_subscriptions WHERE user_id IN (?)`, userIDs)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var subs []models.PushSubscription
	err = r.db.SelectContext(ctx, &subs, query, args...)
	return subs, err
}
