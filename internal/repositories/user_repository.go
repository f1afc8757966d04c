package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"plufi-chat/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already taken")
)

// UserRepository abstracts account and presence persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error)
	GetUserByID(ctx context.Context, userID int) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	SearchUsers(ctx context.Context, query string, excludeID int, limit int) ([]models.PublicUser, error)
	SetOnline(ctx context.Context, userID int, online bool) error
	RecordLoginEvent(ctx context.Context, event models.LoginEvent) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a new account.
func (r *UserRepo) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	var user models.User
	var emailValue any
	if email != "" {
		emailValue = email
	}
	err := r.db.GetContext(ctx, &user,
		`INSERT INTO users (username, email, password_hash)
         VALUES ($1, $2, $3)
         RETURNING id, username, email, password_hash, is_online, last_seen, created_at`,
		username, emailValue, passwordHash)
	if isUniqueViolation(err) {
		return models.User{}, ErrUsernameTaken
	}
	return user, err
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, email, password_hash, is_online, last_seen, created_at FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByUsername fetches a user by username.
func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT id, username, email, password_hash, is_online, last_seen, created_at FROM users WHERE username=$1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// SearchUsers finds users by username prefix, excluding the caller.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, excludeID int, limit int) ([]models.PublicUser, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT id, username, email, password_hash, is_online, last_seen, created_at
         FROM users
         WHERE username ILIKE $1 || '%' AND id <> $2
         ORDER BY username ASC
         LIMIT $3`, query, excludeID, limit)
	if err != nil {
		return nil, err
	}
	result := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		result = append(result, u.Public())
	}
	return result, nil
}

// SetOnline flips the presence flag; going offline stamps last_seen.
func (r *UserRepo) SetOnline(ctx context.Context, userID int, online bool) error {
	if online {
		_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = TRUE WHERE id=$1`, userID)
		return err
	}
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online = FALSE, last_seen = NOW() WHERE id=$1`, userID)
	return err
}

// RecordLoginEvent appends an authentication audit row.
func (r *UserRepo) RecordLoginEvent(ctx context.Context, event models.LoginEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO login_events (user_id, username, success, ip_address, user_agent, source)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		event.UserID, event.Username, event.Success, event.IPAddress, event.UserAgent, event.Source)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
