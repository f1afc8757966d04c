package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"plufi-chat/internal/models"
)

// MessageRepository defines interactions for chat messages and unread state.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID, senderID int, body string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
	RecentMessages(ctx context.Context, chatID, limit int) ([]models.Message, error)
	MarkSeen(ctx context.Context, chatID, viewerID int) ([]int, error)
	UnreadSummary(ctx context.Context, userID int) (models.UnreadSummary, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage persists a message (seen=false) and returns the full
// projection including the sender username.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID, senderID int, body string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`WITH inserted AS (
             INSERT INTO messages (chat_id, sender_id, body)
             VALUES ($1, $2, $3)
             RETURNING id, chat_id, sender_id, body, seen, created_at
         )
         SELECT i.id, i.chat_id, i.sender_id, u.username AS sender_username,
                i.body, i.seen, i.created_at
         FROM inserted i
         JOIN users u ON u.id = i.sender_id`, chatID, senderID, body)
	return msg, err
}

// ListMessages returns all chat messages in persistence order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT m.id, m.chat_id, m.sender_id, u.username AS sender_username,
                m.body, m.seen, m.created_at
         FROM messages m
         JOIN users u ON u.id = m.sender_id
         WHERE m.chat_id=$1
         ORDER BY m.id ASC`, chatID)
	return msgs, err
}

// RecentMessages returns the newest N messages in chronological order. Used
// as conversation context for the auto-responder.
func (r *MessageRepo) RecentMessages(ctx context.Context, chatID, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, chat_id, sender_id, sender_username, body, seen, created_at FROM (
             SELECT m.id, m.chat_id, m.sender_id, u.username AS sender_username,
                    m.body, m.seen, m.created_at
             FROM messages m
             JOIN users u ON u.id = m.sender_id
             WHERE m.chat_id=$1
             ORDER BY m.id DESC
             LIMIT $2
         ) recent
         ORDER BY id ASC`, chatID, limit)
	return msgs, err
}

// MarkSeen flips all unseen messages authored by other members to seen, in a
// single statement, and returns the affected message ids.
func (r *MessageRepo) MarkSeen(ctx context.Context, chatID, viewerID int) ([]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`UPDATE messages SET seen = TRUE
         WHERE chat_id=$1 AND sender_id <> $2 AND seen = FALSE
         RETURNING id`, chatID, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnreadSummary recomputes per-chat unread counts for the user on demand.
func (r *MessageRepo) UnreadSummary(ctx context.Context, userID int) (models.UnreadSummary, error) {
	var chats []models.ChatUnread
	err := r.db.SelectContext(ctx, &chats,
		`SELECT cm.chat_id, COUNT(m.id) AS count
         FROM chat_members cm
         JOIN messages m ON m.chat_id = cm.chat_id
              AND m.sender_id <> cm.user_id AND m.seen = FALSE
         WHERE cm.user_id=$1
         GROUP BY cm.chat_id
         ORDER BY cm.chat_id ASC`, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.UnreadSummary{}, err
	}

	summary := models.UnreadSummary{Chats: chats}
	if summary.Chats == nil {
		summary.Chats = []models.ChatUnread{}
	}
	for _, chat := range summary.Chats {
		summary.Total += chat.Count
	}
	return summary, nil
}
