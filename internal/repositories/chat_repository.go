package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"plufi-chat/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts conversation persistence.
type ChatRepository interface {
	ResolveDirectChat(ctx context.Context, userID, peerID int) (models.Chat, error)
	CreateGroupChat(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsMember(ctx context.Context, chatID, userID int) (bool, error)
	MemberIDs(ctx context.Context, chatID int) ([]int, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// ResolveDirectChat returns the direct chat for an unordered user pair,
// creating it if needed. Resolution is idempotent: the canonical-pair unique
// constraint on direct_chats catches races and the loser re-reads.
func (r *ChatRepo) ResolveDirectChat(ctx context.Context, userID, peerID int) (models.Chat, error) {
	if userID == peerID {
		return models.Chat{}, errors.New("cannot open a chat with yourself")
	}
	user1, user2 := models.CanonicalPair(userID, peerID)

	chat, err := r.directChatByPair(ctx, user1, user2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	// Legacy direct chats may predate the index table: a non-group chat with
	// exactly these two members counts, and gets its index row backfilled.
	var legacyID int
	err = r.db.GetContext(ctx, &legacyID,
		`SELECT c.id FROM chats c
         WHERE c.is_group = FALSE
           AND EXISTS(SELECT 1 FROM chat_members WHERE chat_id=c.id AND user_id=$1)
           AND EXISTS(SELECT 1 FROM chat_members WHERE chat_id=c.id AND user_id=$2)
           AND (SELECT COUNT(*) FROM chat_members WHERE chat_id=c.id) = 2
         LIMIT 1`, user1, user2)
	switch {
	case err == nil:
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO direct_chats (chat_id, user1_id, user2_id) VALUES ($1, $2, $3)
             ON CONFLICT (user1_id, user2_id) DO NOTHING`, legacyID, user1, user2); err != nil {
			return models.Chat{}, err
		}
		return r.GetChat(ctx, legacyID)
	case !errors.Is(err, sql.ErrNoRows):
		return models.Chat{}, err
	}

	created, err := r.createDirectChat(ctx, user1, user2)
	if err == nil {
		return created, nil
	}
	if isUniqueViolation(err) {
		// Concurrent resolution for the same pair won; read its result.
		return r.directChatByPair(ctx, user1, user2)
	}
	return models.Chat{}, err
}

func (r *ChatRepo) directChatByPair(ctx context.Context, user1, user2 int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT c.id, c.is_group, c.name, c.created_at
         FROM direct_chats dc
         JOIN chats c ON c.id = dc.chat_id
         WHERE dc.user1_id=$1 AND dc.user2_id=$2`, user1, user2)
	return chat, err
}

func (r *ChatRepo) createDirectChat(ctx context.Context, user1, user2 int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	if err := tx.GetContext(ctx, &chat,
		`INSERT INTO chats (is_group) VALUES (FALSE)
         RETURNING id, is_group, name, created_at`); err != nil {
		return models.Chat{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2), ($1, $3)`,
		chat.ID, user1, user2); err != nil {
		return models.Chat{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO direct_chats (chat_id, user1_id, user2_id) VALUES ($1, $2, $3)`,
		chat.ID, user1, user2); err != nil {
		return models.Chat{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// CreateGroupChat creates a named group with the owner and members.
func (r *ChatRepo) CreateGroupChat(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	if err := tx.GetContext(ctx, &chat,
		`INSERT INTO chats (is_group, name) VALUES (TRUE, $1)
         RETURNING id, is_group, name, created_at`, name); err != nil {
		return models.Chat{}, err
	}

	ids := append([]int{ownerID}, memberIDs...)
	inserted := map[int]bool{}
	for _, id := range ids {
		if inserted[id] {
			continue
		}
		inserted[id] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)`, chat.ID, id); err != nil {
			return models.Chat{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT id, is_group, name, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsMember checks for a membership row.
func (r *ChatRepo) IsMember(ctx context.Context, chatID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// MemberIDs returns all member ids of a chat.
func (r *ChatRepo) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM chat_members WHERE chat_id=$1 ORDER BY user_id ASC`, chatID)
	return ids, err
}

type chatListRow struct {
	ID            int            `db:"id"`
	IsGroup       bool           `db:"is_group"`
	Name          sql.NullString `db:"name"`
	PeerID        sql.NullInt64  `db:"peer_id"`
	PeerUsername  sql.NullString `db:"peer_username"`
	LastMessage   sql.NullString `db:"last_message"`
	LastMessageAt sql.NullTime   `db:"last_message_at"`
	UnreadCount   int            `db:"unread_count"`
}

// ListChatsForUser returns the user's chats annotated with the last message
// preview, peer display name and unread count, most recent activity first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	var rows []chatListRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT c.id, c.is_group, c.name,
                peer.id AS peer_id, peer.username AS peer_username,
                lm.body AS last_message, lm.created_at AS last_message_at,
                COALESCE(un.unread, 0) AS unread_count
         FROM chats c
         JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
         LEFT JOIN LATERAL (
             SELECT u.id, u.username
             FROM chat_members pm
             JOIN users u ON u.id = pm.user_id
             WHERE pm.chat_id = c.id AND pm.user_id <> $1 AND c.is_group = FALSE
             LIMIT 1
         ) peer ON TRUE
         LEFT JOIN LATERAL (
             SELECT m.body, m.created_at
             FROM messages m
             WHERE m.chat_id = c.id
             ORDER BY m.id DESC
             LIMIT 1
         ) lm ON TRUE
         LEFT JOIN LATERAL (
             SELECT COUNT(*) AS unread
             FROM messages m
             WHERE m.chat_id = c.id AND m.sender_id <> $1 AND m.seen = FALSE
         ) un ON TRUE
         ORDER BY COALESCE(lm.created_at, c.created_at) DESC, c.id DESC`, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatSummary, 0, len(rows))
	for _, row := range rows {
		summary := models.ChatSummary{
			ChatID:      row.ID,
			IsGroup:     row.IsGroup,
			Name:        row.Name.String,
			PeerID:      int(row.PeerID.Int64),
			PeerUsername: row.PeerUsername.String,
			LastMessage: row.LastMessage.String,
			UnreadCount: row.UnreadCount,
		}
		if row.LastMessageAt.Valid {
			at := row.LastMessageAt.Time
			summary.LastMessageAt = &at
		}
		result = append(result, summary)
	}
	return result, nil
}
