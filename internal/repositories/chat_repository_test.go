package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The pair is canonicalized before lookup: resolving (9, 4) queries (4, 9).
func TestResolveDirectChatOrdersPair(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepo(db)

	mock.ExpectQuery(`FROM direct_chats dc`).
		WithArgs(4, 9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_group", "name", "created_at"}).
			AddRow(77, false, nil, time.Now()))

	chat, err := repo.ResolveDirectChat(context.Background(), 9, 4)
	require.NoError(t, err)
	assert.Equal(t, 77, chat.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// When a concurrent resolution wins the insert race, the unique violation on
// direct_chats triggers a re-read of the winner's chat.
func TestResolveDirectChatConflictRereads(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepo(db)

	mock.ExpectQuery(`FROM direct_chats dc`).
		WithArgs(1, 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT c.id FROM chats c`).
		WithArgs(1, 2).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO chats \(is_group\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_group", "name", "created_at"}).
			AddRow(42, false, nil, time.Now()))
	mock.ExpectExec(`INSERT INTO chat_members`).
		WithArgs(42, 1, 2).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO direct_chats`).
		WithArgs(42, 1, 2).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	mock.ExpectQuery(`FROM direct_chats dc`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_group", "name", "created_at"}).
			AddRow(40, false, nil, time.Now()))

	chat, err := repo.ResolveDirectChat(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, chat.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A pre-index direct chat is found via its members and gets an index row.
func TestResolveDirectChatBackfillsLegacy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewChatRepo(db)

	mock.ExpectQuery(`FROM direct_chats dc`).
		WithArgs(1, 2).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT c.id FROM chats c`).
		WithArgs(1, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	mock.ExpectExec(`INSERT INTO direct_chats`).
		WithArgs(8, 1, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT id, is_group, name, created_at FROM chats`).
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_group", "name", "created_at"}).
			AddRow(8, false, nil, time.Now()))

	chat, err := repo.ResolveDirectChat(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 8, chat.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDirectChatWithSelf(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewChatRepo(db)

	_, err := repo.ResolveDirectChat(context.Background(), 3, 3)
	assert.Error(t, err)
}
