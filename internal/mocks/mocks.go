package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"plufi-chat/internal/ai"
	"plufi-chat/internal/models"
	"plufi-chat/internal/push"
	"plufi-chat/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	args := m.Called(ctx, username, email, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByID(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, query string, excludeID int, limit int) ([]models.PublicUser, error) {
	args := m.Called(ctx, query, excludeID, limit)
	var users []models.PublicUser
	if val := args.Get(0); val != nil {
		users = val.([]models.PublicUser)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, userID int, online bool) error {
	args := m.Called(ctx, userID, online)
	return args.Error(0)
}

func (m *UserRepositoryMock) RecordLoginEvent(ctx context.Context, event models.LoginEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type FriendRepositoryMock struct {
	mock.Mock
}

func (m *FriendRepositoryMock) SendFriendRequest(ctx context.Context, senderID, receiverID int) (repositories.FriendRequestOutcome, error) {
	args := m.Called(ctx, senderID, receiverID)
	var outcome repositories.FriendRequestOutcome
	if val := args.Get(0); val != nil {
		outcome = val.(repositories.FriendRequestOutcome)
	}
	return outcome, args.Error(1)
}

func (m *FriendRepositoryMock) RespondToFriendRequest(ctx context.Context, requestID, responderID int, accept bool) (bool, error) {
	args := m.Called(ctx, requestID, responderID, accept)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) AreFriends(ctx context.Context, a, b int) (bool, error) {
	args := m.Called(ctx, a, b)
	return args.Bool(0), args.Error(1)
}

func (m *FriendRepositoryMock) ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error) {
	args := m.Called(ctx, userID)
	var friends []models.PublicUser
	if val := args.Get(0); val != nil {
		friends = val.([]models.PublicUser)
	}
	return friends, args.Error(1)
}

func (m *FriendRepositoryMock) ListIncomingPending(ctx context.Context, userID int) ([]models.PendingRequest, error) {
	args := m.Called(ctx, userID)
	var requests []models.PendingRequest
	if val := args.Get(0); val != nil {
		requests = val.([]models.PendingRequest)
	}
	return requests, args.Error(1)
}

func (m *FriendRepositoryMock) ListOutgoingPendingReceivers(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var receivers []int
	if val := args.Get(0); val != nil {
		receivers = val.([]int)
	}
	return receivers, args.Error(1)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) ResolveDirectChat(ctx context.Context, userID, peerID int) (models.Chat, error) {
	args := m.Called(ctx, userID, peerID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) CreateGroupChat(ctx context.Context, ownerID int, name string, memberIDs []int) (models.Chat, error) {
	args := m.Called(ctx, ownerID, name, memberIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	args := m.Called(ctx, chatID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatSummary)
	}
	return list, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID, senderID int, body string) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, body)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) RecentMessages(ctx context.Context, chatID, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) MarkSeen(ctx context.Context, chatID, viewerID int) ([]int, error) {
	args := m.Called(ctx, chatID, viewerID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadSummary(ctx context.Context, userID int) (models.UnreadSummary, error) {
	args := m.Called(ctx, userID)
	var summary models.UnreadSummary
	if val := args.Get(0); val != nil {
		summary = val.(models.UnreadSummary)
	}
	return summary, args.Error(1)
}

type PushRepositoryMock struct {
	mock.Mock
}

func (m *PushRepositoryMock) UpsertSubscription(ctx context.Context, userID int, endpoint, p256dh, auth, userAgent string) error {
	args := m.Called(ctx, userID, endpoint, p256dh, auth, userAgent)
	return args.Error(0)
}

func (m *PushRepositoryMock) DeleteSubscription(ctx context.Context, userID int, endpoint string) error {
	args := m.Called(ctx, userID, endpoint)
	return args.Error(0)
}

func (m *PushRepositoryMock) ListForUsers(ctx context.Context, userIDs []int) ([]models.PushSubscription, error) {
	args := m.Called(ctx, userIDs)
	var subs []models.PushSubscription
	if val := args.Get(0); val != nil {
		subs = val.([]models.PushSubscription)
	}
	return subs, args.Error(1)
}

type ExpenseRepositoryMock struct {
	mock.Mock
}

func (m *ExpenseRepositoryMock) CreateExpense(ctx context.Context, userID int, name string, amount float64, category string, date time.Time) (models.Expense, error) {
	args := m.Called(ctx, userID, name, amount, category, date)
	var expense models.Expense
	if val := args.Get(0); val != nil {
		expense = val.(models.Expense)
	}
	return expense, args.Error(1)
}

func (m *ExpenseRepositoryMock) ListExpenses(ctx context.Context, userID int, category string, limit, offset int) ([]models.Expense, error) {
	args := m.Called(ctx, userID, category, limit, offset)
	var expenses []models.Expense
	if val := args.Get(0); val != nil {
		expenses = val.([]models.Expense)
	}
	return expenses, args.Error(1)
}

func (m *ExpenseRepositoryMock) DeleteExpense(ctx context.Context, userID, expenseID int) (bool, error) {
	args := m.Called(ctx, userID, expenseID)
	return args.Bool(0), args.Error(1)
}

func (m *ExpenseRepositoryMock) CategorySummary(ctx context.Context, userID int) ([]models.CategoryTotal, error) {
	args := m.Called(ctx, userID)
	var totals []models.CategoryTotal
	if val := args.Get(0); val != nil {
		totals = val.([]models.CategoryTotal)
	}
	return totals, args.Error(1)
}

func (m *ExpenseRepositoryMock) MonthlySummary(ctx context.Context, userID, limit int) ([]models.MonthTotal, error) {
	args := m.Called(ctx, userID, limit)
	var totals []models.MonthTotal
	if val := args.Get(0); val != nil {
		totals = val.([]models.MonthTotal)
	}
	return totals, args.Error(1)
}

type PushSenderMock struct {
	mock.Mock
}

func (m *PushSenderMock) Send(ctx context.Context, sub models.PushSubscription, payload models.PushPayload) push.Outcome {
	args := m.Called(ctx, sub, payload)
	var outcome push.Outcome
	if val := args.Get(0); val != nil {
		outcome = val.(push.Outcome)
	}
	return outcome
}

type ResponderMock struct {
	mock.Mock
}

func (m *ResponderMock) Reply(ctx context.Context, userMessage string, history []models.Message, displayName string) (string, string) {
	args := m.Called(ctx, userMessage, history, displayName)
	return args.String(0), args.String(1)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.FriendRepository = (*FriendRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PushRepository = (*PushRepositoryMock)(nil)
var _ repositories.ExpenseRepository = (*ExpenseRepositoryMock)(nil)
var _ push.Sender = (*PushSenderMock)(nil)
var _ ai.Responder = (*ResponderMock)(nil)
