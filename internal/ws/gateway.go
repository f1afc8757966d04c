package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"plufi-chat/internal/ai"
	"plufi-chat/internal/auth"
	"plufi-chat/internal/models"
	"plufi-chat/internal/observability"
	"plufi-chat/internal/push"
	"plufi-chat/internal/repositories"
)

// Gateway owns the websocket protocol: connection lifecycle, the event
// dispatch table, rate limiting and fan-out.
type Gateway struct {
	hub        *Hub
	tokens     *auth.TokenManager
	users      repositories.UserRepository
	chats      repositories.ChatRepository
	messages   repositories.MessageRepository
	friends    repositories.FriendRepository
	pushRepo   repositories.PushRepository
	pushSender push.Sender
	responder  ai.Responder
	limiter    *UserRateLimiter

	// botUserID designates the auto-responder account; zero disables it.
	botUserID int
	aiTimeout time.Duration

	handlers map[string]eventHandler
}

type eventHandler func(ctx context.Context, s *Session, payload json.RawMessage)

// NewGateway wires the dispatch table.
func NewGateway(
	hub *Hub,
	tokens *auth.TokenManager,
	users repositories.UserRepository,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	friends repositories.FriendRepository,
	pushRepo repositories.PushRepository,
	pushSender push.Sender,
	responder ai.Responder,
	limiter *UserRateLimiter,
	botUserID int,
	aiTimeout time.Duration,
) *Gateway {
	g := &Gateway{
		hub:        hub,
		tokens:     tokens,
		users:      users,
		chats:      chats,
		messages:   messages,
		friends:    friends,
		pushRepo:   pushRepo,
		pushSender: pushSender,
		responder:  responder,
		limiter:    limiter,
		botUserID:  botUserID,
		aiTimeout:  aiTimeout,
	}
	g.handlers = map[string]eventHandler{
		"join_chat":          g.handleJoinChat,
		"typing_start":       g.relayTyping("typing_start"),
		"typing_stop":        g.relayTyping("typing_stop"),
		"send_message":       g.handleSendMessage,
		"mark_seen":          g.handleMarkSeen,
		"call_offer":         g.relayCallSignal("call_offer"),
		"call_answer":        g.relayCallSignal("call_answer"),
		"call_ice_candidate": g.relayCallSignal("call_ice_candidate"),
		"call_end":           g.relayCallSignal("call_end"),
	}
	return g
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle authenticates and upgrades a websocket connection. Unauthenticated
// connections are rejected before any event is processed.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("plufi-chat/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	identity, err := g.tokens.Validate(bearerToken(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	s := NewSession(conn, identity.UserID, identity.Username, observability.IPFromRequest(c.Request))
	g.connect(ctx, s)
	go g.readLoop(s)
}

func (g *Gateway) connect(ctx context.Context, s *Session) {
	g.hub.Register(s)
	observability.IncWSActive()
	observability.IncWSEvent("connect", "ok")

	if err := g.users.SetOnline(ctx, s.UserID, true); err != nil {
		log.Printf("mark online failed for user %d: %v", s.UserID, err)
	}
	g.pushUnreadSummary(ctx, s.UserID)

	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]any{
			"conn_id": s.ID,
			"user_id": s.UserID,
			"ip":      s.IP,
		},
	})
}

func (g *Gateway) readLoop(s *Session) {
	defer g.disconnect(s)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("read", "error")
			}
			return
		}

		var event models.ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			s.SendError(models.ErrCodeInvalidPayload, "malformed event")
			continue
		}
		handler, ok := g.handlers[event.Type]
		if !ok {
			observability.IncWSEvent(event.Type, "unknown")
			continue
		}

		opCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		handler(opCtx, s, event.Payload)
		cancel()
	}
}

func (g *Gateway) disconnect(s *Session) {
	remaining := g.hub.Unregister(s)
	observability.DecWSActive()
	observability.IncWSEvent("disconnect", "ok")
	s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if remaining == 0 {
		g.limiter.Clear(s.UserID)
		if err := g.users.SetOnline(ctx, s.UserID, false); err != nil {
			log.Printf("mark offline failed for user %d: %v", s.UserID, err)
		}
	}

	_ = observability.PublishEvent(ctx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_disconnect",
		Payload: map[string]any{
			"conn_id":     s.ID,
			"user_id":     s.UserID,
			"duration_ms": time.Since(s.ConnectedAt).Milliseconds(),
		},
	})
}

func (g *Gateway) handleJoinChat(ctx context.Context, s *Session, payload json.RawMessage) {
	var req models.JoinChatPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.ChatID <= 0 {
		s.SendError(models.ErrCodeInvalidChat, "invalid chat id")
		return
	}
	if !g.requireMembership(ctx, s, req.ChatID) {
		return
	}
	g.hub.JoinChat(req.ChatID, s)
	observability.IncWSEvent("join_chat", "ok")
}

func (g *Gateway) relayTyping(event string) eventHandler {
	return func(ctx context.Context, s *Session, payload json.RawMessage) {
		var req models.TypingPayload
		if err := json.Unmarshal(payload, &req); err != nil || req.ChatID <= 0 {
			s.SendError(models.ErrCodeInvalidChat, "invalid chat id")
			return
		}
		if !g.requireMembership(ctx, s, req.ChatID) {
			return
		}
		g.hub.BroadcastToChat(req.ChatID, models.ServerEvent{
			Type: event,
			Data: models.TypingNotice{ChatID: req.ChatID, UserID: s.UserID, Username: s.Username},
		}, s)
		observability.IncWSEvent(event, "ok")
	}
}

// relayCallSignal forwards signaling blobs to other room members. No
// persistence, no validation beyond membership.
func (g *Gateway) relayCallSignal(event string) eventHandler {
	return func(ctx context.Context, s *Session, payload json.RawMessage) {
		var req models.CallSignalPayload
		if err := json.Unmarshal(payload, &req); err != nil || req.ChatID <= 0 {
			s.SendError(models.ErrCodeInvalidChat, "invalid chat id")
			return
		}
		if !g.requireMembership(ctx, s, req.ChatID) {
			return
		}
		g.hub.BroadcastToChat(req.ChatID, models.ServerEvent{
			Type: event,
			Data: models.CallSignal{ChatID: req.ChatID, FromUserID: s.UserID, Signal: req.Signal},
		}, s)
		observability.IncWSEvent(event, "ok")
	}
}

// handleSendMessage validates in a fixed order: chat, body, membership, rate
// limit, friendship; then persists and fans out.
func (g *Gateway) handleSendMessage(ctx context.Context, s *Session, payload json.RawMessage) {
	ctx, span := otel.Tracer("plufi-chat/ws").Start(ctx, "ws.send_message")
	defer span.End()

	var req models.SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil || req.ChatID <= 0 {
		s.SendError(models.ErrCodeInvalidChat, "invalid chat id")
		observability.IncWSEvent("send_message", "invalid_chat")
		return
	}

	chat, err := g.chats.GetChat(ctx, req.ChatID)
	if errors.Is(err, repositories.ErrChatNotFound) {
		s.SendError(models.ErrCodeInvalidChat, "chat not found")
		observability.IncWSEvent("send_message", "invalid_chat")
		return
	}
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not load chat")
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		s.SendError(models.ErrCodeEmptyMessage, "message body is empty")
		observability.IncWSEvent("send_message", "empty")
		return
	}

	member, err := g.chats.IsMember(ctx, chat.ID, s.UserID)
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not verify membership")
		return
	}
	if !member {
		s.SendError(models.ErrCodeForbidden, "not a chat member")
		observability.IncWSEvent("send_message", "forbidden")
		return
	}

	if !g.limiter.Allow(s.UserID) {
		s.SendError(models.ErrCodeRateLimited, "too many messages, slow down")
		observability.IncRateLimitRejection()
		observability.IncWSEvent("send_message", "rate_limited")
		return
	}

	members, err := g.chats.MemberIDs(ctx, chat.ID)
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not load members")
		return
	}

	// Friendship is re-checked on every send; it is not cached.
	if !chat.IsGroup && len(members) == 2 {
		peerID := otherMember(members, s.UserID)
		friends, err := g.friends.AreFriends(ctx, s.UserID, peerID)
		if err != nil {
			s.SendError(models.ErrCodeInternal, "could not verify friendship")
			return
		}
		if !friends {
			s.SendError(models.ErrCodeNotFriends, "you are not friends with this user")
			observability.IncWSEvent("send_message", "not_friends")
			return
		}
	}

	msg, err := g.messages.CreateMessage(ctx, chat.ID, s.UserID, body)
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not store message")
		observability.IncWSEvent("send_message", "storage_error")
		return
	}

	_ = s.Send(models.ServerEvent{
		Type: "message_ack",
		Data: models.MessageAck{ChatID: chat.ID, MessageID: msg.ID, ClientMsgID: req.ClientMsgID},
	})
	g.hub.BroadcastToChat(chat.ID, models.ServerEvent{Type: "new_message", Data: msg}, s)
	g.fanOut(ctx, chat, msg, members)
	observability.IncWSEvent("send_message", "ok")

	_ = observability.PublishEvent(ctx, "chat_events.messages", observability.EventEnvelope{
		EventType: "chat_events",
		EventName: "message_sent",
		Payload: map[string]any{
			"chat_id":    chat.ID,
			"message_id": msg.ID,
			"sender_id":  msg.SenderID,
		},
	})

	if g.botUserID != 0 && !chat.IsGroup && s.UserID != g.botUserID && containsMember(members, g.botUserID) {
		// Independent follow-up unit of work: the reply must not hold up
		// this send path.
		go g.autoReply(chat, members, msg)
	}
}

func (g *Gateway) handleMarkSeen(ctx context.Context, s *Session, payload json.RawMessage) {
	var req models.MarkSeenPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.ChatID <= 0 {
		s.SendError(models.ErrCodeInvalidChat, "invalid chat id")
		return
	}
	if !g.requireMembership(ctx, s, req.ChatID) {
		return
	}

	ids, err := g.messages.MarkSeen(ctx, req.ChatID, s.UserID)
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not mark messages seen")
		return
	}
	observability.IncWSEvent("mark_seen", "ok")
	if len(ids) == 0 {
		return
	}

	g.hub.BroadcastToChat(req.ChatID, models.ServerEvent{
		Type: "messages_seen",
		Data: models.SeenNotice{ChatID: req.ChatID, MessageIDs: ids, SeenBy: s.UserID},
	}, nil)
	g.pushUnreadSummary(ctx, s.UserID)
}

// fanOut notifies every member except the sender: an unconditional
// unread_summary to their private room, then best-effort push deliveries.
func (g *Gateway) fanOut(ctx context.Context, chat models.Chat, msg models.Message, members []int) {
	receivers := make([]int, 0, len(members))
	for _, id := range members {
		if id != msg.SenderID {
			receivers = append(receivers, id)
		}
	}
	for _, id := range receivers {
		g.pushUnreadSummary(ctx, id)
	}
	if len(receivers) == 0 {
		return
	}

	subs, err := g.pushRepo.ListForUsers(ctx, receivers)
	if err != nil {
		log.Printf("load push subscriptions failed: %v", err)
		return
	}
	payload := models.PushPayload{
		Title:  msg.SenderUsername,
		Body:   msg.Body,
		ChatID: chat.ID,
		URL:    fmt.Sprintf("/?chat=%d", chat.ID),
	}
	// Each delivery is isolated; one failure never aborts the rest.
	for _, sub := range subs {
		outcome := g.pushSender.Send(ctx, sub, payload)
		observability.IncPushDelivery(string(outcome))
		if outcome == push.Gone {
			if err := g.pushRepo.DeleteSubscription(ctx, sub.UserID, sub.Endpoint); err != nil {
				log.Printf("prune gone subscription %d failed: %v", sub.ID, err)
			}
		}
	}
}

// autoReply asks the completion collaborator for a response and persists it
// through the same send path, with the same fan-out effects. The bot's own
// messages never re-enter this path.
func (g *Gateway) autoReply(chat models.Chat, members []int, trigger models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), g.aiTimeout+5*time.Second)
	defer cancel()

	history, err := g.messages.RecentMessages(ctx, chat.ID, 12)
	if err != nil {
		log.Printf("load bot history failed: %v", err)
	}
	reply, source := g.responder.Reply(ctx, trigger.Body, history, trigger.SenderUsername)
	observability.IncAIReply(source)

	msg, err := g.messages.CreateMessage(ctx, chat.ID, g.botUserID, reply)
	if err != nil {
		log.Printf("store bot reply failed: %v", err)
		return
	}
	g.hub.BroadcastToChat(chat.ID, models.ServerEvent{Type: "new_message", Data: msg}, nil)
	g.fanOut(ctx, chat, msg, members)
}

func (g *Gateway) pushUnreadSummary(ctx context.Context, userID int) {
	summary, err := g.messages.UnreadSummary(ctx, userID)
	if err != nil {
		log.Printf("unread summary failed for user %d: %v", userID, err)
		return
	}
	g.hub.SendToUser(userID, models.ServerEvent{Type: "unread_summary", Data: summary})
}

func (g *Gateway) requireMembership(ctx context.Context, s *Session, chatID int) bool {
	member, err := g.chats.IsMember(ctx, chatID, s.UserID)
	if err != nil {
		s.SendError(models.ErrCodeInternal, "could not verify membership")
		return false
	}
	if !member {
		s.SendError(models.ErrCodeForbidden, "not a chat member")
		return false
	}
	return true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func otherMember(members []int, userID int) int {
	for _, id := range members {
		if id != userID {
			return id
		}
	}
	return 0
}

func containsMember(members []int, userID int) bool {
	for _, id := range members {
		if id == userID {
			return true
		}
	}
	return false
}
