package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"plufi-chat/internal/models"
	"plufi-chat/internal/repositories"
)

// ChatHandler serves conversation listing, opening and history.
type ChatHandler struct {
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	friends  repositories.FriendRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chats repositories.ChatRepository, messages repositories.MessageRepository, friends repositories.FriendRepository) *ChatHandler {
	return &ChatHandler{chats: chats, messages: messages, friends: friends}
}

// ListChats returns the caller's conversations, most recent activity first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	summaries, err := h.chats.ListChatsForUser(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chats"})
		return
	}
	if summaries == nil {
		summaries = []models.ChatSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"chats": summaries})
}

// StartChat resolves the direct chat with a friend, creating it on first use.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID int `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if req.PeerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a chat with yourself"})
		return
	}

	friends, err := h.friends.AreFriends(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check friendship"})
		return
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only chat with friends"})
		return
	}

	chat, err := h.chats.ResolveDirectChat(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not open chat"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// CreateGroup creates a named group chat owned by the caller.
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		MemberIDs []int  `json:"member_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name is required"})
		return
	}

	chat, err := h.chats.CreateGroupChat(c.Request.Context(), c.GetInt("userID"), name, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// GetMessages returns the full history of a chat the caller belongs to.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	if _, err := h.chats.GetChat(c.Request.Context(), chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return
	}

	member, err := h.chats.IsMember(c.Request.Context(), chatID, c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check membership"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this chat"})
		return
	}

	messages, err := h.messages.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load messages"})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// UnreadSummary returns per-chat unread counts plus a total for the caller.
func (h *ChatHandler) UnreadSummary(c *gin.Context) {
	summary, err := h.messages.UnreadSummary(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute unread counts"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
