package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plufi-chat/internal/models"
	"plufi-chat/internal/repositories"
)

// FriendHandler exposes the social graph over REST.
type FriendHandler struct {
	friends repositories.FriendRepository
	users   repositories.UserRepository
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends repositories.FriendRepository, users repositories.UserRepository) *FriendHandler {
	return &FriendHandler{friends: friends, users: users}
}

// SendRequest creates a friend request, addressed by user id or username.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		ReceiverID int    `json:"receiver_id"`
		Username   string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receiverID := req.ReceiverID
	if receiverID == 0 && req.Username != "" {
		user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
			return
		}
		receiverID = user.ID
	}
	if receiverID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_id or username is required"})
		return
	}

	senderID := c.GetInt("userID")
	outcome, err := h.friends.SendFriendRequest(c.Request.Context(), senderID, receiverID)
	if errors.Is(err, repositories.ErrSelfRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send a friend request to yourself"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send friend request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// Respond accepts or rejects a pending request addressed to the caller.
func (h *FriendHandler) Respond(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req struct {
		Accept *bool `json:"accept" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	handled, err := h.friends.RespondToFriendRequest(c.Request.Context(), requestID, c.GetInt("userID"), *req.Accept)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not respond to friend request"})
		return
	}
	if !handled {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pending request to respond to"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"handled": true})
}

// ListFriends returns the caller's friends.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friends.ListFriends(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load friends"})
		return
	}
	if friends == nil {
		friends = []models.PublicUser{}
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListIncoming returns pending requests addressed to the caller.
func (h *FriendHandler) ListIncoming(c *gin.Context) {
	requests, err := h.friends.ListIncomingPending(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	if requests == nil {
		requests = []models.PendingRequest{}
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ListOutgoing returns ids the caller has pending requests to.
func (h *FriendHandler) ListOutgoing(c *gin.Context) {
	receivers, err := h.friends.ListOutgoingPendingReceivers(c.Request.Context(), c.GetInt("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load requests"})
		return
	}
	if receivers == nil {
		receivers = []int{}
	}
	c.JSON(http.StatusOK, gin.H{"receiver_ids": receivers})
}
