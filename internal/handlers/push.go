package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plufi-chat/internal/repositories"
)

// PushHandler manages browser push subscriptions.
type PushHandler struct {
	subs           repositories.PushRepository
	vapidPublicKey string
}

// NewPushHandler builds a PushHandler.
func NewPushHandler(subs repositories.PushRepository, vapidPublicKey string) *PushHandler {
	return &PushHandler{subs: subs, vapidPublicKey: vapidPublicKey}
}

// PublicKey exposes the VAPID public key so clients can subscribe.
func (h *PushHandler) PublicKey(c *gin.Context) {
	if h.vapidPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "push is not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_key": h.vapidPublicKey})
}

// Subscribe stores or refreshes a push subscription for the caller.
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
		Keys     struct {
			P256dh string `json:"p256dh" binding:"required"`
			Auth   string `json:"auth" binding:"required"`
		} `json:"keys" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.subs.UpsertSubscription(c.Request.Context(), c.GetInt("userID"),
		req.Endpoint, req.Keys.P256dh, req.Keys.Auth, c.Request.UserAgent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store subscription"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscribed": true})
}

// Unsubscribe removes the caller's subscription for an endpoint. Removing an
// endpoint that is already gone still succeeds.
func (h *PushHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.subs.DeleteSubscription(c.Request.Context(), c.GetInt("userID"), req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove subscription"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscribed": false})
}
