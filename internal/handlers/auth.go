package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plufi-chat/internal/auth"
	"plufi-chat/internal/models"
	"plufi-chat/internal/observability"
	"plufi-chat/internal/repositories"
	"plufi-chat/internal/telemetry"
)

// AuthHandler manages registration, login and identity endpoints.
type AuthHandler struct {
	users   repositories.UserRepository
	tokens  *auth.TokenManager
	emitter *telemetry.AuditEmitter
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenManager, emitter *telemetry.AuditEmitter) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, emitter: emitter}
}

// Register creates an account and returns a token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	user, err := h.users.CreateUser(c.Request.Context(), username, strings.TrimSpace(req.Email), hash)
	if errors.Is(err, repositories.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user"})
		return
	}

	token, err := h.tokens.Mint(user.ID, user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.audit(c, "INFO", fmt.Sprintf("user registered username=%s", user.Username), user.ID)
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": user.Public()})
}

// Login verifies credentials, records the attempt, and returns a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetUserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err == nil && auth.CheckPassword(user.PasswordHash, req.Password) {
		h.recordLogin(c, req.Username, user.ID, true)

		token, err := h.tokens.Mint(user.ID, user.Username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
			return
		}
		h.audit(c, "INFO", fmt.Sprintf("login succeeded username=%s", user.Username), user.ID)
		c.JSON(http.StatusOK, gin.H{"token": token, "user": user.Public()})
		return
	}
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}

	h.recordLogin(c, req.Username, 0, false)
	h.audit(c, "WARN", fmt.Sprintf("login failed username=%s", req.Username), 0)
	c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt("userID")
	user, err := h.users.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// SearchUsers finds accounts by username prefix.
func (h *AuthHandler) SearchUsers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"users": []models.PublicUser{}})
		return
	}
	users, err := h.users.SearchUsers(c.Request.Context(), query, c.GetInt("userID"), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	if users == nil {
		users = []models.PublicUser{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *AuthHandler) recordLogin(c *gin.Context, username string, userID int, success bool) {
	event := models.LoginEvent{
		Username:  username,
		Success:   success,
		IPAddress: observability.IPFromRequest(c.Request),
		UserAgent: c.Request.UserAgent(),
		Source:    "api",
	}
	if userID != 0 {
		event.UserID = sql.NullInt64{Int64: int64(userID), Valid: true}
	}
	if err := h.users.RecordLoginEvent(c.Request.Context(), event); err != nil {
		// Logins must not fail on audit persistence.
		log.Printf("record login event failed: %v", err)
	}
}

func (h *AuthHandler) audit(c *gin.Context, level, text string, userID int) {
	var userRef *string
	if userID != 0 {
		id := fmt.Sprintf("%d", userID)
		userRef = &id
	}
	h.emitter.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userRef)
}
