package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plufi-chat/internal/auth"
	"plufi-chat/internal/mocks"
	"plufi-chat/internal/models"
	"plufi-chat/internal/repositories"
)

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/auth/me", handler.Me)
	r.GET("/users/search", handler.SearchUsers)
	return r
}

func TestRegisterSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, "alice", "", mock.AnythingOfType("string")).
		Return(models.User{ID: 1, Username: "alice"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"username":"alice","password":"secret1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	users.AssertExpectations(t)
}

func TestRegisterUsernameTaken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("CreateUser", mock.Anything, "alice", "", mock.AnythingOfType("string")).
		Return(models.User{}, repositories.ErrUsernameTaken).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"username":"alice","password":"secret1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	users.AssertExpectations(t)
}

func TestRegisterShortPassword(t *testing.T) {
	handler := NewAuthHandler(new(mocks.UserRepositoryMock), testTokens(), nil)
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"username":"alice","password":"abc"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	users.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()
	users.On("RecordLoginEvent", mock.Anything, mock.MatchedBy(func(event models.LoginEvent) bool {
		return event.Success && event.Username == "alice"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"alice","password":"secret1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("secret1")
	require.NoError(t, err)

	users.On("GetUserByUsername", mock.Anything, "alice").
		Return(models.User{ID: 1, Username: "alice", PasswordHash: hash}, nil).Once()
	users.On("RecordLoginEvent", mock.Anything, mock.MatchedBy(func(event models.LoginEvent) bool {
		return !event.Success && event.Username == "alice"
	})).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"alice","password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}

func TestLoginUnknownUser(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("GetUserByUsername", mock.Anything, "ghost").
		Return(models.User{}, repositories.ErrUserNotFound).Once()
	users.On("RecordLoginEvent", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"ghost","password":"whatever"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertExpectations(t)
}

func TestSearchUsersEmptyQuery(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/users/search?q=", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertNotCalled(t, "SearchUsers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewAuthHandler(users, testTokens(), nil)
	router := setupAuthRouter(handler)

	users.On("SearchUsers", mock.Anything, "bo", 1, 20).
		Return([]models.PublicUser{{ID: 2, Username: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?q=bo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}
