package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"plufi-chat/internal/mocks"
)

func setupPushRouter(handler *PushHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/push/public-key", handler.PublicKey)
	r.POST("/push/subscriptions", handler.Subscribe)
	r.DELETE("/push/subscriptions", handler.Unsubscribe)
	return r
}

func TestPublicKeyConfigured(t *testing.T) {
	handler := NewPushHandler(new(mocks.PushRepositoryMock), "vapid-pub")
	router := setupPushRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/push/public-key", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicKeyMissing(t *testing.T) {
	handler := NewPushHandler(new(mocks.PushRepositoryMock), "")
	router := setupPushRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/push/public-key", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubscribeStoresKeys(t *testing.T) {
	subs := new(mocks.PushRepositoryMock)
	handler := NewPushHandler(subs, "vapid-pub")
	router := setupPushRouter(handler)

	subs.On("UpsertSubscription", mock.Anything, 1, "https://push/ep", "p256", "auth", mock.AnythingOfType("string")).
		Return(nil).Once()

	body := bytes.NewBufferString(`{"endpoint":"https://push/ep","keys":{"p256dh":"p256","auth":"auth"}}`)
	req := httptest.NewRequest(http.MethodPost, "/push/subscriptions", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	subs.AssertExpectations(t)
}

func TestSubscribeMissingKeys(t *testing.T) {
	handler := NewPushHandler(new(mocks.PushRepositoryMock), "vapid-pub")
	router := setupPushRouter(handler)

	body := bytes.NewBufferString(`{"endpoint":"https://push/ep"}`)
	req := httptest.NewRequest(http.MethodPost, "/push/subscriptions", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	subs := new(mocks.PushRepositoryMock)
	handler := NewPushHandler(subs, "vapid-pub")
	router := setupPushRouter(handler)

	subs.On("DeleteSubscription", mock.Anything, 1, "https://push/ep").Return(nil).Twice()

	for i := 0; i < 2; i++ {
		body := bytes.NewBufferString(`{"endpoint":"https://push/ep"}`)
		req := httptest.NewRequest(http.MethodDelete, "/push/subscriptions", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	subs.AssertExpectations(t)
}
