package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	limiter := NewUserRateLimiter(8, 5*time.Second)

	allowed := 0
	for i := 0; i < 9; i++ {
		if limiter.Allow(1) {
			allowed++
		}
	}
	assert.Equal(t, 8, allowed)
}

func TestRateLimiterIsPerUser(t *testing.T) {
	limiter := NewUserRateLimiter(1, time.Minute)

	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))
	assert.True(t, limiter.Allow(2))
}

func TestRateLimiterClearResetsBudget(t *testing.T) {
	limiter := NewUserRateLimiter(1, time.Minute)

	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))

	limiter.Clear(1)
	assert.True(t, limiter.Allow(1))
}
