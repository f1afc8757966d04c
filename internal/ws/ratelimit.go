package ws

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// UserRateLimiter budgets events per user id: a burst-sized window refilled
// over the configured interval. State is in-memory and session-scoped; it is
// cleared on disconnect and never blocks unrelated users.
type UserRateLimiter struct {
	mu       sync.Mutex
	limiters map[int]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewUserRateLimiter allows up to events per window from each user.
func NewUserRateLimiter(events int, window time.Duration) *UserRateLimiter {
	if events <= 0 {
		events = 8
	}
	if window <= 0 {
		window = 5 * time.Second
	}
	return &UserRateLimiter{
		limiters: make(map[int]*rate.Limiter),
		limit:    rate.Every(window / time.Duration(events)),
		burst:    events,
	}
}

// Allow reports whether the user may emit another event now. Exceeding the
// budget drops the event; nothing is queued.
func (l *UserRateLimiter) Allow(userID int) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Clear drops the user's counters, called when their last session ends.
func (l *UserRateLimiter) Clear(userID int) {
	l.mu.Lock()
	delete(l.limiters, userID)
	l.mu.Unlock()
}
