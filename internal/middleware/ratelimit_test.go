package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLimiter(now *time.Time, perMinute, burst int) *rateLimiter {
	return &rateLimiter{
		limit:         rate.Limit(float64(perMinute) / 60.0),
		burst:         burst,
		idle:          time.Minute,
		entries:       make(map[string]*limiterEntry),
		sweepInterval: 10 * time.Second,
		now: func() time.Time {
			return *now
		},
	}
}

func runLimited(l *rateLimiter, userID string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/conversations/x/messages", nil)
	if userID != "" {
		c.Set(ContextUserIDKey, userID)
	}
	l.handle(c)
	return c
}

func TestRateLimiterBurstThenBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now()
	limiter := newTestLimiter(&now, 60, 2)

	require.False(t, runLimited(limiter, "u1").IsAborted())
	require.False(t, runLimited(limiter, "u1").IsAborted())
	blocked := runLimited(limiter, "u1")
	require.True(t, blocked.IsAborted())
	require.Equal(t, http.StatusTooManyRequests, blocked.Writer.Status())

	require.False(t, runLimited(limiter, "u2").IsAborted())

	now = now.Add(time.Second)
	require.False(t, runLimited(limiter, "u1").IsAborted())
}

func TestRateLimiterCleanupExpiredLocked(t *testing.T) {
	base := time.Now()
	limiter := newTestLimiter(&base, 60, 1)
	limiter.entries["expired"] = &limiterEntry{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-2 * time.Minute)}
	limiter.entries["active"] = &limiterEntry{limiter: rate.NewLimiter(1, 1), lastSeen: base.Add(-2 * time.Second)}

	limiter.mu.Lock()
	limiter.cleanupExpiredLocked(base)
	limiter.mu.Unlock()

	require.NotContains(t, limiter.entries, "expired")
	require.Contains(t, limiter.entries, "active")
	require.False(t, limiter.lastSweep.IsZero())
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := RateLimit(0, 1)
	for i := 0; i < 5; i++ {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		handler(c)
		require.False(t, c.IsAborted())
	}
}
