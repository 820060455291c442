package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/qna-forum-backend/internal/errors"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

// WriteRateLimiter throttles write endpoints with one token bucket per caller.
// Authenticated callers are keyed by user ID, guests by client IP.
type WriteRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*limiterEntry
	now      func() time.Time
}

// NewWriteRateLimiter allows perMinute writes per caller. perMinute <= 0 disables limiting.
func NewWriteRateLimiter(perMinute int) *WriteRateLimiter {
	l := &WriteRateLimiter{
		limiters: make(map[string]*limiterEntry),
		now:      time.Now,
	}
	if perMinute <= 0 {
		l.limit = rate.Inf
		l.burst = 1
		return l
	}
	l.limit = rate.Every(time.Minute / time.Duration(perMinute))
	l.burst = max(perMinute/2, 1)
	return l
}

func (l *WriteRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = fmt.Sprintf("user:%d", userID)
		}

		if !l.get(key).Allow() {
			GetLoggerFromContext(c).Warn("Write rate limit exceeded", map[string]interface{}{
				"key":  key,
				"path": c.Request.URL.Path,
			})
			apperrors.TooManyRequests(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}

func (l *WriteRateLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, entry := range l.limiters {
		if now.After(entry.expires) {
			delete(l.limiters, k)
		}
	}

	if entry, ok := l.limiters[key]; ok {
		entry.expires = now.Add(limiterIdleTTL)
		return entry.limiter
	}

	entry := &limiterEntry{
		limiter: rate.NewLimiter(l.limit, l.burst),
		expires: now.Add(limiterIdleTTL),
	}
	l.limiters[key] = entry
	return entry.limiter
}
