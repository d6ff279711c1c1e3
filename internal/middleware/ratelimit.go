package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Kosench/shortlink/internal/cache"
	"github.com/Kosench/shortlink/internal/model"
	"github.com/gin-gonic/gin"
)

const rateLimitMessage = "Too many requests. Please try again later."

func tooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, model.Failure(rateLimitMessage))
}

// RedisRateLimit counts requests per client IP in fixed windows stored in
// Redis. Redis errors let the request through.
func RedisRateLimit(limiter cache.RateLimiter, keys *cache.KeyBuilder, maxRequests int, window time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keys.RateLimit(c.ClientIP())

		count, err := limiter.IncrementRateLimit(c.Request.Context(), key, window)
		if err != nil {
			logger.Warn("rate limit check failed", slog.String("key", key), slog.Any("error", err))
			c.Next()
			return
		}

		if count > int64(maxRequests) {
			tooManyRequests(c)
			return
		}

		c.Next()
	}
}

// InMemoryRateLimiter is a per-process sliding window limiter, used when
// Redis is not available.
type InMemoryRateLimiter struct {
	mu          sync.Mutex
	requests    map[string][]time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

func NewInMemoryRateLimiter(maxRequests int, window time.Duration) *InMemoryRateLimiter {
	return &InMemoryRateLimiter{
		requests:    make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// Allow records a request from client and reports whether it fits the window.
func (l *InMemoryRateLimiter) Allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	// Очищаем старые записи
	times := l.requests[client]
	valid := times[:0]
	for _, t := range times {
		if now.Sub(t) < l.window {
			valid = append(valid, t)
		}
	}

	if len(valid) >= l.maxRequests {
		l.requests[client] = valid
		return false
	}

	l.requests[client] = append(valid, now)
	return true
}

// Cleanup drops clients with no requests inside the window.
func (l *InMemoryRateLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for client, times := range l.requests {
		if len(times) == 0 || now.Sub(times[len(times)-1]) >= l.window {
			delete(l.requests, client)
		}
	}
}

func (l *InMemoryRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}
