package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/KilloQ/StudentsClubs/pkg/response"
)

const (
	// limiterCleanupThreshold is the map size above which idle entries are pruned.
	limiterCleanupThreshold = 10000
	limiterMaxIdleAge       = 10 * time.Minute
)

// RateLimitStore is a shared sliding-window counter. pkg/redis.Client satisfies it.
type RateLimitStore interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter is the per-process token bucket used when the shared store is
// unavailable. limit requests per window, bursting up to limit.
type IPRateLimiter struct {
	mu  sync.Mutex
	ips map[string]*ipEntry
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates an IPRateLimiter.
func NewIPRateLimiter(limit int, window time.Duration) *IPRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   rate.Every(window / time.Duration(limit)),
		b:   limit,
	}
}

// Allow consumes one token for key.
func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.ips) > limiterCleanupThreshold {
		cutoff := time.Now().Add(-limiterMaxIdleAge)
		for k, e := range l.ips {
			if e.lastSeen.Before(cutoff) {
				delete(l.ips, k)
			}
		}
	}

	e, ok := l.ips[key]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.ips[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// RateLimit limits requests per client IP and route. store may be nil; the
// in-process fallback is used then and whenever the store errors.
func RateLimit(store RateLimitStore, fallback *IPRateLimiter, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())

		var allowed bool
		if store != nil {
			ok, err := store.CheckRateLimit(c.Request.Context(), key, limit, window)
			if err != nil {
				logger.Warn("rate limit store unavailable, using local limiter", zap.Error(err))
				allowed = fallback.Allow(key)
			} else {
				allowed = ok
			}
		} else {
			allowed = fallback.Allow(key)
		}

		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10006, "too many requests, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
