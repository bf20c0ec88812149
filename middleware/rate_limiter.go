package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"samayog/utils"
)

// RateLimiter hands out a token bucket per key (client IP, phone number).
// A bucket left idle for a full refill period is dropped; a new bucket
// starts full, so the key sees no difference.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute events per key with a burst of the same size.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idle:     time.Minute,
		now:      time.Now,
	}
}

// getLimiter returns the rate limiter for key, creating one if it doesn't exist.
func (s *RateLimiter) getLimiter(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}
	entry, exists := s.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweep drops buckets idle for at least s.idle. Callers hold s.mu.
func (s *RateLimiter) sweep(now time.Time) {
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) >= s.idle {
			delete(s.limiters, key)
		}
	}
	s.lastSweep = now
}

// Allow reports whether one more event for key fits the budget.
func (s *RateLimiter) Allow(key string) bool {
	now := s.now()
	return s.getLimiter(key, now).AllowN(now, 1)
}

// Len returns the number of keys currently tracked.
func (s *RateLimiter) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}

// RateLimitMiddleware limits requests per client IP address.
func RateLimitMiddleware(limiter *RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	logger = utils.OrNop(logger)
	return func(c *gin.Context) {
		ip := clientIP(c)
		if !limiter.Allow(ip) {
			logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", c.Request.URL.Path))
			utils.JSONError(c, http.StatusTooManyRequests, "rate_limited", "Rate limit exceeded. Try again later.")
			return
		}
		c.Next()
	}
}

// clientIP keys a request by the first X-Forwarded-For hop, then X-Real-IP,
// then the peer address gin reports.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(c.GetHeader("X-Real-IP")); xri != "" {
		return xri
	}
	return c.ClientIP()
}
