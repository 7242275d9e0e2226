package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/feedback-server/internal/logger"
)

// RateLimiter is a per-key token bucket. Each key gets rate requests per
// window; the bucket refills completely once the window has passed.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
	now     func() time.Time
	logger  *logger.Logger
}

type bucket struct {
	tokens     int
	lastRefill time.Time
}

func NewRateLimiter(rate int, window time.Duration, logger *logger.Logger) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		now:     time.Now,
		logger:  logger,
	}
}

// Allow takes a token for key and reports whether one was available.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok || now.Sub(b.lastRefill) >= rl.window {
		b = &bucket{tokens: rl.rate, lastRefill: now}
		rl.buckets[key] = b
	}

	if b.tokens == 0 {
		return false
	}
	b.tokens--
	return true
}

// Sweep drops buckets idle for more than two windows.
func (rl *RateLimiter) Sweep(context.Context) (int, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, b := range rl.buckets {
		if now.Sub(b.lastRefill) > 2*rl.window {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed, nil
}

// Handle rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Handle(c *gin.Context) {
	key := c.ClientIP()
	if !rl.Allow(key) {
		rl.logger.Warn("Rate limit exceeded",
			"ip", key,
			"method", c.Request.Method,
			"path", c.FullPath())
		abort(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}
	c.Next()
}
