package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaehyeon1716/survey-sub000/internal/response"
)

// RateLimiter is a per-IP fixed-window limiter. Windows reset in full once
// the interval elapses; there is no partial refill. Expired windows of idle
// IPs are swept inline on the next request once sweepEvery has passed, so
// the limiter owns no goroutine and is safe to construct anywhere.
type RateLimiter struct {
	mu         sync.Mutex
	windows    map[string]*window
	limit      int
	interval   time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter creates a RateLimiter allowing limit requests per interval
// per client IP.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:    make(map[string]*window),
		limit:      limit,
		interval:   interval,
		sweepEvery: time.Minute,
		lastSweep:  time.Now(),
	}
}

// Middleware returns a Gin middleware that rejects requests over the limit
// with 429.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.sweepEvery {
		rl.sweepLocked(now)
	}

	w, ok := rl.windows[ip]
	if !ok || now.After(w.resetAt) {
		rl.windows[ip] = &window{count: 1, resetAt: now.Add(rl.interval)}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// sweepLocked drops expired windows. Callers hold mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for ip, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, ip)
		}
	}
	rl.lastSweep = now
}
