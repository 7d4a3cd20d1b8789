package httpmiddleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter is an in-memory per-client token bucket; for multi-instance
// deployments swap to a Redis-backed limiter.
type Limiter struct {
	capacity int
	rate     int
	mu       sync.Mutex
	state    map[string]*bucket
	lastSeen map[string]time.Time
}

type bucket struct {
	tokens int
	last   time.Time
}

// NewLimiter creates a limiter with capacity tokens refilled at perMinute.
func NewLimiter(capacity, perMinute int) *Limiter {
	if capacity <= 0 {
		capacity = perMinute
	}
	return &Limiter{
		capacity: capacity,
		rate:     perMinute,
		state:    make(map[string]*bucket),
		lastSeen: make(map[string]time.Time),
	}
}

// Gin returns a handler enforcing per-IP limits.
func (l *Limiter) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.allow(ip) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}

func (l *Limiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.lastSeen[key] = now
	if len(l.state) > 10000 {
		l.pruneLocked(now)
	}
	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: l.capacity - 1, last: now}
		return true
	}
	elapsed := now.Sub(b.last).Minutes()
	refill := int(elapsed * float64(l.rate))
	if refill > 0 {
		b.tokens += refill
		if b.tokens > l.capacity {
			b.tokens = l.capacity
		}
		b.last = now
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// pruneLocked drops buckets idle for over an hour to bound the map.
func (l *Limiter) pruneLocked(now time.Time) {
	for key, seen := range l.lastSeen {
		if now.Sub(seen) > time.Hour {
			delete(l.state, key)
			delete(l.lastSeen, key)
		}
	}
}
