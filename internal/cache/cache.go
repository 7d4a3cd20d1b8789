// Package cache wraps the two date-keyed list queries in a Redis
// read-through TTL cache. The domain core stays cache-free: the HTTP layer
// consults the cache before calling the service and drops the affected
// keys after any mutation.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a key-based TTL cache over Redis. A nil *Cache is a no-op, so
// callers need no branching when Redis is not configured.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache with the given TTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

// LessonsKey is the cache key for the lessons-on-date query.
func LessonsKey(date string) string { return "classtrack:lessons:" + date }

// AttendanceKey is the cache key for the attendance-by-date query.
func AttendanceKey(date string) string { return "classtrack:attendance:" + date }

// Get returns the cached payload for key, or false on miss or any Redis
// error. Errors are deliberately swallowed: the caller just recomputes.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Set stores a payload under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, key, payload, c.ttl).Err()
}

// Invalidate drops the given keys after a mutation.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}
