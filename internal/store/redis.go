package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis carries cache reads, queued events, and the worker's tallies, all
// of which are best-effort: timeouts stay short so a slow Redis degrades
// requests instead of stalling them.
type Redis struct {
	Client *redis.Client
}

const (
	redisDialTimeout = 2 * time.Second
	redisOpTimeout   = 1500 * time.Millisecond
)

// NewRedis builds the shared client for addr.
func NewRedis(addr string) *Redis {
	return &Redis{Client: redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})}
}

// Healthy verifies connectivity, bounded by the op timeout.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return r.Client.Ping(ctx).Err() == nil
}

// Close releases the client's connections.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
