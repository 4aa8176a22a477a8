// Package rediscache backs the board cache with Redis. Keys carry the board
// version, so entries are never invalidated explicitly; stale versions just
// age out through the TTL.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	platformredis "retiro/internal/platform/redis"
)

// BoardCache implements the roster board cache on a shared Redis client.
type BoardCache struct {
	client *platformredis.Client
}

func New(client *platformredis.Client) *BoardCache {
	return &BoardCache{client: client}
}

// Get returns the cached payload and whether the key was present. A missing
// key is not an error.
func (c *BoardCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return raw, true, nil
}

func (c *BoardCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
