// Package redis backs the stats cache with a Redis instance.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoGangH/logit-admin/internal/cache"
	"github.com/redis/go-redis/v9"
)

type statsCache struct {
	client *redis.Client
}

// New connects a StatsCache from a redis URL (redis://...).
func New(url string) (cache.StatsCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid URL: %w", err)
	}
	return &statsCache{client: redis.NewClient(opts)}, nil
}

func (c *statsCache) Available() bool { return true }

func (c *statsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache get: %w", err)
	}
	return value, true, nil
}

func (c *statsCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache set: %w", err)
	}
	return nil
}
