// Package cache defines the short-TTL cache used by the stats endpoint.
package cache

import (
	"context"
	"time"
)

// StatsCache caches rendered stats responses. Implementations must treat a
// miss as a normal outcome, not an error.
type StatsCache interface {
	Available() bool
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
