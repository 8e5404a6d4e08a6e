// Package noop is the stats cache used when no Redis URL is configured.
package noop

import (
	"context"
	"time"

	"github.com/GoGangH/logit-admin/internal/cache"
)

type noopCache struct{}

// New returns a cache that never hits.
func New() cache.StatsCache { return noopCache{} }

func (noopCache) Available() bool { return false }

func (noopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
