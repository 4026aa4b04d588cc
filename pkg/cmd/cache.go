package cmd

import (
	"context"
	"time"

	"github.com/dukex/stepflow/pkg/cache"
)

// NewViewCache connects to Redis when redisURL is set and otherwise returns
// a cache that stores nothing.
func NewViewCache(ctx context.Context, redisURL string, ttl time.Duration) (cache.ViewCache, error) {
	if redisURL == "" {
		return cache.Noop{}, nil
	}

	return cache.Connect(ctx, redisURL, ttl)
}
