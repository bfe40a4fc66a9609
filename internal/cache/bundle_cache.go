package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Keys for cached bundle views consumed by the storefront.
const (
	KeyHomepageBundles  = "bundles:homepage"
	KeyAvailableBundles = "bundles:available"
)

// BundleCache invalidates cached bundle listings after mutations.
// Invalidation is fire-and-forget: a cache failure is logged, never
// propagated, so it cannot fail or block the mutating transaction.
type BundleCache struct {
	redis *RedisClient
}

// NewBundleCache creates a BundleCache over the shared Redis client.
func NewBundleCache(redis *RedisClient) *BundleCache {
	return &BundleCache{redis: redis}
}

// Invalidate drops every storefront-facing bundle listing key. It runs
// detached from the request context so a finished request cannot cancel the
// invalidation mid-flight.
func (c *BundleCache) Invalidate() {
	if c == nil || c.redis == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redis.Delete(ctx, KeyHomepageBundles, KeyAvailableBundles); err != nil {
			log.Warn().Err(err).Msg("bundle cache invalidation failed")
		}
	}()
}
