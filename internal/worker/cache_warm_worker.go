package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elektromart/bundle_api/internal/cache"
	"github.com/elektromart/bundle_api/internal/repository"
)

// CacheWarmWorker periodically rebuilds the cached storefront bundle listings
// so a cold cache after invalidation never leaves the homepage querying the
// database on every request.
type CacheWarmWorker struct {
	bundles  *repository.BundleRepository
	redis    *cache.RedisClient
	interval time.Duration
	ttl      time.Duration
}

// NewCacheWarmWorker constructs a CacheWarmWorker.
func NewCacheWarmWorker(bundles *repository.BundleRepository, redis *cache.RedisClient, interval time.Duration) *CacheWarmWorker {
	return &CacheWarmWorker{
		bundles:  bundles,
		redis:    redis,
		interval: interval,
		// TTL outlives two warm cycles so a slow run never serves a gap.
		ttl: interval * 3,
	}
}

// Start begins the periodic warm loop and listens for context cancellation.
func (w *CacheWarmWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting cache warm worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Cache warm worker stopped")
			return
		}
	}
}

func (w *CacheWarmWorker) run(ctx context.Context) {
	start := time.Now()

	available, _, err := w.bundles.List(&repository.BundleFilter{
		AvailableOnly: true,
		Page:          1,
		PerPage:       50,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load available bundles for cache warm")
		return
	}
	if err := w.store(ctx, cache.KeyAvailableBundles, available); err != nil {
		log.Error().Err(err).Msg("Failed to warm available bundles cache")
		return
	}

	homepage, _, err := w.bundles.List(&repository.BundleFilter{
		AvailableOnly: true,
		HomepageOnly:  true,
		SortBy:        "display_order",
		SortDir:       "asc",
		Page:          1,
		PerPage:       50,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load homepage bundles for cache warm")
		return
	}
	if err := w.store(ctx, cache.KeyHomepageBundles, homepage); err != nil {
		log.Error().Err(err).Msg("Failed to warm homepage bundles cache")
		return
	}

	log.Debug().Dur("duration", time.Since(start)).Msg("Bundle cache warmed")
}

func (w *CacheWarmWorker) store(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.redis.Set(ctx, key, string(data), w.ttl)
}
