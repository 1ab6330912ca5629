// Package cinder is an adaptive in-process cache: a bounded key-value
// store with access-pattern tracking, frequency/recency-weighted
// eviction, pattern- and tag-based invalidation, and optional snapshot
// persistence across restarts.
package cinder

import (
	"context"
	"fmt"
	"time"

	"goflare.io/cinder/internal/cache/adaptive"
	"goflare.io/cinder/internal/config"
)

// Loader produces the value for a key on a cache miss.
type Loader = adaptive.Loader

// LoadOption customizes a single GetOrLoad call.
type LoadOption = adaptive.LoadOption

// Stats is a point-in-time snapshot of the cache counters.
type Stats = adaptive.Stats

// WithTTL sets the time-to-live for the loaded entry.
func WithTTL(ttl time.Duration) LoadOption { return adaptive.WithTTL(ttl) }

// NoTTL marks the loaded entry valid until evicted.
func NoTTL() LoadOption { return adaptive.NoTTL() }

// WithTags attaches invalidation tags to the loaded entry.
func WithTags(tags ...string) LoadOption { return adaptive.WithTags(tags...) }

// Cache is the public facade over the adaptive engine.
type Cache struct {
	engine *adaptive.Engine
}

// New creates a Cache, applying the given options on top of the
// defaults. When persistence is enabled, persisted entries that have not
// expired are restored before New returns.
func New(ctx context.Context, opts ...Option) (*Cache, error) {
	cfg := config.New()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	engine, err := adaptive.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache engine: %w", err)
	}
	return &Cache{engine: engine}, nil
}

// GetOrLoad returns the cached value for key, invoking loader exactly
// once on a miss. A loader error propagates verbatim and nothing is
// cached.
func (c *Cache) GetOrLoad(ctx context.Context, key string, loader Loader, opts ...LoadOption) (any, error) {
	return c.engine.GetOrLoad(ctx, key, loader, opts...)
}

// Invalidate removes every entry matched by trigger and returns the
// number of entries removed.
func (c *Cache) Invalidate(ctx context.Context, trigger string) int {
	return c.engine.Invalidate(ctx, trigger)
}

// AddRule registers an invalidation rule mapping a trigger substring to
// the key substrings it stales.
func (c *Cache) AddRule(trigger string, affected ...string) {
	c.engine.AddRule(trigger, affected...)
}

// RegisterTag registers keys as dependents of a tag.
func (c *Cache) RegisterTag(tag string, keys ...string) {
	c.engine.RegisterTag(tag, keys...)
}

// Preload loads every frequently accessed key that is not currently
// cached and has a loader in the map. It returns the number of keys
// loaded.
func (c *Cache) Preload(ctx context.Context, loaders map[string]Loader) int {
	return c.engine.Preload(ctx, loaders)
}

// RunPreloader re-runs Preload on a ticker until ctx is done.
func (c *Cache) RunPreloader(ctx context.Context, interval time.Duration, loaders map[string]Loader) {
	c.engine.RunPreloader(ctx, interval, loaders)
}

// RegisterLoader makes a loader available to predictive prefetch.
func (c *Cache) RegisterLoader(key string, loader Loader) {
	c.engine.RegisterLoader(key, loader)
}

// PredictNext returns up to limit keys likely to be accessed after key.
// Predictions are a best-effort hint and never affect cached values.
func (c *Cache) PredictNext(key string, limit int) []string {
	return c.engine.PredictNext(key, limit)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return c.engine.Stats()
}

// Clear empties the cache and any persisted snapshots. Counters are not
// reset.
func (c *Cache) Clear(ctx context.Context) error {
	return c.engine.Clear(ctx)
}

// Close flushes live entries to the snapshot directory when persistence
// is enabled.
func (c *Cache) Close(ctx context.Context) error {
	return c.engine.Close(ctx)
}
