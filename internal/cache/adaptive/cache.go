// Package adaptive implements the cache engine: a bounded store with
// access-pattern tracking, frequency/recency-weighted eviction,
// pattern- and tag-based invalidation, and optional snapshot
// persistence for warm restarts.
package adaptive

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"goflare.io/cinder/internal/config"
	"goflare.io/cinder/internal/models"
	"goflare.io/cinder/internal/persist"
	"goflare.io/cinder/pkg/serialization"
)

var (
	ErrEmptyKey  = errors.New("cache key must not be empty")
	ErrNilLoader = errors.New("loader must not be nil")
)

// defaultSizeEstimate is used when a payload cannot be serialized for
// size reporting.
const defaultSizeEstimate = 1024

// Stats is a point-in-time snapshot of the engine counters.
type Stats struct {
	Hits            int64
	Misses          int64
	Evictions       int64
	Invalidations   int64
	LoaderFailures  int64
	PersistFailures int64

	Size            int
	Capacity        int
	TrackedPatterns int
	Rules           int

	HitRate float64
}

// Engine composes the store, tracker, evictor, invalidator, preloader
// and optional persistence under one lock. Loaders run outside the lock
// in a per-key singleflight group, so a slow loader for one key does not
// block operations on others while still running at most once per key.
type Engine struct {
	cfg *config.Config

	mu          sync.Mutex
	store       *Store
	tracker     *Tracker
	evictor     *Evictor
	invalidator *Invalidator
	preloader   *Preloader
	persist     *persist.Store // nil when persistence is disabled

	flight  singleflight.Group
	metrics *models.Metrics
	tracer  trace.Tracer
	logger  *zap.Logger
}

// NewEngine creates an Engine from cfg, restoring persisted entries when
// persistence is enabled and RestoreOnStart is set.
func NewEngine(cfg *config.Config) (*Engine, error) {
	e := &Engine{
		cfg:     cfg,
		metrics: models.NewMetrics(),
		tracer:  otel.Tracer("cinder"),
		logger:  cfg.Logger,
	}
	e.store = NewStore(cfg.Logger)
	e.tracker = NewTracker(cfg.MaxPatterns, cfg.HistoryCapacity, cfg.Logger)
	e.evictor = NewEvictor(e)
	e.invalidator = NewInvalidator(cfg.Logger)
	e.preloader = NewPreloader(e)

	if cfg.EnablePersistence {
		ps, err := persist.Open(cfg.CacheDir, cfg.Serialization.Encoder, cfg.Serialization.Decoder, cfg.Logger)
		if err != nil {
			return nil, err
		}
		e.persist = ps

		if cfg.RestoreOnStart {
			restored := ps.LoadAll()
			for _, entry := range restored {
				e.admit(entry)
			}
			if len(restored) > 0 {
				e.logger.Info("Restored cache entries from snapshots",
					zap.Int("count", len(restored)))
			}
		}
	}

	return e, nil
}

// GetOrLoad returns the cached value for key, or invokes loader exactly
// once to produce, store and return it. A loader error propagates
// verbatim and nothing is cached.
func (e *Engine) GetOrLoad(ctx context.Context, key string, loader Loader, opts ...LoadOption) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	if loader == nil {
		return nil, ErrNilLoader
	}

	ctx, span := e.tracer.Start(ctx, "cinder.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	now := time.Now()
	e.mu.Lock()
	entry, found, wasExpired := e.store.Get(key, now)
	if found {
		e.tracker.Track(key, true, now)
		e.metrics.Hits.Inc()
		value := entry.Value
		e.mu.Unlock()

		span.SetAttributes(attribute.Bool("cache.hit", true))
		if e.cfg.EnablePredictivePrefetch {
			go e.preloader.prefetchPredicted(key)
		}
		return value, nil
	}
	e.tracker.Track(key, false, now)
	e.metrics.Misses.Inc()
	e.mu.Unlock()
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if wasExpired && e.persist != nil {
		e.persist.Remove(key)
	}

	value, err, _ := e.flight.Do(key, func() (any, error) {
		return e.load(ctx, key, loader, opts)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return value, nil
}

// load runs inside the singleflight group for key.
func (e *Engine) load(ctx context.Context, key string, loader Loader, opts []LoadOption) (any, error) {
	// An earlier flight may have stored the key after our miss check.
	e.mu.Lock()
	if entry, found := e.store.Peek(key, time.Now()); found {
		value := entry.Value
		e.mu.Unlock()
		return value, nil
	}
	e.mu.Unlock()

	// Lazy warm start: prefer a live snapshot over hitting the loader.
	if e.persist != nil && !e.cfg.RestoreOnStart {
		if restored, found := e.persist.Fetch(key); found {
			e.admit(restored)
			return restored.Value, nil
		}
	}

	value, err := loader(ctx)
	if err != nil {
		e.metrics.LoaderFailures.Inc()
		return nil, err
	}

	lo := newLoadOptions(e.cfg, opts)
	entry := e.storeValue(key, value, lo.ttl, lo.tags)
	e.persistEntry(entry)
	return value, nil
}

// storeValue inserts the loaded value, evicting per policy while the
// insertion would exceed capacity. It returns a copy of the stored entry
// safe to persist outside the lock.
func (e *Engine) storeValue(key string, value any, ttl time.Duration, tags []string) *models.Entry {
	size := e.estimateSize(value)
	now := time.Now()

	e.mu.Lock()
	var evicted []string
	if _, present := e.store.Peek(key, now); !present {
		for e.store.Len() >= e.cfg.MaxSize {
			victim, ok := e.evictor.Evict(now)
			if !ok {
				break
			}
			e.metrics.Evictions.Inc()
			evicted = append(evicted, victim)
		}
	}
	entry := e.store.Put(key, value, ttl, tags, size, now)
	snapshot := *entry
	e.mu.Unlock()

	if e.persist != nil {
		for _, k := range evicted {
			e.persist.Remove(k)
		}
	}
	return &snapshot
}

// admit reinserts a restored entry with its metadata intact, applying
// the same capacity enforcement as a fresh insertion.
func (e *Engine) admit(restored *models.Entry) {
	now := time.Now()

	e.mu.Lock()
	var evicted []string
	if _, present := e.store.Peek(restored.Key, now); !present {
		for e.store.Len() >= e.cfg.MaxSize {
			victim, ok := e.evictor.Evict(now)
			if !ok {
				break
			}
			e.metrics.Evictions.Inc()
			evicted = append(evicted, victim)
		}
		e.store.Restore(restored)
	}
	e.mu.Unlock()

	if e.persist != nil {
		for _, k := range evicted {
			e.persist.Remove(k)
		}
	}
}

func (e *Engine) persistEntry(entry *models.Entry) {
	if e.persist == nil {
		return
	}
	if err := e.persist.Persist(entry); err != nil {
		e.metrics.PersistFailures.Inc()
		e.logger.Warn("Failed to persist cache entry",
			zap.String("key", entry.Key), zap.Error(err))
	}
}

func (e *Engine) estimateSize(value any) int64 {
	data, err := serialization.Marshal(e.cfg.Serialization.Encoder, value)
	if err != nil {
		e.logger.Debug("Falling back to default size estimate", zap.Error(err))
		return defaultSizeEstimate
	}
	return int64(len(data))
}

// Invalidate removes every entry matched by trigger: rule-resolved key
// substrings, tag-registered keys, live keys containing the trigger and
// live entries carrying a matching tag. It returns the number of entries
// removed. Tracker state for removed keys is retained so future
// predictions stay informed.
func (e *Engine) Invalidate(ctx context.Context, trigger string) int {
	_, span := e.tracer.Start(ctx, "cinder.Invalidate",
		trace.WithAttributes(attribute.String("cache.trigger", trigger)))
	defer span.End()

	e.mu.Lock()
	patterns, tagKeys := e.invalidator.Resolve(trigger)

	victims := make(map[string]struct{}, len(tagKeys))
	for k := range tagKeys {
		victims[k] = struct{}{}
	}
	e.store.Range(func(entry *models.Entry) bool {
		if matchesTrigger(entry.Key, entry.Tags, trigger, patterns) {
			victims[entry.Key] = struct{}{}
		}
		return true
	})

	removed := 0
	for k := range victims {
		if e.store.Remove(k) {
			removed++
		}
	}
	e.mu.Unlock()

	if e.persist != nil {
		// Purge snapshots for every resolved victim, live or not, and in
		// lazy-restore mode also for snapshot-only keys matching the
		// trigger; a later miss would otherwise resurrect a stale value.
		for k := range victims {
			e.persist.Remove(k)
		}
		if !e.cfg.RestoreOnStart {
			e.persist.RemoveMatching(func(key string, tags []string) bool {
				return matchesTrigger(key, tags, trigger, patterns)
			})
		}
	}

	e.metrics.Invalidations.Add(int64(removed))
	span.SetAttributes(attribute.Int("cache.invalidated", removed))
	e.logger.Debug("Invalidated cache entries",
		zap.String("trigger", trigger), zap.Int("count", removed))
	return removed
}

func matchesTrigger(key string, tags []string, trigger string, patterns []string) bool {
	if strings.Contains(key, trigger) {
		return true
	}
	for _, tag := range tags {
		if symmetricMatch(tag, trigger) {
			return true
		}
	}
	for _, p := range patterns {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// AddRule registers an invalidation rule.
func (e *Engine) AddRule(trigger string, affected ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidator.AddRule(trigger, affected...)
}

// RegisterTag registers keys as dependents of a tag.
func (e *Engine) RegisterTag(tag string, keys ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.invalidator.RegisterTag(tag, keys...)
}

// Preload delegates to the preloader.
func (e *Engine) Preload(ctx context.Context, loaders map[string]Loader) int {
	ctx, span := e.tracer.Start(ctx, "cinder.Preload")
	defer span.End()

	loaded := e.preloader.Preload(ctx, loaders)
	span.SetAttributes(attribute.Int("cache.preloaded", loaded))
	return loaded
}

// RunPreloader re-runs Preload on a ticker until ctx is done.
func (e *Engine) RunPreloader(ctx context.Context, interval time.Duration, loaders map[string]Loader) {
	e.preloader.Run(ctx, interval, loaders)
}

// RegisterLoader makes a loader available to predictive prefetch.
func (e *Engine) RegisterLoader(key string, loader Loader) {
	e.preloader.RegisterLoader(key, loader)
}

// PredictNext returns up to limit keys likely to be accessed after key.
func (e *Engine) PredictNext(key string, limit int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Predict(key, limit)
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	size := e.store.Len()
	tracked := e.tracker.Len()
	rules := e.invalidator.Rules()
	e.mu.Unlock()

	s := Stats{
		Hits:            e.metrics.Hits.Load(),
		Misses:          e.metrics.Misses.Load(),
		Evictions:       e.metrics.Evictions.Load(),
		Invalidations:   e.metrics.Invalidations.Load(),
		LoaderFailures:  e.metrics.LoaderFailures.Load(),
		PersistFailures: e.metrics.PersistFailures.Load(),
		Size:            size,
		Capacity:        e.cfg.MaxSize,
		TrackedPatterns: tracked,
		Rules:           rules,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Clear empties the store and, when persistence is enabled, the snapshot
// directory. Counters are not reset.
func (e *Engine) Clear(ctx context.Context) error {
	_, span := e.tracer.Start(ctx, "cinder.Clear")
	defer span.End()

	e.mu.Lock()
	e.store.Reset()
	e.mu.Unlock()

	if e.persist != nil {
		return e.persist.Clear()
	}
	return nil
}

// Close re-persists live entries so their final access metadata survives
// the restart. Persist failures are logged, not returned.
func (e *Engine) Close(ctx context.Context) error {
	if e.persist == nil {
		return nil
	}

	e.mu.Lock()
	snapshots := make([]*models.Entry, 0, e.store.Len())
	e.store.Range(func(entry *models.Entry) bool {
		cp := *entry
		snapshots = append(snapshots, &cp)
		return true
	})
	e.mu.Unlock()

	for _, entry := range snapshots {
		e.persistEntry(entry)
	}
	return nil
}
