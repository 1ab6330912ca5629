package adaptive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goflare.io/cinder/internal/config"
	"goflare.io/cinder/internal/models"
)

func newTestEngine(t *testing.T, mutate func(*config.Config)) *Engine {
	t.Helper()
	cfg := config.New()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func value(v any) Loader {
	return func(ctx context.Context) (any, error) {
		return v, nil
	}
}

func TestEvictBreaksScoreTiesByOldestCreation(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now()

	older := models.NewEntry("older", 1, 0, nil, 8, now.Add(-2*time.Hour))
	newer := models.NewEntry("newer", 2, 0, nil, 8, now.Add(-1*time.Hour))
	older.LastAccessed = now
	newer.LastAccessed = now
	e.store.Restore(older)
	e.store.Restore(newer)

	// No tracked patterns: both score identically on recency alone.
	victim, ok := e.evictor.Evict(now)
	require.True(t, ok)
	assert.Equal(t, "older", victim)
	assert.Equal(t, 1, e.store.Len())
}

func TestEvictOnEmptyStoreIsNoOp(t *testing.T) {
	e := newTestEngine(t, nil)

	_, ok := e.evictor.Evict(time.Now())
	assert.False(t, ok)
}

func TestRecencyWeightTiltsEviction(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Config) {
		cfg.RecencyWeight = 100
	})
	now := time.Now()

	stale := models.NewEntry("stale", 1, 0, nil, 8, now)
	fresh := models.NewEntry("fresh", 2, 0, nil, 8, now)
	stale.LastAccessed = now.Add(-time.Hour)
	fresh.LastAccessed = now
	e.store.Restore(stale)
	e.store.Restore(fresh)

	victim, ok := e.evictor.Evict(now)
	require.True(t, ok)
	assert.Equal(t, "stale", victim)
}

func TestEstimateSizeFallsBackOnUnserializableValue(t *testing.T) {
	e := newTestEngine(t, nil)

	assert.Equal(t, int64(defaultSizeEstimate), e.estimateSize(make(chan int)))
	assert.Greater(t, e.estimateSize("some payload"), int64(0))
}

func TestAdmitEnforcesCapacity(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Config) {
		cfg.MaxSize = 1
	})
	now := time.Now()

	e.admit(models.NewEntry("first", 1, 0, nil, 8, now))
	e.admit(models.NewEntry("second", 2, 0, nil, 8, now))

	assert.Equal(t, 1, e.store.Len())
	assert.Equal(t, int64(1), e.metrics.Evictions.Load())
}

func TestPrefetchPredictedLoadsSuccessor(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.GetOrLoad(ctx, "A", value("a"))
	require.NoError(t, err)
	_, err = e.GetOrLoad(ctx, "B", value("b"))
	require.NoError(t, err)
	_, err = e.GetOrLoad(ctx, "A", value("a"))
	require.NoError(t, err)

	e.RegisterLoader("B", value("b-prefetched"))
	require.Equal(t, 1, e.Invalidate(ctx, "B"))

	e.preloader.prefetchPredicted("A")

	e.mu.Lock()
	entry, live := e.store.Peek("B", time.Now())
	e.mu.Unlock()
	require.True(t, live, "predicted successor must be prefetched")
	assert.Equal(t, "b-prefetched", entry.Value)
}

func TestInvalidateKeepsTrackerState(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.GetOrLoad(ctx, "profile:1", value("p"))
	require.NoError(t, err)
	require.Equal(t, 1, e.Invalidate(ctx, "profile:1"))

	e.mu.Lock()
	_, tracked := e.tracker.Pattern("profile:1")
	e.mu.Unlock()
	assert.True(t, tracked, "invalidation must not erase access history")
}

func TestOverwriteDoesNotEvict(t *testing.T) {
	e := newTestEngine(t, func(cfg *config.Config) {
		cfg.MaxSize = 2
	})
	ctx := context.Background()

	_, err := e.GetOrLoad(ctx, "a", value(1))
	require.NoError(t, err)
	_, err = e.GetOrLoad(ctx, "b", value(2))
	require.NoError(t, err)

	// Storing a live key replaces it in place.
	e.storeValue("a", 3, 0, nil)
	assert.Equal(t, 2, e.store.Len())
	assert.Equal(t, int64(0), e.metrics.Evictions.Load())
}
