package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTrackerCreatesPatternsLazily(t *testing.T) {
	tr := NewTracker(10, 100, zap.NewNop())
	now := time.Now()

	tr.Track("a", false, now)
	tr.Track("a", true, now)

	p, found := tr.Pattern("a")
	require.True(t, found)
	assert.Equal(t, int64(2), p.AccessCount)
	assert.Equal(t, int64(1), p.Hits)
	assert.Equal(t, int64(1), p.Misses)
	assert.Equal(t, 1, tr.Len())
}

func TestTrackerFrequencyFloorsObservationWindow(t *testing.T) {
	tr := NewTracker(10, 100, zap.NewNop())
	now := time.Now()

	for i := 0; i < 3; i++ {
		tr.Track("a", true, now)
	}

	// Three accesses inside the 0.1h minimum window: 3 / 0.1 = 30/h.
	assert.InDelta(t, 30.0, tr.Frequency("a"), 0.5)
	assert.Zero(t, tr.Frequency("never-seen"))
}

func TestTrackerEvictsLeastAccessedPatternAtCapacity(t *testing.T) {
	tr := NewTracker(2, 100, zap.NewNop())
	now := time.Now()

	tr.Track("a", true, now)
	tr.Track("a", true, now)
	tr.Track("b", true, now)
	tr.Track("b", true, now)
	tr.Track("b", true, now)

	tr.Track("c", false, now)

	assert.Equal(t, 2, tr.Len())
	_, found := tr.Pattern("a")
	assert.False(t, found, "the least-accessed pattern must be evicted")
	_, found = tr.Pattern("b")
	assert.True(t, found)
	_, found = tr.Pattern("c")
	assert.True(t, found)
}

func TestTrackerHistoryRingOverwritesOldest(t *testing.T) {
	tr := NewTracker(10, 3, zap.NewNop())
	now := time.Now()

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		tr.Track(key, true, now)
	}

	assert.Equal(t, 3, tr.size)
	// Only c, d, e remain; the only observed successor of c is d.
	assert.Equal(t, []string{"d"}, tr.Predict("c", 5))
	assert.Empty(t, tr.Predict("a", 5), "overwritten history must not predict")
}

func TestPredictOrdersByAdjacencyCount(t *testing.T) {
	tr := NewTracker(10, 100, zap.NewNop())
	now := time.Now()

	for _, key := range []string{"a", "b", "a", "c", "a", "b"} {
		tr.Track(key, true, now)
	}

	// Successors of a: b twice, c once.
	assert.Equal(t, []string{"b", "c"}, tr.Predict("a", 5))
	assert.Equal(t, []string{"b"}, tr.Predict("a", 1))
}

func TestPredictBreaksTiesByFirstSeen(t *testing.T) {
	tr := NewTracker(10, 100, zap.NewNop())
	now := time.Now()

	for _, key := range []string{"a", "b", "a", "c"} {
		tr.Track(key, true, now)
	}

	assert.Equal(t, []string{"b", "c"}, tr.Predict("a", 5))
}

func TestFrequentFiltersAndSorts(t *testing.T) {
	tr := NewTracker(10, 100, zap.NewNop())
	now := time.Now()

	for i := 0; i < 3; i++ {
		tr.Track("hot", true, now)
	}
	tr.Track("cold", true, now)

	frequent := tr.Frequent(25)
	require.Len(t, frequent, 1)
	assert.Equal(t, "hot", frequent[0].Key)

	all := tr.Frequent(0)
	require.Len(t, all, 2)
	assert.Equal(t, "hot", all[0].Key, "most frequent first")
}
