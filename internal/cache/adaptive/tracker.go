package adaptive

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"goflare.io/cinder/internal/models"
)

// Predictor suggests likely next keys after an access. Predictions are a
// best-effort hint for prefetching and never affect cached values.
type Predictor interface {
	Predict(key string, limit int) []string
}

type accessRecord struct {
	key string
	at  time.Time
	hit bool
}

// Tracker maintains per-key access patterns and a bounded global access
// history used for adjacency-based next-key prediction. Like Store, it
// relies on the engine's lock.
type Tracker struct {
	patterns    map[string]*models.Pattern
	maxPatterns int

	// history is a ring: head is the oldest record, size the live count.
	history []accessRecord
	head    int
	size    int

	logger *zap.Logger
}

// NewTracker creates a Tracker bounded to maxPatterns patterns and
// historyCapacity history records.
func NewTracker(maxPatterns, historyCapacity int, logger *zap.Logger) *Tracker {
	return &Tracker{
		patterns:    make(map[string]*models.Pattern),
		maxPatterns: maxPatterns,
		history:     make([]accessRecord, historyCapacity),
		logger:      logger,
	}
}

// Track records one access to key. A pattern is created lazily on first
// access; when the pattern table is full, the least-accessed pattern
// makes room for the new one.
func (t *Tracker) Track(key string, hit bool, now time.Time) {
	p, found := t.patterns[key]
	if !found {
		if len(t.patterns) >= t.maxPatterns {
			t.evictColdest()
		}
		p = models.NewPattern(key, now)
		t.patterns[key] = p
	}
	p.Observe(now, hit)
	t.append(accessRecord{key: key, at: now, hit: hit})
}

// evictColdest drops the pattern with the lowest access count, breaking
// ties by the lexicographically smallest key so the choice is stable.
func (t *Tracker) evictColdest() {
	var victim string
	var victimCount int64
	for key, p := range t.patterns {
		if victim == "" || p.AccessCount < victimCount ||
			(p.AccessCount == victimCount && key < victim) {
			victim = key
			victimCount = p.AccessCount
		}
	}
	if victim != "" {
		delete(t.patterns, victim)
		t.logger.Debug("Evicted cold access pattern", zap.String("key", victim))
	}
}

func (t *Tracker) append(rec accessRecord) {
	if t.size < len(t.history) {
		t.history[(t.head+t.size)%len(t.history)] = rec
		t.size++
		return
	}
	// Full: overwrite the oldest record.
	t.history[t.head] = rec
	t.head = (t.head + 1) % len(t.history)
}

// Pattern returns the tracked pattern for key.
func (t *Tracker) Pattern(key string) (*models.Pattern, bool) {
	p, found := t.patterns[key]
	return p, found
}

// Frequency returns the tracked access frequency for key, or zero when
// the key has never been observed.
func (t *Tracker) Frequency(key string) float64 {
	if p, found := t.patterns[key]; found {
		return p.Frequency
	}
	return 0
}

// Frequent returns every pattern with at least the given access
// frequency, most frequent first.
func (t *Tracker) Frequent(threshold float64) []*models.Pattern {
	var out []*models.Pattern
	for _, p := range t.patterns {
		if p.Frequency >= threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Len returns the number of tracked patterns.
func (t *Tracker) Len() int {
	return len(t.patterns)
}

// Predict returns up to limit keys observed to follow key in the access
// history, ordered by descending adjacency count with ties broken by
// first-seen order.
func (t *Tracker) Predict(key string, limit int) []string {
	if limit <= 0 || t.size < 2 {
		return nil
	}

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	var order int

	prev := t.history[t.head]
	for i := 1; i < t.size; i++ {
		cur := t.history[(t.head+i)%len(t.history)]
		if prev.key == key {
			if _, seen := counts[cur.key]; !seen {
				firstSeen[cur.key] = order
				order++
			}
			counts[cur.key]++
		}
		prev = cur
	}

	successors := make([]string, 0, len(counts))
	for k := range counts {
		successors = append(successors, k)
	}
	sort.Slice(successors, func(i, j int) bool {
		if counts[successors[i]] != counts[successors[j]] {
			return counts[successors[i]] > counts[successors[j]]
		}
		return firstSeen[successors[i]] < firstSeen[successors[j]]
	})

	if len(successors) > limit {
		successors = successors[:limit]
	}
	return successors
}
