package models

import (
	"time"

	"goflare.io/cinder/internal/utils"
)

// minObservationHours floors the observation window so that a pattern's
// frequency stays finite right after its first access.
const minObservationHours = 0.1

// Pattern holds per-key access statistics. A Pattern is created on the
// first observed access to a key and outlives the cache entry itself.
type Pattern struct {
	Key         string
	AccessCount int64
	FirstAccess time.Time
	LastAccess  time.Time
	Frequency   float64 // accesses per hour since FirstAccess
	Hits        int64
	Misses      int64
}

// NewPattern creates a Pattern for a key first observed at now.
func NewPattern(key string, now time.Time) *Pattern {
	return &Pattern{Key: key, FirstAccess: now}
}

// Observe records one access and recomputes the access frequency.
func (p *Pattern) Observe(now time.Time, hit bool) {
	p.AccessCount++
	p.LastAccess = now
	if hit {
		p.Hits++
	} else {
		p.Misses++
	}
	p.Frequency = float64(p.AccessCount) / utils.HoursSince(now, p.FirstAccess, minObservationHours)
}
