package models

import "go.uber.org/atomic"

// Metrics stores engine counters. Counters only ever grow; Clear does not
// reset them.
type Metrics struct {
	Hits            *atomic.Int64
	Misses          *atomic.Int64
	Evictions       *atomic.Int64
	Invalidations   *atomic.Int64
	LoaderFailures  *atomic.Int64
	PersistFailures *atomic.Int64
}

// NewMetrics creates a zeroed Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		Hits:            atomic.NewInt64(0),
		Misses:          atomic.NewInt64(0),
		Evictions:       atomic.NewInt64(0),
		Invalidations:   atomic.NewInt64(0),
		LoaderFailures:  atomic.NewInt64(0),
		PersistFailures: atomic.NewInt64(0),
	}
}
