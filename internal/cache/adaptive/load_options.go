package adaptive

import (
	"context"
	"time"

	"goflare.io/cinder/internal/config"
)

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) (any, error)

type loadOptions struct {
	ttl    time.Duration
	ttlSet bool
	tags   []string
}

// LoadOption customizes a single GetOrLoad call.
type LoadOption func(*loadOptions)

// WithTTL sets the time-to-live for the loaded entry.
func WithTTL(ttl time.Duration) LoadOption {
	return func(o *loadOptions) {
		o.ttl = ttl
		o.ttlSet = true
	}
}

// NoTTL marks the loaded entry valid until evicted.
func NoTTL() LoadOption {
	return func(o *loadOptions) {
		o.ttl = 0
		o.ttlSet = true
	}
}

// WithTags attaches invalidation tags to the loaded entry.
func WithTags(tags ...string) LoadOption {
	return func(o *loadOptions) {
		o.tags = append(o.tags, tags...)
	}
}

func newLoadOptions(cfg *config.Config, opts []LoadOption) loadOptions {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}
	if !lo.ttlSet {
		lo.ttl = cfg.DefaultTTL
	}
	return lo
}
