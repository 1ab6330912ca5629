package cinder

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"goflare.io/cinder/internal/config"
	"goflare.io/cinder/pkg/serialization"
)

// Option configures the cache at construction time.
type Option func(*config.Config) error

// WithLogger sets a custom logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config.Config) error {
		if logger != nil {
			cfg.Logger = logger
		}
		return nil
	}
}

// WithMaxSize sets the maximum number of live entries.
func WithMaxSize(maxSize int) Option {
	return func(cfg *config.Config) error {
		if maxSize < 1 {
			return config.ErrMaxSizeZero
		}
		cfg.MaxSize = maxSize
		return nil
	}
}

// WithDefaultTTL sets the time-to-live applied when a GetOrLoad call
// does not specify one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(cfg *config.Config) error {
		if ttl < 0 {
			return errors.New("default ttl must not be negative")
		}
		cfg.DefaultTTL = ttl
		return nil
	}
}

// WithPersistence enables snapshot persistence under dir.
func WithPersistence(dir string) Option {
	return func(cfg *config.Config) error {
		if dir == "" {
			return config.ErrCacheDirEmpty
		}
		cfg.EnablePersistence = true
		cfg.CacheDir = dir
		return nil
	}
}

// WithLazyRestore defers snapshot restore from startup to the first miss
// per key.
func WithLazyRestore() Option {
	return func(cfg *config.Config) error {
		cfg.RestoreOnStart = false
		return nil
	}
}

// WithMaxPatterns bounds the number of tracked access patterns.
func WithMaxPatterns(maxPatterns int) Option {
	return func(cfg *config.Config) error {
		if maxPatterns < 1 {
			return config.ErrMaxPatternsZero
		}
		cfg.MaxPatterns = maxPatterns
		return nil
	}
}

// WithHistoryCapacity bounds the global access history used for
// next-key prediction.
func WithHistoryCapacity(capacity int) Option {
	return func(cfg *config.Config) error {
		if capacity < 1 {
			return config.ErrHistoryCapacityZero
		}
		cfg.HistoryCapacity = capacity
		return nil
	}
}

// WithPreloadThreshold sets the access frequency (per hour) above which
// a pattern is considered preload-worthy.
func WithPreloadThreshold(threshold float64) Option {
	return func(cfg *config.Config) error {
		cfg.PreloadThreshold = threshold
		return nil
	}
}

// WithRecencyWeight scales recency against frequency in the eviction
// score. The default of 1 matches the reference scoring.
func WithRecencyWeight(weight float64) Option {
	return func(cfg *config.Config) error {
		cfg.RecencyWeight = weight
		return nil
	}
}

// WithPredictivePrefetch enables background prefetch of up to count
// predicted successor keys after every hit.
func WithPredictivePrefetch(count int) Option {
	return func(cfg *config.Config) error {
		if count < 1 {
			return errors.New("prefetch count must be at least 1")
		}
		cfg.EnablePredictivePrefetch = true
		cfg.PrefetchCount = count
		return nil
	}
}

// WithSerialization selects the encoder pair used for size estimation
// and snapshot files. The codec shapes what a restored value looks like:
// under JSON, numeric payloads come back as float64; gob preserves
// concrete types but requires callers to gob.Register any type stored
// behind an interface.
func WithSerialization(serializer string) Option {
	return func(cfg *config.Config) error {
		switch serializer {
		case serialization.JSONType:
			cfg.Serialization.Type = serialization.JSONType
			cfg.Serialization.Encoder = serialization.JSONEncoder
			cfg.Serialization.Decoder = serialization.JSONDecoder
		case serialization.GobType:
			cfg.Serialization.Type = serialization.GobType
			cfg.Serialization.Encoder = serialization.GobEncoder
			cfg.Serialization.Decoder = serialization.GobDecoder
		default:
			return fmt.Errorf("unsupported serialization type: %s", serializer)
		}
		return nil
	}
}

// WithConfigFile applies options from a YAML file. Options given after
// this one override values from the file.
func WithConfigFile(path string) Option {
	return func(cfg *config.Config) error {
		return cfg.LoadFile(path)
	}
}
