// Package config holds the engine configuration and its defaults.
package config

import (
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"goflare.io/cinder/pkg/serialization"
)

// Defaults for the recognized options.
const (
	DefaultMaxSize         = 1000
	DefaultTTL             = 5 * time.Minute
	DefaultCacheDir        = "cache"
	DefaultMaxPatterns     = 1000
	DefaultHistoryCapacity = 10000

	// DefaultPreloadThreshold is the access frequency (per hour) above
	// which a pattern is considered preload-worthy.
	DefaultPreloadThreshold = 10.0

	// DefaultRecencyWeight scales recency against frequency in the
	// eviction score. Kept at 1 for compatibility with the reference
	// scoring.
	DefaultRecencyWeight = 1.0

	DefaultPrefetchCount = 3
)

var (
	ErrMaxSizeZero         = errors.New("max size must be at least 1")
	ErrMaxPatternsZero     = errors.New("max patterns must be at least 1")
	ErrHistoryCapacityZero = errors.New("history capacity must be at least 1")
	ErrCacheDirEmpty       = errors.New("cache dir must not be empty when persistence is enabled")
)

// SerializationConfig selects the encoder pair used for size estimation
// and snapshot files.
type SerializationConfig struct {
	Type    string
	Encoder func(io.Writer) serialization.Encoder
	Decoder func(io.Reader) serialization.Decoder
}

// Config is the full engine configuration.
type Config struct {
	MaxSize         int
	DefaultTTL      time.Duration
	MaxPatterns     int
	HistoryCapacity int

	EnablePersistence bool
	CacheDir          string
	RestoreOnStart    bool

	PreloadThreshold         float64
	RecencyWeight            float64
	EnablePredictivePrefetch bool
	PrefetchCount            int

	Serialization SerializationConfig
	Logger        *zap.Logger
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		MaxSize:          DefaultMaxSize,
		DefaultTTL:       DefaultTTL,
		MaxPatterns:      DefaultMaxPatterns,
		HistoryCapacity:  DefaultHistoryCapacity,
		CacheDir:         DefaultCacheDir,
		RestoreOnStart:   true,
		PreloadThreshold: DefaultPreloadThreshold,
		RecencyWeight:    DefaultRecencyWeight,
		PrefetchCount:    DefaultPrefetchCount,
		Serialization: SerializationConfig{
			Type:    serialization.JSONType,
			Encoder: serialization.JSONEncoder,
			Decoder: serialization.JSONDecoder,
		},
		Logger: zap.NewNop(),
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.MaxSize < 1 {
		return ErrMaxSizeZero
	}
	if c.MaxPatterns < 1 {
		return ErrMaxPatternsZero
	}
	if c.HistoryCapacity < 1 {
		return ErrHistoryCapacityZero
	}
	if c.EnablePersistence && c.CacheDir == "" {
		return ErrCacheDirEmpty
	}
	return nil
}
