package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the recognized options as a YAML document. Durations
// are Go duration strings ("300s", "5m"). Absent fields keep their
// current value.
type fileConfig struct {
	MaxSize           *int     `yaml:"max_size"`
	DefaultTTL        *string  `yaml:"default_ttl"`
	EnablePersistence *bool    `yaml:"enable_persistence"`
	CacheDir          *string  `yaml:"cache_dir"`
	RestoreOnStart    *bool    `yaml:"restore_on_start"`
	MaxPatterns       *int     `yaml:"max_patterns"`
	HistoryCapacity   *int     `yaml:"history_capacity"`
	PreloadThreshold  *float64 `yaml:"preload_threshold"`
	RecencyWeight     *float64 `yaml:"recency_weight"`
}

// LoadFile applies options from a YAML file on top of c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if fc.MaxSize != nil {
		c.MaxSize = *fc.MaxSize
	}
	if fc.DefaultTTL != nil {
		ttl, err := time.ParseDuration(*fc.DefaultTTL)
		if err != nil {
			return fmt.Errorf("invalid default_ttl: %w", err)
		}
		c.DefaultTTL = ttl
	}
	if fc.EnablePersistence != nil {
		c.EnablePersistence = *fc.EnablePersistence
	}
	if fc.CacheDir != nil {
		c.CacheDir = *fc.CacheDir
	}
	if fc.RestoreOnStart != nil {
		c.RestoreOnStart = *fc.RestoreOnStart
	}
	if fc.MaxPatterns != nil {
		c.MaxPatterns = *fc.MaxPatterns
	}
	if fc.HistoryCapacity != nil {
		c.HistoryCapacity = *fc.HistoryCapacity
	}
	if fc.PreloadThreshold != nil {
		c.PreloadThreshold = *fc.PreloadThreshold
	}
	if fc.RecencyWeight != nil {
		c.RecencyWeight = *fc.RecencyWeight
	}
	return nil
}
