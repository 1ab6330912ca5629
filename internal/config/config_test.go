package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultMaxSize, cfg.MaxSize)
	assert.Equal(t, DefaultTTL, cfg.DefaultTTL)
	assert.False(t, cfg.EnablePersistence)
	assert.Equal(t, DefaultCacheDir, cfg.CacheDir)
	assert.True(t, cfg.RestoreOnStart)
	assert.Equal(t, DefaultMaxPatterns, cfg.MaxPatterns)
	assert.Equal(t, DefaultHistoryCapacity, cfg.HistoryCapacity)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Serialization.Encoder)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsZeroBounds(t *testing.T) {
	cfg := New()
	cfg.MaxSize = 0
	assert.ErrorIs(t, cfg.Validate(), ErrMaxSizeZero)

	cfg = New()
	cfg.MaxPatterns = 0
	assert.ErrorIs(t, cfg.Validate(), ErrMaxPatternsZero)

	cfg = New()
	cfg.HistoryCapacity = 0
	assert.ErrorIs(t, cfg.Validate(), ErrHistoryCapacityZero)

	cfg = New()
	cfg.EnablePersistence = true
	cfg.CacheDir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrCacheDirEmpty)
}

func TestLoadFileAppliesRecognizedOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	doc := `
max_size: 50
default_ttl: 90s
enable_persistence: true
cache_dir: /tmp/warm
max_patterns: 200
history_capacity: 5000
preload_threshold: 5.5
recency_weight: 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 50, cfg.MaxSize)
	assert.Equal(t, 90*time.Second, cfg.DefaultTTL)
	assert.True(t, cfg.EnablePersistence)
	assert.Equal(t, "/tmp/warm", cfg.CacheDir)
	assert.Equal(t, 200, cfg.MaxPatterns)
	assert.Equal(t, 5000, cfg.HistoryCapacity)
	assert.Equal(t, 5.5, cfg.PreloadThreshold)
	assert.Equal(t, 2.0, cfg.RecencyWeight)
}

func TestLoadFileKeepsUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_size: 7\n"), 0o644))

	cfg := New()
	require.NoError(t, cfg.LoadFile(path))

	assert.Equal(t, 7, cfg.MaxSize)
	assert.Equal(t, DefaultTTL, cfg.DefaultTTL)
	assert.Equal(t, DefaultMaxPatterns, cfg.MaxPatterns)
}

func TestLoadFileErrors(t *testing.T) {
	cfg := New()
	assert.Error(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_ttl: not-a-duration\n"), 0o644))
	assert.Error(t, cfg.LoadFile(path))
}
