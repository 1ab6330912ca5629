// Package persist implements the optional snapshot layer used for warm
// restarts. One file per entry, named by a digest of the key. All
// operations are best-effort: callers log and continue on failure.
package persist

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/sony/gobreaker"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"goflare.io/cinder/internal/models"
	"goflare.io/cinder/internal/utils"
	"goflare.io/cinder/pkg/serialization"
)

const (
	snapshotExt = ".snap"

	filterExpectedItems     = 10000
	filterFalsePositiveRate = 0.01
)

// snapshot is the on-disk form of a cache entry. Timestamps serialize as
// RFC 3339 under the JSON codec. The TTL is fractional seconds so that
// sub-second TTLs survive the round trip instead of collapsing to "no
// TTL". Values round-trip through the configured codec: under JSON,
// numeric payloads restore as float64; gob payloads need their concrete
// types registered with gob.Register by the caller.
type snapshot struct {
	Key          string    `json:"key"`
	Value        any       `json:"value"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	AccessCount  int64     `json:"access_count"`
	TTLSeconds   *float64  `json:"ttl_seconds"`
	Tags         []string  `json:"tags"`
	SizeBytes    int64     `json:"size_bytes"`
}

// Store writes and reads entry snapshots under a single directory.
type Store struct {
	dir    string
	enc    func(io.Writer) serialization.Encoder
	dec    func(io.Reader) serialization.Decoder
	logger *zap.Logger

	// filter tracks digests with a snapshot on disk so that lazy
	// restores skip the filesystem for definite negatives.
	filterMu sync.Mutex
	filter   *bloom.BloomFilter

	breaker *gobreaker.CircuitBreaker
}

// Open prepares the snapshot directory and indexes existing snapshots
// into the bloom filter. A missing directory is created, not an error.
func Open(dir string, enc func(io.Writer) serialization.Encoder, dec func(io.Reader) serialization.Decoder, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	s := &Store{
		dir:    dir,
		enc:    enc,
		dec:    dec,
		logger: logger,
		filter: bloom.NewWithEstimates(filterExpectedItems, filterFalsePositiveRate),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "snapshot-writer",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != snapshotExt {
			continue
		}
		digest := de.Name()[:len(de.Name())-len(snapshotExt)]
		s.filter.AddString(digest)
	}

	return s, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, utils.KeyDigest(key)+snapshotExt)
}

// Persist writes one entry snapshot. Write errors trip the breaker so a
// failing disk stops being hammered; the returned error is informational
// and must not fail the caching operation that triggered it.
func (s *Store) Persist(e *models.Entry) error {
	snap := snapshot{
		Key:          e.Key,
		Value:        e.Value,
		CreatedAt:    e.CreatedAt,
		LastAccessed: e.LastAccessed,
		AccessCount:  e.AccessCount,
		Tags:         e.Tags,
		SizeBytes:    e.SizeBytes,
	}
	if e.TTL > 0 {
		secs := e.TTL.Seconds()
		snap.TTLSeconds = &secs
	}

	_, err := s.breaker.Execute(func() (any, error) {
		data, err := serialization.Marshal(s.enc, snap)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
		}
		if err := os.WriteFile(s.path(e.Key), data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write snapshot: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	s.filterMu.Lock()
	s.filter.AddString(utils.KeyDigest(e.Key))
	s.filterMu.Unlock()
	return nil
}

// Fetch reads back the snapshot for key, if one exists and has not
// expired. Expired or unreadable snapshots are removed.
func (s *Store) Fetch(key string) (*models.Entry, bool) {
	s.filterMu.Lock()
	mayExist := s.filter.TestString(utils.KeyDigest(key))
	s.filterMu.Unlock()
	if !mayExist {
		return nil, false
	}

	e, ok := s.read(s.path(key))
	if !ok {
		return nil, false
	}
	if e.Key != key {
		// Digest collision; treat as absent.
		return nil, false
	}
	return e, true
}

// LoadAll reads every snapshot in the directory, discarding entries whose
// TTL expired while the process was down.
func (s *Store) LoadAll() []*models.Entry {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Failed to read snapshot dir", zap.String("dir", s.dir), zap.Error(err))
		return nil
	}

	var loaded []*models.Entry
	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != snapshotExt {
			continue
		}
		if e, ok := s.read(filepath.Join(s.dir, de.Name())); ok {
			loaded = append(loaded, e)
		}
	}
	return loaded
}

func (s *Store) read(path string) (*models.Entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to read snapshot", zap.String("path", path), zap.Error(err))
		}
		return nil, false
	}

	var snap snapshot
	if err := serialization.Unmarshal(s.dec, data, &snap); err != nil {
		s.logger.Warn("Discarding corrupt snapshot", zap.String("path", path), zap.Error(err))
		_ = os.Remove(path)
		return nil, false
	}

	e := &models.Entry{
		Key:          snap.Key,
		Value:        snap.Value,
		CreatedAt:    snap.CreatedAt,
		LastAccessed: snap.LastAccessed,
		AccessCount:  snap.AccessCount,
		Tags:         snap.Tags,
		SizeBytes:    snap.SizeBytes,
	}
	if snap.TTLSeconds != nil {
		if *snap.TTLSeconds <= 0 {
			// A TTL was set but carries no duration: never reinstate.
			_ = os.Remove(path)
			return nil, false
		}
		e.TTL = time.Duration(math.Round(*snap.TTLSeconds * float64(time.Second)))
	}
	if e.Expired(time.Now()) {
		_ = os.Remove(path)
		return nil, false
	}
	return e, true
}

// Remove deletes the snapshot for key, if any.
func (s *Store) Remove(key string) {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Failed to remove snapshot", zap.String("key", key), zap.Error(err))
	}
}

// RemoveMatching deletes every snapshot whose key and tags satisfy match.
// Snapshots record their full key, so invalidation can purge entries that
// are not currently live (lazy restores would otherwise resurrect them).
func (s *Store) RemoveMatching(match func(key string, tags []string) bool) {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Failed to read snapshot dir", zap.String("dir", s.dir), zap.Error(err))
		return
	}

	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != snapshotExt {
			continue
		}
		path := filepath.Join(s.dir, de.Name())
		e, ok := s.read(path)
		if !ok {
			continue
		}
		if match(e.Key, e.Tags) {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.logger.Warn("Failed to remove snapshot", zap.String("key", e.Key), zap.Error(err))
			}
		}
	}
}

// Clear deletes every snapshot and resets the filter.
func (s *Store) Clear() error {
	des, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var errs error
	for _, de := range des {
		if de.IsDir() || filepath.Ext(de.Name()) != snapshotExt {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, de.Name())); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	s.filterMu.Lock()
	s.filter.ClearAll()
	s.filterMu.Unlock()
	return errs
}
