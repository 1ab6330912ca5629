package adaptive

import (
	"time"

	"go.uber.org/zap"

	"goflare.io/cinder/internal/models"
)

// Store is the bounded key-to-entry mapping. It is not safe for
// concurrent use on its own; the engine's lock guards every call.
type Store struct {
	entries map[string]*models.Entry
	logger  *zap.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		entries: make(map[string]*models.Entry),
		logger:  logger,
	}
}

// Get returns the live entry for key, recording the hit on its metadata.
// An expired entry is removed and reported through the third return so
// the caller can drop its snapshot as well.
func (s *Store) Get(key string, now time.Time) (entry *models.Entry, ok bool, expired bool) {
	e, found := s.entries[key]
	if !found {
		return nil, false, false
	}
	if e.Expired(now) {
		delete(s.entries, key)
		return nil, false, true
	}
	e.Touch(now)
	return e, true, false
}

// Peek returns the live entry for key without touching its metadata or
// removing it on expiry.
func (s *Store) Peek(key string, now time.Time) (*models.Entry, bool) {
	e, found := s.entries[key]
	if !found || e.Expired(now) {
		return nil, false
	}
	return e, true
}

// Put inserts or overwrites the entry for key.
func (s *Store) Put(key string, value any, ttl time.Duration, tags []string, size int64, now time.Time) *models.Entry {
	e := models.NewEntry(key, value, ttl, tags, size, now)
	s.entries[key] = e
	return e
}

// Restore reinserts a previously persisted entry with its metadata intact.
func (s *Store) Restore(e *models.Entry) {
	s.entries[e.Key] = e
}

// Remove deletes the entry for key. It is idempotent.
func (s *Store) Remove(key string) bool {
	if _, found := s.entries[key]; !found {
		return false
	}
	delete(s.entries, key)
	return true
}

// Len returns the live entry count.
func (s *Store) Len() int {
	return len(s.entries)
}

// Range calls f for every live entry until f returns false.
func (s *Store) Range(f func(*models.Entry) bool) {
	for _, e := range s.entries {
		if !f(e) {
			return
		}
	}
}

// Reset drops every entry.
func (s *Store) Reset() {
	s.entries = make(map[string]*models.Entry)
}
