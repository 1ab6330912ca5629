package models

import "time"

// Entry represents one live cache entry. Access to an Entry is guarded by
// the owning engine's lock; fields are plain values, not atomics.
type Entry struct {
	Key          string
	Value        any
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
	TTL          time.Duration // zero means valid until evicted
	Tags         []string
	SizeBytes    int64
}

// NewEntry creates a new Entry with its access metadata initialized.
func NewEntry(key string, value any, ttl time.Duration, tags []string, size int64, now time.Time) *Entry {
	return &Entry{
		Key:          key,
		Value:        value,
		CreatedAt:    now,
		LastAccessed: now,
		TTL:          ttl,
		Tags:         tags,
		SizeBytes:    size,
	}
}

// Expired reports whether the entry's TTL has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

// Touch records a hit on the entry.
func (e *Entry) Touch(now time.Time) {
	e.LastAccessed = now
	e.AccessCount++
}

// HasTag reports whether tag is in the entry's tag set.
func (e *Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
