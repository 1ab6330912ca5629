package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStoreGetTouchesEntry(t *testing.T) {
	s := NewStore(zap.NewNop())
	now := time.Now()
	s.Put("k", "v", 0, nil, 2, now)

	later := now.Add(time.Second)
	e, ok, expired := s.Get("k", later)
	require.True(t, ok)
	assert.False(t, expired)
	assert.Equal(t, int64(1), e.AccessCount)
	assert.Equal(t, later, e.LastAccessed)
}

func TestStoreGetRemovesExpiredEntry(t *testing.T) {
	s := NewStore(zap.NewNop())
	now := time.Now()
	s.Put("k", "v", time.Second, nil, 2, now)

	_, ok, expired := s.Get("k", now.Add(2*time.Second))
	assert.False(t, ok)
	assert.True(t, expired)
	assert.Zero(t, s.Len(), "expired entry must be removed, not ignored")
}

func TestStorePeekDoesNotTouch(t *testing.T) {
	s := NewStore(zap.NewNop())
	now := time.Now()
	s.Put("k", "v", 0, nil, 2, now)

	e, ok := s.Peek("k", now.Add(time.Second))
	require.True(t, ok)
	assert.Zero(t, e.AccessCount)
	assert.Equal(t, now, e.LastAccessed)
}

func TestStoreRemoveIsIdempotent(t *testing.T) {
	s := NewStore(zap.NewNop())
	s.Put("k", "v", 0, nil, 2, time.Now())

	assert.True(t, s.Remove("k"))
	assert.False(t, s.Remove("k"))
	assert.Zero(t, s.Len())
}
