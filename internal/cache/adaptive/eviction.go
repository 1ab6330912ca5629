package adaptive

import (
	"time"

	"go.uber.org/zap"

	"goflare.io/cinder/internal/models"
)

// Evictor picks the entry to remove when an insertion would exceed the
// store's capacity.
type Evictor struct {
	engine *Engine
	logger *zap.Logger
}

// NewEvictor creates an Evictor bound to the engine.
func NewEvictor(e *Engine) *Evictor {
	return &Evictor{engine: e, logger: e.logger}
}

// score rates an entry for retention: tracked access frequency minus the
// weighted hours since the last access. Lower scores evict first.
func (ev *Evictor) score(e *models.Entry, now time.Time) float64 {
	frequency := ev.engine.tracker.Frequency(e.Key)
	recencyHours := now.Sub(e.LastAccessed).Seconds() / 3600
	return frequency - ev.engine.cfg.RecencyWeight*recencyHours
}

// Evict removes the lowest-scoring entry, breaking score ties by the
// oldest creation time. On an empty store it is a no-op.
func (ev *Evictor) Evict(now time.Time) (string, bool) {
	var victim *models.Entry
	var victimScore float64

	ev.engine.store.Range(func(e *models.Entry) bool {
		s := ev.score(e, now)
		if victim == nil || s < victimScore ||
			(s == victimScore && e.CreatedAt.Before(victim.CreatedAt)) {
			victim = e
			victimScore = s
		}
		return true
	})

	if victim == nil {
		return "", false
	}

	ev.engine.store.Remove(victim.Key)
	ev.logger.Debug("Evicted cache entry",
		zap.String("key", victim.Key),
		zap.Float64("score", victimScore))
	return victim.Key, true
}
