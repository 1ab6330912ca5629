package adaptive

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const prefetchTimeout = 5 * time.Second

// Preloader warms the cache from registered loaders: explicitly via
// Preload, periodically via Run, and speculatively after hits when
// predictive prefetch is enabled. All of it is best-effort; a failed
// preload is logged and skipped.
type Preloader struct {
	engine  *Engine
	logger  *zap.Logger
	loaders sync.Map // key -> Loader, consulted by predictive prefetch
}

// NewPreloader creates a Preloader bound to the engine.
func NewPreloader(e *Engine) *Preloader {
	return &Preloader{engine: e, logger: e.logger}
}

// RegisterLoader makes a loader available to predictive prefetch.
func (p *Preloader) RegisterLoader(key string, loader Loader) {
	p.loaders.Store(key, loader)
}

// Preload loads every frequently accessed key that is not currently
// cached and has a loader in the map, storing results exactly as a
// normal miss would. It returns the number of keys loaded.
func (p *Preloader) Preload(ctx context.Context, loaders map[string]Loader) int {
	now := time.Now()

	p.engine.mu.Lock()
	candidates := p.engine.tracker.Frequent(p.engine.cfg.PreloadThreshold)
	var toLoad []string
	for _, pat := range candidates {
		if _, live := p.engine.store.Peek(pat.Key, now); live {
			continue
		}
		if _, found := loaders[pat.Key]; found {
			toLoad = append(toLoad, pat.Key)
		}
	}
	p.engine.mu.Unlock()

	loaded := 0
	for _, key := range toLoad {
		if _, err := p.engine.GetOrLoad(ctx, key, loaders[key]); err != nil {
			p.logger.Warn("Failed to preload key", zap.String("key", key), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded
}

// Run re-runs Preload on a ticker until ctx is done.
func (p *Preloader) Run(ctx context.Context, interval time.Duration, loaders map[string]Loader) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Preload(ctx, loaders)
		case <-ctx.Done():
			return
		}
	}
}

// prefetchPredicted loads the predicted successors of key that have a
// registered loader and are not already cached.
func (p *Preloader) prefetchPredicted(key string) {
	predicted := p.engine.PredictNext(key, p.engine.cfg.PrefetchCount)
	now := time.Now()

	for _, next := range predicted {
		v, found := p.loaders.Load(next)
		if !found {
			continue
		}

		p.engine.mu.Lock()
		_, live := p.engine.store.Peek(next, now)
		p.engine.mu.Unlock()
		if live {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), prefetchTimeout)
		if _, err := p.engine.GetOrLoad(ctx, next, v.(Loader)); err != nil {
			p.logger.Warn("Failed to prefetch predicted key", zap.String("key", next), zap.Error(err))
		}
		cancel()
	}
}
