// Package locate resolves the live memory engine owned by the recall
// plugin inside the host process.
//
// The recall plugin loads, reloads, and reinitializes independently of
// etch, so a resolved engine reference can go stale at any time. The
// locator caches the providing plugin, re-fetches the engine through the
// provider on every use, and drops the cache to re-resolve when the
// provider's engine accessor returns nil — the staleness marker.
package locate

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/engine"
	"github.com/inkmem/etch/pkg/host"
)

// Locator finds the memory engine in a host plugin registry.
type Locator struct {
	registry   *host.Registry
	pluginName string
	log        *zap.Logger

	mu     sync.Mutex
	cached engine.Provider
}

// New creates a Locator that looks for pluginName first and falls back to
// scanning every registered plugin for the engine-provider capability.
func New(registry *host.Registry, pluginName string, log *zap.Logger) *Locator {
	return &Locator{
		registry:   registry,
		pluginName: pluginName,
		log:        log,
	}
}

// Engine returns the live memory engine. The cached provider is probed
// first; a nil engine from it means the recall plugin reloaded, and the
// locator re-resolves from the registry.
func (l *Locator) Engine() (engine.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		if eng := l.cached.MemoryEngine(); eng != nil {
			return eng, nil
		}

		l.log.Warn("cached engine reference went stale, re-resolving",
			zap.String("plugin", l.pluginName))
		l.cached = nil
	}

	provider, eng := l.resolve()
	if eng == nil {
		return nil, fmt.Errorf("%w: ensure the %q plugin is installed, enabled, and initialized",
			engine.ErrUnavailable, l.pluginName)
	}

	l.cached = provider
	l.log.Info("resolved memory engine", zap.String("plugin", l.pluginName))

	return eng, nil
}

// Invalidate drops the cached provider so the next call re-resolves.
// The guard calls this when a reconnect attempt fails, on the chance that
// the plugin replaced its engine wholesale.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// resolve scans the registry: first the configured plugin name, then every
// registered plugin, for one exposing a non-nil engine.
func (l *Locator) resolve() (engine.Provider, engine.Engine) {
	if p, ok := l.registry.Lookup(l.pluginName); ok {
		if provider, ok := p.(engine.Provider); ok {
			if eng := provider.MemoryEngine(); eng != nil {
				return provider, eng
			}
			l.log.Warn("plugin found but its engine is not initialized",
				zap.String("plugin", l.pluginName))
		}
	}

	for _, p := range l.registry.Snapshot() {
		provider, ok := p.(engine.Provider)
		if !ok {
			continue
		}
		if eng := provider.MemoryEngine(); eng != nil {
			if p.Name() != l.pluginName {
				l.log.Info("found memory engine under a different plugin name",
					zap.String("plugin", p.Name()))
			}
			return provider, eng
		}
	}

	return nil, nil
}
