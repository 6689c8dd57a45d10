// Package host models the chat runtime's plugin table.
//
// Etch runs embedded in a host process that loads plugins independently of
// each other. The registry is the seam the engine locator probes: plugins
// register under a stable name, and any plugin may additionally expose
// capabilities (such as engine.Provider) that companions discover at
// runtime via interface assertion.
package host

import (
	"fmt"
	"sync"
)

// Plugin is a component registered with the host runtime.
type Plugin interface {
	// Name returns the plugin's registered name, unique within a host.
	Name() string
}

// Registry holds the live plugin instances of one host process.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
	}
}

// Register adds a plugin under its name. Registering a second plugin with
// the same name is an error.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin %q already registered", name)
	}

	r.plugins[name] = p
	r.order = append(r.order, name)

	return nil
}

// Deregister removes the plugin with the given name. Removing an unknown
// name is a no-op.
func (r *Registry) Deregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[name]; !exists {
		return
	}

	delete(r.plugins, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the plugin registered under name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	return p, ok
}

// Snapshot returns the registered plugins in registration order.
func (r *Registry) Snapshot() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.plugins[name])
	}

	return out
}
