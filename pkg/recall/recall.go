// Package recall provides the host-plugin wrapper for a reference build of
// the recall memory engine.
//
// In production the recall plugin is installed independently and etch only
// discovers it. This package exists so `etch serve --dev` and
// integration-style tests have a real plugin to discover: it registers
// under the name the locator probes for and exposes the engine through the
// standard provider capability.
package recall

import "github.com/inkmem/etch/pkg/engine"

// PluginName is the name the reference plugin registers under, matching
// the locator's default.
const PluginName = "recall"

// Plugin wraps an engine as a host plugin.
type Plugin struct {
	name string
	eng  engine.Engine
}

// NewPlugin wraps eng under the default plugin name.
func NewPlugin(eng engine.Engine) *Plugin {
	return &Plugin{name: PluginName, eng: eng}
}

func (p *Plugin) Name() string {
	return p.name
}

// MemoryEngine exposes the engine to companion plugins.
func (p *Plugin) MemoryEngine() engine.Engine {
	return p.eng
}
