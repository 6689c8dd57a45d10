// Package guard protects insertions against a dropped engine storage
// handle.
//
// The recall engine releases its database handle during idle cleanup and
// hot reloads; the next insertion would then fail on a nil handle. The
// guard checks Ready before every insertion and, when the handle is
// absent, makes exactly one Reconnect attempt. There is no retry loop and
// no backoff: the failure is transient and externally caused, so a single
// attempt either restores the handle or the insertion is aborted with a
// surfaced error.
package guard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/engine"
)

// State is the guard's view of the engine connection.
type State int

const (
	Disconnected State = iota
	Connected
)

func (s State) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Guard performs the single check-and-reconnect step before an insertion.
// It never holds the storage handle across calls; state is observational.
type Guard struct {
	log *zap.Logger

	mu    sync.Mutex
	state State
}

// New creates a Guard. The initial state is Disconnected until the first
// successful Ensure.
func New(log *zap.Logger) *Guard {
	return &Guard{log: log}
}

// State returns the state observed by the most recent Ensure.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Ensure verifies the engine's storage handle is present, reconnecting
// once if it is not. A nil return means the insertion may proceed.
func (g *Guard) Ensure(ctx context.Context, eng engine.Engine) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if eng.Ready() {
		g.state = Connected
		return nil
	}

	g.state = Disconnected
	g.log.Warn("engine storage handle absent, attempting one reconnect")

	if err := eng.Reconnect(ctx); err != nil {
		return fmt.Errorf("%w: reconnect failed: %v", engine.ErrNotConnected, err)
	}

	if !eng.Ready() {
		return fmt.Errorf("%w: reconnect reported success but the handle is still absent",
			engine.ErrNotConnected)
	}

	g.state = Connected
	g.log.Info("engine storage handle reinitialized")

	return nil
}
