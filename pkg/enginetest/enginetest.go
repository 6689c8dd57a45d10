// Package enginetest provides hand-rolled fakes for the engine and host
// seams, used across package tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/inkmem/etch/pkg/engine"
)

// Engine is a test engine that records calls and returns configurable
// results.
type Engine struct {
	mu sync.Mutex

	// Added accumulates all requests passed to AddMemory.
	Added []engine.AddRequest

	// FailAdd causes AddMemory to return this error.
	FailAdd error

	// ReadyState is returned by Ready.
	ReadyState bool

	// ReconnectCalls counts Reconnect invocations.
	ReconnectCalls int

	// FailReconnect causes Reconnect to return this error.
	FailReconnect error

	// ReconnectRestores makes a successful Reconnect flip ReadyState on.
	ReconnectRestores bool
}

// NewEngine creates a fake engine that starts ready and succeeds on every
// call, assigning sequential identifiers.
func NewEngine() *Engine {
	return &Engine{
		ReadyState:        true,
		ReconnectRestores: true,
	}
}

func (e *Engine) AddMemory(_ context.Context, req engine.AddRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailAdd != nil {
		return "", e.FailAdd
	}
	if !e.ReadyState {
		return "", errors.New("add called on engine with no storage handle")
	}

	e.Added = append(e.Added, req)
	return fmt.Sprintf("mem-%04d", len(e.Added)), nil
}

func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ReadyState
}

func (e *Engine) Reconnect(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ReconnectCalls++
	if e.FailReconnect != nil {
		return e.FailReconnect
	}
	if e.ReconnectRestores {
		e.ReadyState = true
	}
	return nil
}

// Plugin is a test host plugin that optionally carries an engine.
type Plugin struct {
	// PluginName is returned by Name.
	PluginName string

	// Eng is returned by MemoryEngine unless Stale is set.
	Eng engine.Engine

	// Stale makes MemoryEngine return nil, marking a reloaded plugin.
	Stale bool
}

func (p *Plugin) Name() string {
	return p.PluginName
}

func (p *Plugin) MemoryEngine() engine.Engine {
	if p.Stale {
		return nil
	}
	return p.Eng
}

// Bare is a test host plugin with no engine capability at all.
type Bare struct {
	PluginName string
}

func (b *Bare) Name() string {
	return b.PluginName
}
