// Package engine defines the typed surface etch uses to reach the recall
// memory engine.
//
// The engine itself — keyword indexing, vector indexing, row storage — is
// owned and operated by the recall plugin running in the same host process.
// Etch only ever constructs a record and hands it to [Engine.AddMemory].
// The interface is intentionally minimal: one insertion operation plus the
// health-check pair (Ready / Reconnect) that the connection guard relies on.
//
// A host plugin that carries an engine exposes it through [Provider]. The
// accessor returning nil is the staleness marker: the plugin exists but its
// engine is gone (not yet initialized, or torn down by a reload).
package engine

import "context"

// AddRequest carries everything the engine's insertion operation needs.
type AddRequest struct {
	// Content is the memory text, stored verbatim and indexed downstream.
	Content string

	// Summary is the derived indexing input: content joined with the
	// record's key facts using the configured separators. It must match,
	// byte for byte, what the engine's own summarization path would have
	// produced for equivalent input.
	Summary string

	// SessionID identifies the chat session the memory belongs to.
	SessionID string

	// PersonaID identifies the active persona, empty when none is set.
	PersonaID string

	// Importance is the record weight in [0, 1].
	Importance float64

	// Metadata is the schema-versioned metadata mapping. Recognized keys:
	// topics, key_facts, sentiment, importance, memory_type, schema_version.
	Metadata map[string]any
}

// Engine is the insertion capability of the externally-owned memory engine.
type Engine interface {
	// AddMemory persists one record and returns the engine-assigned
	// identifier.
	AddMemory(ctx context.Context, req AddRequest) (string, error)

	// Ready reports whether the engine's underlying storage handle is
	// present. A false return means a handle drop (idle cleanup, hot
	// reload) and calls for a single Reconnect attempt.
	Ready() bool

	// Reconnect reinitializes the engine's storage handle.
	Reconnect(ctx context.Context) error
}

// Provider is the capability a host plugin exposes when it carries a memory
// engine. MemoryEngine returns nil while the engine is uninitialized or
// after the plugin has been torn down.
type Provider interface {
	MemoryEngine() Engine
}
