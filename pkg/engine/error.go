package engine

import "errors"

// ErrUnavailable is returned when no loaded host plugin carries a memory
// engine. The recall plugin is either not installed, not enabled, or not
// finished initializing.
var ErrUnavailable = errors.New("recall companion plugin unavailable")

// ErrNotConnected is returned when the engine's storage handle is absent
// and a reconnect attempt did not restore it.
var ErrNotConnected = errors.New("engine storage handle not connected")
