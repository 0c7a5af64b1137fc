package core

import "errors"

// Command failure taxonomy. The HTTP adapter maps these to status codes;
// anything not in this list is treated as an engine-side failure and
// surfaced verbatim.
var (
	ErrEngineNotAttached = errors.New("engine not attached")
	ErrUnknownGuild      = errors.New("unknown guild")
	ErrNoActiveSession   = errors.New("no active session")
	ErrBridgeTimeout     = errors.New("bridge call timed out")
	ErrVolumeOutOfRange  = errors.New("volume out of range")
	ErrNothingToSkip     = errors.New("nothing to skip")
	ErrNothingPlaying    = errors.New("nothing playing")
	ErrNoResults         = errors.New("no songs found or added")
	ErrEmptyQuery        = errors.New("empty search query")
)
