package watch

import "errors"

var (
	// ErrInvalidToken means the watch token was missing or rejected at
	// resolution time. Callers fall back to demo mode instead of surfacing it.
	ErrInvalidToken = errors.New("invalid watch token")

	// ErrTransport wraps network or server failures on any protocol call.
	ErrTransport = errors.New("transport failure")

	// ErrStaleKey means a secure key was presented out of order. Fatal: the
	// session can only restart from scratch.
	ErrStaleKey = errors.New("stale secure key")

	// ErrClosed means the session was discarded while a call was in flight.
	ErrClosed = errors.New("session closed")

	// ErrBadTransition means an operation was attempted from the wrong state.
	ErrBadTransition = errors.New("invalid state transition")
)
