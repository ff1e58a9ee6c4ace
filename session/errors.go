package session

import "errors"

// Sentinel errors for session lifecycle violations.
var (
	// ErrNotStarted is returned by run-style calls issued before Start.
	ErrNotStarted = errors.New("session not started")
	// ErrMustRestart is returned by run-style calls on a session that has
	// timed out or whose process exited. Call Restart to recover.
	ErrMustRestart = errors.New("session must be restarted")
	// ErrBusy is returned when a call is issued while another call on the
	// same session is still in flight.
	ErrBusy = errors.New("session busy")
	// ErrAlreadyStarted is returned by Start on a session that is already live.
	ErrAlreadyStarted = errors.New("session already started")
)
