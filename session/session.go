// Package session defines the lifecycle contract shared by every
// interactive execution session: the state machine that gates calls, the
// sentinel errors callers dispatch on, and the identity snapshot exposed to
// the outside.
//
// A session is a long-lived handle to an interactive process or execution
// engine. Calls on one session are strictly sequential — the underlying byte
// or message stream has no call framing of its own, so a second run issued
// before the first completes must never interleave with it.
package session

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a session.
type State string

const (
	// StateUnstarted means Start has not been called yet.
	StateUnstarted State = "unstarted"
	// StateIdle means the session is started and ready for a call.
	StateIdle State = "idle"
	// StateRunning means a call is in flight.
	StateRunning State = "running"
	// StateTimedOut means a call exceeded its timeout. Terminal until Restart.
	StateTimedOut State = "timed_out"
	// StateExited means the underlying process ended. Terminal until Restart.
	StateExited State = "exited"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Terminal reports whether the state requires an explicit restart before
// the session can accept calls again.
func (s State) Terminal() bool {
	return s == StateTimedOut || s == StateExited
}

// Info is a point-in-time snapshot of a session's identity and state.
type Info struct {
	ID        string        `json:"id"`
	State     State         `json:"state"`
	Timeout   time.Duration `json:"timeout"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewID allocates a unique session identifier. UUIDv7 keeps identifiers
// time-sortable, which makes session logs easy to correlate.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
