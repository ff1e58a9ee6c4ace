package session

import "sync"

// Lifecycle enforces the session state machine:
//
//	Unstarted → Idle ⇄ Running → {Idle | TimedOut | Exited}
//
// TimedOut and Exited are terminal until Reset (driven by a restart) moves
// the machine back through Unstarted. Lifecycle is safe for concurrent use;
// Begin doubles as the mutual-exclusion guard that keeps calls on one
// session strictly sequential.
type Lifecycle struct {
	mu    sync.Mutex
	state State
}

// NewLifecycle creates a Lifecycle in the Unstarted state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateUnstarted}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Started transitions Unstarted → Idle. Returns ErrAlreadyStarted when the
// session is already live.
func (l *Lifecycle) Started() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateUnstarted {
		return ErrAlreadyStarted
	}
	l.state = StateIdle
	return nil
}

// Begin validates that a call may proceed and transitions Idle → Running.
// It returns ErrNotStarted before Start, ErrMustRestart after a timeout or
// process exit, and ErrBusy while another call is in flight. No side effects
// occur on rejection.
func (l *Lifecycle) Begin() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateUnstarted:
		return ErrNotStarted
	case StateTimedOut, StateExited:
		return ErrMustRestart
	case StateRunning:
		return ErrBusy
	}
	l.state = StateRunning
	return nil
}

// End completes the in-flight call, moving Running to next. Valid next
// states are Idle (success), TimedOut, and Exited.
func (l *Lifecycle) End(next State) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateRunning {
		l.state = next
	}
}

// Exited marks the session terminal because the underlying process ended.
// Unlike End it applies from any state.
func (l *Lifecycle) Exited() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateExited
}

// Reset returns the machine to Unstarted so a restart can run Start again.
func (l *Lifecycle) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = StateUnstarted
}
