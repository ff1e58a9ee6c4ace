package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tailored-agentic-units/computer/core/exec"
	"github.com/tailored-agentic-units/computer/observability"
	"github.com/tailored-agentic-units/computer/session"
)

// Session is a persistent code-execution engine reached through a Transport.
// It owns its own execution counter, incremented once per Execute call — the
// kernel's internal counter is deliberately ignored so the count reflects
// what this wrapper ran, not what the engine thinks it ran.
//
// Calls on a session are strictly serialized. Guest-code failures come back
// as data on the Result; only infrastructure failures (launch, unknown kind,
// required restart) surface as Go errors.
type Session struct {
	id        string
	spec      Spec
	launch    LaunchFunc
	createdAt time.Time

	timeout     time.Duration
	infoTimeout time.Duration
	observer    observability.Observer

	lifecycle *session.Lifecycle
	callMu    sync.Mutex

	mu             sync.Mutex
	transport      Transport
	info           Info
	executionCount int
}

// SessionOption configures a Session at construction.
type SessionOption func(*Session)

// WithObserver sets the observer receiving session events.
func WithObserver(o observability.Observer) SessionOption {
	return func(s *Session) { s.observer = o }
}

// WithTimeout sets the default per-message wait used when Execute is called
// with a zero timeout.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithInfoTimeout bounds the identity request issued during Start.
func WithInfoTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.infoTimeout = d }
}

// NewSession creates an unstarted Session for the given kernel kind.
func NewSession(spec Spec, launch LaunchFunc, opts ...SessionOption) *Session {
	s := &Session{
		id:          session.NewID(),
		spec:        spec,
		launch:      launch,
		createdAt:   time.Now(),
		timeout:     defaultTimeoutSeconds * time.Second,
		infoTimeout: defaultInfoSeconds * time.Second,
		observer:    observability.NoOpObserver{},
		lifecycle:   session.NewLifecycle(),
		info:        infoFromSpec(spec),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() session.State {
	return s.lifecycle.State()
}

// Info returns the session's identity snapshot.
func (s *Session) Info() session.Info {
	return session.Info{
		ID:        s.id,
		State:     s.lifecycle.State(),
		Timeout:   s.timeout,
		CreatedAt: s.createdAt,
	}
}

// Kernel returns the cached kernel identity: the registered spec overlaid
// with whatever the running kernel reported about itself.
func (s *Session) Kernel() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// ExecutionCount returns the wrapper-owned execution counter.
func (s *Session) ExecutionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executionCount
}

// Start launches the engine and asks it who it is. The identity request is
// bounded by the info timeout and its failure is not fatal — the session
// falls back to the statically-declared spec metadata.
func (s *Session) Start(ctx context.Context) error {
	transport, err := s.launch()
	if err != nil {
		return fmt.Errorf("start kernel %s: %w", s.spec.Name, err)
	}

	if err := s.lifecycle.Started(); err != nil {
		transport.Close()
		return err
	}

	s.mu.Lock()
	s.transport = transport
	s.mu.Unlock()

	infoCtx, cancel := context.WithTimeout(ctx, s.infoTimeout)
	reply, err := transport.Request(infoCtx, Message{Type: MsgKernelInfo})
	cancel()
	if err == nil {
		s.mu.Lock()
		s.info = s.info.overlay(reply)
		s.mu.Unlock()
	}

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventSessionStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "kernel.Session",
		Data: map[string]any{
			"session_id":   s.id,
			"kind":         s.spec.Name,
			"introspected": err == nil,
			"language":     s.Kernel().Language,
		},
	})

	return nil
}

// Execute runs code on the kernel and pumps the broadcast channel into one
// Result. Each message wait is bounded by timeout (the session default when
// zero). The pump stops immediately on an error message, and on an idle
// status only once at least one output or the error has been observed — an
// idle that arrives before any output is transient noise from the previous
// call and must not end the pump early.
//
// A per-message timeout with nothing observed at all tears the kernel down,
// drives the session to TimedOut, and returns an error wrapping
// session.ErrMustRestart. Transport failures mid-pump are captured as a
// generic error record on the Result instead of propagating.
func (s *Session) Execute(ctx context.Context, code string, timeout time.Duration) (*exec.Result, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if err := s.lifecycle.Begin(); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = s.timeout
	}

	s.mu.Lock()
	transport := s.transport
	s.executionCount++
	count := s.executionCount
	s.mu.Unlock()

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "kernel.Session",
		Data: map[string]any{
			"session_id":      s.id,
			"execution_count": count,
			"code_length":     len(code),
		},
	})

	result := &exec.Result{ExecutionCount: count}

	if err := transport.Post(ctx, Message{Type: MsgExecute, Code: code}); err != nil {
		result.Error = &exec.Error{Kind: "TransportError", Message: err.Error()}
		s.lifecycle.End(session.StateIdle)
		return result, nil
	}

	for {
		msgCtx, cancel := context.WithTimeout(ctx, timeout)
		msg, err := transport.Receive(msgCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, s.timedOut(ctx, count)
			}
			// Transport or cancellation failure: captured, not propagated.
			result.Error = &exec.Error{Kind: "TransportError", Message: err.Error()}
			break
		}

		done := false
		switch msg.Type {
		case MsgStream:
			result.Outputs = append(result.Outputs, exec.NewStream(msg.Name, msg.Text))
		case MsgResult:
			result.Outputs = append(result.Outputs, exec.NewResult(msg.Data, count))
		case MsgDisplay:
			result.Outputs = append(result.Outputs, exec.NewDisplay(msg.Data, msg.Metadata))
		case MsgError:
			result.Error = &exec.Error{Kind: msg.ErrName, Message: msg.ErrValue, Trace: msg.Traceback}
			done = true
		case MsgStatus:
			if msg.IsIdle() && (len(result.Outputs) > 0 || result.Error != nil) {
				done = true
			}
		}
		if done {
			break
		}
	}

	s.lifecycle.End(session.StateIdle)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "kernel.Session",
		Data: map[string]any{
			"session_id":      s.id,
			"execution_count": count,
			"outputs":         len(result.Outputs),
			"failed":          result.Failed(),
		},
	})

	return result, nil
}

// timedOut tears the kernel down so the timed-out execution cannot keep
// consuming resources behind the caller's back, then reports the terminal
// state.
func (s *Session) timedOut(ctx context.Context, count int) error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()
	if transport != nil {
		transport.Close()
	}
	s.lifecycle.End(session.StateTimedOut)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventExecuteTimeout,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "kernel.Session",
		Data: map[string]any{
			"session_id":      s.id,
			"execution_count": count,
		},
	})

	return fmt.Errorf("kernel execution timed out: %w", session.ErrMustRestart)
}

// Restart shuts the current engine down and starts a fresh one. It waits
// for any in-flight Execute to finish rather than tearing the transport out
// from under the pump.
func (s *Session) Restart(ctx context.Context) error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.Shutdown()
	s.lifecycle.Reset()

	s.mu.Lock()
	s.info = infoFromSpec(s.spec)
	s.executionCount = 0
	s.mu.Unlock()

	return s.Start(ctx)
}

// Shutdown stops the client and engine best-effort. It never fails: close
// errors are reported to the observer and swallowed.
func (s *Session) Shutdown() {
	s.mu.Lock()
	transport := s.transport
	s.transport = nil
	s.mu.Unlock()

	var closeErr error
	if transport != nil {
		closeErr = transport.Close()
	}
	s.lifecycle.Exited()

	data := map[string]any{"session_id": s.id, "kind": s.spec.Name}
	if closeErr != nil {
		data["close_error"] = closeErr.Error()
	}
	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventSessionShutdown,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "kernel.Session",
		Data:      data,
	})
}
