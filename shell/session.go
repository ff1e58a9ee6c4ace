// Package shell manages a persistent command-interpreter process. The
// interpreter's stdout is raw and line-buffered with no call framing, so
// Run frames each command with a sentinel: a fresh random marker echoed by
// the interpreter once the command finishes. Everything read before the
// sentinel line is that command's output.
package shell

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	coreexec "github.com/tailored-agentic-units/computer/core/exec"
	"github.com/tailored-agentic-units/computer/observability"
	"github.com/tailored-agentic-units/computer/session"
)

const lineBuffer = 256

// Session is a persistent interactive shell. One Run call is in flight at a
// time; concurrent callers queue. Timeouts and process exits drive the
// session to a terminal state that requires Restart.
type Session struct {
	id        string
	cfg       Config
	observer  observability.Observer
	lifecycle *session.Lifecycle
	createdAt time.Time

	callMu sync.Mutex

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan string
	exited chan struct{}
	exit   int

	errMu  sync.Mutex
	stderr bytes.Buffer
}

// Option configures a Session at construction.
type Option func(*Session)

// WithObserver sets the observer receiving session events.
func WithObserver(o observability.Observer) Option {
	return func(s *Session) { s.observer = o }
}

// NewSession creates an unstarted shell session.
func NewSession(cfg Config, opts ...Option) *Session {
	s := &Session{
		id:        session.NewID(),
		cfg:       cfg,
		observer:  observability.NoOpObserver{},
		lifecycle: session.NewLifecycle(),
		createdAt: time.Now(),
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
		Timeout:   s.cfg.Timeout(),
		CreatedAt: s.createdAt,
	}
}

// Start spawns the interpreter with piped streams and begins reading them.
func (s *Session) Start() error {
	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("start shell: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start shell %s: %w", s.cfg.Command, err)
	}

	if err := s.lifecycle.Started(); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}

	lines := make(chan string, lineBuffer)
	exited := make(chan struct{})

	s.mu.Lock()
	s.cmd = cmd
	s.stdin = stdin
	s.lines = lines
	s.exited = exited
	s.exit = 0
	s.mu.Unlock()

	s.errMu.Lock()
	s.stderr.Reset()
	s.errMu.Unlock()

	go s.readLines(stdout, lines)
	go s.readStderr(stderr)
	go s.wait(cmd, exited)

	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventSessionStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data: map[string]any{
			"session_id": s.id,
			"command":    s.cfg.Command,
			"pid":        cmd.Process.Pid,
		},
	})

	return nil
}

func (s *Session) readLines(r io.Reader, lines chan<- string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
	close(lines)
}

func (s *Session) readStderr(r io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.errMu.Lock()
			s.stderr.Write(buf[:n])
			s.errMu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) wait(cmd *exec.Cmd, exited chan struct{}) {
	err := cmd.Wait()

	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	s.mu.Lock()
	s.exit = code
	s.mu.Unlock()
	close(exited)
}

// takeStderr drains whatever has accumulated on the error stream so far.
func (s *Session) takeStderr() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	out := s.stderr.String()
	s.stderr.Reset()
	return out
}

// Run executes one command and returns its framed output. The whole read
// loop is bounded by timeout (the config default when zero). On expiry the
// interpreter is killed, the session goes to TimedOut, and the error wraps
// session.ErrMustRestart. A process that has already exited is reported via
// ShellResult.MustRestart rather than an error — routine exits are results,
// not protocol failures.
func (s *Session) Run(ctx context.Context, command string, timeout time.Duration) (coreexec.ShellResult, error) {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	if err := s.lifecycle.Begin(); err != nil {
		return coreexec.ShellResult{}, err
	}

	if timeout <= 0 {
		timeout = s.cfg.Timeout()
	}

	s.mu.Lock()
	stdin := s.stdin
	lines := s.lines
	exited := s.exited
	s.mu.Unlock()

	select {
	case <-exited:
		return s.exitedResult(ctx, nil)
	default:
	}

	// A fresh unguessable marker per call: a fixed sentinel would collide
	// with any command that happens to print it.
	sentinel := "__COMPUTER_" + strings.ReplaceAll(uuid.NewString(), "-", "") + "__"

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunStart,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data: map[string]any{
			"session_id":     s.id,
			"command_length": len(command),
		},
	})

	framed := fmt.Sprintf("%s; echo %s$?\n", command, sentinel)
	if _, err := io.WriteString(stdin, framed); err != nil {
		return s.exitedResult(ctx, nil)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	var output []string
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return s.exitedResult(ctx, output)
			}
			if idx := strings.Index(line, sentinel); idx >= 0 {
				code, _ := strconv.Atoi(strings.TrimSpace(line[idx+len(sentinel):]))
				return s.complete(ctx, output, code)
			}
			output = append(output, line)

		case <-exited:
			return s.exitedResult(ctx, output)

		case <-deadline.C:
			return coreexec.ShellResult{}, s.timedOut(ctx)

		case <-ctx.Done():
			return coreexec.ShellResult{}, s.timedOut(ctx)
		}
	}
}

func (s *Session) complete(ctx context.Context, output []string, code int) (coreexec.ShellResult, error) {
	result := coreexec.ShellResult{
		Output:   strings.Join(output, "\n"),
		Error:    s.takeStderr(),
		ExitCode: code,
	}
	s.lifecycle.End(session.StateIdle)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunComplete,
		Level:     observability.LevelVerbose,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data: map[string]any{
			"session_id": s.id,
			"exit_code":  code,
			"lines":      len(output),
		},
	})

	return result, nil
}

// exitedResult reports a dead interpreter as a result with the restart
// marker set, carrying whatever output was read before it died.
func (s *Session) exitedResult(ctx context.Context, output []string) (coreexec.ShellResult, error) {
	s.mu.Lock()
	code := s.exit
	s.mu.Unlock()

	result := coreexec.ShellResult{
		Output:      strings.Join(output, "\n"),
		Error:       s.takeStderr(),
		ExitCode:    code,
		MustRestart: true,
	}
	s.lifecycle.End(session.StateExited)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventSessionExit,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data: map[string]any{
			"session_id": s.id,
			"exit_code":  code,
		},
	})

	return result, nil
}

// timedOut kills the interpreter so the runaway command cannot outlive the
// call, then reports the terminal state.
func (s *Session) timedOut(ctx context.Context) error {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd != nil && cmd.Process != nil {
		cmd.Process.Kill()
	}
	s.lifecycle.End(session.StateTimedOut)

	s.observer.OnEvent(ctx, observability.Event{
		Type:      EventRunTimeout,
		Level:     observability.LevelWarning,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data:      map[string]any{"session_id": s.id},
	})

	return fmt.Errorf("shell command timed out: %w", session.ErrMustRestart)
}

// Stop terminates the interpreter, escalating to kill when it does not exit
// within the grace window.
func (s *Session) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	stdin := s.stdin
	exited := s.exited
	s.cmd = nil
	s.stdin = nil
	s.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		s.lifecycle.Exited()
		return
	}

	stdin.Close()
	cmd.Process.Signal(syscall.SIGTERM)

	select {
	case <-exited:
	case <-time.After(s.cfg.Grace()):
		cmd.Process.Kill()
		<-exited
	}

	s.lifecycle.Exited()

	s.observer.OnEvent(context.Background(), observability.Event{
		Type:      EventSessionStop,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "shell.Session",
		Data:      map[string]any{"session_id": s.id},
	})
}

// Restart stops the interpreter and starts a fresh one.
func (s *Session) Restart() error {
	s.callMu.Lock()
	defer s.callMu.Unlock()

	s.Stop()
	s.lifecycle.Reset()
	return s.Start()
}
