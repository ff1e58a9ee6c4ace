// Package computer composes the remote execution primitives into one
// runtime: a single global shell session, a kernel kind registry, and the
// notebook document service. It is the surface an outer API layer talks to.
package computer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tailored-agentic-units/computer/core/exec"
	"github.com/tailored-agentic-units/computer/kernel"
	"github.com/tailored-agentic-units/computer/notebook"
	"github.com/tailored-agentic-units/computer/observability"
	"github.com/tailored-agentic-units/computer/session"
	"github.com/tailored-agentic-units/computer/shell"
)

// Computer is the composed runtime. The shell session is global and not
// document-bound; kernel sessions live inside the notebook service, one per
// open document.
type Computer struct {
	cfg      Config
	observer observability.Observer

	shellMu sync.Mutex
	shell   *shell.Session

	registry  *kernel.Registry
	notebooks *notebook.Service
}

// Option configures a Computer after config-driven initialization.
type Option func(*Computer)

// WithObserver overrides the default SlogObserver.
func WithObserver(o observability.Observer) Option {
	return func(c *Computer) { c.observer = o }
}

// WithShellSession overrides the config-created shell session.
func WithShellSession(s *shell.Session) Option {
	return func(c *Computer) { c.shell = s }
}

// WithRegistry overrides the config-created kernel registry.
func WithRegistry(r *kernel.Registry) Option {
	return func(c *Computer) { c.registry = r }
}

// New creates a Computer from configuration. Subsystems are initialized
// from their respective config sections; functional options can override
// any of them for testing.
func New(cfg *Config, opts ...Option) (*Computer, error) {
	c := &Computer{
		cfg:      *cfg,
		observer: observability.NewSlogObserver(slog.Default()),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.shell == nil {
		c.shell = shell.NewSession(cfg.Shell, shell.WithObserver(c.observer))
	}

	if c.registry == nil {
		registry, err := kernel.NewRegistryFromConfig(&cfg.Kernel)
		if err != nil {
			return nil, fmt.Errorf("failed to create kernel registry: %w", err)
		}
		c.registry = registry
	}

	notebooks, err := notebook.NewService(cfg.Notebook, c.registry,
		notebook.WithObserver(c.observer),
		notebook.WithSessionOptions(
			kernel.WithObserver(c.observer),
			kernel.WithTimeout(cfg.Kernel.Timeout()),
			kernel.WithInfoTimeout(cfg.Kernel.InfoTimeout()),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notebook service: %w", err)
	}
	c.notebooks = notebooks

	return c, nil
}

// Notebooks returns the document orchestration service.
func (c *Computer) Notebooks() *notebook.Service {
	return c.notebooks
}

// Kernels returns the kernel kind registry.
func (c *Computer) Kernels() *kernel.Registry {
	return c.registry
}

// Shell returns the global shell session.
func (c *Computer) Shell() *shell.Session {
	return c.shell
}

// RunShellCommand executes one command on the global shell session,
// starting it on first use.
func (c *Computer) RunShellCommand(ctx context.Context, command string, timeout time.Duration) (exec.ShellResult, error) {
	c.shellMu.Lock()
	if c.shell.State() == session.StateUnstarted {
		if err := c.shell.Start(); err != nil {
			c.shellMu.Unlock()
			return exec.ShellResult{}, err
		}
	}
	c.shellMu.Unlock()

	return c.shell.Run(ctx, command, timeout)
}

// RestartShell restarts the global shell session after a timeout or exit.
func (c *Computer) RestartShell() error {
	c.shellMu.Lock()
	defer c.shellMu.Unlock()

	if c.shell.State() == session.StateUnstarted {
		return c.shell.Start()
	}
	return c.shell.Restart()
}

// RunKernelCode executes code once on a disposable kernel session of the
// given kind. The session never touches the document registry.
func (c *Computer) RunKernelCode(ctx context.Context, code, kind string, timeout time.Duration) (*exec.Result, error) {
	return c.notebooks.ExecuteAdHoc(ctx, code, kind, timeout)
}

// Shutdown stops the shell and every bound kernel session.
func (c *Computer) Shutdown() {
	c.shellMu.Lock()
	if c.shell.State() != session.StateUnstarted {
		c.shell.Stop()
	}
	c.shellMu.Unlock()

	c.notebooks.Shutdown()
}
