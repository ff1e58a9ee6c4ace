package shell

import "time"

const (
	defaultCommand        = "/bin/bash"
	defaultTimeoutSeconds = 120
	defaultGraceSeconds   = 5
)

// Config holds shell session initialization parameters.
type Config struct {
	// Command is the interpreter to spawn.
	Command string `json:"command,omitempty"`
	// Args are passed to the interpreter.
	Args []string `json:"args,omitempty"`
	// TimeoutSeconds is the default bound on one Run call.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// GraceSeconds is the window between terminate and kill on Stop.
	GraceSeconds int `json:"grace_seconds,omitempty"`
}

// DefaultConfig returns the default shell configuration.
func DefaultConfig() Config {
	return Config{
		Command:        defaultCommand,
		TimeoutSeconds: defaultTimeoutSeconds,
		GraceSeconds:   defaultGraceSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Command != "" {
		c.Command = source.Command
	}
	if len(source.Args) > 0 {
		c.Args = source.Args
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.GraceSeconds > 0 {
		c.GraceSeconds = source.GraceSeconds
	}
}

// Timeout returns the default run bound as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Grace returns the terminate-to-kill window as a duration.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}
