package notebook

import "time"

const defaultTimeoutSeconds = 30

// Config holds notebook service initialization parameters.
type Config struct {
	// Dir is the directory holding persisted document artifacts.
	Dir string `json:"dir,omitempty"`
	// TimeoutSeconds is the default per-cell execution bound.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

// DefaultConfig returns the default notebook configuration.
func DefaultConfig() Config {
	return Config{
		Dir:            "notebooks",
		TimeoutSeconds: defaultTimeoutSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Dir != "" {
		c.Dir = source.Dir
	}
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
}

// Timeout returns the default per-cell bound as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
