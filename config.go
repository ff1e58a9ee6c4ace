package computer

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailored-agentic-units/computer/kernel"
	"github.com/tailored-agentic-units/computer/notebook"
	"github.com/tailored-agentic-units/computer/shell"
)

// Config holds initialization parameters for all subsystems.
// Each section delegates to that subsystem's config-driven constructor.
type Config struct {
	Shell    shell.Config    `json:"shell"`
	Kernel   kernel.Config   `json:"kernel"`
	Notebook notebook.Config `json:"notebook"`
}

// DefaultConfig returns a Config with sensible defaults for all subsystems.
func DefaultConfig() Config {
	return Config{
		Shell:    shell.DefaultConfig(),
		Kernel:   kernel.DefaultConfig(),
		Notebook: notebook.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	c.Shell.Merge(&source.Shell)
	c.Kernel.Merge(&source.Kernel)
	c.Notebook.Merge(&source.Notebook)
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
