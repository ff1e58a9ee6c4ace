package kernel

import "time"

const (
	defaultTimeoutSeconds = 30
	defaultInfoSeconds    = 10
	defaultGraceSeconds   = 5
)

// Config holds kernel session initialization parameters.
type Config struct {
	// TimeoutSeconds is the default per-message wait during Execute.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
	// InfoTimeoutSeconds bounds the identity request during Start.
	InfoTimeoutSeconds int `json:"info_timeout_seconds,omitempty"`
	// GraceSeconds is the window between terminate and kill on shutdown.
	GraceSeconds int `json:"grace_seconds,omitempty"`
	// Kinds declares stdio kernels to register at startup, keyed by name.
	Kinds map[string]KindConfig `json:"kinds,omitempty"`
}

// KindConfig declares one stdio-launched kernel kind.
type KindConfig struct {
	Command       string   `json:"command"`
	Args          []string `json:"args,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	Language      string   `json:"language,omitempty"`
	FileExtension string   `json:"file_extension,omitempty"`
	MimeType      string   `json:"mimetype,omitempty"`
}

// DefaultConfig returns the default kernel configuration.
func DefaultConfig() Config {
	return Config{
		TimeoutSeconds:     defaultTimeoutSeconds,
		InfoTimeoutSeconds: defaultInfoSeconds,
		GraceSeconds:       defaultGraceSeconds,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.TimeoutSeconds > 0 {
		c.TimeoutSeconds = source.TimeoutSeconds
	}
	if source.InfoTimeoutSeconds > 0 {
		c.InfoTimeoutSeconds = source.InfoTimeoutSeconds
	}
	if source.GraceSeconds > 0 {
		c.GraceSeconds = source.GraceSeconds
	}
	if len(source.Kinds) > 0 {
		c.Kinds = source.Kinds
	}
}

// Timeout returns the default per-message wait as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InfoTimeout returns the identity-request bound as a duration.
func (c *Config) InfoTimeout() time.Duration {
	return time.Duration(c.InfoTimeoutSeconds) * time.Second
}

// Grace returns the terminate-to-kill window as a duration.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

// NewRegistryFromConfig builds a Registry with every configured kind
// registered as a stdio kernel.
func NewRegistryFromConfig(cfg *Config) (*Registry, error) {
	reg := NewRegistry()
	grace := cfg.Grace()

	for name, kind := range cfg.Kinds {
		spec := Spec{
			Name:          name,
			DisplayName:   kind.DisplayName,
			Language:      kind.Language,
			FileExtension: kind.FileExtension,
			MimeType:      kind.MimeType,
		}
		if spec.DisplayName == "" {
			spec.DisplayName = name
		}
		if spec.Language == "" {
			spec.Language = name
		}

		command, args := kind.Command, kind.Args
		err := reg.Register(spec, func() (Transport, error) {
			return LaunchStdio(command, args, grace)
		})
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}
