package mojo

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the coordinator configuration.
// It can be populated from JSON, YAML, environment-expanded files, etc. The
// zero-value is useful; all nested fields inherit their package defaults.
type Config struct {
	Delay   DelayConfig   `json:"delay" yaml:"delay"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// DelayConfig holds coordinator settings.
type DelayConfig struct {
	// ErrorPolicy is "panic" (default) or "stop".
	ErrorPolicy string `json:"errorPolicy" yaml:"errorPolicy"`
}

// TracingConfig holds OpenTelemetry settings consumed by WithConfig.
type TracingConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	ServiceName    string `json:"serviceName" yaml:"serviceName"`
	ServiceVersion string `json:"serviceVersion" yaml:"serviceVersion"`
	// OutputFile receives exported spans; empty means stdout.
	OutputFile string `json:"outputFile" yaml:"outputFile"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Delay: DelayConfig{ErrorPolicy: "panic"},
		Tracing: TracingConfig{
			ServiceName:    "mojo",
			ServiceVersion: "dev",
		},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if _, err := c.Delay.errorPolicy(); err != nil {
		return err
	}
	if c.Tracing.Enabled && c.Tracing.ServiceName == "" {
		return fmt.Errorf("tracing.serviceName must not be empty when tracing is enabled")
	}
	return nil
}

func (c *DelayConfig) errorPolicy() (ErrorPolicy, error) {
	switch c.ErrorPolicy {
	case "", "panic":
		return ErrorPolicyPanic, nil
	case "stop":
		return ErrorPolicyStop, nil
	}
	return ErrorPolicyPanic, fmt.Errorf("unsupported delay.errorPolicy: %q", c.ErrorPolicy)
}

// LoadConfig loads a YAML config from the specified URL. The URL may point
// at any storage scheme the abstract file system supports (file, mem, s3,
// gs, ...).
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config from %s: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
