// Package driverconf holds load-time driver configuration for the
// spectrum attach layer, read from a YAML file with flag overrides
// applied by the command binaries.
package driverconf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the operator-facing driver configuration.
type Config struct {
	// RequestedVcc is the socket operating voltage in tenths of a volt
	// (50 = 5.0V, 33 = 3.3V).
	RequestedVcc int `yaml:"requested_vcc"`

	// IgnoreVoltage allows a voltage mismatch between card and socket.
	// Some cards have buggy CIS tables; they work at 5V but carry no
	// entry for it.
	IgnoreVoltage bool `yaml:"ignore_voltage"`

	// TracePath, when set, enables the CBOR hardware trace log at the
	// given file path.
	TracePath string `yaml:"trace_path"`

	// LogLevel sets the operational log level: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		RequestedVcc: 50,
		LogLevel:     "info",
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// their Default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.RequestedVcc <= 0 {
		return fmt.Errorf("requested_vcc must be positive, got %d", c.RequestedVcc)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
