package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigError marks a fatal configuration fault: malformed document, missing
// parameter source, mismatched row-aligned lengths. The run aborts before any
// network activity when one is returned.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return e.Reason }

// Errorf builds a ConfigError from a format string.
func Errorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// APIConfig describes one endpoint under comparison.
type APIConfig struct {
	URL     string            `yaml:"url"`
	Method  string            `yaml:"request_method"`
	Headers map[string]string `yaml:"headers"`
}

// ParamSpec names one request parameter and exactly one source of values:
// a single literal, an inline list, or a column of an external data file.
// A file without a column is read as a plain list of lines.
type ParamSpec struct {
	Name   string   `yaml:"name"`
	Value  string   `yaml:"value"`
	Values []string `yaml:"values"`
	File   string   `yaml:"file"`
	Column string   `yaml:"column"`
}

// Helper struct for YAML decoding; durations arrive as strings.
type yamlConfig struct {
	OldAPI          APIConfig   `yaml:"old_api"`
	NewAPI          APIConfig   `yaml:"new_api"`
	RateLimitCalls  int         `yaml:"rate_limit_calls"`
	RateLimitPeriod string      `yaml:"rate_limit_period"`
	Timeout         string      `yaml:"timeout"`
	Params          []ParamSpec `yaml:"params"`
}

type Config struct {
	OldAPI          APIConfig
	NewAPI          APIConfig
	RateLimitCalls  int
	RateLimitPeriod time.Duration
	Timeout         time.Duration
	Params          []ParamSpec
	BaseDir         string // directory of the config file; source paths resolve against it
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Errorf("cannot read config %s: %v", path, err)
	}

	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, Errorf("cannot parse config %s: %v", path, err)
	}

	period, err := parseDuration(raw.RateLimitPeriod, time.Second)
	if err != nil {
		return nil, Errorf("invalid rate_limit_period %q: %v", raw.RateLimitPeriod, err)
	}
	timeout, err := parseDuration(raw.Timeout, 10*time.Second)
	if err != nil {
		return nil, Errorf("invalid timeout %q: %v", raw.Timeout, err)
	}

	cfg := &Config{
		OldAPI:          raw.OldAPI,
		NewAPI:          raw.NewAPI,
		RateLimitCalls:  raw.RateLimitCalls,
		RateLimitPeriod: period,
		Timeout:         timeout,
		Params:          raw.Params,
		BaseDir:         filepath.Dir(path),
	}

	if cfg.OldAPI.Method == "" {
		cfg.OldAPI.Method = "GET"
	}
	if cfg.NewAPI.Method == "" {
		cfg.NewAPI.Method = "GET"
	}
	if cfg.RateLimitCalls == 0 {
		cfg.RateLimitCalls = 10
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	return time.ParseDuration(s)
}

func (c *Config) validate() error {
	if c.OldAPI.URL == "" {
		return Errorf("old_api.url is required")
	}
	if c.NewAPI.URL == "" {
		return Errorf("new_api.url is required")
	}
	if c.RateLimitCalls < 0 {
		return Errorf("rate_limit_calls must be positive")
	}

	seen := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		if p.Name == "" {
			return Errorf("every parameter needs a name")
		}
		if seen[p.Name] {
			return Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = true

		sources := 0
		if p.Value != "" {
			sources++
		}
		if len(p.Values) > 0 {
			sources++
		}
		if p.File != "" {
			sources++
		}
		if sources != 1 {
			return Errorf("parameter %q must set exactly one of value, values or file", p.Name)
		}
		if p.Column != "" && p.File == "" {
			return Errorf("parameter %q sets column without file", p.Name)
		}
	}
	return nil
}

// ParamNames returns parameter names in config order. The report columns
// follow this order.
func (c *Config) ParamNames() []string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		names[i] = p.Name
	}
	return names
}
