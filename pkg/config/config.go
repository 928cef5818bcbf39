// Package config loads the afsmon configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the config file lives unless --config says
// otherwise.
const DefaultPath = "/etc/afsmon.yaml"

// Duration wraps time.Duration so the config can say "30s" or "2m".
type Duration time.Duration

// UnmarshalYAML decodes a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	td, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(td)
	return nil
}

// Std returns the plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Statsd holds the metrics sink settings. STATSD_HOST and STATSD_PORT in
// the environment override the file values.
type Statsd struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	Prefix string `yaml:"prefix"`
}

// Address returns host:port for the statsd client.
func (s Statsd) Address() string {
	return s.Host + ":" + s.Port
}

// Config is the full monitoring run configuration.
type Config struct {
	Cell             string        `yaml:"cell"`
	FileServers      []string      `yaml:"fileservers"`
	Timeout          Duration      `yaml:"timeout"`
	MaxConcurrent    int           `yaml:"max_concurrent"`
	QuotaWarnPercent float64       `yaml:"quota_warn_percent"`
	Statsd           Statsd        `yaml:"statsd"`
	Debug            bool          `yaml:"debug"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Timeout:          Duration(30 * time.Second),
		MaxConcurrent:    4,
		QuotaWarnPercent: 90,
		Statsd: Statsd{
			Host:   "localhost",
			Port:   "8125",
			Prefix: "afs",
		},
	}
}

// Load reads the config file at path, applying defaults and environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if host := os.Getenv("STATSD_HOST"); host != "" {
		cfg.Statsd.Host = host
	}
	if port := os.Getenv("STATSD_PORT"); port != "" {
		cfg.Statsd.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the constraints that make a run possible at all.
func (c Config) Validate() error {
	if c.Cell == "" && len(c.FileServers) == 0 {
		return errors.New("config: need a cell or at least one fileserver")
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if c.MaxConcurrent < 0 {
		return errors.New("config: max_concurrent must not be negative")
	}
	return nil
}
