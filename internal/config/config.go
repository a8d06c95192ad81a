// ABOUTME: Configuration loading and parsing for the message store daemon
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before any file is read. The dedupe window matches the
// message TTL: a re-observation after the window carries a timestamp that is
// already past the TTL, so it self-prunes on insert instead of duplicating.
const (
	DefaultMessageTTL     = 24 * time.Hour
	DefaultDedupeWindow   = DefaultMessageTTL
	DefaultDedupeCapacity = 4096
	DefaultSweepInterval  = time.Minute
	DefaultMetricsAddr    = "127.0.0.1:9181"
)

// Config represents the complete store daemon configuration
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Sweep   SweepConfig   `yaml:"sweep"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// CacheConfig holds message retention and dedupe sizing
type CacheConfig struct {
	MessageTTL   time.Duration `yaml:"-"`
	DedupeWindow time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	MessageTTLRaw   string `yaml:"message_ttl"`
	DedupeWindowRaw string `yaml:"dedupe_window"`

	DedupeCapacity int `yaml:"dedupe_capacity"`
}

// SweepConfig controls the background expiry sweep
type SweepConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"-"`

	IntervalRaw string `yaml:"interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given. Every field
// has a workable value, so a config file only ever overrides.
func Default() *Config {
	return &Config{
		Cache: CacheConfig{
			MessageTTL:     DefaultMessageTTL,
			DedupeWindow:   DefaultDedupeWindow,
			DedupeCapacity: DefaultDedupeCapacity,
		},
		Sweep: SweepConfig{
			Enabled:  true,
			Interval: DefaultSweepInterval,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config layered over Default(). Environment variables in the format
// ${VAR_NAME} are expanded. Duration strings are parsed into time.Duration
// values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that the configuration is internally consistent.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Cache.MessageTTL <= 0 {
		return fmt.Errorf("cache.message_ttl must be positive")
	}
	if c.Cache.DedupeWindow <= 0 {
		return fmt.Errorf("cache.dedupe_window must be positive")
	}
	if c.Cache.DedupeCapacity <= 0 {
		return fmt.Errorf("cache.dedupe_capacity must be positive")
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive when the sweep is enabled")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Cache.MessageTTLRaw != "" {
		cfg.Cache.MessageTTL, err = time.ParseDuration(cfg.Cache.MessageTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing message_ttl %q: %w", cfg.Cache.MessageTTLRaw, err)
		}
	}

	if cfg.Cache.DedupeWindowRaw != "" {
		cfg.Cache.DedupeWindow, err = time.ParseDuration(cfg.Cache.DedupeWindowRaw)
		if err != nil {
			return fmt.Errorf("parsing dedupe_window %q: %w", cfg.Cache.DedupeWindowRaw, err)
		}
	}

	if cfg.Sweep.IntervalRaw != "" {
		cfg.Sweep.Interval, err = time.ParseDuration(cfg.Sweep.IntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing sweep interval %q: %w", cfg.Sweep.IntervalRaw, err)
		}
	}

	return nil
}
