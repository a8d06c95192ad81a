// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, defaults layering, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
cache:
  message_ttl: "36h"
  dedupe_window: "30m"
  dedupe_capacity: 8192

sweep:
  enabled: true
  interval: "2m"

logging:
  level: "debug"
  format: "json"

metrics:
  enabled: true
  addr: "0.0.0.0:9999"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Verify cache config with duration parsing
	if cfg.Cache.MessageTTL != 36*time.Hour {
		t.Errorf("Cache.MessageTTL = %v, want %v", cfg.Cache.MessageTTL, 36*time.Hour)
	}
	if cfg.Cache.DedupeWindow != 30*time.Minute {
		t.Errorf("Cache.DedupeWindow = %v, want %v", cfg.Cache.DedupeWindow, 30*time.Minute)
	}
	if cfg.Cache.DedupeCapacity != 8192 {
		t.Errorf("Cache.DedupeCapacity = %d, want 8192", cfg.Cache.DedupeCapacity)
	}

	// Verify sweep config
	if !cfg.Sweep.Enabled {
		t.Error("Sweep.Enabled = false, want true")
	}
	if cfg.Sweep.Interval != 2*time.Minute {
		t.Errorf("Sweep.Interval = %v, want %v", cfg.Sweep.Interval, 2*time.Minute)
	}

	// Verify logging config
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}

	// Verify metrics config
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Metrics.Addr != "0.0.0.0:9999" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, "0.0.0.0:9999")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Cache.MessageTTL != 24*time.Hour {
		t.Errorf("Cache.MessageTTL = %v, want %v", cfg.Cache.MessageTTL, 24*time.Hour)
	}
	if cfg.Cache.DedupeWindow != 24*time.Hour {
		t.Errorf("Cache.DedupeWindow = %v, want %v", cfg.Cache.DedupeWindow, 24*time.Hour)
	}
	if cfg.Cache.DedupeCapacity != 4096 {
		t.Errorf("Cache.DedupeCapacity = %d, want 4096", cfg.Cache.DedupeCapacity)
	}
	if !cfg.Sweep.Enabled {
		t.Error("Sweep.Enabled = false, want true")
	}
	if cfg.Sweep.Interval != time.Minute {
		t.Errorf("Sweep.Interval = %v, want %v", cfg.Sweep.Interval, time.Minute)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Metrics.Addr != DefaultMetricsAddr {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, DefaultMetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got: %v", err)
	}
}

func TestLoad_PartialOverride(t *testing.T) {
	// Only the sweep interval is set; everything else keeps its default.
	configPath := writeConfig(t, `
sweep:
  interval: "5m"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Sweep.Interval != 5*time.Minute {
		t.Errorf("Sweep.Interval = %v, want %v", cfg.Sweep.Interval, 5*time.Minute)
	}
	if !cfg.Sweep.Enabled {
		t.Error("Sweep.Enabled = false, want default true")
	}
	if cfg.Cache.MessageTTL != 24*time.Hour {
		t.Errorf("Cache.MessageTTL = %v, want default %v", cfg.Cache.MessageTTL, 24*time.Hour)
	}
	if cfg.Cache.DedupeCapacity != 4096 {
		t.Errorf("Cache.DedupeCapacity = %d, want default 4096", cfg.Cache.DedupeCapacity)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_METRICS_ADDR", "10.0.0.5:9181")
	t.Setenv("TEST_LOG_LEVEL", "warn")

	configPath := writeConfig(t, `
logging:
  level: "${TEST_LOG_LEVEL}"

metrics:
  enabled: true
  addr: "${TEST_METRICS_ADDR}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Metrics.Addr != "10.0.0.5:9181" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, "10.0.0.5:9181")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
cache:
  message_ttl: "24h"
  dedupe_capacity "missing colon"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
cache:
  message_ttl: "one-day"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		wantErrSubstr string
	}{
		{
			name:          "non-positive message ttl",
			mutate:        func(c *Config) { c.Cache.MessageTTL = 0 },
			wantErrSubstr: "cache.message_ttl must be positive",
		},
		{
			name:          "non-positive dedupe window",
			mutate:        func(c *Config) { c.Cache.DedupeWindow = -time.Second },
			wantErrSubstr: "cache.dedupe_window must be positive",
		},
		{
			name:          "non-positive dedupe capacity",
			mutate:        func(c *Config) { c.Cache.DedupeCapacity = 0 },
			wantErrSubstr: "cache.dedupe_capacity must be positive",
		},
		{
			name:          "enabled sweep with zero interval",
			mutate:        func(c *Config) { c.Sweep.Interval = 0 },
			wantErrSubstr: "sweep.interval must be positive",
		},
		{
			name:          "unknown logging format",
			mutate:        func(c *Config) { c.Logging.Format = "xml" },
			wantErrSubstr: "logging.format must be text or json",
		},
		{
			name: "enabled metrics without addr",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErrSubstr: "metrics.addr is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Errorf("Validate() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}
			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestValidate_DisabledSweepAllowsZeroInterval(t *testing.T) {
	cfg := Default()
	cfg.Sweep.Enabled = false
	cfg.Sweep.Interval = 0

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
