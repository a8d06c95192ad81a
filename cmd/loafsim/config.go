// ABOUTME: Scenario loading for the loafsim traffic generator
// ABOUTME: Loads TOML scenarios with environment variable expansion

package main

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Scenario describes the synthetic traffic loafsim generates.
type Scenario struct {
	Seed     int64          `toml:"seed"`
	Traffic  TrafficConfig  `toml:"traffic"`
	Channels ChannelsConfig `toml:"channels"`
	Threads  ThreadsConfig  `toml:"threads"`
}

// TrafficConfig shapes the message stream.
type TrafficConfig struct {
	MessageInterval time.Duration `toml:"-"`
	Duration        time.Duration `toml:"-"`

	// Raw string values for TOML decoding
	MessageIntervalRaw string `toml:"message_interval"`
	DurationRaw        string `toml:"duration"`

	StaleRatio     float64 `toml:"stale_ratio"`
	DuplicateRatio float64 `toml:"duplicate_ratio"`
}

// ChannelsConfig sizes the synthetic channel pool.
type ChannelsConfig struct {
	Count  int    `toml:"count"`
	Prefix string `toml:"prefix"`
}

// ThreadsConfig shapes forum thread behavior. SpawnRatio is the fraction of
// ticks that open a new thread; TrafficRatio is the fraction of messages
// aimed at an existing thread instead of a plain channel.
type ThreadsConfig struct {
	SpawnRatio   float64 `toml:"spawn_ratio"`
	TrafficRatio float64 `toml:"traffic_ratio"`
}

// DefaultScenario returns the scenario used when no file is given: a small
// channel pool with light thread traffic and enough stale and duplicate
// deliveries to keep the pruner and dedupe cache busy.
func DefaultScenario() *Scenario {
	return &Scenario{
		Seed: 1,
		Traffic: TrafficConfig{
			MessageInterval: 250 * time.Millisecond,
			Duration:        0, // run until interrupted
			StaleRatio:      0.05,
			DuplicateRatio:  0.10,
		},
		Channels: ChannelsConfig{
			Count:  4,
			Prefix: "channel",
		},
		Threads: ThreadsConfig{
			SpawnRatio:   0.15,
			TrafficRatio: 0.30,
		},
	}
}

// LoadScenario reads a scenario from the given path, expanding environment
// variables and layering over DefaultScenario.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	// Expand environment variables (${VAR} syntax)
	expanded := expandEnvVars(string(data))

	scn := DefaultScenario()
	if _, err := toml.Decode(expanded, scn); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}

	if err := parseDurations(scn); err != nil {
		return nil, err
	}

	if err := scn.Validate(); err != nil {
		return nil, fmt.Errorf("validating scenario: %w", err)
	}

	return scn, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts the raw duration strings into time.Duration values.
func parseDurations(scn *Scenario) error {
	var err error

	if scn.Traffic.MessageIntervalRaw != "" {
		scn.Traffic.MessageInterval, err = time.ParseDuration(scn.Traffic.MessageIntervalRaw)
		if err != nil {
			return fmt.Errorf("parsing message_interval %q: %w", scn.Traffic.MessageIntervalRaw, err)
		}
	}

	if scn.Traffic.DurationRaw != "" {
		scn.Traffic.Duration, err = time.ParseDuration(scn.Traffic.DurationRaw)
		if err != nil {
			return fmt.Errorf("parsing duration %q: %w", scn.Traffic.DurationRaw, err)
		}
	}

	return nil
}

// Validate checks that the scenario is runnable.
func (s *Scenario) Validate() error {
	if s.Traffic.MessageInterval <= 0 {
		return fmt.Errorf("traffic.message_interval must be positive")
	}
	if s.Traffic.Duration < 0 {
		return fmt.Errorf("traffic.duration must not be negative")
	}
	if s.Channels.Count < 1 {
		return fmt.Errorf("channels.count must be at least 1")
	}
	if s.Channels.Prefix == "" {
		return fmt.Errorf("channels.prefix must not be empty")
	}

	ratios := map[string]float64{
		"traffic.stale_ratio":     s.Traffic.StaleRatio,
		"traffic.duplicate_ratio": s.Traffic.DuplicateRatio,
		"threads.spawn_ratio":     s.Threads.SpawnRatio,
		"threads.traffic_ratio":   s.Threads.TrafficRatio,
	}
	for name, v := range ratios {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}

	return nil
}
