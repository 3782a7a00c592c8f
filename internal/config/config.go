// ABOUTME: Configuration loading and parsing for credo-gateway
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete credo-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	Health    HealthConfig    `yaml:"health"`
	Collab    CollabConfig    `yaml:"collab"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BroadcastConfig holds the per-connection schedule and buffer tuning
type BroadcastConfig struct {
	PriceInterval  time.Duration `yaml:"-"`
	HealthInterval time.Duration `yaml:"-"`
	AlertInterval  time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	PriceIntervalRaw  string `yaml:"price_interval"`
	HealthIntervalRaw string `yaml:"health_interval"`
	AlertIntervalRaw  string `yaml:"alert_interval"`

	AlertProbability float64 `yaml:"alert_probability"`
	SnapshotLimit    int     `yaml:"snapshot_limit"`
	EventBuffer      int     `yaml:"event_buffer"`
	CommandRate      float64 `yaml:"command_rate"`
	CommandBurst     int     `yaml:"command_burst"`
}

// AlertsConfig holds alert store tuning
type AlertsConfig struct {
	Capacity int `yaml:"capacity"`
}

// HealthConfig holds key-rotation simulation configuration
type HealthConfig struct {
	Provider string   `yaml:"provider"`
	Keys     []string `yaml:"keys"`

	RotationDelay  time.Duration `yaml:"-"`
	RotationPeriod time.Duration `yaml:"-"`

	RotationDelayRaw  string `yaml:"rotation_delay"`
	RotationPeriodRaw string `yaml:"rotation_period"`

	// RotationSchedule is a cron spec; empty disables scheduled rotation
	RotationSchedule string `yaml:"rotation_schedule"`
}

// CollabConfig holds simulated-collaborator latencies
type CollabConfig struct {
	TradeLatency time.Duration `yaml:"-"`
	JobLatency   time.Duration `yaml:"-"`

	TradeLatencyRaw string `yaml:"trade_latency"`
	JobLatencyRaw   string `yaml:"job_latency"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{HTTPAddr: ":8484"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Broadcast: BroadcastConfig{
			PriceInterval:    5 * time.Second,
			HealthInterval:   15 * time.Second,
			AlertInterval:    45 * time.Second,
			AlertProbability: 0.3,
			SnapshotLimit:    20,
			EventBuffer:      64,
			CommandRate:      5,
			CommandBurst:     10,
		},
		Alerts: AlertsConfig{Capacity: 100},
		Health: HealthConfig{
			Provider:         "sim-kms",
			Keys:             []string{"signing-key-1", "signing-key-2", "attestation-key-1"},
			RotationDelay:    3 * time.Second,
			RotationPeriod:   24 * time.Hour,
			RotationSchedule: "0 3 * * *",
		},
		Collab: CollabConfig{
			TradeLatency: 150 * time.Millisecond,
			JobLatency:   2 * time.Second,
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values. Fields left
// unset keep their defaults.
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

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Broadcast.AlertProbability < 0 || c.Broadcast.AlertProbability > 1 {
		return fmt.Errorf("broadcast.alert_probability must be between 0 and 1, got %v", c.Broadcast.AlertProbability)
	}

	if c.Alerts.Capacity <= 0 {
		return fmt.Errorf("alerts.capacity must be positive, got %d", c.Alerts.Capacity)
	}

	if c.Health.Provider == "" {
		return fmt.Errorf("health.provider is required")
	}
	if len(c.Health.Keys) == 0 {
		return fmt.Errorf("health.keys must name at least one key")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"broadcast.price_interval", cfg.Broadcast.PriceIntervalRaw, &cfg.Broadcast.PriceInterval},
		{"broadcast.health_interval", cfg.Broadcast.HealthIntervalRaw, &cfg.Broadcast.HealthInterval},
		{"broadcast.alert_interval", cfg.Broadcast.AlertIntervalRaw, &cfg.Broadcast.AlertInterval},
		{"health.rotation_delay", cfg.Health.RotationDelayRaw, &cfg.Health.RotationDelay},
		{"health.rotation_period", cfg.Health.RotationPeriodRaw, &cfg.Health.RotationPeriod},
		{"collab.trade_latency", cfg.Collab.TradeLatencyRaw, &cfg.Collab.TradeLatency},
		{"collab.job_latency", cfg.Collab.JobLatencyRaw, &cfg.Collab.JobLatency},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
