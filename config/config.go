// Package config loads and validates the service configuration from JSON
// files with environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Service    ServiceConfig    `json:"service"`
	NATS       NATSConfig       `json:"nats"`
	Metrics    MetricsConfig    `json:"metrics"`
	Repository RepositoryConfig `json:"repository"`
}

// ServiceConfig defines service identity
type ServiceConfig struct {
	Name        string `json:"name"`
	Environment string `json:"environment,omitempty"` // "prod", "dev", "test"
	LogLevel    string `json:"log_level,omitempty"`   // "debug", "info", "warn", "error"
}

// NATSConfig defines the NATS connection and the ingest stream
type NATSConfig struct {
	URLs          []string `json:"urls,omitempty"`
	MaxReconnects int      `json:"max_reconnects,omitempty"`
	ReconnectWait Duration `json:"reconnect_wait,omitempty"`
	Username      string   `json:"username,omitempty"`
	Password      string   `json:"password,omitempty"`
	Token         string   `json:"token,omitempty"`
	Stream        string   `json:"stream,omitempty"`
	Subject       string   `json:"subject,omitempty"`
	Durable       string   `json:"durable,omitempty"`
}

// MetricsConfig defines the metrics HTTP endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// RepositoryConfig defines tenant repository lifecycle settings
type RepositoryConfig struct {
	IdleTTL          Duration `json:"idle_ttl,omitempty"`
	EvictionInterval Duration `json:"eviction_interval,omitempty"`
	LoaderWorkers    int      `json:"loader_workers,omitempty"`
	SnapshotPath     string   `json:"snapshot_path,omitempty"`
}

// Duration is a time.Duration that unmarshals from JSON duration strings
// ("30s", "5m") or plain nanosecond numbers.
type Duration time.Duration

// UnmarshalJSON parses either a duration string or a number
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		*d = Duration(parsed)
		return nil
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
}

// MarshalJSON encodes the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// AsDuration returns the wrapped time.Duration
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service.name is required")
	}
	if len(c.NATS.URLs) == 0 {
		return errors.New("nats.urls is required")
	}
	if c.NATS.Subject == "" {
		return errors.New("nats.subject is required")
	}
	switch strings.ToLower(c.Service.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("service.log_level %q is not one of debug, info, warn, error", c.Service.LogLevel)
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("metrics.port %d is out of range", c.Metrics.Port)
	}
	if c.Repository.LoaderWorkers < 0 {
		return errors.New("repository.loader_workers cannot be negative")
	}
	return nil
}

// Loader loads configuration from layered JSON files with environment
// overrides applied last.
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		layers:     []string{},
		validation: true,
		envPrefix:  "EDQS",
	}
}

// AddLayer adds a configuration file layer
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// LoadFile loads configuration from a single file
func (l *Loader) LoadFile(path string) (*Config, error) {
	l.layers = []string{path}
	return l.Load()
}

// Load loads and merges all configuration layers
func (l *Loader) Load() (*Config, error) {
	cfg := Defaults()

	for _, path := range l.layers {
		data, err := safeReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if err := validateJSONDepth(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	l.applyEnvOverrides(cfg)

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Defaults returns the default configuration
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     "edqs",
			LogLevel: "info",
		},
		NATS: NATSConfig{
			URLs:          []string{"nats://localhost:4222"},
			MaxReconnects: -1,
			ReconnectWait: Duration(2 * time.Second),
			Stream:        "edqs-events",
			Subject:       "edqs.events.>",
			Durable:       "edqs",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Repository: RepositoryConfig{
			IdleTTL:          Duration(time.Hour),
			EvictionInterval: Duration(10 * time.Minute),
			LoaderWorkers:    4,
		},
	}
}

// getenv reads a prefixed environment variable, dropping values that fail
// basic validation.
func (l *Loader) getenv(suffix string) string {
	key := l.envPrefix + "_" + suffix
	val := os.Getenv(key)
	if err := validateEnvVar(key, val); err != nil {
		return ""
	}
	return val
}

func (l *Loader) applyEnvOverrides(cfg *Config) {
	if val := l.getenv("SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := l.getenv("LOG_LEVEL"); val != "" {
		cfg.Service.LogLevel = val
	}
	if val := l.getenv("NATS_URLS"); val != "" {
		cfg.NATS.URLs = strings.Split(val, ",")
	}
	if val := l.getenv("NATS_USERNAME"); val != "" {
		cfg.NATS.Username = val
	}
	if val := l.getenv("NATS_PASSWORD"); val != "" {
		cfg.NATS.Password = val
	}
	if val := l.getenv("NATS_TOKEN"); val != "" {
		cfg.NATS.Token = val
	}
	if val := l.getenv("NATS_STREAM"); val != "" {
		cfg.NATS.Stream = val
	}
	if val := l.getenv("NATS_SUBJECT"); val != "" {
		cfg.NATS.Subject = val
	}
	if val := l.getenv("NATS_DURABLE"); val != "" {
		cfg.NATS.Durable = val
	}
	if val := l.getenv("METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if val := l.getenv("REPO_IDLE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			cfg.Repository.IdleTTL = Duration(ttl)
		}
	}
	if val := l.getenv("REPO_SNAPSHOT_PATH"); val != "" {
		cfg.Repository.SnapshotPath = val
	}
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := safeWriteFile(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
