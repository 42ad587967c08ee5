// Package config loads runner and simulator settings from an optional YAML
// file overlaid with MIR_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mir-robotics/actionstates/actionlib/httpaction"
	"github.com/mir-robotics/actionstates/logger"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto config keys: MIR_ACTIONS_BASE_URL sets actions.base_url.
const EnvPrefix = "MIR_"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Actions   ActionsConfig   `koanf:"actions"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Simulator SimulatorConfig `koanf:"simulator"`
}

type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text"` // json, text
}

// ActionsConfig describes how action endpoints are reached.
type ActionsConfig struct {
	BaseURL         string        `koanf:"base_url"         validate:"required,url"`
	PollInterval    time.Duration `koanf:"poll_interval"    validate:"gt=0"`
	RequestTimeout  time.Duration `koanf:"request_timeout"  validate:"gt=0"`
	InitialBackoff  time.Duration `koanf:"initial_backoff"  validate:"gt=0"`
	MaxBackoff      time.Duration `koanf:"max_backoff"      validate:"gtefield=InitialBackoff"`
	CacheDNS        bool          `koanf:"cache_dns"`
	CancelOnTimeout bool          `koanf:"cancel_on_timeout"`
}

type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"     validate:"required_if=Enabled true"` // host:port of the OTLP HTTP collector
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name" validate:"required"`
}

type SimulatorConfig struct {
	Addr    string `koanf:"addr"    validate:"required,hostname_port"`
	Script  string `koanf:"script"`
	Workers int    `koanf:"workers" validate:"gte=0"`
	// Retention is how long finished goals stay queryable.
	Retention time.Duration `koanf:"retention" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals

func defaults(k *koanf.Koanf) error {
	for key, value := range map[string]any{
		"log.level":                 "info",
		"log.format":                "text",
		"actions.base_url":          "http://localhost:8080",
		"actions.poll_interval":     "100ms",
		"actions.request_timeout":   "5s",
		"actions.initial_backoff":   "200ms",
		"actions.max_backoff":       "5s",
		"actions.cache_dns":         false,
		"actions.cancel_on_timeout": true,
		"telemetry.enabled":         false,
		"telemetry.endpoint":        "localhost:4318",
		"telemetry.insecure":        true,
		"telemetry.service_name":    "mirtask",
		"simulator.addr":            ":8080",
		"simulator.workers":         0,
		"simulator.retention":       "10m",
	} {
		if err := k.Set(key, value); err != nil {
			return err
		}
	}

	return nil
}

// envKey maps MIR_ACTIONS_POLL_INTERVAL to actions.poll_interval. Only the
// first underscore separates the section; the rest belong to the field name.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	return strings.Replace(key, "_", ".", 1)
}

// Load reads defaults, then path (when non-empty), then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := defaults(k); err != nil {
		return nil, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}

// DialerOptions converts the actions section into HTTP client options.
func (c ActionsConfig) DialerOptions() httpaction.Options {
	return httpaction.Options{
		BaseURL:        c.BaseURL,
		PollInterval:   c.PollInterval,
		RequestTimeout: c.RequestTimeout,
		InitialBackoff: c.InitialBackoff,
		MaxBackoff:     c.MaxBackoff,
		CacheDNS:       c.CacheDNS,
	}
}

// LoggerOptions converts the log section into logger options.
func (c LogConfig) LoggerOptions(subsystem string) logger.Options {
	level := logger.ParseLevel(c.Level)

	return logger.Options{
		Subsystem:   subsystem,
		JSON:        c.Format == "json",
		MinLevel:    level,
		LegacyLevel: slog.LevelInfo,
	}
}
