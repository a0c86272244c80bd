// Package config loads the service configuration: built-in defaults, then an
// optional YAML file named by ASTRO_CONFIG_FILE, then ASTRO_* environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"` // debug, info, warn, error
	TrustProxy      bool          `yaml:"trust_proxy"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	Auth      AuthConfig      `yaml:"auth"`
	Ephemeris EphemerisConfig `yaml:"ephemeris"`
	Report    ReportConfig    `yaml:"report"`
}

// AuthConfig enables token authentication on the API routes.
type AuthConfig struct {
	Enabled bool     `yaml:"enabled"`
	Tokens  []string `yaml:"tokens"`
}

// EphemerisConfig configures the calculation engine.
type EphemerisConfig struct {
	// DataPath is where the engine looks for ephemeris files.
	DataPath string `yaml:"data_path"`

	// HouseSystem is the house system letter used when a request names none.
	HouseSystem string `yaml:"house_system"`

	// NodesIncludeEarth adds the observer's body to node batches.
	NodesIncludeEarth bool `yaml:"nodes_include_earth"`
}

// ReportConfig bounds document generation.
type ReportConfig struct {
	// TruncationMargin is the free space, in bytes, below which batches stop.
	TruncationMargin int `yaml:"truncation_margin"`

	// MaxCapacity is the largest document capacity a request may ask for.
	MaxCapacity int `yaml:"max_capacity"`

	// MaxInflightBytes bounds the output buffers held by concurrent requests.
	MaxInflightBytes int64 `yaml:"max_inflight_bytes"`
}

// ErrNoTokens is returned when auth is enabled without any token.
var ErrNoTokens = errors.New("auth is enabled but no tokens are configured")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		ShutdownTimeout: 5 * time.Second,
		Ephemeris: EphemerisConfig{
			DataPath:    "eph",
			HouseSystem: "P",
		},
		Report: ReportConfig{
			TruncationMargin: 1000,
			MaxCapacity:      1 << 20,
			MaxInflightBytes: 64 << 20,
		},
	}
}

// Load builds the configuration. A missing file named by ASTRO_CONFIG_FILE is
// an error; invalid environment values are logged and ignored.
func Load(logger *slog.Logger) (Config, error) {
	cfg := Default()

	if path := os.Getenv("ASTRO_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
		logger.Info("loaded config file", "path", path)
	}

	cfg.applyEnv(logger)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(logger *slog.Logger) {
	if v := os.Getenv("ASTRO_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}

	if v := os.Getenv("ASTRO_LOG_LEVEL"); v != "" {
		if _, ok := parseLevel(v); !ok {
			logger.Warn("invalid ASTRO_LOG_LEVEL value, using default", "value", v, "default", c.LogLevel)
		} else {
			c.LogLevel = v
		}
	}

	envBool(logger, "ASTRO_TRUST_PROXY", &c.TrustProxy)

	if v := os.Getenv("ASTRO_SHUTDOWN_TIMEOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_SHUTDOWN_TIMEOUT value, using default", "value", v, "default", c.ShutdownTimeout.Seconds())
		} else {
			c.ShutdownTimeout = time.Duration(n) * time.Second
		}
	}

	envBool(logger, "ASTRO_AUTH_ENABLED", &c.Auth.Enabled)

	if v := os.Getenv("ASTRO_AUTH_TOKENS"); v != "" {
		var tokens []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tokens = append(tokens, t)
			}
		}
		c.Auth.Tokens = tokens
	}

	if v := os.Getenv("ASTRO_EPHE_PATH"); v != "" {
		c.Ephemeris.DataPath = v
	}

	if v := os.Getenv("ASTRO_HOUSE_SYSTEM"); v != "" {
		if len(v) != 1 {
			logger.Warn("invalid ASTRO_HOUSE_SYSTEM value, using default", "value", v, "default", c.Ephemeris.HouseSystem)
		} else {
			c.Ephemeris.HouseSystem = strings.ToUpper(v)
		}
	}

	envBool(logger, "ASTRO_NODES_INCLUDE_EARTH", &c.Ephemeris.NodesIncludeEarth)

	envInt(logger, "ASTRO_TRUNCATION_MARGIN", &c.Report.TruncationMargin)
	envInt(logger, "ASTRO_MAX_CAPACITY", &c.Report.MaxCapacity)

	if v := os.Getenv("ASTRO_MAX_INFLIGHT_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			logger.Warn("invalid ASTRO_MAX_INFLIGHT_BYTES value, using default", "value", v, "default", c.Report.MaxInflightBytes)
		} else {
			c.Report.MaxInflightBytes = n
		}
	}
}

func envBool(logger *slog.Logger, key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = b
}

func envInt(logger *slog.Logger, key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", *dst)
		return
	}
	*dst = n
}

// Validate reports settings the service cannot run with.
func (c Config) Validate() error {
	if c.Auth.Enabled && len(c.Auth.Tokens) == 0 {
		return ErrNoTokens
	}
	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log level %q: want debug, info, warn or error", c.LogLevel)
	}
	if len(c.Ephemeris.HouseSystem) != 1 {
		return fmt.Errorf("house system %q: want a single letter", c.Ephemeris.HouseSystem)
	}
	if int64(c.Report.MaxCapacity) > c.Report.MaxInflightBytes {
		return fmt.Errorf("max capacity %d exceeds max in-flight bytes %d", c.Report.MaxCapacity, c.Report.MaxInflightBytes)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
