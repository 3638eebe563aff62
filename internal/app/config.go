package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig. They take precedence over the config file.
const (
	EnvConfig    = "RUNLOG_CONFIG"
	EnvAPIKey    = "RUNLOG_API_KEY"
	EnvDBPath    = "RUNLOG_DB_PATH"
	EnvTimezone  = "RUNLOG_TZ"
	EnvPort      = "RUNLOG_PORT"
	EnvRateLimit = "RUNLOG_RATE_LIMIT"
	EnvLogLevel  = "RUNLOG_LOG_LEVEL"
)

// MinAPIKeyLen is the minimum accepted API key length.
const MinAPIKeyLen = 32

// Config holds the application configuration.
type Config struct {
	APIKey    string `yaml:"api_key"`
	DBPath    string `yaml:"db_path"`
	Timezone  string `yaml:"timezone"`
	Port      string `yaml:"port"`
	RateLimit int    `yaml:"rate_limit"`
	LogLevel  string `yaml:"log_level"`
}

// DefaultConfig returns a Config populated with defaults.
func DefaultConfig() *Config {
	return &Config{
		DBPath:    "./runlog.db",
		Timezone:  "UTC",
		Port:      "7070",
		RateLimit: 100,
		LogLevel:  "info",
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (or RUNLOG_CONFIG when path is empty), then environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	overrideString(&cfg.APIKey, EnvAPIKey)
	overrideString(&cfg.DBPath, EnvDBPath)
	overrideString(&cfg.Timezone, EnvTimezone)
	overrideString(&cfg.Port, EnvPort)
	overrideString(&cfg.LogLevel, EnvLogLevel)

	if v := os.Getenv(EnvRateLimit); v != "" {
		rateLimit, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s must be a positive integer", EnvRateLimit)
		}
		cfg.RateLimit = rateLimit
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) validate() error {
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be a positive integer")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ValidateServe checks the settings only the HTTP server needs.
func (c *Config) ValidateServe() error {
	if c.APIKey == "" {
		return fmt.Errorf("%s is required", EnvAPIKey)
	}
	if len(c.APIKey) < MinAPIKeyLen {
		return fmt.Errorf("%s must be at least %d characters long", EnvAPIKey, MinAPIKeyLen)
	}
	return nil
}

// Location returns the time zone used for Monday week alignment.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
}
