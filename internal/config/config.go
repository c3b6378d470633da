// Package config loads facilitator settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Environment overrides.
const (
	EnvStore      = "FACILITATOR_STORE"
	EnvRedisAddr  = "FACILITATOR_REDIS_ADDR"
	EnvSQLitePath = "FACILITATOR_SQLITE_PATH"
	EnvLogLevel   = "FACILITATOR_LOG_LEVEL"
	EnvLogFormat  = "FACILITATOR_LOG_FORMAT"
	EnvHTTPAddr   = "FACILITATOR_HTTP_ADDR"
	EnvMaxDepth   = "FACILITATOR_MAX_DEPTH"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Redis configures the redis store and locker.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SQLite configures the sqlite store.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Config is the full facilitator configuration.
type Config struct {
	Store     string        `mapstructure:"store"`
	Redis     Redis         `mapstructure:"redis"`
	SQLite    SQLite        `mapstructure:"sqlite"`
	LockTTL   time.Duration `mapstructure:"lock_ttl"`
	MaxDepth  int           `mapstructure:"max_depth"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	HTTPAddr  string        `mapstructure:"http_addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Store:     DriverMemory,
		Redis:     Redis{Addr: "localhost:6379", Prefix: "facilitator:"},
		SQLite:    SQLite{Path: "facilitator.db"},
		LockTTL:   30 * time.Second,
		MaxDepth:  25,
		LogLevel:  "info",
		LogFormat: "text",
		HTTPAddr:  ":8080",
	}
}

// Load reads path (if not empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode parses YAML into cfg, keeping fields the document does not set.
func Decode(data []byte, cfg *Config) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvStore); ok {
		c.Store = v
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvSQLitePath); ok {
		c.SQLite.Path = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		c.LogFormat = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok {
		c.HTTPAddr = v
	}
	if v, ok := lookup(EnvMaxDepth); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvMaxDepth, v)
		}
		c.MaxDepth = n
	}
	return nil
}

// Validate checks the driver, depth and log settings.
func (c Config) Validate() error {
	switch c.Store {
	case DriverMemory, DriverRedis, DriverSQLite:
	default:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive", ErrInvalidConfig)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}
