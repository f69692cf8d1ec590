// Package config loads driftbench settings from defaults, an optional
// config file, DRIFTBENCH_* environment variables, and bound CLI flags,
// in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/driftbench/internal/locator"
)

// EnvPrefix prefixes every environment variable, e.g. DRIFTBENCH_ADDR.
const EnvPrefix = "DRIFTBENCH"

// Config is the resolved configuration.
type Config struct {
	// Addr is the listen address of the demo application.
	Addr string `mapstructure:"addr"`

	// BaseURL points the suite at an already running application.
	// Empty means start one in-process.
	BaseURL string `mapstructure:"base_url"`

	// Templates is a template directory on disk. Empty means the embedded
	// templates.
	Templates string `mapstructure:"templates"`

	// Maps is an optional rename-map override file.
	Maps string `mapstructure:"maps"`

	// DB is the run ledger path. Empty disables the ledger.
	DB string `mapstructure:"db"`

	Workers  int    `mapstructure:"workers"`
	LogLevel string `mapstructure:"log_level"`

	// Drift lists page=direction pairs applied at render time.
	Drift []string `mapstructure:"drift"`

	Browser BrowserConfig `mapstructure:"browser"`
}

// BrowserConfig configures the real-browser driver.
type BrowserConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RemoteURL string        `mapstructure:"remote_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config error in field %q: %s", e.Field, e.Message)
}

// IsError returns true if err is, or wraps, a config *Error.
func IsError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", "127.0.0.1:8080")
	v.SetDefault("base_url", "")
	v.SetDefault("templates", "")
	v.SetDefault("maps", "")
	v.SetDefault("db", "")
	v.SetDefault("workers", 4)
	v.SetDefault("log_level", "info")
	v.SetDefault("drift", []string{})
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.timeout", 30*time.Second)
}

// Loader builds a Config. Flags bound with BindFlag override every other
// source once they are set on the command line.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader with defaults and environment binding.
func NewLoader() *Loader {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// BindFlag binds key to a command-line flag.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("bind %s: flag not defined", key)
	}
	return l.v.BindPFlag(key, flag)
}

// Load reads path (if non-empty) and returns the validated configuration.
//
// Execution flow:
//  1. Read the config file; its type follows the extension (yaml, json, toml)
//  2. Merge defaults, file, environment, and bound flags
//  3. Validate values that later stages would otherwise reject late
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load is NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return &Error{Field: "workers", Message: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return &Error{Field: "log_level", Message: err.Error()}
	}
	if _, err := locator.ParseDriftState(c.Drift); err != nil {
		return &Error{Field: "drift", Message: err.Error()}
	}
	if c.Browser.Timeout < 0 {
		return &Error{Field: "browser.timeout", Message: "must not be negative"}
	}
	return nil
}

// DriftState parses Drift. Validate has already accepted it.
func (c *Config) DriftState() (locator.DriftState, error) {
	return locator.ParseDriftState(c.Drift)
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	lvl, _ := ParseLevel(c.LogLevel)
	return lvl
}

// ParseLevel maps debug, info, warn, and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
