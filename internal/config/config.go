package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ankittk/osboard/pkg/models"
	"gopkg.in/yaml.v3"
)

// Config is the content of <home>/config.yaml. Missing fields keep their defaults.
type Config struct {
	APIURL         string        `yaml:"api_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	FlushDelay     time.Duration `yaml:"flush_delay"`

	// RefreshInterval reloads the board periodically; zero disables it.
	RefreshInterval time.Duration `yaml:"refresh_interval"`

	Addr    string       `yaml:"addr"`
	APIKey  string       `yaml:"api_key,omitempty"`
	UI      bool         `yaml:"ui"`
	Metrics bool         `yaml:"metrics"`
	Store   StoreConfig  `yaml:"store"`
	Log     LogConfig    `yaml:"log"`
	Notify  NotifyConfig `yaml:"notify,omitempty"`
}

// StoreConfig selects the local store backend.
type StoreConfig struct {
	Driver   string `yaml:"driver"`             // sqlite (default), postgres or mongo
	DSN      string `yaml:"dsn,omitempty"`      // postgres DSN or mongo URI
	Database string `yaml:"database,omitempty"` // mongo database
}

// NotifyConfig lists the integrations told about accepted moves.
type NotifyConfig struct {
	SlackWebhook string   `yaml:"slack_webhook,omitempty"`
	SlackChannel string   `yaml:"slack_channel,omitempty"`
	Webhook      string   `yaml:"webhook,omitempty"`
	Actions      []string `yaml:"actions,omitempty"` // default drop, backlog, reset
}

// LogConfig tunes the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// DefaultAddr is the local API listen address.
const DefaultAddr = "127.0.0.1:8790"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:          models.DefaultAPIURL,
		RequestTimeout:  models.DefaultRequestTimeout * time.Second,
		FlushDelay:      models.DefaultFlushDelayMs * time.Millisecond,
		RefreshInterval: 5 * time.Minute,
		Addr:            DefaultAddr,
		UI:              true,
		Metrics:         true,
		Store:           StoreConfig{Driver: "sqlite"},
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Path returns <home>/config.yaml.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Load reads <home>/config.yaml over the defaults and applies the environment overrides.
// A missing file is not an error.
func Load(home string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(Path(home))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", Path(home), err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// applyEnv overrides cfg from the OSBOARD_* variables, DATABASE_URL and MONGO_URI.
// DATABASE_URL switches a sqlite config to postgres.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OSBOARD_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("OSBOARD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("OSBOARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("OSBOARD_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if cfg.Store.DSN != "" {
		return
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && (cfg.Store.Driver == "" || cfg.Store.Driver == "sqlite" || cfg.Store.Driver == "postgres") {
		cfg.Store.Driver, cfg.Store.DSN = "postgres", v
	} else if v := os.Getenv("MONGO_URI"); v != "" && cfg.Store.Driver == "mongo" {
		cfg.Store.DSN = v
	}
}

// Validate checks the values Load cannot default.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api_url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.FlushDelay < 0 || c.RefreshInterval < 0 {
		return errors.New("flush_delay and refresh_interval must not be negative")
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Save writes cfg to <home>/config.yaml.
func Save(home string, cfg Config) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(home), data, 0o600)
}
