// Package config provides configuration management for the quote bot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "stockbot/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Telegram      TelegramConfig     `mapstructure:"telegram"`
	Quotes        QuotesConfig       `mapstructure:"quotes"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Store         StoreConfig        `mapstructure:"store"`
	Log           LogConfig          `mapstructure:"log"`
}

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	Token       string        `mapstructure:"token"`
	BaseURL     string        `mapstructure:"base_url"`
	PollTimeout time.Duration `mapstructure:"poll_timeout"`
}

// QuotesConfig holds quote source endpoints and fetch tuning.
type QuotesConfig struct {
	HKURL          string        `mapstructure:"hk_url"`
	USURLPrefix    string        `mapstructure:"us_url_prefix"`
	USURLSuffix    string        `mapstructure:"us_url_suffix"`
	ForexURL       string        `mapstructure:"forex_url"`
	ForexAPIKey    string        `mapstructure:"forex_api_key"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	CacheSize      int           `mapstructure:"cache_size"`
}

// NotificationConfig holds notification loop configuration.
type NotificationConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// StoreConfig selects the SQL backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // sqlite3, pgx
	DSN    string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  bool   `mapstructure:"file"`
	Path  string `mapstructure:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stockbot"
	}
	return filepath.Join(home, ".config", "stockbot")
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("telegram.poll_timeout", 300*time.Second)

	v.SetDefault("quotes.hk_url", "http://www.aastocks.com/tc/mobile/Quote.aspx?symbol=")
	v.SetDefault("quotes.us_url_prefix", "https://www.nasdaq.com/en/symbol/")
	v.SetDefault("quotes.us_url_suffix", "/real-time")
	v.SetDefault("quotes.forex_url", "http://forex.1forge.com/1.0.3/quotes")
	v.SetDefault("quotes.max_attempts", 10)
	v.SetDefault("quotes.initial_backoff", 250*time.Millisecond)
	v.SetDefault("quotes.max_backoff", 2*time.Second)
	v.SetDefault("quotes.fetch_timeout", 45*time.Second)
	v.SetDefault("quotes.request_timeout", 10*time.Second)
	v.SetDefault("quotes.max_concurrency", 8)
	v.SetDefault("quotes.cache_ttl", 30*time.Second)
	v.SetDefault("quotes.cache_size", 256)

	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.interval", 60*time.Second)

	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.dsn", filepath.Join(configDir, "stockbot.db"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", true)
	v.SetDefault("log.path", filepath.Join(configDir, "logs", "stock_quote_bot.log"))
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("ONEFORGE_API"); v != "" {
		cfg.Quotes.ForexAPIKey = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DB_CONN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("NOTIFICATION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Notifications.Interval = d
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("%w: store.driver %q (must be 'sqlite3' or 'pgx')", apperrors.ErrConfigInvalid, c.Store.Driver)
	}
	if c.Store.DSN == "" {
		return fmt.Errorf("%w: store.dsn is empty", apperrors.ErrConfigInvalid)
	}
	if c.Quotes.MaxAttempts < 1 {
		return fmt.Errorf("%w: quotes.max_attempts must be at least 1", apperrors.ErrConfigInvalid)
	}
	if c.Quotes.InitialBackoff < 0 || c.Quotes.MaxBackoff < 0 {
		return fmt.Errorf("%w: quotes backoff must be non-negative", apperrors.ErrConfigInvalid)
	}
	if c.Notifications.Interval <= 0 {
		return fmt.Errorf("%w: notifications.interval must be positive", apperrors.ErrConfigInvalid)
	}
	return nil
}
