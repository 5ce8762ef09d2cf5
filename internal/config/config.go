package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Tabs the UI can open on
const (
	TabMovies  = "movies"
	TabSearch  = "search"
	TabSeries  = "series"
	TabHistory = "history"
)

// Config holds all application configuration
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Sync    SyncConfig    `mapstructure:"sync"`
	API     APIConfig     `mapstructure:"api"`
	UI      UIConfig      `mapstructure:"ui"`
	Store   StoreConfig   `mapstructure:"store"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SyncConfig tunes the fetch coordinator and search debouncer
type SyncConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window"` // Recently added series are always refetched
	DebounceWindow  time.Duration `mapstructure:"debounce_window"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	HistoryPageSize int           `mapstructure:"history_page_size"`
	HistoryWorkers  int           `mapstructure:"history_workers"` // Instances fetched in parallel
}

// APIConfig holds REST client configuration
type APIConfig struct {
	RateLimit float64 `mapstructure:"rate_limit"` // Requests per second per instance, 0 disables
	Burst     int     `mapstructure:"burst"`
	UserAgent string  `mapstructure:"user_agent"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	DefaultTab string `mapstructure:"default_tab"`
	ShowHelp   bool   `mapstructure:"show_help"`
}

// StoreConfig locates the instance registry
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			File:       defaultLogPath(),
			Level:      "INFO",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Sync: SyncConfig{
			FreshnessWindow: 30 * time.Second,
			DebounceWindow:  750 * time.Millisecond,
			RequestTimeout:  30 * time.Second,
			HistoryPageSize: 25,
			HistoryWorkers:  4,
		},
		API: APIConfig{
			RateLimit: 10,
			Burst:     5,
			UserAgent: "ruddarr",
		},
		UI: UIConfig{
			DefaultTab: TabMovies,
			ShowHelp:   true,
		},
		Store: StoreConfig{
			Path: filepath.Join(defaultDataPath(), "instances.db"),
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ruddarr")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "ruddarr")
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	return filepath.Join(defaultDataPath(), "ruddarr.log")
}

// DefaultDir returns the default config directory for the current OS
func DefaultDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "ruddarr")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "ruddarr")
	}
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	// Environment variable overrides, e.g. RUDDARR_SYNC_DEBOUNCE_WINDOW
	v.SetEnvPrefix("RUDDARR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, DefaultConfig())
	return v
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", cfg.Logging.MaxAgeDays)

	v.SetDefault("sync.freshness_window", cfg.Sync.FreshnessWindow)
	v.SetDefault("sync.debounce_window", cfg.Sync.DebounceWindow)
	v.SetDefault("sync.request_timeout", cfg.Sync.RequestTimeout)
	v.SetDefault("sync.history_page_size", cfg.Sync.HistoryPageSize)
	v.SetDefault("sync.history_workers", cfg.Sync.HistoryWorkers)

	v.SetDefault("api.rate_limit", cfg.API.RateLimit)
	v.SetDefault("api.burst", cfg.API.Burst)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("ui.default_tab", cfg.UI.DefaultTab)
	v.SetDefault("ui.show_help", cfg.UI.ShowHelp)

	v.SetDefault("store.path", cfg.Store.Path)
}

// LoadConfig loads configuration from dir and the environment.
// An empty dir uses DefaultDir.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}

	v := newViper(dir)

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes cfg to config.yaml in dir
func SaveConfig(cfg *Config, dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.Set("logging.max_backups", cfg.Logging.MaxBackups)
	v.Set("logging.max_age_days", cfg.Logging.MaxAgeDays)

	v.Set("sync.freshness_window", cfg.Sync.FreshnessWindow.String())
	v.Set("sync.debounce_window", cfg.Sync.DebounceWindow.String())
	v.Set("sync.request_timeout", cfg.Sync.RequestTimeout.String())
	v.Set("sync.history_page_size", cfg.Sync.HistoryPageSize)
	v.Set("sync.history_workers", cfg.Sync.HistoryWorkers)

	v.Set("api.rate_limit", cfg.API.RateLimit)
	v.Set("api.burst", cfg.API.Burst)
	v.Set("api.user_agent", cfg.API.UserAgent)

	v.Set("ui.default_tab", cfg.UI.DefaultTab)
	v.Set("ui.show_help", cfg.UI.ShowHelp)

	v.Set("store.path", cfg.Store.Path)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the stores cannot work with
func (c *Config) Validate() error {
	switch {
	case c.Sync.FreshnessWindow < 0:
		return fmt.Errorf("sync.freshness_window must not be negative")
	case c.Sync.DebounceWindow <= 0:
		return fmt.Errorf("sync.debounce_window must be positive")
	case c.Sync.RequestTimeout <= 0:
		return fmt.Errorf("sync.request_timeout must be positive")
	case c.Sync.HistoryPageSize <= 0:
		return fmt.Errorf("sync.history_page_size must be positive")
	case c.Sync.HistoryWorkers <= 0:
		return fmt.Errorf("sync.history_workers must be positive")
	case c.API.RateLimit < 0:
		return fmt.Errorf("api.rate_limit must not be negative")
	}

	switch c.UI.DefaultTab {
	case TabMovies, TabSearch, TabSeries, TabHistory:
	default:
		return fmt.Errorf("ui.default_tab %q is not one of movies, search, series, history", c.UI.DefaultTab)
	}

	return nil
}
