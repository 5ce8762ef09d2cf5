package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Sync.FreshnessWindow)
	assert.Equal(t, 750*time.Millisecond, cfg.Sync.DebounceWindow)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, TabMovies, cfg.UI.DefaultTab)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
logging:
  level: DEBUG
sync:
  freshness_window: 10s
  debounce_window: 300ms
  history_page_size: 50
ui:
  default_tab: history
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, 10*time.Second, cfg.Sync.FreshnessWindow)
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.DebounceWindow)
	assert.Equal(t, 50, cfg.Sync.HistoryPageSize)
	assert.Equal(t, TabHistory, cfg.UI.DefaultTab)

	// Untouched keys keep their defaults
	assert.Equal(t, 4, cfg.Sync.HistoryWorkers)
	assert.Equal(t, "ruddarr", cfg.API.UserAgent)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("RUDDARR_SYNC_DEBOUNCE_WINDOW", "2s")
	t.Setenv("RUDDARR_API_USER_AGENT", "test-agent")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Sync.DebounceWindow)
	assert.Equal(t, "test-agent", cfg.API.UserAgent)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("ui:\n  default_tab: queue\n"), 0644))

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "default_tab")
}

func TestSaveConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	cfg := DefaultConfig()
	cfg.Sync.FreshnessWindow = 45 * time.Second
	cfg.UI.ShowHelp = false
	cfg.Store.Path = "/tmp/instances.db"
	require.NoError(t, SaveConfig(cfg, dir))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, loaded.Sync.FreshnessWindow)
	assert.False(t, loaded.UI.ShowHelp)
	assert.Equal(t, "/tmp/instances.db", loaded.Store.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero debounce", func(c *Config) { c.Sync.DebounceWindow = 0 }, "debounce_window"},
		{"negative freshness", func(c *Config) { c.Sync.FreshnessWindow = -time.Second }, "freshness_window"},
		{"no workers", func(c *Config) { c.Sync.HistoryWorkers = 0 }, "history_workers"},
		{"negative rate", func(c *Config) { c.API.RateLimit = -1 }, "rate_limit"},
		{"unknown tab", func(c *Config) { c.UI.DefaultTab = "calendar" }, "default_tab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
