package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/deviceapi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
listen_address = "127.0.0.1:8081"
log_level = "debug"
platform_override = "orangepi"
cache_ttl = "10s"
provider_timeout = "3s"
history = true
history_db = "/path/to/history.db"

[scoring]
cpu_warn = 75.0
cpu_cap = 40.0
`)
	configPath := filepath.Join(tempDir, "deviceapi.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("DEVICEAPI_CONFIG", configPath)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8081", cfg.ListenAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "orangepi", cfg.PlatformOverride)
	assert.Equal(t, 10*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	assert.True(t, cfg.History)
	assert.Equal(t, "/path/to/history.db", cfg.HistoryDB)
	assert.InDelta(t, 75.0, cfg.Scoring.CPUWarn, 0.001)
	assert.InDelta(t, 40.0, cfg.Scoring.CPUCap, 0.001)
	// Unset scoring keys keep their defaults
	assert.InDelta(t, config.DefaultScoring().DiskWarn, cfg.Scoring.DiskWarn, 0.001)
}

func TestLoadDefaults(t *testing.T) {
	// Point at an empty directory so no config file is picked up
	t.Setenv("DEVICEAPI_CONFIG", "")
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(wd) }()
	require.NoError(t, os.Chdir(t.TempDir()))

	cfg, err := config.Load()
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultListenAddress, cfg.ListenAddress)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Empty(t, cfg.PlatformOverride)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.False(t, cfg.History)
	assert.Equal(t, config.DefaultScoring(), cfg.Scoring)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
This is not a valid TOML file
`)
	configPath := filepath.Join(tempDir, "deviceapi.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("DEVICEAPI_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestInvalidLogLevel(t *testing.T) {
	tempDir := t.TempDir()

	configContent := []byte(`
log_level = "invalid"
`)
	configPath := filepath.Join(tempDir, "deviceapi.toml")
	err := os.WriteFile(configPath, configContent, 0o600)
	require.NoError(t, err)

	t.Setenv("DEVICEAPI_CONFIG", configPath)

	_, err = config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid")
}

func TestLogLevelFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "--log-level", "debug"}
	t.Setenv("DEVICEAPI_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel, "Expected LogLevel to be set by flag")
}

func TestValidateRejectsBadDurations(t *testing.T) {
	cfg := &config.Config{
		ListenAddress:   config.DefaultListenAddress,
		LogLevel:        "info",
		CacheTTL:        -time.Second,
		ProviderTimeout: time.Second,
		Scoring:         config.DefaultScoring(),
	}
	require.Error(t, cfg.Validate())

	cfg.CacheTTL = time.Second
	cfg.ProviderTimeout = 0
	require.Error(t, cfg.Validate())

	cfg.ProviderTimeout = time.Second
	require.NoError(t, cfg.Validate())
}
