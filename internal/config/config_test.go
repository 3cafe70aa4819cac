package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, envPrefix) {
			// Setenv registers the restore; Unsetenv makes the key absent.
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.RESTPort)
	assert.Equal(t, "8081", cfg.WSPort)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, FetchModeHTTP, cfg.FetchMode)
	assert.Equal(t, 2*time.Second, cfg.RequestInterval)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 10, cfg.ReboundLookback)
	assert.Equal(t, 4, cfg.FreeThrowLookahead)
	assert.False(t, cfg.OffensiveReboundAfterFTChanges)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COURTSIDE_REST_PORT", "9090")
	t.Setenv("COURTSIDE_WORKERS", "12")
	t.Setenv("COURTSIDE_REQUEST_INTERVAL", "500ms")
	t.Setenv("COURTSIDE_FETCH_MODE", "browser")
	t.Setenv("COURTSIDE_OFFENSIVE_REBOUND_AFTER_FT_CHANGES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.RESTPort)
	assert.Equal(t, 12, cfg.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, FetchModeBrowser, cfg.FetchMode)
	assert.True(t, cfg.OffensiveReboundAfterFTChanges)
	assert.Equal(t, "8081", cfg.WSPort)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "courtside.yaml")
	content := "rest_port: \"7000\"\nrebound_lookback: 6\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv(envFileVar, path)
	t.Setenv("COURTSIDE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.RESTPort)
	assert.Equal(t, 6, cfg.ReboundLookback)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(envFileVar, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.ErrorIs(t, err, ErrLoadConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.DatabaseDSN = "" }},
		{"empty port", func(c *Config) { c.RESTPort = "" }},
		{"bad fetch mode", func(c *Config) { c.FetchMode = "carrier-pigeon" }},
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"zero lookback", func(c *Config) { c.ReboundLookback = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, New().Validate())
}

func TestPossession(t *testing.T) {
	cfg := New()
	cfg.ReboundLookback = 6
	cfg.OffensiveReboundAfterFTChanges = true

	got := cfg.Possession()
	assert.Equal(t, 6, got.ReboundLookback)
	assert.Equal(t, 4, got.FreeThrowLookahead)
	assert.True(t, got.OffensiveReboundAfterFTChanges)
}
