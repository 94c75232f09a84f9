package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ".", cfg.Dir)
	assert.Equal(t, "xlsx", cfg.Backend)
	assert.False(t, cfg.KeyByYear)
	assert.Equal(t, "02/01/2006", cfg.DateLayout)
	assert.Equal(t, ",", cfg.DecimalSeparator)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.NoError(t, err)
	assert.Equal(t, Default().Backend, cfg.Backend)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[storage]
dir = /data/hours
backend = sqlite
key_by_year = true

[display]
decimal_separator = .
tick_interval = 500ms

[log]
level = debug

[sheets]
spreadsheet_id = abc123
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/hours", cfg.Dir)
	assert.Equal(t, "sqlite", cfg.Backend)
	assert.True(t, cfg.KeyByYear)
	assert.Equal(t, ".", cfg.DecimalSeparator)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "abc123", cfg.SpreadsheetID)
	// untouched keys keep their defaults
	assert.Equal(t, "02/01/2006", cfg.DateLayout)
}

func TestLoadBadTickInterval(t *testing.T) {
	path := writeConfig(t, "[display]\ntick_interval = soon\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[storage]\nbackend = sqlite\ndir = /from/file\n")
	t.Setenv("WORKTIMER_BACKEND", "csv")
	t.Setenv("WORKTIMER_KEY_BY_YEAR", "true")
	t.Setenv("WORKTIMER_TICK_INTERVAL", "250ms")
	t.Setenv("WORKTIMER_DECIMAL_SEPARATOR", ".")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Backend)
	assert.Equal(t, "/from/file", cfg.Dir)
	assert.True(t, cfg.KeyByYear)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, ".", cfg.DecimalSeparator)
}

func TestEnvIgnoresUnparsableValues(t *testing.T) {
	t.Setenv("WORKTIMER_KEY_BY_YEAR", "perhaps")
	t.Setenv("WORKTIMER_TICK_INTERVAL", "often")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.ini"))
	require.NoError(t, err)
	assert.False(t, cfg.KeyByYear)
	assert.Equal(t, time.Second, cfg.TickInterval)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "hours"), expandHome("~/hours"))
	assert.Equal(t, "/abs", expandHome("/abs"))
	assert.Equal(t, "rel/~", expandHome("rel/~"))
}

func TestStoreOptions(t *testing.T) {
	cfg := Default()
	cfg.Backend = "bolt"
	cfg.BoltPath = "/tmp/x.bolt"
	opts := cfg.StoreOptions()
	assert.Equal(t, "bolt", opts.Backend)
	assert.Equal(t, "/tmp/x.bolt", opts.BoltPath)
	assert.Equal(t, ".", opts.Dir)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.Backend = "paper" },
			errorString: "invalid backend 'paper': must be one of [xlsx csv sqlite bolt sheets]",
		},
		{
			name:        "sheets backend missing spreadsheet",
			mutate:      func(c *Config) { c.Backend = "sheets" },
			errorString: "spreadsheet id is required when using sheets backend",
		},
		{
			name:        "empty dir",
			mutate:      func(c *Config) { c.Dir = " " },
			errorString: "data directory cannot be empty",
		},
		{
			name:        "empty separator",
			mutate:      func(c *Config) { c.DecimalSeparator = "" },
			errorString: "decimal separator cannot be empty",
		},
		{
			name:        "tick too fast",
			mutate:      func(c *Config) { c.TickInterval = time.Millisecond },
			errorString: "invalid tick interval 1ms: must be at least 10ms",
		},
		{
			name:        "tick too slow",
			mutate:      func(c *Config) { c.TickInterval = 2 * time.Minute },
			errorString: "invalid tick interval 2m0s: must be at most 1 minute",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			errorString: "unknown log level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Backend = "paper"
	cfg.DateLayout = ""
	cfg.DecimalSeparator = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend")
	assert.Contains(t, err.Error(), "date layout cannot be empty")
	assert.Contains(t, err.Error(), "decimal separator cannot be empty")
}
