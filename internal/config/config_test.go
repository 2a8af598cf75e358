package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/schemaprobe/internal/probe"
	"github.com/dshills/schemaprobe/pkg/types"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	scenarios, err := cfg.ScenarioList()
	require.NoError(t, err)
	assert.Equal(t, types.AllScenarios(), scenarios)

	opts, err := cfg.ProbeOptions(types.ScenarioAfterWorkaround)
	require.NoError(t, err)
	assert.Equal(t, types.ScenarioAfterWorkaround, opts.Scenario)
	assert.Equal(t, 61, opts.Classes)
	assert.Equal(t, 31, opts.PropertiesPerClass)
	assert.Equal(t, 3*time.Second, opts.CheckPeriod)
	assert.Equal(t, probe.SessionPool, opts.SessionMode)
	assert.True(t, opts.StopOnFailure)

	sc := cfg.StorageConfig()
	assert.Contains(t, sc.Endpoint, "embedded:")
	assert.Equal(t, "probe", sc.Database)
	assert.Equal(t, 5, sc.PoolMin)
	assert.Equal(t, 100, sc.PoolMax)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("SCHEMAPROBE_ENDPOINT", "remote:db.internal:3306")
	t.Setenv("SCHEMAPROBE_DRIVER", "mysql")
	t.Setenv("SCHEMAPROBE_SCENARIOS", "after_workaround, before")
	t.Setenv("SCHEMAPROBE_PRESET", "small")
	t.Setenv("SCHEMAPROBE_POOL_MIN", "1")
	t.Setenv("SCHEMAPROBE_POOL_MAX", "4")
	t.Setenv("SCHEMAPROBE_CHECK_PERIOD", "1500")
	t.Setenv("SCHEMAPROBE_AWAIT_TIMEOUT", "1m")
	t.Setenv("SCHEMAPROBE_STOP_ON_FAILURE", "false")
	t.Setenv("SCHEMAPROBE_SESSION_MODE", "open")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "remote:db.internal:3306", cfg.Endpoint)
	assert.Equal(t, "mysql", cfg.Driver)
	assert.Equal(t, 1, cfg.PoolMin)
	assert.Equal(t, 4, cfg.PoolMax)

	scenarios, err := cfg.ScenarioList()
	require.NoError(t, err)
	assert.Equal(t, []types.Scenario{types.ScenarioAfterWorkaround, types.ScenarioBeforeWorkaround}, scenarios)

	opts, err := cfg.ProbeOptions(scenarios[0])
	require.NoError(t, err)
	assert.Equal(t, 16, opts.Classes)
	assert.Equal(t, 1500*time.Millisecond, opts.CheckPeriod)
	assert.Equal(t, time.Minute, opts.AwaitTimeout)
	assert.Equal(t, probe.SessionOpen, opts.SessionMode)
	assert.False(t, opts.StopOnFailure)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemaprobe.yaml")
	data := `
endpoint: "embedded:/tmp/schemaprobe"
database: repro
classes: 9
properties_per_class: 3
check_period: 250ms
scenarios:
  - before-workaround
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))
	t.Setenv(EnvConfigFile, path)
	t.Setenv("SCHEMAPROBE_CLASSES", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "embedded:/tmp/schemaprobe", cfg.Endpoint)
	assert.Equal(t, "repro", cfg.Database)
	assert.Equal(t, 12, cfg.Classes, "environment overrides the file")
	assert.Equal(t, 3, cfg.PropertiesPerClass)
	assert.Equal(t, 250*time.Millisecond, cfg.CheckPeriod)
	assert.Equal(t, []string{"before-workaround"}, cfg.Scenarios)
	assert.True(t, cfg.StopOnFailure, "fields absent from the file keep their defaults")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("classes: [nope"), 0600))
		t.Setenv(EnvConfigFile, path)
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad integer", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "")
		t.Setenv("SCHEMAPROBE_POOL_MAX", "lots")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "")
		t.Setenv("SCHEMAPROBE_CHECK_PERIOD", "soon")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad bool", func(t *testing.T) {
		t.Setenv(EnvConfigFile, "")
		t.Setenv("SCHEMAPROBE_STOP_ON_FAILURE", "maybe")
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unsupported endpoint", func(c *Config) { c.Endpoint = "memory:probe" }},
		{"missing database", func(c *Config) { c.Database = "" }},
		{"pool min above max", func(c *Config) { c.PoolMin, c.PoolMax = 10, 5 }},
		{"zero pool max", func(c *Config) { c.PoolMin, c.PoolMax = 0, 0 }},
		{"negative pool min", func(c *Config) { c.PoolMin = -1 }},
		{"unknown scenario", func(c *Config) { c.Scenarios = []string{"sideways"} }},
		{"unknown preset", func(c *Config) { c.Preset = "huge" }},
		{"unknown session mode", func(c *Config) { c.SessionMode = "shared" }},
		{"zero check period", func(c *Config) { c.CheckPeriod = 0 }},
		{"negative classes", func(c *Config) { c.Classes = -3 }},
		{"zero history", func(c *Config) { c.HistorySize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestNewLogger(t *testing.T) {
	log := NewLogger(1)
	assert.True(t, log.V(1).Enabled())
	assert.False(t, log.V(2).Enabled())

	log = (&Config{}).Logger()
	assert.True(t, log.Enabled())
	assert.False(t, log.V(1).Enabled())
}
