package main

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/schemaprobe/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Endpoint = "embedded:" + t.TempDir()
	cfg.PoolMin = 1
	cfg.PoolMax = 4
	cfg.Classes = 4
	cfg.PropertiesPerClass = 2
	cfg.CheckInitialDelay = 0
	cfg.CheckPeriod = 10 * time.Millisecond
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRunScenarios(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, runScenarios(context.Background(), cfg, logr.Discard()))
}

func TestRunScenariosRejectsBadScenario(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenarios = []string{"sideways"}
	assert.Error(t, runScenarios(context.Background(), cfg, logr.Discard()))
}

func TestRunUsage(t *testing.T) {
	assert.Equal(t, 0, run([]string{"--version"}))
	assert.Equal(t, 2, run([]string{"bogus"}))
}

func TestSummaryValues(t *testing.T) {
	kv := summaryValues(map[string]interface{}{
		"scenario": "after-workaround",
		"passed":   true,
		"ignored":  1,
	})
	assert.Equal(t, []interface{}{"scenario", "after-workaround", "passed", true}, kv)
}
