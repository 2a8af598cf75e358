package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dshills/schemaprobe/internal/probe"
	"github.com/dshills/schemaprobe/internal/storage"
	"github.com/dshills/schemaprobe/pkg/types"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "SCHEMAPROBE_"

// EnvConfigFile names the optional YAML config file
const EnvConfigFile = EnvPrefix + "CONFIG"

// DefaultHistorySize bounds the reports kept by the MCP server
const DefaultHistorySize = 32

var (
	// ErrInvalidConfig is returned by Validate and for unparsable overrides
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the complete runtime configuration
type Config struct {
	Endpoint        string        `yaml:"endpoint"`
	Driver          string        `yaml:"driver"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	PoolMin         int           `yaml:"pool_min"`
	PoolMax         int           `yaml:"pool_max"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`

	Scenarios          []string      `yaml:"scenarios"`
	Preset             string        `yaml:"preset"`
	Classes            int           `yaml:"classes"`              // Zero takes the preset's value
	PropertiesPerClass int           `yaml:"properties_per_class"` // Zero takes the preset's value
	Clusters           int           `yaml:"clusters"`
	CheckQuery         string        `yaml:"check_query"`
	CheckInitialDelay  time.Duration `yaml:"check_initial_delay"`
	CheckPeriod        time.Duration `yaml:"check_period"`
	CheckWorkers       int           `yaml:"check_workers"`
	AwaitTimeout       time.Duration `yaml:"await_timeout"`
	SessionMode        string        `yaml:"session_mode"`
	StopOnFailure      bool          `yaml:"stop_on_failure"`

	LogVerbosity int `yaml:"log_verbosity"`
	HistorySize  int `yaml:"history_size"`
}

// Default returns the configuration used when nothing is overridden:
// an embedded database under ~/.schemaprobe running both scenarios
func Default() *Config {
	dir := ".schemaprobe"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".schemaprobe")
	}

	return &Config{
		Endpoint:          "embedded:" + dir,
		Database:          "probe",
		PoolMin:           storage.DefaultPoolMin,
		PoolMax:           storage.DefaultPoolMax,
		ConnectTimeout:    30 * time.Second,
		Preset:            probe.PresetDefault,
		Clusters:          probe.DefaultClusters,
		CheckQuery:        probe.DefaultCheckQuery,
		CheckInitialDelay: probe.DefaultCheckPeriod,
		CheckPeriod:       probe.DefaultCheckPeriod,
		CheckWorkers:      probe.DefaultCheckWorkers,
		AwaitTimeout:      probe.DefaultAwaitTimeout,
		SessionMode:       string(probe.SessionPool),
		StopOnFailure:     true,
		HistorySize:       DefaultHistorySize,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// SCHEMAPROBE_CONFIG (if set) and SCHEMAPROBE_* environment overrides,
// in that order, and validates the result
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays the fields present in a YAML file
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

// Validate checks that the configuration is runnable
func (c *Config) Validate() error {
	var problems []string

	if _, err := storage.ParseEndpoint(c.Endpoint); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Database == "" {
		problems = append(problems, "database is required")
	}
	if c.PoolMin < 0 {
		problems = append(problems, "pool_min must be >= 0")
	}
	if c.PoolMax < 1 {
		problems = append(problems, "pool_max must be >= 1")
	}
	if c.PoolMin > c.PoolMax {
		problems = append(problems, fmt.Sprintf("pool_min %d exceeds pool_max %d", c.PoolMin, c.PoolMax))
	}
	if c.HistorySize < 1 {
		problems = append(problems, "history_size must be >= 1")
	}
	if _, err := c.ScenarioList(); err != nil {
		problems = append(problems, err.Error())
	}

	// Probe options carry their own checks
	if _, err := c.ProbeOptions(types.ScenarioBeforeWorkaround); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// ScenarioList returns the scenarios to run, in order. An empty list
// means all scenarios.
func (c *Config) ScenarioList() ([]types.Scenario, error) {
	if len(c.Scenarios) == 0 {
		return types.AllScenarios(), nil
	}
	out := make([]types.Scenario, 0, len(c.Scenarios))
	for _, name := range c.Scenarios {
		s, err := types.ParseScenario(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StorageConfig returns the client settings
func (c *Config) StorageConfig() storage.Config {
	return storage.Config{
		Endpoint:        c.Endpoint,
		Driver:          c.Driver,
		Database:        c.Database,
		User:            c.User,
		Password:        c.Password,
		PoolMin:         c.PoolMin,
		PoolMax:         c.PoolMax,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnectTimeout:  c.ConnectTimeout,
		SSLMode:         c.SSLMode,
	}
}

// ProbeOptions returns the run options for one scenario, starting from
// the configured preset
func (c *Config) ProbeOptions(scenario types.Scenario) (probe.Options, error) {
	opts, err := probe.PresetOptions(c.Preset)
	if err != nil {
		return probe.Options{}, err
	}
	mode, err := probe.ParseSessionMode(c.SessionMode)
	if err != nil {
		return probe.Options{}, err
	}

	opts.Scenario = scenario
	if c.Classes != 0 {
		opts.Classes = c.Classes
	}
	if c.PropertiesPerClass != 0 {
		opts.PropertiesPerClass = c.PropertiesPerClass
	}
	opts.Clusters = c.Clusters
	opts.CheckQuery = c.CheckQuery
	opts.CheckInitialDelay = c.CheckInitialDelay
	opts.CheckPeriod = c.CheckPeriod
	opts.CheckWorkers = c.CheckWorkers
	opts.AwaitTimeout = c.AwaitTimeout
	opts.SessionMode = mode
	opts.StopOnFailure = c.StopOnFailure

	if err := opts.Validate(); err != nil {
		return probe.Options{}, err
	}
	return opts, nil
}
