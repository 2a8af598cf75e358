package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// applyEnv overlays SCHEMAPROBE_* variables. Unset or empty variables
// keep the current value; unparsable ones are an error.
func (c *Config) applyEnv() error {
	getString(&c.Endpoint, "ENDPOINT")
	getString(&c.Driver, "DRIVER")
	getString(&c.Database, "DATABASE")
	getString(&c.User, "USER")
	getString(&c.Password, "PASSWORD")
	getString(&c.SSLMode, "SSL_MODE")
	getString(&c.Preset, "PRESET")
	getString(&c.CheckQuery, "CHECK_QUERY")
	getString(&c.SessionMode, "SESSION_MODE")

	if val := lookup("SCENARIOS"); val != "" {
		c.Scenarios = splitList(val)
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"POOL_MIN", &c.PoolMin},
		{"POOL_MAX", &c.PoolMax},
		{"CLASSES", &c.Classes},
		{"PROPERTIES", &c.PropertiesPerClass},
		{"CLUSTERS", &c.Clusters},
		{"CHECK_WORKERS", &c.CheckWorkers},
		{"LOG_VERBOSITY", &c.LogVerbosity},
		{"HISTORY_SIZE", &c.HistorySize},
	}
	for _, v := range ints {
		if err := getInt(v.dst, v.key); err != nil {
			return err
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CONNECT_TIMEOUT", &c.ConnectTimeout},
		{"CONN_MAX_LIFETIME", &c.ConnMaxLifetime},
		{"CHECK_INITIAL_DELAY", &c.CheckInitialDelay},
		{"CHECK_PERIOD", &c.CheckPeriod},
		{"AWAIT_TIMEOUT", &c.AwaitTimeout},
	}
	for _, v := range durations {
		if err := getDuration(v.dst, v.key); err != nil {
			return err
		}
	}

	return getBool(&c.StopOnFailure, "STOP_ON_FAILURE")
}

func lookup(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func getString(dst *string, key string) {
	if val := lookup(key); val != "" {
		*dst = val
	}
}

func getInt(dst *int, key string) error {
	val := lookup(key)
	if val == "" {
		return nil
	}
	i, err := cast.ToIntE(val)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalidConfig, EnvPrefix, key, val)
	}
	*dst = i
	return nil
}

// getDuration accepts Go duration strings ("3s") or plain integers,
// which are read as milliseconds
func getDuration(dst *time.Duration, key string) error {
	val := lookup(key)
	if val == "" {
		return nil
	}
	if ms, err := cast.ToInt64E(val); err == nil {
		*dst = time.Duration(ms) * time.Millisecond
		return nil
	}
	d, err := cast.ToDurationE(val)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not a duration", ErrInvalidConfig, EnvPrefix, key, val)
	}
	*dst = d
	return nil
}

func getBool(dst *bool, key string) error {
	val := lookup(key)
	if val == "" {
		return nil
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidConfig, EnvPrefix, key, val)
	}
	*dst = b
	return nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
