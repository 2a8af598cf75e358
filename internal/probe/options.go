package probe

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/schemaprobe/pkg/types"
)

// SessionMode selects how the checker obtains sessions
type SessionMode string

const (
	// SessionPool borrows sessions from the client pool
	SessionPool SessionMode = "pool"
	// SessionOpen opens a dedicated session per check
	SessionOpen SessionMode = "open"
)

// ParseSessionMode parses a session mode name, ignoring case
func ParseSessionMode(s string) (SessionMode, error) {
	switch SessionMode(strings.ToLower(strings.TrimSpace(s))) {
	case SessionPool, "":
		return SessionPool, nil
	case SessionOpen:
		return SessionOpen, nil
	default:
		return "", fmt.Errorf("%w: session mode %q", ErrInvalidOptions, s)
	}
}

// Default probe parameters
const (
	DefaultClasses            = 61
	SmallClasses              = 16
	DefaultPropertiesPerClass = 31
	DefaultClusters           = 4
	DefaultCheckQuery         = "SELECT @class FROM V LIMIT 20"
	DefaultCheckPeriod        = 3 * time.Second
	DefaultCheckWorkers       = 4
	DefaultAwaitTimeout       = 10 * time.Second
	DefaultProgressEvery      = 8
)

// Preset names
const (
	PresetDefault = "default"
	PresetSmall   = "small"
)

var (
	// ErrInvalidOptions is returned by Options.Validate
	ErrInvalidOptions = errors.New("invalid probe options")
)

// Options configures one probe run
type Options struct {
	Scenario           types.Scenario
	Classes            int
	PropertiesPerClass int
	Clusters           int
	CheckQuery         string
	CheckInitialDelay  time.Duration
	CheckPeriod        time.Duration
	CheckWorkers       int
	AwaitTimeout       time.Duration
	SessionMode        SessionMode
	StopOnFailure      bool        // Stop mutating once any check failed
	ProgressEvery      int         // Log progress when the step is a multiple of this
	RunID              types.RunID // Zero derives one from the clock
}

// DefaultOptions returns the full-size run: 61 classes of 31 properties,
// checks every 3 seconds
func DefaultOptions() Options {
	return Options{
		Scenario:           types.ScenarioBeforeWorkaround,
		Classes:            DefaultClasses,
		PropertiesPerClass: DefaultPropertiesPerClass,
		Clusters:           DefaultClusters,
		CheckQuery:         DefaultCheckQuery,
		CheckInitialDelay:  DefaultCheckPeriod,
		CheckPeriod:        DefaultCheckPeriod,
		CheckWorkers:       DefaultCheckWorkers,
		AwaitTimeout:       DefaultAwaitTimeout,
		SessionMode:        SessionPool,
		StopOnFailure:      true,
		ProgressEvery:      DefaultProgressEvery,
	}
}

// SmallOptions returns the reduced run of 16 classes
func SmallOptions() Options {
	opts := DefaultOptions()
	opts.Classes = SmallClasses
	return opts
}

// PresetOptions returns the options for a named preset
func PresetOptions(name string) (Options, error) {
	switch strings.ToLower(name) {
	case PresetDefault, "":
		return DefaultOptions(), nil
	case PresetSmall:
		return SmallOptions(), nil
	default:
		return Options{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidOptions, name)
	}
}

// Validate checks that the options describe a runnable probe
func (o Options) Validate() error {
	if _, err := types.ParseScenario(string(o.Scenario)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if _, err := ParseSessionMode(string(o.SessionMode)); err != nil {
		return err
	}

	var problems []string
	if o.Classes < 1 {
		problems = append(problems, "classes must be >= 1")
	}
	if o.PropertiesPerClass < 0 {
		problems = append(problems, "properties per class must be >= 0")
	}
	if o.Clusters < 1 {
		problems = append(problems, "clusters must be >= 1")
	}
	if strings.TrimSpace(o.CheckQuery) == "" {
		problems = append(problems, "check query is required")
	}
	if o.CheckInitialDelay < 0 {
		problems = append(problems, "check initial delay must be >= 0")
	}
	if o.CheckPeriod <= 0 {
		problems = append(problems, "check period must be > 0")
	}
	if o.CheckWorkers < 1 {
		problems = append(problems, "check workers must be >= 1")
	}
	if o.AwaitTimeout <= 0 {
		problems = append(problems, "await timeout must be > 0")
	}
	if o.ProgressEvery < 1 {
		problems = append(problems, "progress interval must be >= 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(problems, "; "))
	}
	return nil
}
