package types

import (
	"fmt"
	"strings"
	"time"
)

// Scenario selects when the mutator re-fetches its schema handle
type Scenario string

const (
	// ScenarioBeforeWorkaround re-fetches the schema handle on every class,
	// and once more before resolving the superclass of an edge class.
	ScenarioBeforeWorkaround Scenario = "before-workaround"
	// ScenarioAfterWorkaround fetches the schema handle once for the whole run.
	ScenarioAfterWorkaround Scenario = "after-workaround"
)

// AllScenarios lists the scenarios in the order they are run by default
func AllScenarios() []Scenario {
	return []Scenario{ScenarioBeforeWorkaround, ScenarioAfterWorkaround}
}

// ParseScenario parses a scenario name, ignoring case and accepting
// underscores or camel case ("beforeWorkaround") in place of dashes
func ParseScenario(s string) (Scenario, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	switch norm {
	case string(ScenarioBeforeWorkaround), "beforeworkaround", "before":
		return ScenarioBeforeWorkaround, nil
	case string(ScenarioAfterWorkaround), "afterworkaround", "after":
		return ScenarioAfterWorkaround, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScenario, s)
	}
}

// Label returns the short label used in log lines and check failures
func (s Scenario) Label() string {
	switch s {
	case ScenarioBeforeWorkaround:
		return "beforeWorkaround"
	case ScenarioAfterWorkaround:
		return "afterWorkaround"
	default:
		return string(s)
	}
}

// RunID namespaces class and property names so repeated runs don't collide
type RunID int64

// NewRunID derives a run id from a wall clock time (Unix milliseconds)
func NewRunID(t time.Time) RunID {
	return RunID(t.UnixMilli())
}

// EdgeModulus and EdgeSlots define the edge/vertex partition of classes:
// a class is an edge class when remaining%EdgeModulus < EdgeSlots.
const (
	EdgeModulus = 31
	EdgeSlots   = 7
)

// IsEdgeSlot reports whether the class at the given zero-based remaining
// count is defined as an edge class
func IsEdgeSlot(remaining int) bool {
	return remaining%EdgeModulus < EdgeSlots
}

// KindForSlot returns the class kind for the given remaining count
func KindForSlot(remaining int) ClassKind {
	if IsEdgeSlot(remaining) {
		return KindEdge
	}
	return KindVertex
}

// ClassName returns the probe class name for a run and remaining count
func ClassName(run RunID, remaining int) string {
	return fmt.Sprintf("TestClass_%d_%d", run, remaining)
}

// PropertyName returns the probe property name for a run and index
func PropertyName(run RunID, idx int) string {
	return fmt.Sprintf("prop_%d_%d", run, idx)
}

// QualifiedName joins a class and property name as used in commands
func QualifiedName(class, property string) string {
	return class + "." + property
}
