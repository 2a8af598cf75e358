package probe

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/schemaprobe/pkg/types"
)

var (
	// ErrChecksFailed is reported when any background check failed
	ErrChecksFailed = errors.New("failed checks - not expected")
	// ErrTasksNotFinished is reported when in-flight checks outlived the await timeout
	ErrTasksNotFinished = errors.New("tasks not finished")
)

// Report is the outcome of one probe run
type Report struct {
	Scenario           types.Scenario `json:"scenario"`
	RunID              types.RunID    `json:"run_id"`
	Classes            int            `json:"classes"`
	PropertiesPerClass int            `json:"properties_per_class"`
	Mutation           MutationStats  `json:"mutation"`
	ChecksSucceeded    int64          `json:"checks_succeeded"`
	ChecksFailed       int            `json:"checks_failed"`
	ChecksSkipped      int64          `json:"checks_skipped"`
	Failures           []CheckFailure `json:"failures,omitempty"`
	TasksFinished      bool           `json:"tasks_finished"`
	StartedAt          time.Time      `json:"started_at"`
	Duration           time.Duration  `json:"duration_ns"`
	MutationError      string         `json:"mutation_error,omitempty"`

	mutationErr error
}

// Err returns nil only when the mutation completed, every check finished
// and no check failed
func (r *Report) Err() error {
	var errs []error
	if r.mutationErr != nil {
		errs = append(errs, fmt.Errorf("schema mutation failed: %w", r.mutationErr))
	}
	if !r.TasksFinished {
		errs = append(errs, ErrTasksNotFinished)
	}
	if r.ChecksFailed > 0 {
		errs = append(errs, fmt.Errorf("%w: %d of %d checks failed",
			ErrChecksFailed, r.ChecksFailed, int64(r.ChecksFailed)+r.ChecksSucceeded))
	}
	return errors.Join(errs...)
}

// Passed reports whether Err is nil
func (r *Report) Passed() bool { return r.Err() == nil }

// Summary flattens the report for log lines and tool responses
func (r *Report) Summary() map[string]interface{} {
	summary := map[string]interface{}{
		"scenario":           string(r.Scenario),
		"run_id":             int64(r.RunID),
		"passed":             r.Passed(),
		"classes_created":    r.Mutation.ClassesCreated,
		"classes_skipped":    r.Mutation.ClassesSkipped,
		"properties_created": r.Mutation.PropertiesCreated,
		"properties_skipped": r.Mutation.PropertiesSkipped,
		"checks_succeeded":   r.ChecksSucceeded,
		"checks_failed":      r.ChecksFailed,
		"checks_skipped":     r.ChecksSkipped,
		"tasks_finished":     r.TasksFinished,
		"duration_ms":        r.Duration.Milliseconds(),
	}
	if r.MutationError != "" {
		summary["mutation_error"] = r.MutationError
	}
	if len(r.Failures) > 0 {
		// Include first few failures
		failures := r.Failures
		if len(failures) > 5 {
			failures = failures[:5]
		}
		messages := make([]string, len(failures))
		for i, f := range failures {
			messages[i] = fmt.Sprintf("%s: %s %s", f.Label, f.Type, f.Message)
		}
		summary["failures"] = messages
	}
	return summary
}
