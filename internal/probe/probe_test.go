package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/schemaprobe/internal/storage"
	"github.com/dshills/schemaprobe/pkg/types"
)

const testRun = types.RunID(1700000000000)

func setupTestClient(t *testing.T) *storage.Client {
	t.Helper()
	client, err := storage.Open(context.Background(), storage.Config{
		Endpoint: "embedded:" + t.TempDir(),
		Database: "probe",
		PoolMin:  2,
		PoolMax:  8,
	}, logr.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// testOptions returns a fast run: 9 classes of 3 properties, checks every 20ms
func testOptions(scenario types.Scenario) Options {
	opts := DefaultOptions()
	opts.Scenario = scenario
	opts.Classes = 9
	opts.PropertiesPerClass = 3
	opts.CheckInitialDelay = 0
	opts.CheckPeriod = 20 * time.Millisecond
	opts.AwaitTimeout = 5 * time.Second
	opts.RunID = testRun
	return opts
}

func TestMutatorScenarios(t *testing.T) {
	for _, scenario := range types.AllScenarios() {
		t.Run(string(scenario), func(t *testing.T) {
			client := setupTestClient(t)
			ctx := context.Background()

			sess, err := client.Acquire(ctx)
			require.NoError(t, err)
			defer sess.Close()

			mutator := NewMutator(sess, testOptions(scenario), testRun, &stubCounter{}, logr.Discard())
			require.NoError(t, mutator.Run(ctx))

			stats := mutator.Stats()
			assert.Equal(t, 9, stats.Iterations)
			assert.Equal(t, 9, stats.ClassesCreated)
			assert.Equal(t, 0, stats.ClassesSkipped)
			assert.Equal(t, 7, stats.EdgeClasses, "remaining 0..6 are edge slots")
			assert.Equal(t, 2, stats.VertexClasses)
			assert.Equal(t, 27, stats.PropertiesCreated)
			assert.Equal(t, 0, stats.PropertiesSkipped)

			// Fetch counts follow the scenario: once up front, or once per
			// iteration plus once more per edge class
			if scenario == types.ScenarioAfterWorkaround {
				assert.Equal(t, 1, stats.SchemaFetches)
			} else {
				assert.Equal(t, 9+7, stats.SchemaFetches)
			}

			schema, err := sess.Schema(ctx)
			require.NoError(t, err)
			for remaining := 0; remaining < 9; remaining++ {
				cls := schema.GetClass(types.ClassName(testRun, remaining))
				require.NotNil(t, cls, "class for remaining %d", remaining)
				assert.Equal(t, types.KindForSlot(remaining), cls.Kind())
				assert.Equal(t, DefaultClusters, cls.Clusters())
				for idx := 0; idx < 3; idx++ {
					assert.True(t, cls.ExistsProperty(types.PropertyName(testRun, idx)))
				}
			}
			assert.True(t, schema.GetClass(types.ClassName(testRun, 0)).IsSubClassOf(types.EdgeClassName))
			assert.True(t, schema.GetClass(types.ClassName(testRun, 8)).IsSubClassOf(types.VertexClassName))
		})
	}
}

func TestMutatorRerunSkipsExisting(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	sess, err := client.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()

	first := NewMutator(sess, testOptions(types.ScenarioBeforeWorkaround), testRun, &stubCounter{}, logr.Discard())
	require.NoError(t, first.Run(ctx))

	second := NewMutator(sess, testOptions(types.ScenarioAfterWorkaround), testRun, &stubCounter{}, logr.Discard())
	require.NoError(t, second.Run(ctx))

	stats := second.Stats()
	assert.Equal(t, 9, stats.Iterations)
	assert.Equal(t, 0, stats.ClassesCreated)
	assert.Equal(t, 9, stats.ClassesSkipped)
	assert.Equal(t, 0, stats.PropertiesCreated)
	assert.Equal(t, 27, stats.PropertiesSkipped)
}

func TestMutatorStopsOnFailure(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()

	sess, err := client.Acquire(ctx)
	require.NoError(t, err)
	defer sess.Close()

	opts := testOptions(types.ScenarioBeforeWorkaround)
	mutator := NewMutator(sess, opts, testRun, &stubCounter{failed: 1}, logr.Discard())
	require.NoError(t, mutator.Run(ctx))
	assert.Equal(t, 0, mutator.Stats().Iterations)

	opts.StopOnFailure = false
	mutator = NewMutator(sess, opts, testRun, &stubCounter{failed: 1}, logr.Discard())
	require.NoError(t, mutator.Run(ctx))
	assert.Equal(t, 9, mutator.Stats().Iterations)
}

func TestMutatorPropagatesErrors(t *testing.T) {
	sess := &fakeSession{schemaErr: storage.ErrDisconnected}

	for _, scenario := range types.AllScenarios() {
		mutator := NewMutator(sess, testOptions(scenario), testRun, &stubCounter{}, logr.Discard())
		err := mutator.Run(context.Background())
		assert.ErrorIs(t, err, storage.ErrDisconnected, string(scenario))
		assert.Equal(t, 0, mutator.Stats().Iterations)
	}
}

func TestMutatorHonorsCancellation(t *testing.T) {
	client := setupTestClient(t)
	sess, err := client.Acquire(context.Background())
	require.NoError(t, err)
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mutator := NewMutator(sess, testOptions(types.ScenarioBeforeWorkaround), testRun, &stubCounter{}, logr.Discard())
	assert.ErrorIs(t, mutator.Run(ctx), context.Canceled)
}

func TestProbeRun(t *testing.T) {
	for _, scenario := range types.AllScenarios() {
		for _, mode := range []SessionMode{SessionPool, SessionOpen} {
			t.Run(string(scenario)+"/"+string(mode), func(t *testing.T) {
				client := setupTestClient(t)
				opts := testOptions(scenario)
				opts.SessionMode = mode

				report, err := New(client, logr.Discard()).Run(context.Background(), opts)
				require.NoError(t, err)
				require.NotNil(t, report)

				require.NoError(t, report.Err(), "failures: %v", report.Failures)
				assert.True(t, report.Passed())
				assert.True(t, report.TasksFinished)
				assert.Equal(t, scenario, report.Scenario)
				assert.Equal(t, testRun, report.RunID)
				assert.GreaterOrEqual(t, report.ChecksSucceeded, int64(1), "a check fires immediately without initial delay")
				assert.Equal(t, 0, report.ChecksFailed)
				assert.Equal(t, 9, report.Mutation.ClassesCreated)
				assert.Equal(t, 27, report.Mutation.PropertiesCreated)
				assert.Positive(t, report.Duration)
			})
		}
	}
}

func TestProbeRunInterruptedRecordsNoCheckFailures(t *testing.T) {
	for i := 0; i < 3; i++ {
		client := setupTestClient(t)
		opts := testOptions(types.ScenarioBeforeWorkaround)
		opts.Classes = DefaultClasses
		opts.PropertiesPerClass = DefaultPropertiesPerClass
		opts.CheckPeriod = time.Millisecond
		opts.RunID = types.RunID(int64(testRun) + int64(i))

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		report, _ := New(client, logr.Discard()).Run(ctx, opts)
		cancel()
		require.NotNil(t, report, "an interrupted run still reports")

		assert.Equal(t, 0, report.ChecksFailed, "failures: %v", report.Failures)
		assert.True(t, report.TasksFinished)
	}
}

func TestProbeRunDerivesRunID(t *testing.T) {
	client := setupTestClient(t)
	opts := testOptions(types.ScenarioAfterWorkaround)
	opts.RunID = 0
	opts.Classes = 1

	p := New(client, logr.Discard())
	now := time.UnixMilli(1712345678901)
	p.clock = func() time.Time { return now }

	report, err := p.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, types.RunID(1712345678901), report.RunID)
}

func TestProbeRunRejectsInvalidOptions(t *testing.T) {
	opts := testOptions(types.ScenarioAfterWorkaround)
	opts.Classes = 0

	report, err := New(&fakeConnector{}, logr.Discard()).Run(context.Background(), opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Nil(t, report)
}

func TestProbeRunReportsFailedChecks(t *testing.T) {
	conn := &fakeConnector{sess: &fakeSession{
		queryErr:  errors.New("concurrent modification"),
		schemaErr: storage.ErrDisconnected,
	}}
	opts := testOptions(types.ScenarioBeforeWorkaround)
	opts.SessionMode = SessionOpen
	opts.CheckPeriod = time.Hour

	report, err := New(conn, logr.Discard()).Run(context.Background(), opts)
	assert.ErrorIs(t, err, storage.ErrDisconnected)
	require.NotNil(t, report, "a report is returned with the mutation error")

	assert.Equal(t, 1, report.ChecksFailed)
	assert.Equal(t, int64(1), conn.opened.Load(), "open mode opens a dedicated session per check")
	assert.Contains(t, report.MutationError, "disconnected")
	assert.False(t, report.Passed())

	runErr := report.Err()
	assert.ErrorIs(t, runErr, ErrChecksFailed)
	assert.ErrorIs(t, runErr, storage.ErrDisconnected)
	assert.NotErrorIs(t, runErr, ErrTasksNotFinished)
}

func TestReportErr(t *testing.T) {
	report := &Report{TasksFinished: true, ChecksSucceeded: 4}
	assert.NoError(t, report.Err())

	report.ChecksFailed = 1
	assert.ErrorIs(t, report.Err(), ErrChecksFailed)
	assert.Contains(t, report.Err().Error(), "1 of 5 checks failed")

	report.ChecksFailed = 0
	report.TasksFinished = false
	assert.ErrorIs(t, report.Err(), ErrTasksNotFinished)
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		Scenario:        types.ScenarioAfterWorkaround,
		RunID:           testRun,
		TasksFinished:   true,
		ChecksSucceeded: 2,
		ChecksFailed:    1,
		Failures: []CheckFailure{
			{Label: "afterWorkaround", Type: "*errors.errorString", Message: "boom"},
		},
	}

	summary := report.Summary()
	assert.Equal(t, "after-workaround", summary["scenario"])
	assert.Equal(t, int64(testRun), summary["run_id"])
	assert.Equal(t, false, summary["passed"])
	assert.Equal(t, []string{"afterWorkaround: *errors.errorString boom"}, summary["failures"])
	assert.NotContains(t, summary, "mutation_error")
}
