package probe

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/dshills/schemaprobe/internal/storage"
	"github.com/dshills/schemaprobe/pkg/types"
)

// Connector is the part of storage.Client the probe needs
type Connector interface {
	Acquire(ctx context.Context) (storage.Session, error)
	OpenSession(ctx context.Context) (storage.Session, error)
}

// Probe runs the background checker against a foreground schema mutator
// sharing one connector
type Probe struct {
	conn  Connector
	log   logr.Logger
	clock func() time.Time
}

// New creates a probe over conn
func New(conn Connector, logger logr.Logger) *Probe {
	return &Probe{
		conn:  conn,
		log:   logger.WithName("probe"),
		clock: time.Now,
	}
}

// Run starts the checker, runs the mutator to completion on a borrowed
// session, stops the checker and reports. The report is returned even
// when the mutation fails; the error is the mutation error.
func (p *Probe) Run(ctx context.Context, opts Options) (*Report, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	started := p.clock()
	run := opts.RunID
	if run == 0 {
		run = types.NewRunID(started)
	}
	label := opts.Scenario.Label()
	log := p.log.WithValues("label", label, "run", int64(run))

	checker := NewChecker(CheckerConfig{
		Label:        label,
		Query:        opts.CheckQuery,
		InitialDelay: opts.CheckInitialDelay,
		Period:       opts.CheckPeriod,
		Workers:      opts.CheckWorkers,
	}, p.sessionFactory(opts.SessionMode), p.log)

	log.Info("starting", "classes", opts.Classes, "propertiesPerClass", opts.PropertiesPerClass,
		"checkPeriod", opts.CheckPeriod.String(), "sessionMode", string(opts.SessionMode))
	checker.Start(ctx)

	stats, mutationErr := p.mutate(ctx, opts, run, checker)

	finished := checker.Stop(opts.AwaitTimeout)

	report := &Report{
		Scenario:           opts.Scenario,
		RunID:              run,
		Classes:            opts.Classes,
		PropertiesPerClass: opts.PropertiesPerClass,
		Mutation:           stats,
		ChecksSucceeded:    checker.Succeeded(),
		ChecksFailed:       checker.Failed(),
		ChecksSkipped:      checker.Skipped(),
		Failures:           checker.Failures(),
		TasksFinished:      finished,
		StartedAt:          started,
		Duration:           p.clock().Sub(started),
		mutationErr:        mutationErr,
	}
	if mutationErr != nil {
		report.MutationError = mutationErr.Error()
	}

	if err := report.Err(); err != nil {
		log.Error(err, "probe failed", "checksSucceeded", report.ChecksSucceeded, "checksFailed", report.ChecksFailed)
	} else {
		log.Info("probe passed", "checksSucceeded", report.ChecksSucceeded)
	}
	return report, mutationErr
}

// mutate borrows the schema session and runs the mutator on it
func (p *Probe) mutate(ctx context.Context, opts Options, run types.RunID, checks CheckCounter) (MutationStats, error) {
	sess, err := p.conn.Acquire(ctx)
	if err != nil {
		return MutationStats{}, err
	}
	defer func() { _ = sess.Close() }()

	mutator := NewMutator(sess, opts, run, checks, p.log)
	err = mutator.Run(ctx)
	return mutator.Stats(), err
}

func (p *Probe) sessionFactory(mode SessionMode) SessionFactory {
	if mode == SessionOpen {
		return p.conn.OpenSession
	}
	return p.conn.Acquire
}
