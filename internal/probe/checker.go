package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"

	"github.com/dshills/schemaprobe/internal/storage"
)

// SessionFactory obtains a session for one check
type SessionFactory func(ctx context.Context) (storage.Session, error)

// CheckFailure records one failed check
type CheckFailure struct {
	Label   string    `json:"label"`
	At      time.Time `json:"at"`
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

// Checker periodically runs a read query on a session from its factory
// and tallies the outcomes. Each tick runs in its own goroutine; at most
// Workers checks are in flight and ticks finding no free worker are
// skipped.
type Checker struct {
	label        string
	query        string
	newSession   SessionFactory
	initialDelay time.Duration
	period       time.Duration
	workers      int64
	sem          *semaphore.Weighted
	log          logr.Logger

	succeeded atomic.Int64
	skipped   atomic.Int64

	mu       sync.Mutex
	failures []CheckFailure

	startOnce   sync.Once
	stopOnce    sync.Once
	cancel      context.CancelFunc // Ends the schedule
	cancelCheck context.CancelFunc // Aborts in-flight checks
	done        chan struct{}
}

// CheckerConfig configures a Checker
type CheckerConfig struct {
	Label        string
	Query        string
	InitialDelay time.Duration
	Period       time.Duration
	Workers      int
}

// NewChecker creates a checker; it does nothing until Start
func NewChecker(cfg CheckerConfig, factory SessionFactory, logger logr.Logger) *Checker {
	workers := int64(cfg.Workers)
	if workers < 1 {
		workers = 1
	}
	return &Checker{
		label:        cfg.Label,
		query:        cfg.Query,
		newSession:   factory,
		initialDelay: cfg.InitialDelay,
		period:       cfg.Period,
		workers:      workers,
		sem:          semaphore.NewWeighted(workers),
		log:          logger.WithName("checker").WithValues("label", cfg.Label),
	}
}

// Start schedules checks at a fixed rate until Stop or until ctx is done.
// Checks keep ctx's values but not its cancellation: cancelling ctx ends
// the schedule while checks already in flight run to completion, and only
// Stop's timeout aborts them.
func (c *Checker) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		loopCtx, cancel := context.WithCancel(ctx)
		checkCtx, cancelCheck := context.WithCancel(context.WithoutCancel(ctx))
		c.cancel = cancel
		c.cancelCheck = cancelCheck
		c.done = make(chan struct{})
		go c.loop(loopCtx, checkCtx)
	})
}

func (c *Checker) loop(loopCtx, checkCtx context.Context) {
	defer close(c.done)

	if c.initialDelay > 0 {
		timer := time.NewTimer(c.initialDelay)
		select {
		case <-loopCtx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()
	for {
		c.fire(checkCtx)
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (c *Checker) fire(ctx context.Context) {
	if !c.sem.TryAcquire(1) {
		c.skipped.Add(1)
		c.log.V(1).Info("no free worker, tick skipped")
		return
	}
	go func() {
		defer c.sem.Release(1)
		c.Check(ctx)
	}()
}

// Stop ends scheduling and waits up to timeout for in-flight checks.
// It reports whether every check finished in time; checks still running
// at the deadline are cancelled.
func (c *Checker) Stop(timeout time.Duration) bool {
	c.stopOnce.Do(func() {
		c.startOnce.Do(func() {}) // A checker that never started has nothing to stop
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if c.cancelCheck != nil {
		defer c.cancelCheck()
	}
	if err := c.sem.Acquire(ctx, c.workers); err != nil {
		return false
	}
	c.sem.Release(c.workers)
	return true
}

// Check runs one check synchronously and records the outcome
func (c *Checker) Check(ctx context.Context) {
	if err := c.check(ctx); err != nil {
		failure := CheckFailure{
			Label:   c.label,
			At:      time.Now(),
			Type:    errorType(err),
			Message: err.Error(),
			Err:     err,
		}
		c.mu.Lock()
		c.failures = append(c.failures, failure)
		c.mu.Unlock()
		c.log.Error(err, "check failed", "type", failure.Type)
		return
	}
	c.succeeded.Add(1)
}

func (c *Checker) check(ctx context.Context) (err error) {
	sess, err := c.newSession(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, sess.Close()) }()

	rows, err := sess.Query(ctx, c.query)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rows.Close()) }()

	for rows.Next() {
	}
	return rows.Err()
}

// Succeeded returns the number of successful checks
func (c *Checker) Succeeded() int64 { return c.succeeded.Load() }

// Skipped returns the number of ticks skipped for lack of a free worker
func (c *Checker) Skipped() int64 { return c.skipped.Load() }

// Failed returns the number of failed checks
func (c *Checker) Failed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// Failures returns a copy of the recorded failures
func (c *Checker) Failures() []CheckFailure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CheckFailure, len(c.failures))
	copy(out, c.failures)
	return out
}

// errorType names the innermost error type, the way a stack trace would
func errorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}
