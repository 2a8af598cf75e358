package probe

import (
	"context"
	"sync/atomic"

	"github.com/dshills/schemaprobe/internal/storage"
)

type fakeRows struct {
	n      int
	err    error
	closed atomic.Bool
}

func (r *fakeRows) Next() bool {
	if r.n == 0 {
		return false
	}
	r.n--
	return true
}

func (r *fakeRows) Err() error   { return r.err }
func (r *fakeRows) Close() error { r.closed.Store(true); return nil }

type fakeSession struct {
	rows      *fakeRows
	queryErr  error
	schemaErr error
	closed    atomic.Bool
}

func (s *fakeSession) Query(ctx context.Context, query string) (storage.ResultSet, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.rows, nil
}

func (s *fakeSession) Command(ctx context.Context, command string) error { return nil }

func (s *fakeSession) Schema(ctx context.Context) (*storage.Schema, error) {
	return nil, s.schemaErr
}

func (s *fakeSession) Close() error { s.closed.Store(true); return nil }

// fakeConnector hands out the same session for every Acquire and OpenSession
type fakeConnector struct {
	sess       storage.Session
	acquireErr error
	acquired   atomic.Int64
	opened     atomic.Int64
}

func (c *fakeConnector) Acquire(ctx context.Context) (storage.Session, error) {
	c.acquired.Add(1)
	if c.acquireErr != nil {
		return nil, c.acquireErr
	}
	return c.sess, nil
}

func (c *fakeConnector) OpenSession(ctx context.Context) (storage.Session, error) {
	c.opened.Add(1)
	if c.acquireErr != nil {
		return nil, c.acquireErr
	}
	return c.sess, nil
}

type stubCounter struct {
	succeeded int64
	failed    int
}

func (s *stubCounter) Succeeded() int64 { return s.succeeded }
func (s *stubCounter) Failed() int      { return s.failed }
