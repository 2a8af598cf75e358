package mcp

import "sync/atomic"

// ProbeLock provides non-blocking lock semantics using atomic operations.
// At most one probe runs against the server's client at a time.
type ProbeLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
// Returns true if the lock was successfully acquired, false otherwise.
func (l *ProbeLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock.
// Must only be called by the goroutine that successfully acquired the lock.
func (l *ProbeLock) Release() {
	l.state.Store(0)
}

// Held reports whether a probe is running
func (l *ProbeLock) Held() bool {
	return l.state.Load() == 1
}
