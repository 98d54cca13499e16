package rag

import "sync/atomic"

// writeLock serializes collection writes without blocking. Ingestion and
// reset are long operations; a second writer is told to come back later
// instead of queueing invisibly behind the first.
type writeLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
func (l *writeLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called after a successful
// TryAcquire.
func (l *writeLock) Release() {
	l.state.Store(0)
}
