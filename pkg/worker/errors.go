package worker

import "errors"

// Sentinel errors returned by pool lifecycle and submit operations.
var (
	ErrPoolNotStarted     = errors.New("worker pool not started")
	ErrPoolStopped        = errors.New("worker pool stopped")
	ErrPoolAlreadyStarted = errors.New("worker pool already started")

	// ErrQueueFull means the bounded queue is at capacity and the item was
	// dropped. Callers decide whether to back off or reject.
	ErrQueueFull = errors.New("worker pool queue full")

	ErrNilProcessor = errors.New("processor function cannot be nil")

	// ErrStopTimeout means workers did not drain within the Stop timeout.
	ErrStopTimeout = errors.New("timeout waiting for workers to stop")
)
