// Package worker provides a generic, thread-safe worker pool for concurrent task processing.
//
// The pool manages a fixed number of goroutines processing work items of any
// type T from a bounded queue. Submit is non-blocking: when the queue is full
// it returns ErrQueueFull rather than stalling the caller, which makes
// overload visible to producers instead of hiding it behind latency.
//
// Statistics are always tracked with atomic counters; Prometheus metrics are
// opt-in via WithMetricsRegistry.
//
// # Usage
//
//	pool := worker.NewPool[Job](
//	    5,     // workers
//	    100,   // queue size
//	    func(ctx context.Context, job Job) error {
//	        return process(ctx, job)
//	    },
//	)
//
//	if err := pool.Start(ctx); err != nil {
//	    return err
//	}
//	defer pool.Stop(5 * time.Second)
//
//	if err := pool.Submit(job); errors.Is(err, worker.ErrQueueFull) {
//	    // back off or reject
//	}
//
// With Prometheus metrics:
//
//	registry := metric.NewMetricsRegistry()
//	pool := worker.NewPool[Job](5, 100, processor,
//	    worker.WithMetricsRegistry[Job](registry, "loader"))
//
// Stop closes the queue, drains remaining items, and waits for workers up to
// the given timeout, returning ErrStopTimeout if they do not finish. Work
// processors receive the context passed to Start and should respect
// cancellation for per-item timeouts.
package worker
