// Package retry provides exponential backoff retry logic for transient failures.
//
// Do executes a function with retries; DoWithResult does the same while
// returning a value. Presets cover the common cases: DefaultConfig (3
// attempts), Quick (10 attempts, short delays, for startup), and Persistent
// (30 attempts, for critical resources like broker connections).
//
//	conn, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
//	    return nats.Connect(url)
//	})
//
// All operations respect context cancellation, both during the operation and
// during backoff delays. The package deliberately stops at backoff with
// jitter; error classification and instrumentation belong to the caller.
package retry
