package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	errs "github.com/c360/edqs/errors"
	"github.com/c360/edqs/metric"
	"github.com/c360/edqs/pkg/worker"
	"github.com/c360/edqs/repo"
)

// maxSnapshotLine bounds a single snapshot envelope.
const maxSnapshotLine = 1 << 20

// Loader applies bulk snapshot events through a worker pool. It is used
// during startup restore, where events arrive faster than the single
// consume loop would apply them.
type Loader struct {
	pool    *worker.Pool[Event]
	metrics *metric.Metrics
	logger  *slog.Logger
}

// NewLoader creates a loader with the given worker count. A nil
// metricsRegistry disables pool metrics.
func NewLoader(registry *repo.Registry, workers int, metricsRegistry *metric.MetricsRegistry, metrics *metric.Metrics, logger *slog.Logger) *Loader {
	if workers <= 0 {
		workers = 4
	}
	l := &Loader{
		metrics: metrics,
		logger:  logger,
	}
	processor := func(_ context.Context, ev Event) error {
		if err := Apply(registry, ev); err != nil {
			if errs.IsInvalid(err) {
				l.logger.Warn("skipping invalid snapshot event",
					"tenant", ev.TenantID, "object_type", ev.ObjectType, "error", err)
				if l.metrics != nil {
					l.metrics.RecordEventProcessed(string(ev.ObjectType), "invalid")
				}
				return nil
			}
			return err
		}
		if l.metrics != nil {
			l.metrics.RecordEventProcessed(string(ev.ObjectType), "success")
		}
		return nil
	}

	var opts []worker.Option[Event]
	if metricsRegistry != nil {
		opts = append(opts, worker.WithMetricsRegistry[Event](metricsRegistry, "loader"))
	}
	l.pool = worker.NewPool(workers, workers*64, processor, opts...)
	return l
}

// Start launches the loader workers.
func (l *Loader) Start(ctx context.Context) error {
	return l.pool.Start(ctx)
}

// Submit queues a snapshot event for application.
func (l *Loader) Submit(ev Event) error {
	if err := l.pool.Submit(ev); err != nil {
		return err
	}
	if l.metrics != nil {
		l.metrics.RecordEventReceived(string(ev.ObjectType))
	}
	return nil
}

// Restore replays a snapshot file of newline-delimited event envelopes
// through the pool. Malformed lines are logged and skipped. A full queue
// blocks submission until the workers catch up or ctx is cancelled.
func (l *Loader) Restore(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.WrapFatal(err, "ingest", "Restore", "opening snapshot "+path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLine)
	lines, submitted := 0, 0
	for scanner.Scan() {
		lines++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		ev, err := Decode(raw)
		if err != nil {
			l.logger.Warn("skipping malformed snapshot line", "line", lines, "error", err)
			continue
		}
		if err := l.submitBlocking(ctx, ev); err != nil {
			return err
		}
		submitted++
	}
	if err := scanner.Err(); err != nil {
		return errs.WrapFatal(err, "ingest", "Restore", "reading snapshot "+path)
	}
	l.logger.Info("snapshot submitted", "path", path, "events", submitted)
	return nil
}

func (l *Loader) submitBlocking(ctx context.Context, ev Event) error {
	for {
		err := l.Submit(ev)
		if !errors.Is(err, worker.ErrQueueFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Stop waits for queued events to drain, up to the timeout.
func (l *Loader) Stop(timeout time.Duration) error {
	return l.pool.Stop(timeout)
}

// Stats reports queue depth and processed counts.
func (l *Loader) Stats() worker.PoolStats {
	return l.pool.Stats()
}
