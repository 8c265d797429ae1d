package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/edqs/config"
	errs "github.com/c360/edqs/errors"
	"github.com/c360/edqs/health"
	"github.com/c360/edqs/metric"
	"github.com/c360/edqs/pkg/retry"
	"github.com/c360/edqs/repo"
)

// Consumer subscribes to the event stream and applies each event to its
// tenant repository. Events that fail to decode are terminated so the
// stream does not redeliver garbage; transient apply failures are
// negatively acknowledged for redelivery.
type Consumer struct {
	cfg      config.NATSConfig
	registry *repo.Registry
	metrics  *metric.Metrics
	monitor  *health.Monitor
	logger   *slog.Logger

	conn    *nats.Conn
	consume jetstream.ConsumeContext
}

// NewConsumer creates an event stream consumer.
func NewConsumer(cfg config.NATSConfig, registry *repo.Registry, metrics *metric.Metrics, logger *slog.Logger) *Consumer {
	return &Consumer{
		cfg:      cfg,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// SetHealthMonitor wires connection state into a health monitor.
// Must be called before Start.
func (c *Consumer) SetHealthMonitor(monitor *health.Monitor) {
	c.monitor = monitor
}

func (c *Consumer) reportHealth(connected bool, detail string) {
	if c.monitor == nil {
		return
	}
	if connected {
		c.monitor.UpdateHealthy("nats", detail)
	} else {
		c.monitor.UpdateUnhealthy("nats", detail)
	}
}

// Start connects to NATS, ensures the stream and durable consumer exist
// and begins consuming. Connection establishment retries with backoff.
func (c *Consumer) Start(ctx context.Context) error {
	opts := []nats.Option{
		nats.MaxReconnects(c.cfg.MaxReconnects),
		nats.ReconnectWait(c.cfg.ReconnectWait.AsDuration()),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.metrics.RecordNATSStatus(false)
			detail := "disconnected"
			if err != nil {
				detail = err.Error()
				c.logger.Warn("nats disconnected", "error", err)
			}
			c.reportHealth(false, detail)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			c.metrics.RecordNATSStatus(true)
			c.metrics.RecordNATSReconnect()
			c.reportHealth(true, "reconnected")
			c.logger.Info("nats reconnected")
		}),
	}
	if c.cfg.Username != "" {
		opts = append(opts, nats.UserInfo(c.cfg.Username, c.cfg.Password))
	}
	if c.cfg.Token != "" {
		opts = append(opts, nats.Token(c.cfg.Token))
	}

	url := nats.DefaultURL
	if len(c.cfg.URLs) > 0 {
		url = c.cfg.URLs[0]
	}

	conn, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*nats.Conn, error) {
		return nats.Connect(url, opts...)
	})
	if err != nil {
		return errs.WrapTransient(err, "Consumer", "Start", "connecting to nats")
	}
	c.conn = conn
	c.metrics.RecordNATSStatus(true)
	c.reportHealth(true, "connected")

	js, err := jetstream.New(conn)
	if err != nil {
		return errs.WrapFatal(err, "Consumer", "Start", "creating jetstream context")
	}

	stream, err := retry.DoWithResult(ctx, retry.Quick(), func() (jetstream.Stream, error) {
		return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:      c.cfg.Stream,
			Subjects:  []string{c.cfg.Subject},
			Retention: jetstream.LimitsPolicy,
		})
	})
	if err != nil {
		return errs.WrapTransient(err, "Consumer", "Start", "ensuring stream "+c.cfg.Stream)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       c.cfg.Durable,
		FilterSubject: c.cfg.Subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return errs.WrapTransient(err, "Consumer", "Start", "creating durable consumer")
	}

	consumeCtx, err := consumer.Consume(c.handle)
	if err != nil {
		return errs.WrapTransient(err, "Consumer", "Start", "starting consume loop")
	}
	c.consume = consumeCtx
	c.logger.Info("consuming event stream", "stream", c.cfg.Stream, "subject", c.cfg.Subject)
	return nil
}

func (c *Consumer) handle(msg jetstream.Msg) {
	ev, err := Decode(msg.Data())
	if err != nil {
		c.logger.Warn("terminating undecodable event", "error", err)
		_ = msg.Term()
		return
	}
	c.metrics.RecordEventReceived(string(ev.ObjectType))

	if err := Apply(c.registry, ev); err != nil {
		if errs.IsInvalid(err) {
			c.logger.Warn("terminating invalid event", "object_type", ev.ObjectType, "error", err)
			c.metrics.RecordEventProcessed(string(ev.ObjectType), "invalid")
			_ = msg.Term()
			return
		}
		c.logger.Error("event apply failed, requesting redelivery", "object_type", ev.ObjectType, "error", err)
		c.metrics.RecordEventProcessed(string(ev.ObjectType), "error")
		_ = msg.Nak()
		return
	}
	c.metrics.RecordEventProcessed(string(ev.ObjectType), "success")
	_ = msg.Ack()
}

// Stop drains the consumer and closes the connection.
func (c *Consumer) Stop() {
	if c.consume != nil {
		c.consume.Drain()
	}
	if c.conn != nil {
		c.conn.Close()
		c.metrics.RecordNATSStatus(false)
		c.reportHealth(false, "stopped")
	}
}
