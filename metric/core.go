package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core platform metrics.
type Metrics struct {
	// Repository metrics
	ObjectsAdded   *prometheus.CounterVec
	ObjectsRemoved *prometheus.CounterVec
	TenantRepos    prometheus.Gauge
	QueryDuration  *prometheus.HistogramVec

	// Ingest metrics
	EventsReceived  *prometheus.CounterVec
	EventsProcessed *prometheus.CounterVec

	// NATS metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ObjectsAdded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edqs",
				Subsystem: "repository",
				Name:      "objects_added_total",
				Help:      "Total number of objects added to tenant repositories",
			},
			[]string{"object_type"},
		),

		ObjectsRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edqs",
				Subsystem: "repository",
				Name:      "objects_removed_total",
				Help:      "Total number of objects removed from tenant repositories",
			},
			[]string{"object_type"},
		),

		TenantRepos: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "edqs",
				Subsystem: "repository",
				Name:      "tenants",
				Help:      "Number of live tenant repositories",
			},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "edqs",
				Subsystem: "query",
				Name:      "duration_seconds",
				Help:      "Query evaluation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),

		EventsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edqs",
				Subsystem: "ingest",
				Name:      "events_received_total",
				Help:      "Total number of ingest events received",
			},
			[]string{"object_type"},
		),

		EventsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "edqs",
				Subsystem: "ingest",
				Name:      "events_processed_total",
				Help:      "Total number of ingest events processed",
			},
			[]string{"object_type", "status"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "edqs",
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "edqs",
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// RecordObjectAdded increments the added objects counter
func (c *Metrics) RecordObjectAdded(objectType string) {
	c.ObjectsAdded.WithLabelValues(objectType).Inc()
}

// RecordObjectRemoved increments the removed objects counter
func (c *Metrics) RecordObjectRemoved(objectType string) {
	c.ObjectsRemoved.WithLabelValues(objectType).Inc()
}

// RecordTenantRepos updates the live tenant repositories gauge
func (c *Metrics) RecordTenantRepos(count int) {
	c.TenantRepos.Set(float64(count))
}

// RecordQueryDuration records query evaluation time
func (c *Metrics) RecordQueryDuration(kind string, duration time.Duration) {
	c.QueryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordEventReceived increments the received events counter
func (c *Metrics) RecordEventReceived(objectType string) {
	c.EventsReceived.WithLabelValues(objectType).Inc()
}

// RecordEventProcessed increments the processed events counter
func (c *Metrics) RecordEventProcessed(objectType, status string) {
	c.EventsProcessed.WithLabelValues(objectType, status).Inc()
}

// RecordNATSStatus updates NATS connection status
func (c *Metrics) RecordNATSStatus(connected bool) {
	value := 0.0
	if connected {
		value = 1.0
	}
	c.NATSConnected.Set(value)
}

// RecordNATSReconnect increments reconnection counter
func (c *Metrics) RecordNATSReconnect() {
	c.NATSReconnects.Inc()
}
