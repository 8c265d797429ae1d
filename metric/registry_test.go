package metric

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/edqs/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.Metrics)
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestRegisterAndUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loader_items_total",
		Help: "Items processed by the loader",
	})

	require.NoError(t, registry.Register("loader", "items_total", counter))

	assert.True(t, registry.Unregister("loader", "items_total"))
	assert.False(t, registry.Unregister("loader", "items_total"))
}

func TestRegisterDuplicateName(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loader_items_total",
		Help: "Items processed by the loader",
	})
	second := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "loader_retries_total",
		Help: "Retries performed by the loader",
	})

	require.NoError(t, registry.Register("loader", "items_total", first))

	err := registry.Register("loader", "items_total", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterPrometheusConflict(t *testing.T) {
	registry := NewMetricsRegistry()

	newCounter := func() prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name: "loader_items_total",
			Help: "Items processed by the loader",
		})
	}

	require.NoError(t, registry.Register("loader", "items_total", newCounter()))

	// Different registry key, same fully-qualified prometheus name.
	err := registry.Register("loader", "items", newCounter())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestRegisterConcurrent(t *testing.T) {
	registry := NewMetricsRegistry()

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func(n int) {
			c := prometheus.NewCounter(prometheus.CounterOpts{
				Name: "worker_items_total",
				Help: "Items processed",
				ConstLabels: prometheus.Labels{
					"worker": string(rune('a' + n)),
				},
			})
			done <- registry.Register("worker", "items_"+string(rune('a'+n)), c)
		}(i)
	}

	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}

func TestCoreMetricsRecording(t *testing.T) {
	m := NewMetrics()

	m.RecordObjectAdded("DEVICE")
	m.RecordObjectAdded("DEVICE")
	m.RecordObjectRemoved("DEVICE")
	m.RecordTenantRepos(3)
	m.RecordQueryDuration("find", 25*time.Millisecond)
	m.RecordEventReceived("ENTITY")
	m.RecordEventProcessed("ENTITY", "success")
	m.RecordNATSStatus(true)
	m.RecordNATSReconnect()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ObjectsAdded.WithLabelValues("DEVICE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsRemoved.WithLabelValues("DEVICE")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TenantRepos))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsReceived.WithLabelValues("ENTITY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsProcessed.WithLabelValues("ENTITY", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSConnected))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NATSReconnects))

	m.RecordNATSStatus(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NATSConnected))
}

func TestStatsService(t *testing.T) {
	registry := NewMetricsRegistry()
	stats := NewStatsService(registry)

	stats.ReportAdded("ASSET")
	stats.ReportRemoved("ASSET")
	stats.ReportTenants(2)
	stats.ReportQuery("count", 5*time.Millisecond)

	m := registry.CoreMetrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsAdded.WithLabelValues("ASSET")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsRemoved.WithLabelValues("ASSET")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TenantRepos))
}
