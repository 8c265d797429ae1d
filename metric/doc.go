// Package metric provides Prometheus-based metrics collection and an HTTP
// server for EDQS monitoring.
//
// The package offers a centralized metrics registry managing both core
// platform metrics (repository object counts, query durations, ingest
// throughput, NATS health) and custom service-specific metrics. It includes
// an HTTP server exposing metrics in Prometheus format.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil && err != http.ErrServerClosed {
//	        log.Printf("Metrics server error: %v", err)
//	    }
//	}()
//
//	// Record core platform metrics
//	coreMetrics := registry.CoreMetrics()
//	coreMetrics.RecordObjectAdded("DEVICE")
//	coreMetrics.RecordQueryDuration("data", took)
//
// The repository stats interface is served by StatsService, which adapts
// the core metrics to the counters the tenant repositories report.
package metric
