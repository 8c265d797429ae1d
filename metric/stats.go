package metric

import "time"

// StatsService adapts the core metrics to the repository stats interface.
type StatsService struct {
	metrics *Metrics
}

// NewStatsService creates a stats sink backed by the registry's metrics.
func NewStatsService(registry *MetricsRegistry) *StatsService {
	return &StatsService{metrics: registry.CoreMetrics()}
}

func (s *StatsService) ReportAdded(objectType string) {
	s.metrics.RecordObjectAdded(objectType)
}

func (s *StatsService) ReportRemoved(objectType string) {
	s.metrics.RecordObjectRemoved(objectType)
}

func (s *StatsService) ReportQuery(kind string, took time.Duration) {
	s.metrics.RecordQueryDuration(kind, took)
}

func (s *StatsService) ReportTenants(count int) {
	s.metrics.RecordTenantRepos(count)
}
