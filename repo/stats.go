package repo

import "time"

// Object type labels used for stats reporting alongside entity types.
const (
	objectRelation  = "RELATION"
	objectAttribute = "ATTRIBUTE_KV"
	objectLatest    = "LATEST_TS_KV"
)

// Stats receives repository activity counters. Implementations must be
// safe for concurrent use.
type Stats interface {
	ReportAdded(objectType string)
	ReportRemoved(objectType string)
	ReportQuery(kind string, took time.Duration)
	ReportTenants(count int)
}

// NoopStats discards all reports.
type NoopStats struct{}

func (NoopStats) ReportAdded(string)                {}
func (NoopStats) ReportRemoved(string)              {}
func (NoopStats) ReportQuery(string, time.Duration) {}
func (NoopStats) ReportTenants(int)                 {}
