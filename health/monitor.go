package health

import (
	"sort"
	"sync"
	"time"
)

// Monitor tracks the health of named components.
type Monitor struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMonitor creates an empty health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		statuses: make(map[string]Status),
	}
}

// Update records the health status for a named component.
func (m *Monitor) Update(name string, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status.Component = name
	if status.Timestamp.IsZero() {
		status.Timestamp = time.Now()
	}
	m.statuses[name] = status
}

// UpdateHealthy marks a component healthy.
func (m *Monitor) UpdateHealthy(name, message string) {
	m.Update(name, NewHealthy(name, message))
}

// UpdateDegraded marks a component degraded.
func (m *Monitor) UpdateDegraded(name, message string) {
	m.Update(name, NewDegraded(name, message))
}

// UpdateUnhealthy marks a component unhealthy.
func (m *Monitor) UpdateUnhealthy(name, message string) {
	m.Update(name, NewUnhealthy(name, message))
}

// Get returns the status of a single component.
func (m *Monitor) Get(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status, ok := m.statuses[name]
	return status, ok
}

// Remove drops a component from the monitor.
func (m *Monitor) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.statuses, name)
}

// Aggregate combines all component statuses into one service status.
// The service is unhealthy if any component is unhealthy, degraded if any
// component is degraded, healthy otherwise. Components are listed in name
// order as sub-statuses.
func (m *Monitor) Aggregate(serviceName string) Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.statuses))
	for name := range m.statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	overall := StatusHealthy
	subs := make([]Status, 0, len(names))
	for _, name := range names {
		status := m.statuses[name]
		subs = append(subs, status)
		switch {
		case status.IsUnhealthy():
			overall = StatusUnhealthy
		case status.IsDegraded() && overall == StatusHealthy:
			overall = StatusDegraded
		}
	}

	return Status{
		Component:   serviceName,
		Healthy:     overall == StatusHealthy,
		Status:      overall,
		Message:     "",
		Timestamp:   time.Now(),
		SubStatuses: subs,
	}
}

// Count returns the number of tracked components.
func (m *Monitor) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.statuses)
}
