package repo

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
	errs "github.com/c360/edqs/errors"
)

// Registry holds one repository per tenant, created on first use. All
// tenants share one key dictionary so interned key ids stay stable across
// repositories.
type Registry struct {
	mu      sync.RWMutex
	repos   map[uuid.UUID]*TenantRepo
	dict    *entity.Dictionary
	stats   Stats
	logger  *slog.Logger
	idleTTL time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStats installs a stats sink.
func WithStats(stats Stats) RegistryOption {
	return func(r *Registry) { r.stats = stats }
}

// WithIdleTTL sets how long a tenant repository may sit idle before the
// eviction sweep drops it. Zero disables eviction.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) { r.idleTTL = ttl }
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		repos:  make(map[uuid.UUID]*TenantRepo),
		dict:   entity.NewDictionary(),
		stats:  NoopStats{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dictionary returns the shared key dictionary.
func (r *Registry) Dictionary() *entity.Dictionary { return r.dict }

// Tenant returns the repository for the tenant, creating it on first use.
func (r *Registry) Tenant(tenantID uuid.UUID) (*TenantRepo, error) {
	if tenantID == uuid.Nil {
		return nil, errs.WrapInvalid(errs.ErrNilTenantID, "Registry", "Tenant", "resolving repository")
	}
	r.mu.RLock()
	repo, ok := r.repos[tenantID]
	r.mu.RUnlock()
	if ok {
		return repo, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok = r.repos[tenantID]; ok {
		return repo, nil
	}
	repo = newTenantRepo(tenantID, r.dict, r.stats, r.logger)
	r.repos[tenantID] = repo
	r.stats.ReportTenants(len(r.repos))
	r.logger.Info("created tenant repository", "tenant", tenantID)
	return repo, nil
}

// Get returns the repository for the tenant without creating it.
func (r *Registry) Get(tenantID uuid.UUID) (*TenantRepo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	repo, ok := r.repos[tenantID]
	return repo, ok
}

// Evict clears and removes the tenant's repository.
func (r *Registry) Evict(tenantID uuid.UUID) bool {
	r.mu.Lock()
	repo, ok := r.repos[tenantID]
	if ok {
		delete(r.repos, tenantID)
		r.stats.ReportTenants(len(r.repos))
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	repo.Clear()
	r.logger.Info("evicted tenant repository", "tenant", tenantID)
	return true
}

// Len returns the number of live tenant repositories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.repos)
}

// RunEviction sweeps idle tenant repositories at the given interval until
// the context is cancelled. It is a no-op when the registry has no idle
// TTL configured.
func (r *Registry) RunEviction(ctx context.Context, interval time.Duration) {
	if r.idleTTL <= 0 {
		return
	}
	if interval <= 0 {
		interval = r.idleTTL
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.idleTTL)
	r.mu.RLock()
	var idle []uuid.UUID
	for id, repo := range r.repos {
		if repo.LastActivity().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	r.mu.RUnlock()
	for _, id := range idle {
		r.Evict(id)
	}
}
