// Package repo implements the in-memory per-tenant entity repository: the
// denormalized entity store, the relation graph, filter resolution, key
// filter evaluation, permission-aware visibility and the query pipeline on
// top of them.
package repo

import (
	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
)

// entityStore indexes entity records by type and id. It carries no locking
// of its own; the owning TenantRepo serializes access.
type entityStore struct {
	byType map[entity.Type]map[uuid.UUID]*entity.Record
}

func newEntityStore() *entityStore {
	return &entityStore{byType: make(map[entity.Type]map[uuid.UUID]*entity.Record)}
}

func (s *entityStore) get(id entity.ID) (*entity.Record, bool) {
	r, ok := s.byType[id.Type][id.UUID]
	return r, ok
}

func (s *entityStore) getOrCreate(id entity.ID) *entity.Record {
	byID, ok := s.byType[id.Type]
	if !ok {
		byID = make(map[uuid.UUID]*entity.Record)
		s.byType[id.Type] = byID
	}
	r, ok := byID[id.UUID]
	if !ok {
		r = entity.NewRecord(id)
		byID[id.UUID] = r
	}
	return r
}

func (s *entityStore) remove(id entity.ID) (*entity.Record, bool) {
	byID, ok := s.byType[id.Type]
	if !ok {
		return nil, false
	}
	r, ok := byID[id.UUID]
	if !ok {
		return nil, false
	}
	delete(byID, id.UUID)
	return r, true
}

// iterate calls fn for each record of the given type until fn returns
// false. Iteration order is unspecified.
func (s *entityStore) iterate(t entity.Type, fn func(*entity.Record) bool) {
	for _, r := range s.byType[t] {
		if !fn(r) {
			return
		}
	}
}

func (s *entityStore) count(t entity.Type) int {
	return len(s.byType[t])
}

func (s *entityStore) clear() {
	s.byType = make(map[entity.Type]map[uuid.UUID]*entity.Record)
}
