package entity

import "github.com/google/uuid"

// attrKey addresses one attribute point: scope plus interned key id.
type attrKey struct {
	scope AttributeScope
	key   int32
}

// Record is the denormalized in-memory state of one entity: its field map,
// the latest time-series point per interned key and the latest attribute
// point per (scope, interned key). Records are created lazily, possibly
// before the entity snapshot arrives (a relation may reference an entity
// first); until SetFields is called the record has no fields and is skipped
// by query evaluation.
//
// Records are not self-synchronized; the owning tenant repository serializes
// writers and excludes them from readers.
type Record struct {
	id         ID
	customerID uuid.UUID
	fields     map[string]DataPoint
	timeseries map[int32]DataPoint
	attributes map[attrKey]DataPoint
}

// NewRecord creates an empty record for the given id.
func NewRecord(id ID) *Record {
	return &Record{id: id}
}

// ID returns the entity id.
func (r *Record) ID() ID { return r.id }

// UUID returns the entity UUID part of the id.
func (r *Record) UUID() uuid.UUID { return r.id.UUID }

// Type returns the entity type part of the id.
func (r *Record) Type() Type { return r.id.Type }

// CustomerID returns the owning customer id, uuid.Nil when the entity is
// owned directly by the tenant.
func (r *Record) CustomerID() uuid.UUID { return r.customerID }

// SetCustomerID records the owning customer, uuid.Nil to clear ownership.
func (r *Record) SetCustomerID(id uuid.UUID) { r.customerID = id }

// HasFields reports whether an entity snapshot has been applied. Records
// that only exist as relation endpoints have no fields yet.
func (r *Record) HasFields() bool { return r.fields != nil }

// SetFields replaces the whole field map. An empty map still marks the
// record as materialized.
func (r *Record) SetFields(fields map[string]DataPoint) {
	if fields == nil {
		fields = map[string]DataPoint{}
	}
	r.fields = fields
}

// Field returns the named entity field.
func (r *Record) Field(name string) (DataPoint, bool) {
	p, ok := r.fields[name]
	return p, ok
}

// PutTimeseries stores the latest point for an interned key, keeping the
// newer timestamp on replay. It reports whether the key is new on this
// record.
func (r *Record) PutTimeseries(keyID int32, p DataPoint) bool {
	if r.timeseries == nil {
		r.timeseries = make(map[int32]DataPoint, 4)
	}
	old, exists := r.timeseries[keyID]
	if !exists || p.TS() >= old.TS() {
		r.timeseries[keyID] = p
	}
	return !exists
}

// RemoveTimeseries drops the point for an interned key.
func (r *Record) RemoveTimeseries(keyID int32) bool {
	if _, ok := r.timeseries[keyID]; !ok {
		return false
	}
	delete(r.timeseries, keyID)
	return true
}

// PutAttribute stores the latest attribute point for (scope, interned key),
// keeping the newer timestamp on replay. It reports whether the key is new.
func (r *Record) PutAttribute(scope AttributeScope, keyID int32, p DataPoint) bool {
	if r.attributes == nil {
		r.attributes = make(map[attrKey]DataPoint, 4)
	}
	k := attrKey{scope: scope, key: keyID}
	old, exists := r.attributes[k]
	if !exists || p.TS() >= old.TS() {
		r.attributes[k] = p
	}
	return !exists
}

// RemoveAttribute drops the attribute point for (scope, interned key).
func (r *Record) RemoveAttribute(scope AttributeScope, keyID int32) bool {
	k := attrKey{scope: scope, key: keyID}
	if _, ok := r.attributes[k]; !ok {
		return false
	}
	delete(r.attributes, k)
	return true
}

// DataPoint resolves a data key against the record: entity fields by name,
// time-series by interned id and attributes by (scope, interned id). The
// generic attribute key type checks client, shared and server scopes in
// that order.
func (r *Record) DataPoint(key DataKey) (DataPoint, bool) {
	switch key.Type {
	case KeyEntityField:
		return r.Field(key.Name)
	case KeyTimeSeries:
		p, ok := r.timeseries[key.KeyID]
		return p, ok
	case KeyAttribute:
		for _, scope := range []AttributeScope{ScopeClient, ScopeShared, ScopeServer} {
			if p, ok := r.attributes[attrKey{scope: scope, key: key.KeyID}]; ok {
				return p, true
			}
		}
		return DataPoint{}, false
	default:
		scope, ok := key.Scope()
		if !ok {
			return DataPoint{}, false
		}
		p, ok := r.attributes[attrKey{scope: scope, key: key.KeyID}]
		return p, ok
	}
}
