// Package ingest feeds tenant repositories from the platform event stream:
// a JetStream consumer for live updates and a worker pool loader for bulk
// snapshots.
package ingest

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
	errs "github.com/c360/edqs/errors"
	"github.com/c360/edqs/pkg/timestamp"
	"github.com/c360/edqs/repo"
)

// EventType says whether the payload is an upsert or a removal.
type EventType string

const (
	EventUpdated EventType = "UPDATED"
	EventDeleted EventType = "DELETED"
)

// ObjectType names the payload shape of an event.
type ObjectType string

const (
	ObjectEntity      ObjectType = "ENTITY"
	ObjectRelation    ObjectType = "RELATION"
	ObjectAttributeKv ObjectType = "ATTRIBUTE_KV"
	ObjectLatestTsKv  ObjectType = "LATEST_TS_KV"
)

// Event is one repository mutation on the wire.
type Event struct {
	TenantID   uuid.UUID       `json:"tenantId"`
	EventType  EventType       `json:"eventType"`
	ObjectType ObjectType      `json:"objectType"`
	TS         int64           `json:"ts,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// Decode parses an event envelope. The envelope timestamp is normalized to
// Unix milliseconds; producers may send seconds or milliseconds.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, errs.WrapInvalid(err, "ingest", "Decode", "parsing event envelope")
	}
	if ev.TenantID == uuid.Nil {
		return Event{}, errs.WrapInvalid(errs.ErrNilTenantID, "ingest", "Decode", "validating event envelope")
	}
	ev.TS = timestamp.Parse(ev.TS)
	return ev, nil
}

// Apply routes one event to its tenant repository.
func Apply(registry *repo.Registry, ev Event) error {
	tenant, err := registry.Tenant(ev.TenantID)
	if err != nil {
		return err
	}
	switch ev.ObjectType {
	case ObjectEntity:
		return applyEntity(tenant, ev)
	case ObjectRelation:
		return applyRelation(tenant, ev)
	case ObjectAttributeKv:
		return applyAttribute(tenant, ev)
	case ObjectLatestTsKv:
		return applyLatest(tenant, ev)
	default:
		return errs.WrapInvalid(errs.ErrInvalidData, "ingest", "Apply", "routing object type "+string(ev.ObjectType))
	}
}

func applyEntity(tenant *repo.TenantRepo, ev Event) error {
	var e entity.Entity
	if err := json.Unmarshal(ev.Data, &e); err != nil {
		return errs.WrapInvalid(err, "ingest", "applyEntity", "parsing entity payload")
	}
	switch ev.EventType {
	case EventUpdated:
		return tenant.AddOrUpdateEntity(e)
	case EventDeleted:
		tenant.RemoveEntity(e.ID)
		return nil
	default:
		return errs.WrapInvalid(errs.ErrUnknownEventType, "ingest", "applyEntity", "routing event type "+string(ev.EventType))
	}
}

func applyRelation(tenant *repo.TenantRepo, ev Event) error {
	var rel entity.Relation
	if err := json.Unmarshal(ev.Data, &rel); err != nil {
		return errs.WrapInvalid(err, "ingest", "applyRelation", "parsing relation payload")
	}
	switch ev.EventType {
	case EventUpdated:
		tenant.AddRelation(rel)
		return nil
	case EventDeleted:
		tenant.RemoveRelation(rel)
		return nil
	default:
		return errs.WrapInvalid(errs.ErrUnknownEventType, "ingest", "applyRelation", "routing event type "+string(ev.EventType))
	}
}

func applyAttribute(tenant *repo.TenantRepo, ev Event) error {
	var kv entity.AttributeKv
	if err := json.Unmarshal(ev.Data, &kv); err != nil {
		return errs.WrapInvalid(err, "ingest", "applyAttribute", "parsing attribute payload")
	}
	switch ev.EventType {
	case EventUpdated:
		if kv.TS == 0 {
			kv.TS = ev.TS
		}
		return tenant.AddOrUpdateAttribute(kv)
	case EventDeleted:
		tenant.RemoveAttribute(kv.EntityID, kv.Scope, kv.Key)
		return nil
	default:
		return errs.WrapInvalid(errs.ErrUnknownEventType, "ingest", "applyAttribute", "routing event type "+string(ev.EventType))
	}
}

func applyLatest(tenant *repo.TenantRepo, ev Event) error {
	var kv entity.LatestTsKv
	if err := json.Unmarshal(ev.Data, &kv); err != nil {
		return errs.WrapInvalid(err, "ingest", "applyLatest", "parsing latest value payload")
	}
	switch ev.EventType {
	case EventUpdated:
		if kv.TS == 0 {
			kv.TS = ev.TS
		}
		return tenant.AddOrUpdateLatest(kv)
	case EventDeleted:
		tenant.RemoveLatest(kv.EntityID, kv.Key)
		return nil
	default:
		return errs.WrapInvalid(errs.ErrUnknownEventType, "ingest", "applyLatest", "routing event type "+string(ev.EventType))
	}
}
