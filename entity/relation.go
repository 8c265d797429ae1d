package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

// RelationTypeGroup partitions the relation graph into independent
// namespaces. Common relations carry the user-defined topology; group
// relations link entity groups to their members.
type RelationTypeGroup string

const (
	RelationGroupCommon     RelationTypeGroup = "COMMON"
	RelationGroupFromEntity RelationTypeGroup = "FROM_ENTITY_GROUP"
)

// RelationContains is the default relation type used when a relation query
// does not name one.
const RelationContains = "Contains"

// Relation is a directed, typed edge between two entities.
type Relation struct {
	From  ID                `json:"from"`
	To    ID                `json:"to"`
	Type  string            `json:"type"`
	Group RelationTypeGroup `json:"typeGroup"`
}

// Entity is the wire form of an entity snapshot.
type Entity struct {
	ID         ID                         `json:"entityId"`
	CustomerID uuid.UUID                  `json:"customerId"`
	Fields     map[string]json.RawMessage `json:"fields"`
}

// AttributeKv is the wire form of one attribute point.
type AttributeKv struct {
	EntityID ID              `json:"entityId"`
	Scope    AttributeScope  `json:"scope"`
	Key      string          `json:"key"`
	TS       int64           `json:"ts"`
	Value    json.RawMessage `json:"value"`
}

// LatestTsKv is the wire form of one latest time-series point.
type LatestTsKv struct {
	EntityID ID              `json:"entityId"`
	Key      string          `json:"key"`
	TS       int64           `json:"ts"`
	Value    json.RawMessage `json:"value"`
}
