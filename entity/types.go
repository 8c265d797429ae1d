// Package entity defines the compact in-memory representation of platform
// entities: typed identifiers, latest data points, interned keys, entity
// records and relations. Everything here is a plain value or a map owned by
// a single tenant repository; synchronization is the repository's concern.
package entity

import (
	"fmt"

	"github.com/google/uuid"
)

// Type identifies the kind of a platform entity.
type Type string

// Known entity types.
const (
	TypeTenant         Type = "TENANT"
	TypeCustomer       Type = "CUSTOMER"
	TypeUser           Type = "USER"
	TypeDevice         Type = "DEVICE"
	TypeAsset          Type = "ASSET"
	TypeEntityView     Type = "ENTITY_VIEW"
	TypeEdge           Type = "EDGE"
	TypeDashboard      Type = "DASHBOARD"
	TypeEntityGroup    Type = "ENTITY_GROUP"
	TypeAPIUsageState  Type = "API_USAGE_STATE"
	TypeSchedulerEvent Type = "SCHEDULER_EVENT"
	TypeDeviceProfile  Type = "DEVICE_PROFILE"
	TypeAssetProfile   Type = "ASSET_PROFILE"
	TypeRuleChain      Type = "RULE_CHAIN"
)

// ID identifies a single entity: its type plus a UUID.
// IDs are unique per (tenant, type).
type ID struct {
	Type Type      `json:"entityType"`
	UUID uuid.UUID `json:"id"`
}

// NewID builds an ID from a type and a UUID.
func NewID(t Type, u uuid.UUID) ID {
	return ID{Type: t, UUID: u}
}

// IsZero reports whether the ID carries no value.
func (id ID) IsZero() bool {
	return id.Type == "" && id.UUID == uuid.Nil
}

func (id ID) String() string {
	return fmt.Sprintf("%s/%s", id.Type, id.UUID)
}

// AttributeScope distinguishes the three attribute namespaces an entity
// carries.
type AttributeScope string

// Attribute scopes.
const (
	ScopeClient AttributeScope = "CLIENT_SCOPE"
	ScopeShared AttributeScope = "SHARED_SCOPE"
	ScopeServer AttributeScope = "SERVER_SCOPE"
)

// KeyType identifies where a queried value lives on an entity record.
type KeyType string

// Key types. KeyAttribute matches any attribute scope, checking client,
// shared and server scopes in that order.
const (
	KeyEntityField     KeyType = "ENTITY_FIELD"
	KeyTimeSeries      KeyType = "TIME_SERIES"
	KeyAttribute       KeyType = "ATTRIBUTE"
	KeyClientAttribute KeyType = "CLIENT_ATTRIBUTE"
	KeySharedAttribute KeyType = "SHARED_ATTRIBUTE"
	KeyServerAttribute KeyType = "SERVER_ATTRIBUTE"
)

// Well-known entity field names. Fields are stored as data points in the
// record's field map; createdTime is a long, the rest are strings.
const (
	FieldName        = "name"
	FieldType        = "type"
	FieldLabel       = "label"
	FieldCreatedTime = "createdTime"
	FieldOriginator  = "originatorId"
)

// DataKey addresses one value on an entity record. Name is the external key
// name; KeyID is the interned numeric id assigned by a Dictionary, zero for
// entity fields which are addressed by name.
type DataKey struct {
	Type  KeyType
	Name  string
	KeyID int32
}

// Scope maps an attribute key type to its scope. The second return is false
// for KeyAttribute and for non-attribute key types.
func (k DataKey) Scope() (AttributeScope, bool) {
	switch k.Type {
	case KeyClientAttribute:
		return ScopeClient, true
	case KeySharedAttribute:
		return ScopeShared, true
	case KeyServerAttribute:
		return ScopeServer, true
	default:
		return "", false
	}
}
