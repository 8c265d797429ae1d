// Package query defines the data query model: entity filters, key filters
// with their predicates, page links and result pages.
package query

import (
	"github.com/c360/edqs/entity"
)

// EntitySearchDirection orients a relation traversal relative to its root.
type EntitySearchDirection string

const (
	DirectionFrom EntitySearchDirection = "FROM"
	DirectionTo   EntitySearchDirection = "TO"
)

// Filter selects the candidate entity set of a query before key filters and
// pagination apply. The set of filter kinds is closed; resolution switches
// exhaustively over them.
type Filter interface {
	filterKind() string
}

// SingleEntityFilter selects exactly one entity by id.
type SingleEntityFilter struct {
	Entity entity.ID `json:"singleEntity"`
}

// EntityListFilter selects an explicit id list of one entity type.
type EntityListFilter struct {
	EntityType entity.Type `json:"entityType"`
	EntityList []string    `json:"entityList"`
}

// EntityNameFilter selects entities of one type whose name starts with a
// pattern. The pattern may carry SQL wildcards.
type EntityNameFilter struct {
	EntityType       entity.Type `json:"entityType"`
	EntityNameFilter string      `json:"entityNameFilter"`
}

// EntityTypeFilter selects all entities of one type.
type EntityTypeFilter struct {
	EntityType entity.Type `json:"entityType"`
}

// DeviceTypeFilter selects devices by profile type list with an optional
// name prefix.
type DeviceTypeFilter struct {
	DeviceTypes      []string `json:"deviceTypes"`
	DeviceNameFilter string   `json:"deviceNameFilter"`
}

// AssetTypeFilter selects assets by profile type list with an optional name
// prefix.
type AssetTypeFilter struct {
	AssetTypes      []string `json:"assetTypes"`
	AssetNameFilter string   `json:"assetNameFilter"`
}

// EdgeTypeFilter selects edges by type list with an optional name prefix.
type EdgeTypeFilter struct {
	EdgeTypes      []string `json:"edgeTypes"`
	EdgeNameFilter string   `json:"edgeNameFilter"`
}

// EntityViewTypeFilter selects entity views by type list with an optional
// name prefix.
type EntityViewTypeFilter struct {
	EntityViewTypes      []string `json:"entityViewTypes"`
	EntityViewNameFilter string   `json:"entityViewNameFilter"`
}

// RelationEntityTypeFilter constrains one step of a relations query: a
// relation type plus the entity types allowed in the result set.
type RelationEntityTypeFilter struct {
	RelationType string        `json:"relationType"`
	EntityTypes  []entity.Type `json:"entityTypes"`
}

// RelationsQueryFilter walks the relation graph from a root entity and
// yields related entities matching any of the per-step filters.
type RelationsQueryFilter struct {
	RootEntity         entity.ID                  `json:"rootEntity"`
	Direction          EntitySearchDirection      `json:"direction"`
	Filters            []RelationEntityTypeFilter `json:"filters"`
	MaxLevel           int                        `json:"maxLevel"`
	FetchLastLevelOnly bool                       `json:"fetchLastLevelOnly"`
}

// EntitySearchQueryFilter is the common shape of the typed search query
// filters: a root, a direction, one relation type and an allowed entity
// type list applied to yielded entities.
type EntitySearchQueryFilter struct {
	RootEntity         entity.ID             `json:"rootEntity"`
	Direction          EntitySearchDirection `json:"direction"`
	RelationType       string                `json:"relationType"`
	MaxLevel           int                   `json:"maxLevel"`
	FetchLastLevelOnly bool                  `json:"fetchLastLevelOnly"`
}

// DeviceSearchQueryFilter yields devices reachable from the root.
type DeviceSearchQueryFilter struct {
	EntitySearchQueryFilter
	DeviceTypes []string `json:"deviceTypes"`
}

// AssetSearchQueryFilter yields assets reachable from the root.
type AssetSearchQueryFilter struct {
	EntitySearchQueryFilter
	AssetTypes []string `json:"assetTypes"`
}

// EdgeSearchQueryFilter yields edges reachable from the root.
type EdgeSearchQueryFilter struct {
	EntitySearchQueryFilter
	EdgeTypes []string `json:"edgeTypes"`
}

// EntityViewSearchQueryFilter yields entity views reachable from the root.
type EntityViewSearchQueryFilter struct {
	EntitySearchQueryFilter
	EntityViewTypes []string `json:"entityViewTypes"`
}

// EntityGroupFilter selects the members of one entity group addressed by
// id.
type EntityGroupFilter struct {
	GroupType   entity.Type `json:"groupType"`
	EntityGroup string      `json:"entityGroup"`
}

// EntitiesByGroupNameFilter selects the members of groups matching an owner
// and name.
type EntitiesByGroupNameFilter struct {
	GroupType             entity.Type `json:"groupType"`
	EntityGroupNameFilter string      `json:"entityGroupNameFilter"`
	OwnerID               entity.ID   `json:"ownerId"`
}

// EntityGroupNameFilter selects entity groups of one member type by group
// name prefix.
type EntityGroupNameFilter struct {
	GroupType             entity.Type `json:"groupType"`
	EntityGroupNameFilter string      `json:"entityGroupNameFilter"`
}

// EntityGroupListFilter selects an explicit list of entity groups.
type EntityGroupListFilter struct {
	GroupType       entity.Type `json:"groupType"`
	EntityGroupList []string    `json:"entityGroupList"`
}

// APIUsageStateFilter selects the api usage state entity, optionally scoped
// to a customer.
type APIUsageStateFilter struct {
	CustomerID *entity.ID `json:"customerId,omitempty"`
}

// SchedulerEventFilter selects scheduler events by type and originator.
type SchedulerEventFilter struct {
	EventType  string     `json:"eventType"`
	Originator *entity.ID `json:"originator,omitempty"`
}

// StateEntityOwnerFilter selects the owner of a given entity: its customer
// when one is set, the tenant otherwise.
type StateEntityOwnerFilter struct {
	SingleEntity entity.ID `json:"singleEntity"`
}

func (SingleEntityFilter) filterKind() string          { return FilterSingleEntity }
func (EntityListFilter) filterKind() string            { return FilterEntityList }
func (EntityNameFilter) filterKind() string            { return FilterEntityName }
func (EntityTypeFilter) filterKind() string            { return FilterEntityType }
func (DeviceTypeFilter) filterKind() string            { return FilterDeviceType }
func (AssetTypeFilter) filterKind() string             { return FilterAssetType }
func (EdgeTypeFilter) filterKind() string              { return FilterEdgeType }
func (EntityViewTypeFilter) filterKind() string        { return FilterEntityViewType }
func (RelationsQueryFilter) filterKind() string        { return FilterRelationsQuery }
func (DeviceSearchQueryFilter) filterKind() string     { return FilterDeviceSearchQuery }
func (AssetSearchQueryFilter) filterKind() string      { return FilterAssetSearchQuery }
func (EdgeSearchQueryFilter) filterKind() string       { return FilterEdgeSearchQuery }
func (EntityViewSearchQueryFilter) filterKind() string { return FilterEntityViewSearchQuery }
func (EntityGroupFilter) filterKind() string           { return FilterEntityGroup }
func (EntitiesByGroupNameFilter) filterKind() string   { return FilterEntitiesByGroupName }
func (EntityGroupNameFilter) filterKind() string       { return FilterEntityGroupName }
func (EntityGroupListFilter) filterKind() string       { return FilterEntityGroupList }
func (APIUsageStateFilter) filterKind() string         { return FilterAPIUsageState }
func (SchedulerEventFilter) filterKind() string        { return FilterSchedulerEvent }
func (StateEntityOwnerFilter) filterKind() string      { return FilterStateEntityOwner }

// Filter kind discriminators as they appear on the wire.
const (
	FilterSingleEntity          = "singleEntity"
	FilterEntityList            = "entityList"
	FilterEntityName            = "entityName"
	FilterEntityType            = "entityType"
	FilterDeviceType            = "deviceType"
	FilterAssetType             = "assetType"
	FilterEdgeType              = "edgeType"
	FilterEntityViewType        = "entityViewType"
	FilterRelationsQuery        = "relationsQuery"
	FilterDeviceSearchQuery     = "deviceSearchQuery"
	FilterAssetSearchQuery      = "assetSearchQuery"
	FilterEdgeSearchQuery       = "edgeSearchQuery"
	FilterEntityViewSearchQuery = "entityViewSearchQuery"
	FilterEntityGroup           = "entityGroup"
	FilterEntitiesByGroupName   = "entitiesByGroupName"
	FilterEntityGroupName       = "entityGroupName"
	FilterEntityGroupList       = "entityGroupList"
	FilterAPIUsageState         = "apiUsageState"
	FilterSchedulerEvent        = "schedulerEvent"
	FilterStateEntityOwner      = "stateEntityOwner"
)
