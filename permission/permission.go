// Package permission models the merged grant set a query runs under:
// generic per-resource grants plus per-group grants that cross the
// ownership hierarchy.
package permission

import (
	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
)

// Operation is one grantable action.
type Operation string

const (
	OpAll    Operation = "ALL"
	OpRead   Operation = "READ"
	OpWrite  Operation = "WRITE"
	OpCreate Operation = "CREATE"
	OpDelete Operation = "DELETE"
)

// Resource is a grantable resource class.
type Resource string

const (
	ResourceAll           Resource = "ALL"
	ResourceDevice        Resource = "DEVICE"
	ResourceAsset         Resource = "ASSET"
	ResourceCustomer      Resource = "CUSTOMER"
	ResourceUser          Resource = "USER"
	ResourceEdge          Resource = "EDGE"
	ResourceEntityView    Resource = "ENTITY_VIEW"
	ResourceDashboard     Resource = "DASHBOARD"
	ResourceDeviceProfile Resource = "DEVICE_PROFILE"
	ResourceAssetProfile  Resource = "ASSET_PROFILE"
	ResourceRuleChain     Resource = "RULE_CHAIN"
	ResourceGroup         Resource = "ENTITY_GROUP"
	ResourceScheduler     Resource = "SCHEDULER_EVENT"
	ResourceAPIUsageState Resource = "API_USAGE_STATE"
)

// ResourceForEntityType maps an entity type to its resource class.
func ResourceForEntityType(t entity.Type) (Resource, bool) {
	switch t {
	case entity.TypeDevice:
		return ResourceDevice, true
	case entity.TypeAsset:
		return ResourceAsset, true
	case entity.TypeCustomer:
		return ResourceCustomer, true
	case entity.TypeUser:
		return ResourceUser, true
	case entity.TypeEdge:
		return ResourceEdge, true
	case entity.TypeEntityView:
		return ResourceEntityView, true
	case entity.TypeDashboard:
		return ResourceDashboard, true
	case entity.TypeDeviceProfile:
		return ResourceDeviceProfile, true
	case entity.TypeAssetProfile:
		return ResourceAssetProfile, true
	case entity.TypeRuleChain:
		return ResourceRuleChain, true
	case entity.TypeEntityGroup:
		return ResourceGroup, true
	case entity.TypeSchedulerEvent:
		return ResourceScheduler, true
	case entity.TypeAPIUsageState:
		return ResourceAPIUsageState, true
	default:
		return "", false
	}
}

// OperationSet is the set of operations a grant allows.
type OperationSet map[Operation]struct{}

// NewOperationSet builds a set from its members.
func NewOperationSet(ops ...Operation) OperationSet {
	s := make(OperationSet, len(ops))
	for _, op := range ops {
		s[op] = struct{}{}
	}
	return s
}

// Allows reports whether the set contains the operation or the ALL grant.
func (s OperationSet) Allows(op Operation) bool {
	if s == nil {
		return false
	}
	if _, ok := s[OpAll]; ok {
		return true
	}
	_, ok := s[op]
	return ok
}

// GroupPermissions is a grant scoped to one entity group: member type plus
// the allowed operations on the members.
type GroupPermissions struct {
	EntityType entity.Type
	Operations OperationSet
}

// MergedUserPermissions is the flattened grant set of one user. Generic
// grants apply to entities the user owns; group grants apply to members of
// the named groups regardless of ownership.
type MergedUserPermissions struct {
	Generic map[Resource]OperationSet
	Groups  map[uuid.UUID]GroupPermissions
}

// HasGenericRead reports whether the generic grants allow reading entities
// of the given type.
func (m *MergedUserPermissions) HasGenericRead(t entity.Type) bool {
	if m == nil {
		return false
	}
	if m.Generic[ResourceAll].Allows(OpRead) {
		return true
	}
	res, ok := ResourceForEntityType(t)
	if !ok {
		return false
	}
	return m.Generic[res].Allows(OpRead)
}

// GroupReadGrants returns the ids of groups whose grant allows reading
// members of the given type.
func (m *MergedUserPermissions) GroupReadGrants(t entity.Type) []uuid.UUID {
	if m == nil || len(m.Groups) == 0 {
		return nil
	}
	var ids []uuid.UUID
	for id, gp := range m.Groups {
		if gp.EntityType == t && gp.Operations.Allows(OpRead) {
			ids = append(ids, id)
		}
	}
	return ids
}
