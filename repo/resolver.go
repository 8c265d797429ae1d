package repo

import (
	"regexp"

	"github.com/google/uuid"

	"github.com/c360/edqs/entity"
	"github.com/c360/edqs/query"
)

// resolveFilter maps a structural filter to its candidate records. Unknown
// filter kinds and malformed ids resolve to an empty set, never an error.
// Callers hold the repository lock.
func (r *TenantRepo) resolveFilter(f query.Filter) []*entity.Record {
	switch filter := f.(type) {
	case query.SingleEntityFilter:
		return r.lookupOne(filter.Entity)
	case query.EntityListFilter:
		return r.lookupList(filter.EntityType, filter.EntityList)
	case query.EntityNameFilter:
		return r.scanType(filter.EntityType, nil, filter.EntityNameFilter)
	case query.EntityTypeFilter:
		return r.scanType(filter.EntityType, nil, "")
	case query.DeviceTypeFilter:
		return r.scanType(entity.TypeDevice, filter.DeviceTypes, filter.DeviceNameFilter)
	case query.AssetTypeFilter:
		return r.scanType(entity.TypeAsset, filter.AssetTypes, filter.AssetNameFilter)
	case query.EdgeTypeFilter:
		return r.scanType(entity.TypeEdge, filter.EdgeTypes, filter.EdgeNameFilter)
	case query.EntityViewTypeFilter:
		return r.scanType(entity.TypeEntityView, filter.EntityViewTypes, filter.EntityViewNameFilter)
	case query.RelationsQueryFilter:
		return r.resolveRelationsQuery(filter)
	case query.DeviceSearchQueryFilter:
		return r.resolveSearchQuery(filter.EntitySearchQueryFilter, entity.TypeDevice, filter.DeviceTypes)
	case query.AssetSearchQueryFilter:
		return r.resolveSearchQuery(filter.EntitySearchQueryFilter, entity.TypeAsset, filter.AssetTypes)
	case query.EdgeSearchQueryFilter:
		return r.resolveSearchQuery(filter.EntitySearchQueryFilter, entity.TypeEdge, filter.EdgeTypes)
	case query.EntityViewSearchQueryFilter:
		return r.resolveSearchQuery(filter.EntitySearchQueryFilter, entity.TypeEntityView, filter.EntityViewTypes)
	case query.EntityGroupFilter:
		return r.resolveGroupMembersByID(filter.EntityGroup, filter.GroupType)
	case query.EntitiesByGroupNameFilter:
		return r.resolveGroupMembersByName(filter.GroupType, filter.EntityGroupNameFilter, filter.OwnerID)
	case query.EntityGroupNameFilter:
		return r.scanGroups(filter.GroupType, filter.EntityGroupNameFilter)
	case query.EntityGroupListFilter:
		return r.lookupList(entity.TypeEntityGroup, filter.EntityGroupList)
	case query.APIUsageStateFilter:
		return r.resolveAPIUsageState(filter)
	case query.SchedulerEventFilter:
		return r.resolveSchedulerEvents(filter)
	case query.StateEntityOwnerFilter:
		return r.resolveStateEntityOwner(filter.SingleEntity)
	default:
		r.logger.Warn("unknown filter kind, resolving to empty set", "tenant", r.tenantID)
		return nil
	}
}

func (r *TenantRepo) lookupOne(id entity.ID) []*entity.Record {
	rec, ok := r.store.get(id)
	if !ok || !rec.HasFields() {
		return nil
	}
	return []*entity.Record{rec}
}

func (r *TenantRepo) lookupList(t entity.Type, ids []string) []*entity.Record {
	var result []*entity.Record
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			r.logger.Warn("skipping malformed entity id in list filter", "id", raw, "tenant", r.tenantID)
			continue
		}
		if rec, ok := r.store.get(entity.NewID(t, id)); ok && rec.HasFields() {
			result = append(result, rec)
		}
	}
	return result
}

// scanType scans one entity type, optionally narrowed by a type-name
// allow-list (matched against the record's type field) and a wildcard-aware
// case-insensitive name prefix.
func (r *TenantRepo) scanType(t entity.Type, typeAllowList []string, nameFilter string) []*entity.Record {
	namePattern := toEntityNamePattern(nameFilter)
	types := toStringSet(typeAllowList)
	var result []*entity.Record
	r.store.iterate(t, func(rec *entity.Record) bool {
		if matchesTypeAndName(rec, types, namePattern) {
			result = append(result, rec)
		}
		return true
	})
	return result
}

func toStringSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func matchesTypeAndName(rec *entity.Record, types map[string]struct{}, namePattern *regexp.Regexp) bool {
	if !rec.HasFields() {
		return false
	}
	if types != nil {
		dp, ok := rec.Field(entity.FieldType)
		if !ok {
			return false
		}
		if _, allowed := types[dp.String()]; !allowed {
			return false
		}
	}
	if namePattern != nil {
		dp, ok := rec.Field(entity.FieldName)
		if !ok || !namePattern.MatchString(dp.String()) {
			return false
		}
	}
	return true
}

func (r *TenantRepo) resolveRelationsQuery(f query.RelationsQueryFilter) []*entity.Record {
	constraints := make([]relationConstraint, 0, len(f.Filters))
	for _, rf := range f.Filters {
		constraints = append(constraints, newConstraint(rf.RelationType, rf.EntityTypes))
	}
	if len(constraints) == 0 {
		constraints = append(constraints, newConstraint("", nil))
	}
	ids := r.commonRelations().traverse(f.RootEntity, f.Direction, constraints, f.MaxLevel, f.FetchLastLevelOnly)
	return r.recordsFor(ids)
}

func (r *TenantRepo) resolveSearchQuery(f query.EntitySearchQueryFilter, t entity.Type, typeAllowList []string) []*entity.Record {
	relationType := f.RelationType
	if relationType == "" {
		relationType = entity.RelationContains
	}
	constraint := newConstraint(relationType, []entity.Type{t})
	ids := r.commonRelations().traverse(f.RootEntity, f.Direction, []relationConstraint{constraint}, f.MaxLevel, f.FetchLastLevelOnly)
	records := r.recordsFor(ids)
	if len(typeAllowList) == 0 {
		return records
	}
	types := toStringSet(typeAllowList)
	filtered := records[:0]
	for _, rec := range records {
		if matchesTypeAndName(rec, types, nil) {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func (r *TenantRepo) recordsFor(ids []entity.ID) []*entity.Record {
	var result []*entity.Record
	for _, id := range ids {
		if rec, ok := r.store.get(id); ok && rec.HasFields() {
			result = append(result, rec)
		}
	}
	return result
}

// groupMembers traverses FROM_ENTITY_GROUP relations from a group to its
// members.
func (r *TenantRepo) groupMembers(groupID uuid.UUID) []*entity.Record {
	root := entity.NewID(entity.TypeEntityGroup, groupID)
	constraint := newConstraint(entity.RelationContains, nil)
	ids := r.groupRelations().traverse(root, query.DirectionFrom, []relationConstraint{constraint}, 1, false)
	return r.recordsFor(ids)
}

func (r *TenantRepo) resolveGroupMembersByID(rawID string, groupType entity.Type) []*entity.Record {
	groupID, err := uuid.Parse(rawID)
	if err != nil {
		r.logger.Warn("skipping malformed group id in filter", "id", rawID, "tenant", r.tenantID)
		return nil
	}
	members := r.groupMembers(groupID)
	if groupType == "" {
		return members
	}
	filtered := members[:0]
	for _, rec := range members {
		if rec.Type() == groupType {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}

func (r *TenantRepo) resolveGroupMembersByName(groupType entity.Type, nameFilter string, owner entity.ID) []*entity.Record {
	var result []*entity.Record
	for _, group := range r.scanGroups(groupType, nameFilter) {
		if !owner.IsZero() && group.CustomerID() != owner.UUID {
			if !(owner.Type == entity.TypeTenant && group.CustomerID() == uuid.Nil) {
				continue
			}
		}
		for _, rec := range r.groupMembers(group.UUID()) {
			if groupType == "" || rec.Type() == groupType {
				result = append(result, rec)
			}
		}
	}
	return result
}

// scanGroups scans entity groups whose member type matches groupType, with
// an optional group name filter.
func (r *TenantRepo) scanGroups(groupType entity.Type, nameFilter string) []*entity.Record {
	namePattern := toEntityNamePattern(nameFilter)
	var result []*entity.Record
	r.store.iterate(entity.TypeEntityGroup, func(rec *entity.Record) bool {
		if !rec.HasFields() {
			return true
		}
		if groupType != "" {
			dp, ok := rec.Field(entity.FieldType)
			if !ok || dp.String() != string(groupType) {
				return true
			}
		}
		if namePattern != nil {
			dp, ok := rec.Field(entity.FieldName)
			if !ok || !namePattern.MatchString(dp.String()) {
				return true
			}
		}
		result = append(result, rec)
		return true
	})
	return result
}

func (r *TenantRepo) resolveAPIUsageState(f query.APIUsageStateFilter) []*entity.Record {
	var owner uuid.UUID
	if f.CustomerID != nil {
		owner = f.CustomerID.UUID
	}
	var result []*entity.Record
	r.store.iterate(entity.TypeAPIUsageState, func(rec *entity.Record) bool {
		if rec.HasFields() && rec.CustomerID() == owner {
			result = append(result, rec)
		}
		return true
	})
	return result
}

func (r *TenantRepo) resolveSchedulerEvents(f query.SchedulerEventFilter) []*entity.Record {
	var originator string
	if f.Originator != nil {
		originator = f.Originator.UUID.String()
	}
	var result []*entity.Record
	r.store.iterate(entity.TypeSchedulerEvent, func(rec *entity.Record) bool {
		if !rec.HasFields() {
			return true
		}
		if f.EventType != "" {
			dp, ok := rec.Field(entity.FieldType)
			if !ok || dp.String() != f.EventType {
				return true
			}
		}
		if originator != "" {
			dp, ok := rec.Field(entity.FieldOriginator)
			if !ok || dp.String() != originator {
				return true
			}
		}
		result = append(result, rec)
		return true
	})
	return result
}

// resolveStateEntityOwner returns the owner of the given entity: its
// customer when one is set, the tenant otherwise.
func (r *TenantRepo) resolveStateEntityOwner(id entity.ID) []*entity.Record {
	rec, ok := r.store.get(id)
	if !ok {
		return nil
	}
	if owner := rec.CustomerID(); owner != uuid.Nil {
		return r.lookupOne(entity.NewID(entity.TypeCustomer, owner))
	}
	return r.lookupOne(entity.NewID(entity.TypeTenant, r.tenantID))
}
