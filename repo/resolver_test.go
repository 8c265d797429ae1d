package repo

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/edqs/entity"
	"github.com/c360/edqs/query"
)

func recordIDs(records []*entity.Record) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(records))
	for _, rec := range records {
		set[rec.UUID()] = true
	}
	return set
}

func TestResolveSingleEntityFilter(t *testing.T) {
	r := newTestRepo(t)
	id := addDevice(t, r, "LoRa-1", 1)

	got := r.resolveFilter(query.SingleEntityFilter{Entity: id})
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID())

	missing := entity.NewID(entity.TypeDevice, uuid.New())
	assert.Empty(t, r.resolveFilter(query.SingleEntityFilter{Entity: missing}))
}

func TestResolveSingleEntityFilterSkipsUnmaterialized(t *testing.T) {
	r := newTestRepo(t)
	// a relation mentions an entity no snapshot was ever received for
	ghost := entity.NewID(entity.TypeDevice, uuid.New())
	known := addDevice(t, r, "LoRa-1", 1)
	r.AddRelation(entity.Relation{From: known, To: ghost, Type: entity.RelationContains})

	assert.Empty(t, r.resolveFilter(query.SingleEntityFilter{Entity: ghost}))
}

func TestResolveEntityListFilter(t *testing.T) {
	r := newTestRepo(t)
	a := addDevice(t, r, "LoRa-1", 1)
	addDevice(t, r, "LoRa-2", 2)

	got := r.resolveFilter(query.EntityListFilter{
		EntityType: entity.TypeDevice,
		EntityList: []string{a.UUID.String(), "not-a-uuid", uuid.NewString()},
	})
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ID())
}

func TestResolveEntityNameFilter(t *testing.T) {
	r := newTestRepo(t)
	addDevice(t, r, "LoRa-1", 1)
	addDevice(t, r, "LoRa-2", 2)
	addDevice(t, r, "Sensor-1", 3)

	got := r.resolveFilter(query.EntityNameFilter{
		EntityType:       entity.TypeDevice,
		EntityNameFilter: "lora",
	})
	assert.Len(t, got, 2)

	got = r.resolveFilter(query.EntityNameFilter{
		EntityType:       entity.TypeDevice,
		EntityNameFilter: "%-1",
	})
	assert.Len(t, got, 2)
}

func TestResolveDeviceTypeFilter(t *testing.T) {
	r := newTestRepo(t)
	thermo := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, thermo, uuid.Nil, map[string]any{
		entity.FieldName: "t-1",
		entity.FieldType: "thermostat",
	})
	valve := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, valve, uuid.Nil, map[string]any{
		entity.FieldName: "v-1",
		entity.FieldType: "valve",
	})

	got := r.resolveFilter(query.DeviceTypeFilter{DeviceTypes: []string{"thermostat"}})
	require.Len(t, got, 1)
	assert.Equal(t, thermo, got[0].ID())

	got = r.resolveFilter(query.DeviceTypeFilter{
		DeviceTypes:      []string{"thermostat", "valve"},
		DeviceNameFilter: "v-",
	})
	require.Len(t, got, 1)
	assert.Equal(t, valve, got[0].ID())
}

func TestResolveRelationsQueryFilter(t *testing.T) {
	r := newTestRepo(t)
	root := entity.NewID(entity.TypeAsset, uuid.New())
	addEntity(t, r, root, uuid.Nil, map[string]any{entity.FieldName: "building"})
	devA := addDevice(t, r, "dev-a", 1)
	devB := addDevice(t, r, "dev-b", 2)
	r.AddRelation(entity.Relation{From: root, To: devA, Type: entity.RelationContains})
	r.AddRelation(entity.Relation{From: devA, To: devB, Type: entity.RelationContains})

	got := r.resolveFilter(query.RelationsQueryFilter{
		RootEntity: root,
		Direction:  query.DirectionFrom,
		MaxLevel:   2,
	})
	assert.Len(t, got, 2)

	got = r.resolveFilter(query.RelationsQueryFilter{
		RootEntity:         root,
		Direction:          query.DirectionFrom,
		MaxLevel:           2,
		FetchLastLevelOnly: true,
	})
	require.Len(t, got, 1)
	assert.Equal(t, devB, got[0].ID())
}

func TestResolveDeviceSearchQueryFilter(t *testing.T) {
	r := newTestRepo(t)
	root := entity.NewID(entity.TypeAsset, uuid.New())
	addEntity(t, r, root, uuid.Nil, map[string]any{entity.FieldName: "building"})

	floor := entity.NewID(entity.TypeAsset, uuid.New())
	addEntity(t, r, floor, uuid.Nil, map[string]any{entity.FieldName: "floor"})

	thermo := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, thermo, uuid.Nil, map[string]any{
		entity.FieldName: "t-1",
		entity.FieldType: "thermostat",
	})
	valve := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, valve, uuid.Nil, map[string]any{
		entity.FieldName: "v-1",
		entity.FieldType: "valve",
	})

	r.AddRelation(entity.Relation{From: root, To: floor, Type: entity.RelationContains})
	r.AddRelation(entity.Relation{From: floor, To: thermo, Type: entity.RelationContains})
	r.AddRelation(entity.Relation{From: floor, To: valve, Type: entity.RelationContains})

	// assets are traversed through but only devices come back
	got := r.resolveFilter(query.DeviceSearchQueryFilter{
		EntitySearchQueryFilter: query.EntitySearchQueryFilter{
			RootEntity: root,
			Direction:  query.DirectionFrom,
			MaxLevel:   2,
		},
	})
	assert.Len(t, got, 2)

	got = r.resolveFilter(query.DeviceSearchQueryFilter{
		EntitySearchQueryFilter: query.EntitySearchQueryFilter{
			RootEntity: root,
			Direction:  query.DirectionFrom,
			MaxLevel:   2,
		},
		DeviceTypes: []string{"valve"},
	})
	require.Len(t, got, 1)
	assert.Equal(t, valve, got[0].ID())
}

func addGroup(t *testing.T, r *TenantRepo, name string, memberType entity.Type, owner uuid.UUID, members ...entity.ID) entity.ID {
	t.Helper()
	group := entity.NewID(entity.TypeEntityGroup, uuid.New())
	addEntity(t, r, group, owner, map[string]any{
		entity.FieldName: name,
		entity.FieldType: string(memberType),
	})
	for _, m := range members {
		r.AddRelation(entity.Relation{
			From: group, To: m, Type: entity.RelationContains, Group: entity.RelationGroupFromEntity,
		})
	}
	return group
}

func TestResolveEntityGroupFilter(t *testing.T) {
	r := newTestRepo(t)
	devA := addDevice(t, r, "dev-a", 1)
	devB := addDevice(t, r, "dev-b", 2)
	addDevice(t, r, "dev-c", 3)
	group := addGroup(t, r, "my-group", entity.TypeDevice, uuid.Nil, devA, devB)

	got := r.resolveFilter(query.EntityGroupFilter{
		GroupType:   entity.TypeDevice,
		EntityGroup: group.UUID.String(),
	})
	assert.Len(t, got, 2)
	set := recordIDs(got)
	assert.True(t, set[devA.UUID])
	assert.True(t, set[devB.UUID])

	assert.Empty(t, r.resolveFilter(query.EntityGroupFilter{
		GroupType:   entity.TypeDevice,
		EntityGroup: "bogus",
	}))
}

func TestResolveEntitiesByGroupNameFilter(t *testing.T) {
	r := newTestRepo(t)
	customer := uuid.New()
	addEntity(t, r, entity.NewID(entity.TypeCustomer, customer), uuid.Nil, map[string]any{entity.FieldName: "C"})

	dev := addDevice(t, r, "dev-a", 1)
	other := addDevice(t, r, "dev-b", 2)
	addGroup(t, r, "fleet-a", entity.TypeDevice, customer, dev)
	addGroup(t, r, "fleet-b", entity.TypeDevice, uuid.New(), other)

	got := r.resolveFilter(query.EntitiesByGroupNameFilter{
		GroupType:             entity.TypeDevice,
		EntityGroupNameFilter: "fleet",
		OwnerID:               entity.NewID(entity.TypeCustomer, customer),
	})
	require.Len(t, got, 1)
	assert.Equal(t, dev, got[0].ID())

	// no owner scope takes members of every matching group
	got = r.resolveFilter(query.EntitiesByGroupNameFilter{
		GroupType:             entity.TypeDevice,
		EntityGroupNameFilter: "fleet",
	})
	assert.Len(t, got, 2)
}

func TestResolveEntityGroupNameFilter(t *testing.T) {
	r := newTestRepo(t)
	addGroup(t, r, "fleet-a", entity.TypeDevice, uuid.Nil)
	addGroup(t, r, "fleet-b", entity.TypeDevice, uuid.Nil)
	addGroup(t, r, "buildings", entity.TypeAsset, uuid.Nil)

	// the groups themselves, not their members
	got := r.resolveFilter(query.EntityGroupNameFilter{
		GroupType:             entity.TypeDevice,
		EntityGroupNameFilter: "fleet",
	})
	assert.Len(t, got, 2)
	for _, rec := range got {
		assert.Equal(t, entity.TypeEntityGroup, rec.Type())
	}
}

func TestResolveEntityGroupListFilter(t *testing.T) {
	r := newTestRepo(t)
	a := addGroup(t, r, "fleet-a", entity.TypeDevice, uuid.Nil)
	addGroup(t, r, "fleet-b", entity.TypeDevice, uuid.Nil)

	got := r.resolveFilter(query.EntityGroupListFilter{
		GroupType:       entity.TypeDevice,
		EntityGroupList: []string{a.UUID.String()},
	})
	require.Len(t, got, 1)
	assert.Equal(t, a, got[0].ID())
}

func TestResolveAPIUsageStateFilter(t *testing.T) {
	r := newTestRepo(t)
	customer := uuid.New()

	tenantState := entity.NewID(entity.TypeAPIUsageState, uuid.New())
	addEntity(t, r, tenantState, uuid.Nil, map[string]any{entity.FieldName: "tenant usage"})
	customerState := entity.NewID(entity.TypeAPIUsageState, uuid.New())
	addEntity(t, r, customerState, customer, map[string]any{entity.FieldName: "customer usage"})

	got := r.resolveFilter(query.APIUsageStateFilter{})
	require.Len(t, got, 1)
	assert.Equal(t, tenantState, got[0].ID())

	cid := entity.NewID(entity.TypeCustomer, customer)
	got = r.resolveFilter(query.APIUsageStateFilter{CustomerID: &cid})
	require.Len(t, got, 1)
	assert.Equal(t, customerState, got[0].ID())
}

func TestResolveSchedulerEventFilter(t *testing.T) {
	r := newTestRepo(t)
	device := addDevice(t, r, "dev-a", 1)

	report := entity.NewID(entity.TypeSchedulerEvent, uuid.New())
	addEntity(t, r, report, uuid.Nil, map[string]any{
		entity.FieldName:       "nightly report",
		entity.FieldType:       "generateReport",
		entity.FieldOriginator: device.UUID.String(),
	})
	rpc := entity.NewID(entity.TypeSchedulerEvent, uuid.New())
	addEntity(t, r, rpc, uuid.Nil, map[string]any{
		entity.FieldName: "reboot",
		entity.FieldType: "sendRpc",
	})

	got := r.resolveFilter(query.SchedulerEventFilter{})
	assert.Len(t, got, 2)

	got = r.resolveFilter(query.SchedulerEventFilter{EventType: "generateReport"})
	require.Len(t, got, 1)
	assert.Equal(t, report, got[0].ID())

	got = r.resolveFilter(query.SchedulerEventFilter{Originator: &device})
	require.Len(t, got, 1)
	assert.Equal(t, report, got[0].ID())

	got = r.resolveFilter(query.SchedulerEventFilter{EventType: "sendRpc", Originator: &device})
	assert.Empty(t, got)
}

func TestResolveStateEntityOwnerFilter(t *testing.T) {
	r := newTestRepo(t)
	customer := uuid.New()
	customerID := entity.NewID(entity.TypeCustomer, customer)
	addEntity(t, r, customerID, uuid.Nil, map[string]any{entity.FieldName: "C"})
	addEntity(t, r, entity.NewID(entity.TypeTenant, r.TenantID()), uuid.Nil, map[string]any{entity.FieldName: "T"})

	owned := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, owned, customer, map[string]any{entity.FieldName: "owned"})
	unowned := addDevice(t, r, "unowned", 1)

	got := r.resolveFilter(query.StateEntityOwnerFilter{SingleEntity: owned})
	require.Len(t, got, 1)
	assert.Equal(t, customerID, got[0].ID())

	got = r.resolveFilter(query.StateEntityOwnerFilter{SingleEntity: unowned})
	require.Len(t, got, 1)
	assert.Equal(t, entity.TypeTenant, got[0].Type())
}
