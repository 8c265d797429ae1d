package repo

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/edqs/entity"
	"github.com/c360/edqs/permission"
	"github.com/c360/edqs/query"
)

func newTestRepo(t *testing.T) *TenantRepo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newTenantRepo(uuid.New(), entity.NewDictionary(), NoopStats{}, logger)
}

func rawFields(pairs map[string]any) map[string]json.RawMessage {
	fields := make(map[string]json.RawMessage, len(pairs))
	for k, v := range pairs {
		b, _ := json.Marshal(v)
		fields[k] = b
	}
	return fields
}

func addEntity(t *testing.T, r *TenantRepo, id entity.ID, customer uuid.UUID, fields map[string]any) {
	t.Helper()
	require.NoError(t, r.AddOrUpdateEntity(entity.Entity{
		ID:         id,
		CustomerID: customer,
		Fields:     rawFields(fields),
	}))
}

func addDevice(t *testing.T, r *TenantRepo, name string, createdTime int64) entity.ID {
	t.Helper()
	id := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, id, uuid.Nil, map[string]any{
		entity.FieldName:        name,
		entity.FieldCreatedTime: createdTime,
	})
	return id
}

func deviceQuery(fields ...string) query.DataQuery {
	keys := make([]query.Key, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, query.Key{Type: entity.KeyEntityField, Key: f})
	}
	return query.DataQuery{
		Filter:       query.EntityTypeFilter{EntityType: entity.TypeDevice},
		EntityFields: keys,
		PageLink:     query.PageLink{PageSize: 10},
	}
}

func TestAddOrUpdateEntityIdempotent(t *testing.T) {
	r := newTestRepo(t)
	id := entity.NewID(entity.TypeDevice, uuid.New())

	addEntity(t, r, id, uuid.Nil, map[string]any{entity.FieldName: "LoRa-1"})
	addEntity(t, r, id, uuid.Nil, map[string]any{entity.FieldName: "LoRa-1"})

	count, err := r.CountEntitiesByQuery(uuid.Nil, nil,
		query.CountQuery{Filter: query.EntityTypeFilter{EntityType: entity.TypeDevice}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFindEntityDataByQuery(t *testing.T) {
	r := newTestRepo(t)
	addDevice(t, r, "LoRa-1", 42)
	addDevice(t, r, "other", 43)

	q := deviceQuery(entity.FieldName, entity.FieldCreatedTime)
	q.KeyFilters = []query.KeyFilter{{
		Key:       query.Key{Type: entity.KeyEntityField, Key: entity.FieldName},
		ValueType: query.ValueString,
		Predicate: query.StringPredicate{Operation: query.StringEqual, Value: "LoRa-1"},
	}}
	q.PageLink.SortOrder = &query.SortOrder{
		Key:       query.Key{Type: entity.KeyEntityField, Key: entity.FieldCreatedTime},
		Direction: query.SortDesc,
	}

	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, 1, page.TotalElements)
	assert.False(t, page.HasNext)

	row := page.Data[0]
	assert.Equal(t, entity.TypeDevice, row.EntityID.Type)
	fields := row.Latest[entity.KeyEntityField]
	assert.Equal(t, "LoRa-1", fields[entity.FieldName].Value)
	assert.Equal(t, "42", fields[entity.FieldCreatedTime].Value)
}

func TestFindNilFilter(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.FindEntityDataByQuery(uuid.Nil, nil, query.DataQuery{}, false)
	assert.Error(t, err)

	_, err = r.CountEntitiesByQuery(uuid.Nil, nil, query.CountQuery{}, false)
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	r := newTestRepo(t)
	for i := 0; i < 25; i++ {
		addDevice(t, r, fmt.Sprintf("dev-%02d", i), int64(i))
	}

	q := deviceQuery(entity.FieldName)

	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalElements)
	assert.True(t, page.HasNext)

	q.PageLink.Page = 2
	page, err = r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	assert.Len(t, page.Data, 5)
	assert.False(t, page.HasNext)

	// offset beyond the result set keeps the totals
	q.PageLink.Page = 5
	page, err = r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 25, page.TotalElements)
	assert.False(t, page.HasNext)

	// negative page is clamped to the first page
	q.PageLink.Page = -1
	page, err = r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, 25, page.TotalElements)
	assert.True(t, page.HasNext)
}

func TestDefaultSortCreatedTimeDescending(t *testing.T) {
	r := newTestRepo(t)
	addDevice(t, r, "oldest", 1)
	addDevice(t, r, "middle", 2)
	addDevice(t, r, "newest", 3)

	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, deviceQuery(entity.FieldName), false)
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "newest", page.Data[0].Latest[entity.KeyEntityField][entity.FieldName].Value)
	assert.Equal(t, "oldest", page.Data[2].Latest[entity.KeyEntityField][entity.FieldName].Value)
}

func TestSortAscendingWithAbsentValuesFirst(t *testing.T) {
	r := newTestRepo(t)
	addEntity(t, r, entity.NewID(entity.TypeDevice, uuid.New()), uuid.Nil, map[string]any{
		entity.FieldName: "with-label-b", entity.FieldLabel: "bbb",
	})
	addEntity(t, r, entity.NewID(entity.TypeDevice, uuid.New()), uuid.Nil, map[string]any{
		entity.FieldName: "with-label-a", entity.FieldLabel: "aaa",
	})
	addEntity(t, r, entity.NewID(entity.TypeDevice, uuid.New()), uuid.Nil, map[string]any{
		entity.FieldName: "no-label",
	})

	q := deviceQuery(entity.FieldName)
	q.PageLink.SortOrder = &query.SortOrder{
		Key:       query.Key{Type: entity.KeyEntityField, Key: entity.FieldLabel},
		Direction: query.SortAsc,
	}
	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 3)
	assert.Equal(t, "no-label", page.Data[0].Latest[entity.KeyEntityField][entity.FieldName].Value)
	assert.Equal(t, "with-label-a", page.Data[1].Latest[entity.KeyEntityField][entity.FieldName].Value)
	assert.Equal(t, "with-label-b", page.Data[2].Latest[entity.KeyEntityField][entity.FieldName].Value)
}

func TestTextSearch(t *testing.T) {
	r := newTestRepo(t)
	addDevice(t, r, "LoRa-1", 1)
	addDevice(t, r, "Sensor-5", 2)

	q := deviceQuery(entity.FieldName)
	q.PageLink.TextSearch = "lora"

	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "LoRa-1", page.Data[0].Latest[entity.KeyEntityField][entity.FieldName].Value)
}

func TestLatestValuesProjection(t *testing.T) {
	r := newTestRepo(t)
	id := addDevice(t, r, "LoRa-1", 1)

	require.NoError(t, r.AddOrUpdateLatest(entity.LatestTsKv{
		EntityID: id, Key: "temperature", TS: 1000, Value: json.RawMessage("22.5"),
	}))
	require.NoError(t, r.AddOrUpdateAttribute(entity.AttributeKv{
		EntityID: id, Scope: entity.ScopeServer, Key: "active", TS: 2000, Value: json.RawMessage("true"),
	}))

	q := deviceQuery(entity.FieldName)
	q.LatestValues = []query.Key{
		{Type: entity.KeyTimeSeries, Key: "temperature"},
		{Type: entity.KeyServerAttribute, Key: "active"},
	}

	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)

	ts := page.Data[0].Latest[entity.KeyTimeSeries]["temperature"]
	assert.Equal(t, int64(1000), ts.TS)
	assert.Equal(t, "22.5", ts.Value)

	attr := page.Data[0].Latest[entity.KeyServerAttribute]["active"]
	assert.Equal(t, int64(2000), attr.TS)
	assert.Equal(t, "true", attr.Value)
}

func TestLatestKeepsNewerTimestamp(t *testing.T) {
	r := newTestRepo(t)
	id := addDevice(t, r, "LoRa-1", 1)

	require.NoError(t, r.AddOrUpdateLatest(entity.LatestTsKv{
		EntityID: id, Key: "temperature", TS: 2000, Value: json.RawMessage("25"),
	}))
	// stale replay must not overwrite
	require.NoError(t, r.AddOrUpdateLatest(entity.LatestTsKv{
		EntityID: id, Key: "temperature", TS: 1000, Value: json.RawMessage("20"),
	}))

	q := deviceQuery()
	q.LatestValues = []query.Key{{Type: entity.KeyTimeSeries, Key: "temperature"}}
	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "25", page.Data[0].Latest[entity.KeyTimeSeries]["temperature"].Value)
}

func TestRemoveEntity(t *testing.T) {
	r := newTestRepo(t)
	id := addDevice(t, r, "LoRa-1", 1)
	other := addDevice(t, r, "LoRa-2", 2)
	r.AddRelation(entity.Relation{From: id, To: other, Type: entity.RelationContains})

	assert.True(t, r.RemoveEntity(id))
	assert.False(t, r.RemoveEntity(id))

	count, err := r.CountEntitiesByQuery(uuid.Nil, nil,
		query.CountQuery{Filter: query.EntityTypeFilter{EntityType: entity.TypeDevice}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Empty(t, r.commonRelations().to(other.UUID))
}

func TestRemoveAttributeAndLatest(t *testing.T) {
	r := newTestRepo(t)
	id := addDevice(t, r, "LoRa-1", 1)

	require.NoError(t, r.AddOrUpdateLatest(entity.LatestTsKv{
		EntityID: id, Key: "temperature", TS: 1000, Value: json.RawMessage("22.5"),
	}))
	require.NoError(t, r.AddOrUpdateAttribute(entity.AttributeKv{
		EntityID: id, Scope: entity.ScopeShared, Key: "mode", TS: 1000, Value: json.RawMessage(`"eco"`),
	}))

	assert.True(t, r.RemoveLatest(id, "temperature"))
	assert.False(t, r.RemoveLatest(id, "temperature"))
	assert.False(t, r.RemoveLatest(id, "never-seen"))

	assert.True(t, r.RemoveAttribute(id, entity.ScopeShared, "mode"))
	assert.False(t, r.RemoveAttribute(id, entity.ScopeShared, "mode"))
}

func TestCustomerScoping(t *testing.T) {
	r := newTestRepo(t)
	customerA := uuid.New()
	customerB := uuid.New()
	addEntity(t, r, entity.NewID(entity.TypeCustomer, customerA), uuid.Nil, map[string]any{entity.FieldName: "A"})
	addEntity(t, r, entity.NewID(entity.TypeCustomer, customerB), uuid.Nil, map[string]any{entity.FieldName: "B"})

	devA := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, devA, customerA, map[string]any{entity.FieldName: "dev-a"})
	devB := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, devB, customerB, map[string]any{entity.FieldName: "dev-b"})

	perms := &permission.MergedUserPermissions{
		Generic: map[permission.Resource]permission.OperationSet{
			permission.ResourceAll: permission.NewOperationSet(permission.OpRead),
		},
	}

	q := deviceQuery(entity.FieldName)
	page, err := r.FindEntityDataByQuery(customerA, perms, q, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, devA, page.Data[0].EntityID)

	// tenant-level caller sees both
	page, err = r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
}

func TestCustomerHierarchyScoping(t *testing.T) {
	r := newTestRepo(t)
	parent := uuid.New()
	child := uuid.New()
	addEntity(t, r, entity.NewID(entity.TypeCustomer, parent), uuid.Nil, map[string]any{entity.FieldName: "parent"})
	addEntity(t, r, entity.NewID(entity.TypeCustomer, child), parent, map[string]any{entity.FieldName: "child"})

	dev := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, dev, child, map[string]any{entity.FieldName: "sub-device"})

	perms := &permission.MergedUserPermissions{
		Generic: map[permission.Resource]permission.OperationSet{
			permission.ResourceDevice: permission.NewOperationSet(permission.OpRead),
		},
	}

	// the parent customer sees devices of its sub-customer
	page, err := r.FindEntityDataByQuery(parent, perms, deviceQuery(entity.FieldName), false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, dev, page.Data[0].EntityID)

	// without a read grant nothing is visible
	page, err = r.FindEntityDataByQuery(parent, &permission.MergedUserPermissions{}, deviceQuery(entity.FieldName), false)
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	// ignorePermissionCheck keeps ownership scoping only
	page, err = r.FindEntityDataByQuery(parent, &permission.MergedUserPermissions{}, deviceQuery(entity.FieldName), true)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
}

func TestGroupPermissionCrossesHierarchy(t *testing.T) {
	r := newTestRepo(t)
	customerA := uuid.New()
	customerB := uuid.New()
	addEntity(t, r, entity.NewID(entity.TypeCustomer, customerA), uuid.Nil, map[string]any{entity.FieldName: "A"})
	addEntity(t, r, entity.NewID(entity.TypeCustomer, customerB), uuid.Nil, map[string]any{entity.FieldName: "B"})

	// device owned by B, shared with A through a group grant
	dev := entity.NewID(entity.TypeDevice, uuid.New())
	addEntity(t, r, dev, customerB, map[string]any{entity.FieldName: "shared"})

	group := entity.NewID(entity.TypeEntityGroup, uuid.New())
	addEntity(t, r, group, customerB, map[string]any{
		entity.FieldName: "shared-group",
		entity.FieldType: string(entity.TypeDevice),
	})
	r.AddRelation(entity.Relation{
		From: group, To: dev, Type: entity.RelationContains, Group: entity.RelationGroupFromEntity,
	})

	perms := &permission.MergedUserPermissions{
		Groups: map[uuid.UUID]permission.GroupPermissions{
			group.UUID: {
				EntityType: entity.TypeDevice,
				Operations: permission.NewOperationSet(permission.OpRead),
			},
		},
	}

	page, err := r.FindEntityDataByQuery(customerA, perms, deviceQuery(entity.FieldName), false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, dev, page.Data[0].EntityID)
}

func TestCountMatchesFind(t *testing.T) {
	r := newTestRepo(t)
	for i := 0; i < 7; i++ {
		addDevice(t, r, fmt.Sprintf("dev-%d", i), int64(i))
	}

	filter := query.EntityTypeFilter{EntityType: entity.TypeDevice}
	keyFilters := []query.KeyFilter{{
		Key:       query.Key{Type: entity.KeyEntityField, Key: entity.FieldCreatedTime},
		ValueType: query.ValueNumeric,
		Predicate: query.NumericPredicate{Operation: query.NumericGreaterOrEqual, Value: 3},
	}}

	q := query.DataQuery{Filter: filter, KeyFilters: keyFilters, PageLink: query.PageLink{PageSize: 100}}
	page, err := r.FindEntityDataByQuery(uuid.Nil, nil, q, false)
	require.NoError(t, err)

	count, err := r.CountEntitiesByQuery(uuid.Nil, nil, query.CountQuery{Filter: filter, KeyFilters: keyFilters}, false)
	require.NoError(t, err)
	assert.Equal(t, len(page.Data), count)
	assert.Equal(t, 4, count)
}

func TestClear(t *testing.T) {
	r := newTestRepo(t)
	a := addDevice(t, r, "LoRa-1", 1)
	b := addDevice(t, r, "LoRa-2", 2)
	r.AddRelation(entity.Relation{From: a, To: b, Type: entity.RelationContains})

	r.Clear()

	count, err := r.CountEntitiesByQuery(uuid.Nil, nil,
		query.CountQuery{Filter: query.EntityTypeFilter{EntityType: entity.TypeDevice}}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, r.commonRelations().from(a.UUID))
}
