package permission

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/c360/edqs/entity"
)

func TestOperationSetAllows(t *testing.T) {
	s := NewOperationSet(OpRead, OpWrite)
	assert.True(t, s.Allows(OpRead))
	assert.True(t, s.Allows(OpWrite))
	assert.False(t, s.Allows(OpDelete))

	all := NewOperationSet(OpAll)
	assert.True(t, all.Allows(OpRead))
	assert.True(t, all.Allows(OpDelete))

	var nilSet OperationSet
	assert.False(t, nilSet.Allows(OpRead))
}

func TestHasGenericRead(t *testing.T) {
	perms := &MergedUserPermissions{
		Generic: map[Resource]OperationSet{
			ResourceDevice: NewOperationSet(OpRead),
			ResourceAsset:  NewOperationSet(OpWrite),
		},
	}
	assert.True(t, perms.HasGenericRead(entity.TypeDevice))
	assert.False(t, perms.HasGenericRead(entity.TypeAsset))
	assert.False(t, perms.HasGenericRead(entity.TypeCustomer))

	// the ALL resource covers every mapped type
	perms.Generic[ResourceAll] = NewOperationSet(OpAll)
	assert.True(t, perms.HasGenericRead(entity.TypeAsset))
	assert.True(t, perms.HasGenericRead(entity.TypeCustomer))

	var nilPerms *MergedUserPermissions
	assert.False(t, nilPerms.HasGenericRead(entity.TypeDevice))
}

func TestGroupReadGrants(t *testing.T) {
	deviceGroup := uuid.New()
	assetGroup := uuid.New()
	writeOnly := uuid.New()

	perms := &MergedUserPermissions{
		Groups: map[uuid.UUID]GroupPermissions{
			deviceGroup: {EntityType: entity.TypeDevice, Operations: NewOperationSet(OpRead)},
			assetGroup:  {EntityType: entity.TypeAsset, Operations: NewOperationSet(OpAll)},
			writeOnly:   {EntityType: entity.TypeDevice, Operations: NewOperationSet(OpWrite)},
		},
	}

	got := perms.GroupReadGrants(entity.TypeDevice)
	assert.Equal(t, []uuid.UUID{deviceGroup}, got)

	got = perms.GroupReadGrants(entity.TypeAsset)
	assert.Equal(t, []uuid.UUID{assetGroup}, got)

	assert.Nil(t, perms.GroupReadGrants(entity.TypeEdge))

	var nilPerms *MergedUserPermissions
	assert.Nil(t, nilPerms.GroupReadGrants(entity.TypeDevice))
}

func TestResourceForEntityType(t *testing.T) {
	res, ok := ResourceForEntityType(entity.TypeDevice)
	assert.True(t, ok)
	assert.Equal(t, ResourceDevice, res)

	_, ok = ResourceForEntityType(entity.TypeTenant)
	assert.False(t, ok)
}
