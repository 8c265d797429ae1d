package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMaterialization(t *testing.T) {
	rec := NewRecord(NewID(TypeDevice, uuid.New()))
	assert.False(t, rec.HasFields())

	// an empty snapshot still materializes the record
	rec.SetFields(nil)
	assert.True(t, rec.HasFields())

	rec.SetFields(map[string]DataPoint{FieldName: NewString(0, "LoRa-1")})
	dp, ok := rec.Field(FieldName)
	require.True(t, ok)
	assert.Equal(t, "LoRa-1", dp.String())
	_, ok = rec.Field(FieldLabel)
	assert.False(t, ok)
}

func TestRecordTimeseriesReplay(t *testing.T) {
	rec := NewRecord(NewID(TypeDevice, uuid.New()))

	assert.True(t, rec.PutTimeseries(1, NewDouble(2000, 25)))
	// stale point is dropped, key is not new
	assert.False(t, rec.PutTimeseries(1, NewDouble(1000, 20)))
	dp, ok := rec.DataPoint(DataKey{Type: KeyTimeSeries, KeyID: 1})
	require.True(t, ok)
	assert.Equal(t, "25", dp.String())

	// equal timestamp wins, last writer applies
	assert.False(t, rec.PutTimeseries(1, NewDouble(2000, 26)))
	dp, _ = rec.DataPoint(DataKey{Type: KeyTimeSeries, KeyID: 1})
	assert.Equal(t, "26", dp.String())

	assert.True(t, rec.RemoveTimeseries(1))
	assert.False(t, rec.RemoveTimeseries(1))
}

func TestRecordAttributeScopes(t *testing.T) {
	rec := NewRecord(NewID(TypeDevice, uuid.New()))
	rec.PutAttribute(ScopeServer, 5, NewString(100, "server"))
	rec.PutAttribute(ScopeShared, 5, NewString(100, "shared"))

	dp, ok := rec.DataPoint(DataKey{Type: KeyServerAttribute, KeyID: 5})
	require.True(t, ok)
	assert.Equal(t, "server", dp.String())

	// the generic attribute key checks client, shared, server in order
	dp, ok = rec.DataPoint(DataKey{Type: KeyAttribute, KeyID: 5})
	require.True(t, ok)
	assert.Equal(t, "shared", dp.String())

	rec.PutAttribute(ScopeClient, 5, NewString(100, "client"))
	dp, _ = rec.DataPoint(DataKey{Type: KeyAttribute, KeyID: 5})
	assert.Equal(t, "client", dp.String())

	_, ok = rec.DataPoint(DataKey{Type: KeyClientAttribute, KeyID: 99})
	assert.False(t, ok)

	assert.True(t, rec.RemoveAttribute(ScopeShared, 5))
	assert.False(t, rec.RemoveAttribute(ScopeShared, 5))
}

func TestRecordDataPointDispatch(t *testing.T) {
	rec := NewRecord(NewID(TypeDevice, uuid.New()))
	rec.SetFields(map[string]DataPoint{FieldName: NewString(0, "LoRa-1")})
	rec.PutTimeseries(1, NewDouble(100, 22.5))

	dp, ok := rec.DataPoint(DataKey{Type: KeyEntityField, Name: FieldName})
	require.True(t, ok)
	assert.Equal(t, "LoRa-1", dp.String())

	dp, ok = rec.DataPoint(DataKey{Type: KeyTimeSeries, KeyID: 1})
	require.True(t, ok)
	assert.Equal(t, "22.5", dp.String())

	_, ok = rec.DataPoint(DataKey{Type: "BOGUS", KeyID: 1})
	assert.False(t, ok)
}
