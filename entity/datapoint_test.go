package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataPointString(t *testing.T) {
	assert.Equal(t, "42", NewLong(0, 42).String())
	assert.Equal(t, "22.5", NewDouble(0, 22.5).String())
	assert.Equal(t, "22", NewDouble(0, 22).String())
	assert.Equal(t, "true", NewBool(0, true).String())
	assert.Equal(t, "hello", NewString(0, "hello").String())
}

func TestDataPointDouble(t *testing.T) {
	v, ok := NewLong(0, 42).Double()
	require.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = NewDouble(0, 22.5).Double()
	require.True(t, ok)
	assert.Equal(t, 22.5, v)

	_, ok = NewString(0, "42").Double()
	assert.False(t, ok)
	_, ok = NewBool(0, true).Double()
	assert.False(t, ok)
}

func TestDataPointCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b DataPoint
		want int
	}{
		{"long order", NewLong(0, 1), NewLong(0, 2), -1},
		{"long equal", NewLong(0, 5), NewLong(0, 5), 0},
		{"mixed numeric", NewLong(0, 3), NewDouble(0, 2.5), 1},
		{"bool false before true", NewBool(0, false), NewBool(0, true), -1},
		{"string order", NewString(0, "a"), NewString(0, "b"), -1},
		{"numeric vs string falls back to strings", NewLong(0, 9), NewString(0, "10"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestDataPointJSONRoundTrip(t *testing.T) {
	points := []DataPoint{
		NewLong(100, 42),
		NewDouble(200, 22.5),
		NewString(300, "hello"),
		NewBool(400, true),
	}
	for _, p := range points {
		data, err := json.Marshal(p)
		require.NoError(t, err)
		var got DataPoint
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, p, got)
	}
}

func TestPointFromJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want DataPoint
	}{
		{"integer", "42", NewLong(7, 42)},
		{"decimal", "22.5", NewDouble(7, 22.5)},
		{"exponent", "1e3", NewDouble(7, 1000)},
		{"string", `"hello"`, NewString(7, "hello")},
		{"bool", "true", NewBool(7, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PointFromJSON(7, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := PointFromJSON(7, json.RawMessage("null"))
	assert.Error(t, err)
	_, err = PointFromJSON(7, json.RawMessage("{}"))
	assert.Error(t, err)
}
