package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind tags the payload type of a DataPoint.
type ValueKind uint8

// Data point value kinds.
const (
	KindLong ValueKind = iota
	KindDouble
	KindString
	KindBool
)

func (k ValueKind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// DataPoint is a tagged value with a timestamp. The latest data point for a
// key replaces any older one; comparisons and projection read the value
// through the typed accessors below.
type DataPoint struct {
	ts   int64
	kind ValueKind
	l    int64
	d    float64
	s    string
	b    bool
}

// NewLong builds a long-valued data point.
func NewLong(ts, v int64) DataPoint {
	return DataPoint{ts: ts, kind: KindLong, l: v}
}

// NewDouble builds a double-valued data point.
func NewDouble(ts int64, v float64) DataPoint {
	return DataPoint{ts: ts, kind: KindDouble, d: v}
}

// NewString builds a string-valued data point.
func NewString(ts int64, v string) DataPoint {
	return DataPoint{ts: ts, kind: KindString, s: v}
}

// NewBool builds a bool-valued data point.
func NewBool(ts int64, v bool) DataPoint {
	return DataPoint{ts: ts, kind: KindBool, b: v}
}

// TS returns the data point timestamp in milliseconds.
func (p DataPoint) TS() int64 { return p.ts }

// Kind returns the payload kind.
func (p DataPoint) Kind() ValueKind { return p.kind }

// String renders the value as its canonical string form.
func (p DataPoint) String() string {
	switch p.kind {
	case KindLong:
		return strconv.FormatInt(p.l, 10)
	case KindDouble:
		return strconv.FormatFloat(p.d, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(p.b)
	default:
		return p.s
	}
}

// Double returns the value as a float64. Only long and double points are
// numeric; everything else reports false.
func (p DataPoint) Double() (float64, bool) {
	switch p.kind {
	case KindLong:
		return float64(p.l), true
	case KindDouble:
		return p.d, true
	default:
		return 0, false
	}
}

// Bool returns the boolean payload, reporting false for non-bool points.
func (p DataPoint) Bool() (bool, bool) {
	if p.kind != KindBool {
		return false, false
	}
	return p.b, true
}

// Compare orders two data points for sorting: numeric points compare
// numerically, bools order false before true, and mixed or string points
// fall back to the canonical string form.
func (p DataPoint) Compare(o DataPoint) int {
	if a, ok := p.Double(); ok {
		if b, ok := o.Double(); ok {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			default:
				return 0
			}
		}
	}
	if a, ok := p.Bool(); ok {
		if b, ok := o.Bool(); ok {
			switch {
			case a == b:
				return 0
			case b:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(p.String(), o.String())
}

// dataPointJSON is the wire form of a DataPoint.
type dataPointJSON struct {
	TS    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes the point as {"ts":..., "value":...} with the value in
// its native JSON type.
func (p DataPoint) MarshalJSON() ([]byte, error) {
	var raw []byte
	var err error
	switch p.kind {
	case KindLong:
		raw = strconv.AppendInt(nil, p.l, 10)
	case KindDouble:
		raw, err = json.Marshal(p.d)
	case KindBool:
		raw = strconv.AppendBool(nil, p.b)
	default:
		raw, err = json.Marshal(p.s)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(dataPointJSON{TS: p.ts, Value: raw})
}

// UnmarshalJSON decodes a point, inferring the kind from the JSON value:
// integers become longs, other numbers doubles, then strings and bools.
func (p *DataPoint) UnmarshalJSON(data []byte) error {
	var wire dataPointJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	dp, err := PointFromJSON(wire.TS, wire.Value)
	if err != nil {
		return err
	}
	*p = dp
	return nil
}

// PointFromJSON builds a DataPoint from a raw JSON value and a timestamp.
func PointFromJSON(ts int64, raw json.RawMessage) (DataPoint, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return DataPoint{}, fmt.Errorf("data point value missing")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return DataPoint{}, err
		}
		return NewString(ts, s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return DataPoint{}, err
		}
		return NewBool(ts, b), nil
	default:
		if !strings.ContainsAny(trimmed, ".eE") {
			if l, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
				return NewLong(ts, l), nil
			}
		}
		var d float64
		if err := json.Unmarshal(raw, &d); err != nil {
			return DataPoint{}, fmt.Errorf("unsupported data point value %q", trimmed)
		}
		return NewDouble(ts, d), nil
	}
}
