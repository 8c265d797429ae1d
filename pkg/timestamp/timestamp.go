// Package timestamp provides Unix millisecond timestamp utilities.
//
// Entity timestamps (created time, attribute and latest value timestamps)
// are carried as int64 milliseconds since the Unix epoch. A value of 0 means
// "not set".
package timestamp

import (
	"strconv"
	"time"
)

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Parse converts loosely typed timestamp input to Unix milliseconds.
// Numeric input above 1e12 is treated as milliseconds, below as seconds.
// Strings are tried as RFC3339, then as numeric. Returns 0 for anything
// unparseable.
func Parse(input any) int64 {
	switch v := input.(type) {
	case int64:
		if v == 0 {
			return 0
		}
		if v > 1e12 {
			return v
		}
		return v * 1000
	case float64:
		if v == 0 {
			return 0
		}
		if v > 1e12 {
			return int64(v)
		}
		return int64(v * 1000)
	case int:
		return Parse(int64(v))
	case string:
		if v == "" {
			return 0
		}
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.UnixMilli()
		}
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return Parse(ts)
		}
		if ts, err := strconv.ParseFloat(v, 64); err == nil {
			return Parse(ts)
		}
		return 0
	case time.Time:
		if v.IsZero() {
			return 0
		}
		return v.UnixMilli()
	default:
		return 0
	}
}
