// Package cache provides a generic, thread-safe LRU cache.
//
// The cache is parameterized by value type and keeps always-on statistics
// (hits, misses, evictions) via atomic counters. It is used to memoize
// derived values that are expensive to recompute, such as compiled match
// patterns in the query layer.
package cache

import (
	"sync/atomic"

	"github.com/c360/edqs/errors"
)

// Cache is a generic key/value cache with string keys.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the zero value and false on a miss.
	Get(key string) (V, bool)

	// Set stores a value under key. Returns true if a new entry was created,
	// false if an existing one was updated.
	Set(key string, value V) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed.
	Delete(key string) (bool, error)

	// Clear removes all entries.
	Clear()

	// Size returns the current number of entries.
	Size() int

	// Stats returns the cache statistics tracker.
	Stats() *Statistics
}

// Statistics tracks cache effectiveness with atomic counters.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

func (s *Statistics) hit()   { s.hits.Add(1) }
func (s *Statistics) miss()  { s.misses.Add(1) }
func (s *Statistics) evict() { s.evictions.Add(1) }

// Hits returns the total number of cache hits.
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the total number of cache misses.
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Evictions returns the total number of evictions.
func (s *Statistics) Evictions() int64 { return s.evictions.Load() }

// HitRatio returns the hit ratio in the range 0.0 to 1.0.
func (s *Statistics) HitRatio() float64 {
	hits := s.Hits()
	total := hits + s.Misses()
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
