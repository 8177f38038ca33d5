// Package cache implements the memoization layer: a bounded LRU memo with a
// pluggable loader, the per-dataset column caches built on it, and a query
// cache that allows at most one computation per key at a time.
//
// Caches are explicitly constructed values with no package-level state.
package cache

import (
	"github.com/grailbio/base/log"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Memo is a bounded least-recently-used cache in front of a loader.  On a miss
// Get calls the loader synchronously and stores a successful result; errors
// are returned but not stored.  Memo is safe for concurrent use.  Concurrent
// misses on one key may each call the loader; use QueryCache when that
// matters.
type Memo[K comparable, V any] struct {
	load  func(K) (V, error)
	cache *lru.Cache[K, V]
}

// NewMemo returns a Memo holding at most capacity entries (at least 1).
func NewMemo[K comparable, V any](capacity int, load func(K) (V, error)) *Memo[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	c, err := lru.New[K, V](capacity)
	if err != nil {
		log.Panicf("cache.NewMemo: %v", err)
	}
	return &Memo[K, V]{load: load, cache: c}
}

// Get returns the value for k, loading it on a miss.
func (m *Memo[K, V]) Get(k K) (V, error) {
	if v, ok := m.cache.Get(k); ok {
		return v, nil
	}
	v, err := m.load(k)
	if err != nil {
		return v, err
	}
	m.cache.Add(k, v)
	return v, nil
}

// Lookup returns the cached value for k without loading it.
func (m *Memo[K, V]) Lookup(k K) (V, bool) {
	return m.cache.Get(k)
}

// Len returns the number of cached entries.
func (m *Memo[K, V]) Len() int { return m.cache.Len() }

// Clear drops every entry.
func (m *Memo[K, V]) Clear() { m.cache.Purge() }
