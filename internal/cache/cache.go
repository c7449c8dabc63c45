// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package cache provides the bounded, process-wide caches used at every
// stage of the preprocessing pipeline. Every cache here is observational
// only: it changes latency, never the semantics of a result (spec
// invariant: clearing a cache never changes a field of query_info).
//
// Two eviction policies are needed across the pipeline's data model: LRU
// (spell correction, tokenization, script tagging, language/romanized
// detection, transliteration, embedding) and FIFO (the product scrape
// cache, which must not be skewed by re-fetch popularity). Both wrap
// hashicorp/golang-lru/v2, the library the rest of this example pack
// reaches for whenever it needs bounded in-memory caching.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a thread-safe, fixed-capacity least-recently-used cache.
//
// It is a thin wrapper over hashicorp/golang-lru/v2 so every pipeline
// stage shares one construction and instrumentation path instead of each
// stage reaching for the library directly.
type LRU[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// NewLRU creates an LRU cache with the given capacity. Capacity must be
// positive; it always is in this codebase since every call site passes a
// literal size from spec.md's Data Model section.
func NewLRU[K comparable, V any](size int) *LRU[K, V] {
	c, err := lru.New[K, V](size)
	if err != nil {
		// Only returns an error for size <= 0, which is a programmer error:
		// every call site in this repository passes a fixed positive literal.
		panic(err)
	}
	return &LRU[K, V]{inner: c}
}

// Get returns the cached value for key and whether it was present. A hit
// promotes the entry to most-recently-used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	return c.inner.Get(key)
}

// Add inserts or updates the value for key, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *LRU[K, V]) Add(key K, value V) {
	c.inner.Add(key, value)
}

// Len returns the number of entries currently cached.
func (c *LRU[K, V]) Len() int {
	return c.inner.Len()
}

// Purge removes every entry. Used by tests asserting the
// caches-are-observational-only invariant (spec.md §8 property 9).
func (c *LRU[K, V]) Purge() {
	c.inner.Purge()
}

// FIFO is a thread-safe, fixed-capacity first-in-first-out cache.
//
// Unlike LRU, a Get never promotes an entry: eviction order depends only
// on the order of Add calls. This matches the product scrape cache's requirement
// (spec.md §3) that popular products not be kept indefinitely just because
// they are looked up often — a scraped product's cached text can go stale,
// so FIFO bounds staleness by age rather than by popularity.
//
// golang-lru/v2 does not ship a FIFO policy directly; this wraps its plain
// LRU but never calls the promoting Get, using Peek (which does not
// reorder) for reads instead.
type FIFO[K comparable, V any] struct {
	inner *lru.Cache[K, V]
}

// NewFIFO creates a FIFO cache with the given capacity.
func NewFIFO[K comparable, V any](size int) *FIFO[K, V] {
	c, err := lru.New[K, V](size)
	if err != nil {
		panic(err)
	}
	return &FIFO[K, V]{inner: c}
}

// Get returns the cached value for key and whether it was present, without
// affecting eviction order.
func (c *FIFO[K, V]) Get(key K) (V, bool) {
	return c.inner.Peek(key)
}

// Add inserts the value for key. Re-adding an existing key updates its
// value through lru.Cache.Add, which also moves the key to the newest
// position, so that key is then evicted as if it had just been inserted.
func (c *FIFO[K, V]) Add(key K, value V) {
	if c.inner.Contains(key) {
		// lru.Cache.Add overwrites the value and promotes the key;
		// golang-lru/v2 has no in-place update that keeps the order.
		c.inner.Add(key, value)
		return
	}
	c.inner.Add(key, value)
}

// Len returns the number of entries currently cached.
func (c *FIFO[K, V]) Len() int {
	return c.inner.Len()
}

// Purge removes every entry.
func (c *FIFO[K, V]) Purge() {
	c.inner.Purge()
}
