// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_AddGet(t *testing.T) {
	c := NewLRU[string, int](2)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Add("a", 1)
	c.Add("b", 2)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// "a" was just touched, so "b" is the least-recently-used entry and
	// should be evicted when a third key is added.
	c.Add("c", 3)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRU_Purge(t *testing.T) {
	c := NewLRU[string, int](4)
	c.Add("a", 1)
	c.Add("b", 2)
	require.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestFIFO_EvictsByInsertionOrderNotPopularity(t *testing.T) {
	f := NewFIFO[string, int](2)
	f.Add("a", 1)
	f.Add("b", 2)

	// Repeatedly reading "a" must not protect it from eviction: FIFO order
	// depends only on insertion order, never on access frequency.
	for i := 0; i < 5; i++ {
		_, ok := f.Get("a")
		require.True(t, ok)
	}

	f.Add("c", 3)
	assert.Equal(t, 2, f.Len())
	_, ok := f.Get("a")
	assert.False(t, ok, "FIFO must evict the oldest entry regardless of recent reads")
	_, ok = f.Get("c")
	assert.True(t, ok)
}

func TestFIFO_Purge(t *testing.T) {
	f := NewFIFO[string, int](4)
	f.Add("a", 1)
	f.Purge()
	assert.Equal(t, 0, f.Len())
}
