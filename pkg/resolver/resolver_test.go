// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResolver_ImplementsInterfaces(t *testing.T) {
	var _ VectorIndex = (*MemoryResolver)(nil)
	var _ ProductResolver = (*MemoryResolver)(nil)
}

func TestMemoryResolver_SearchRanksByCosineSimilarity(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "p1", Name: "Wireless Headphones", Category: "electronics", Price: 2999}, []float32{1, 0, 0}, "")
	m.Index(Product{ID: "p2", Name: "USB Cable", Category: "electronics", Price: 199}, []float32{0, 1, 0}, "")

	results, err := m.Search(context.Background(), []float32{1, 0, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "p1", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestMemoryResolver_SearchRespectsCategoryFilter(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "p1", Category: "electronics", Price: 2999}, []float32{1, 0}, "")
	m.Index(Product{ID: "p2", Category: "luggage", Price: 3299}, []float32{1, 0}, "")

	cat := "luggage"
	results, err := m.Search(context.Background(), []float32{1, 0}, 10, &Filter{CategoryEq: &cat})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p2", results[0].ID)
}

func TestMemoryResolver_SearchRespectsPriceFilter(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "cheap", Price: 1000}, []float32{1, 0}, "")
	m.Index(Product{ID: "expensive", Price: 9000}, []float32{1, 0}, "")

	max := 5000.0
	results, err := m.Search(context.Background(), []float32{1, 0}, 10, &Filter{PriceLTE: &max})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cheap", results[0].ID)
}

func TestMemoryResolver_SearchTopK(t *testing.T) {
	m := NewMemoryResolver()
	for i := 0; i < 5; i++ {
		m.Index(Product{ID: string(rune('a' + i))}, []float32{1, 0}, "")
	}
	results, err := m.Search(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryResolver_Resolve(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "p1", Name: "Suitcase"}, []float32{1}, "")

	products, err := m.Resolve(context.Background(), []string{"p1", "missing"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Suitcase", products[0].Name)
}

func TestMemoryResolver_GetByCode(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "p1", Name: "iPhone 12 128GB"}, []float32{1}, "IPHONE12-128")

	p, err := m.GetByCode(context.Background(), "IPHONE12-128")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "iPhone 12 128GB", p.Name)

	none, err := m.GetByCode(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemoryResolver_SearchDimensionMismatchErrors(t *testing.T) {
	m := NewMemoryResolver()
	m.Index(Product{ID: "p1"}, []float32{1, 0, 0}, "")

	_, err := m.Search(context.Background(), []float32{1, 0}, 10, nil)
	assert.Error(t, err)
}
