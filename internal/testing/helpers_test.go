// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleQuery_ReturnsNonEmptyForEveryKind(t *testing.T) {
	kinds := []QueryKind{
		PureEnglish, RomanizedHindi, NativeHindi, NativeBengali,
		CodeMixed, ProductCodeOnly, AmazonURL,
	}
	for _, k := range kinds {
		assert.NotEmpty(t, SampleQuery(k), "kind %q should have a fixture", k)
	}
}

func TestSampleQuery_UnknownKindReturnsEmpty(t *testing.T) {
	assert.Empty(t, SampleQuery(QueryKind("nonexistent")))
}

func TestSampleProduct_FieldsSet(t *testing.T) {
	p := SampleProduct("p1", "Galaxy M14", "mobile")
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Galaxy M14", p.Name)
	assert.Equal(t, "mobile", p.Category)
	assert.NotZero(t, p.Price)
}

func TestSampleEmbedding_IsNormalizedAndDeterministic(t *testing.T) {
	a := SampleEmbedding(8, 3)
	b := SampleEmbedding(8, 3)
	require.Equal(t, a, b, "same seed must produce the same vector")

	var normSq float64
	for _, v := range a {
		normSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, normSq, 0.01, "vector should be unit-normalized")
}

func TestSampleEmbedding_DifferentSeedsDiffer(t *testing.T) {
	a := SampleEmbedding(8, 1)
	b := SampleEmbedding(8, 2)
	assert.NotEqual(t, a, b)
}

func TestNewSeededResolver_ProductsAreIndexedAndSearchable(t *testing.T) {
	mem := NewSeededResolver(t, 8, 3)

	results, err := mem.Search(context.Background(), SampleEmbedding(8, 1), 3, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, "fixture-1")
}
