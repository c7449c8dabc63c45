// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"math"
	"strconv"
	"testing"

	"github.com/kraklabs/preprocess/pkg/resolver"
)

// QueryKind names one of the corpus's representative query shapes
// (spec.md §1: native script, romanized/Hinglish, code-mixed, plain
// English, and the non-text input shapes the Input Adapter handles).
type QueryKind string

const (
	PureEnglish     QueryKind = "pure_english"
	RomanizedHindi  QueryKind = "romanized_hindi"
	NativeHindi     QueryKind = "native_hindi"
	NativeBengali   QueryKind = "native_bengali"
	CodeMixed       QueryKind = "code_mixed"
	ProductCodeOnly QueryKind = "product_code"
	AmazonURL       QueryKind = "amazon_url"
)

// sampleQueries holds one representative raw input per QueryKind, reused
// across package tests so fixtures read the same way everywhere.
var sampleQueries = map[QueryKind]string{
	PureEnglish:     "best wireless headphones under 2000",
	RomanizedHindi:  "mujhe ek sasta mobile chahiye",
	NativeHindi:     "मुझे एक सस्ता मोबाइल चाहिए",
	NativeBengali:   "আমার একটি সস্তা মোবাইল দরকার",
	CodeMixed:       "mujhe ek cheap mobile phone chahiye",
	ProductCodeOnly: "SM1234",
	AmazonURL:       "https://www.amazon.in/Some-Product/dp/B08N5WRWNW/ref=sr_1_1",
}

// SampleQuery returns the fixture raw input for kind.
func SampleQuery(kind QueryKind) string {
	return sampleQueries[kind]
}

// SampleProduct builds a deterministic resolver.Product fixture keyed by
// id, suitable for seeding a resolver.MemoryResolver in pipeline and
// resolver tests.
func SampleProduct(id, name, category string) resolver.Product {
	return resolver.Product{
		ID:       id,
		Name:     name,
		Price:    999,
		Category: category,
		Brand:    "GenericBrand",
		Rating:   4.2,
	}
}

// SampleEmbedding builds a deterministic, non-zero vector of the given
// dimension. Unlike embedding.NewMockEmbeddingProvider (which hashes
// input text), this fixture lets a test pick an arbitrary seed so two
// distinct fixture products don't collide in cosine-similarity search.
func SampleEmbedding(dimension int, seed int) []float32 {
	vec := make([]float32, dimension)
	var normSq float64
	for i := range vec {
		v := math.Sin(float64(seed*31+i+1))
		vec[i] = float32(v)
		normSq += v * v
	}
	norm := float32(math.Sqrt(normSq))
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// NewSeededResolver builds a resolver.MemoryResolver pre-loaded with n
// fixture products, each with a distinct seeded embedding and no product
// code. t.Helper() keeps failures attributed
// to the caller.
func NewSeededResolver(t *testing.T, dimension int, n int) *resolver.MemoryResolver {
	t.Helper()
	mem := resolver.NewMemoryResolver()
	for i := 0; i < n; i++ {
		p := SampleProduct(
			fixtureProductID(i),
			fixtureProductName(i),
			"electronics",
		)
		mem.Index(p, SampleEmbedding(dimension, i), "")
	}
	return mem
}

func fixtureProductID(i int) string {
	return "fixture-" + strconv.Itoa(i)
}

func fixtureProductName(i int) string {
	return "Fixture Product " + strconv.Itoa(i)
}
