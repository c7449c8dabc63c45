// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package resolver defines the interface contracts for the two external
// collaborators consumed at the tail of the pipeline: the vector-index
// backend (approximate nearest-neighbor search) and the product resolver
// (spec.md §6.3, §6.4). Both backends are explicitly out of scope for
// this core; only their contracts, and a deterministic in-memory
// reference implementation for tests, live here.
//
// This mirrors the shape of the teacher's old storage.Backend interface
// (Query/Execute/Close) generalized to this domain's actual operations:
// vector search with an optional filter, and resolve-by-id /
// resolve-by-code.
package resolver

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Product is opaque to the pipeline core beyond the fields it displays or
// filters on (spec.md §3: "SearchResult and Product: opaque to this spec").
type Product struct {
	ID       string
	Name     string
	Price    float64
	Category string
	Brand    string
	Rating   float64
	Metadata map[string]string
}

// SearchResult is one hit returned by the vector index, carrying the
// opaque product id, its similarity score, and whatever metadata the
// index attaches.
type SearchResult struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Filter expresses the at-most two filter shapes this core ever emits
// (spec.md §4.7, §6.3): an equality filter on category, and a
// less-than-or-equal filter on price. Either may be nil.
type Filter struct {
	CategoryEq *string
	PriceLTE   *float64
}

// VectorIndex is the consumed contract for the external approximate
// nearest-neighbor service (spec.md §6.3). Implementations are expected to
// be network-backed; this package never implements the actual ANN search
// algorithm.
type VectorIndex interface {
	// Search returns up to topK results for embedding, narrowed by filter
	// if non-nil.
	Search(ctx context.Context, embedding []float32, topK int, filter *Filter) ([]SearchResult, error)
}

// ProductResolver is the consumed contract for the catalog's product
// resolver (spec.md §6.4).
type ProductResolver interface {
	// Resolve turns a set of opaque product ids into Product records, in
	// the same relative order as the ids that were found.
	Resolve(ctx context.Context, ids []string) ([]Product, error)

	// GetByCode looks up a single product by an exact product/model code
	// (used by the orchestrator's early-exit path, spec.md §4.10 step 7).
	// Returns (nil, nil) when no product matches.
	GetByCode(ctx context.Context, code string) (*Product, error)
}

// MemoryResolver is a deterministic in-memory VectorIndex + ProductResolver
// used by tests and local demos, grounded on the teacher's
// MockEmbeddingProvider style of deterministic fakes rather than any real
// ANN/catalog implementation. It performs a brute-force cosine-similarity
// scan, which is fine at fixture scale and never meant for production
// traffic.
type MemoryResolver struct {
	products   map[string]Product
	embeddings map[string][]float32
	byCode     map[string]string // product code -> product id
}

// NewMemoryResolver creates an empty in-memory resolver.
func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		products:   make(map[string]Product),
		embeddings: make(map[string][]float32),
		byCode:     make(map[string]string),
	}
}

// Index adds a product and its embedding to the resolver, optionally under
// an exact product code for the early-exit lookup path.
func (m *MemoryResolver) Index(p Product, embedding []float32, code string) {
	m.products[p.ID] = p
	m.embeddings[p.ID] = embedding
	if code != "" {
		m.byCode[code] = p.ID
	}
}

// Search implements VectorIndex via brute-force cosine similarity.
func (m *MemoryResolver) Search(_ context.Context, embedding []float32, topK int, filter *Filter) ([]SearchResult, error) {
	results := make([]SearchResult, 0, len(m.embeddings))
	for id, vec := range m.embeddings {
		p := m.products[id]
		if filter != nil {
			if filter.CategoryEq != nil && p.Category != *filter.CategoryEq {
				continue
			}
			if filter.PriceLTE != nil && p.Price > *filter.PriceLTE {
				continue
			}
		}
		score, err := cosineSimilarity(embedding, vec)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{ID: id, Score: score, Metadata: map[string]any{"category": p.Category}})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Resolve implements ProductResolver.
func (m *MemoryResolver) Resolve(_ context.Context, ids []string) ([]Product, error) {
	out := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByCode implements ProductResolver's early-exit lookup.
func (m *MemoryResolver) GetByCode(_ context.Context, code string) (*Product, error) {
	id, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	p := m.products[id]
	return &p, nil
}

func cosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("resolver: embedding dimension mismatch: %d != %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
