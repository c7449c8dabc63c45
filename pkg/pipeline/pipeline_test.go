// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/preprocess/pkg/codemix"
	"github.com/kraklabs/preprocess/pkg/embedding"
	"github.com/kraklabs/preprocess/pkg/features"
	"github.com/kraklabs/preprocess/pkg/inputadapter"
	"github.com/kraklabs/preprocess/pkg/langid"
	"github.com/kraklabs/preprocess/pkg/resolver"
	"github.com/kraklabs/preprocess/pkg/romandetect"
	"github.com/kraklabs/preprocess/pkg/spellcorrect"
	"github.com/kraklabs/preprocess/pkg/synonym"
	"github.com/kraklabs/preprocess/pkg/tokenizer"
)

// newTestOrchestrator wires every stage from real, in-process constructors
// (no Transliteration client, since that requires a live network health
// probe) plus a MemoryResolver pre-loaded with one product.
func newTestOrchestrator(t *testing.T) (*Orchestrator, *resolver.MemoryResolver) {
	t.Helper()

	spell, err := spellcorrect.New(2, 7)
	require.NoError(t, err)

	tok, err := tokenizer.New(nil, false)
	require.NoError(t, err)

	detector := romandetect.New(nil)
	lid := langid.New(nil, langid.NewHeuristicModel(), detector)
	cm := codemix.New(nil, detector, nil)
	feat := features.New(nil)
	syn := synonym.New(nil, 0)

	provider := embedding.NewMockEmbeddingProvider(8, nil)
	embedder := embedding.New(provider, 8, nil)

	mem := resolver.NewMemoryResolver()

	deps := Dependencies{
		InputAdapter:   inputadapter.New(nil, nil),
		SpellCorrector: spell,
		Tokenizer:      tok,
		LanguageID:     lid,
		CodeMix:        cm,
		Features:       feat,
		Synonyms:       syn,
		Embedder:       embedder,
		VectorIndex:    mem,
		ProductResolver: mem,
	}
	return New(deps), mem
}

func TestProcess_HappyPathReturnsVectorSearchResults(t *testing.T) {
	o, mem := newTestOrchestrator(t)
	ctx := context.Background()

	embeddingVec, err := o.deps.Embedder.Generate(ctx, "wireless headphones")
	require.NoError(t, err)
	mem.Index(resolver.Product{ID: "p1", Name: "boAt Headphones", Category: "audio", Price: 1200}, embeddingVec, "")

	resp, err := o.Process(ctx, "wireless headphones")
	require.NoError(t, err)

	assert.Equal(t, "wireless headphones", resp.QueryInfo.OriginalQuery)
	assert.False(t, resp.Metrics.EarlyExit)
	assert.NotEmpty(t, resp.QueryInfo.Tokens)
	assert.Contains(t, resp.Metrics.StageTimesMs, "tokenize")
	assert.Contains(t, resp.Metrics.StageTimesMs, "embedding")
}

func TestProcess_EarlyExitOnProductCode(t *testing.T) {
	o, mem := newTestOrchestrator(t)
	ctx := context.Background()

	mem.Index(resolver.Product{ID: "p2", Name: "Galaxy SM1234", Category: "phone"}, make([]float32, 8), "SM1234")

	resp, err := o.Process(ctx, "SM1234")
	require.NoError(t, err)

	assert.True(t, resp.Metrics.EarlyExit)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "p2", resp.Products[0].ID)
	assert.Contains(t, resp.Metrics.Optimizations, "early_exit")
}

func TestProcess_NoMatchingProductCodeContinuesPipeline(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp, err := o.Process(ctx, "ZZ9999 phone")
	require.NoError(t, err)

	assert.False(t, resp.Metrics.EarlyExit)
	assert.Equal(t, 0, resp.Count)
}

func TestProcess_EnglishQueryRecordsFastLaneOptimization(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp, err := o.Process(ctx, "best wireless headphones under price for buy")
	require.NoError(t, err)

	found := false
	for _, opt := range resp.Metrics.Optimizations {
		if opt == "code_mix_fast_lane" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestProcess_NilTransliterationClientPassesThrough(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp, err := o.Process(ctx, "mujhe chahiye sasta mobile")
	require.NoError(t, err)
	assert.Equal(t, "mujhe chahiye sasta mobile", resp.QueryInfo.Corrected)
}

func TestProcess_URLInputGoesThroughInputAdapter(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	ctx := context.Background()

	resp, err := o.Process(ctx, "https://example.org/not/a/known/platform")
	require.NoError(t, err)
	assert.Contains(t, resp.QueryInfo.Normalized, "example.org")
}

func TestInit_ReturnsSameInstanceOnDoubleInit(t *testing.T) {
	deps := Dependencies{
		InputAdapter:   inputadapter.New(nil, nil),
		SpellCorrector: mustSpellCorrector(t),
		Tokenizer:      mustTokenizer(t),
		LanguageID:     langid.New(nil, langid.NewHeuristicModel(), nil),
		CodeMix:        codemix.New(nil, nil, nil),
		Features:       features.New(nil),
		Synonyms:       synonym.New(nil, 0),
		Embedder:       embedding.New(embedding.NewMockEmbeddingProvider(4, nil), 4, nil),
	}

	first := Init(deps)
	second := Init(deps)
	assert.Same(t, first, second)
}

func mustSpellCorrector(t *testing.T) *spellcorrect.Corrector {
	t.Helper()
	c, err := spellcorrect.New(2, 7)
	require.NoError(t, err)
	return c
}

func mustTokenizer(t *testing.T) *tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New(nil, false)
	require.NoError(t, err)
	return tok
}
