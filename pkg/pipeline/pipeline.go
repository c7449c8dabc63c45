// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package pipeline implements the Pipeline Orchestrator (spec.md §4.10):
// the single async entry point that owns every stage singleton, sequences
// them, applies the skip/early-exit logic, and assembles the final
// response. Components are constructed once; re-initializing the
// orchestrator is a no-op (spec.md §5), mirroring the teacher's
// sync.Once-guarded metrics singleton in pkg/embedding.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"time"

	"log/slog"

	preprocesserrors "github.com/kraklabs/preprocess/internal/errors"
	"github.com/kraklabs/preprocess/internal/metrics"
	"github.com/kraklabs/preprocess/pkg/codemix"
	"github.com/kraklabs/preprocess/pkg/embedding"
	"github.com/kraklabs/preprocess/pkg/features"
	"github.com/kraklabs/preprocess/pkg/inputadapter"
	"github.com/kraklabs/preprocess/pkg/langid"
	"github.com/kraklabs/preprocess/pkg/resolver"
	"github.com/kraklabs/preprocess/pkg/spellcorrect"
	"github.com/kraklabs/preprocess/pkg/synonym"
	"github.com/kraklabs/preprocess/pkg/tokenizer"
	"github.com/kraklabs/preprocess/pkg/translit"
)

// QueryInfo mirrors the `query_info` object of the §6.6 response shape.
type QueryInfo struct {
	OriginalQuery      string            `json:"original_query"`
	Normalized         string            `json:"normalized"`
	Corrected          string            `json:"corrected"`
	ProcessedQuery     string            `json:"processed_query"`
	DetectedLanguage   string            `json:"detected_language"`
	LanguageConfidence float64           `json:"language_confidence"`
	Tokens             []string          `json:"tokens"`
	ScriptTags         []string          `json:"script_tags"`
	Features           map[string]string `json:"features"`
}

// RunMetrics mirrors the `metrics` object of the §6.6 response shape.
type RunMetrics struct {
	TotalLatencyMs float64            `json:"total_latency_ms"`
	StageTimesMs   map[string]float64 `json:"stage_times_ms"`
	EarlyExit      bool               `json:"early_exit"`
	Optimizations  []string           `json:"optimizations"`
	CacheHitRate   float64            `json:"cache_hit_rate"`
}

// Response is the orchestrator's top-level output (spec.md §6.6).
type Response struct {
	Products  []resolver.Product `json:"products"`
	Count     int                `json:"count"`
	QueryInfo QueryInfo          `json:"query_info"`
	Metrics   RunMetrics         `json:"metrics"`
}

// Dependencies are the already-constructed stage singletons the
// orchestrator sequences. Transliteration, the vector index, and the
// product resolver are the only stages whose construction can fail on a
// network call; everything else is a pure in-process constructor.
type Dependencies struct {
	Logger *slog.Logger

	InputAdapter   *inputadapter.Adapter
	SpellCorrector *spellcorrect.Corrector
	Tokenizer      *tokenizer.Tokenizer
	LanguageID     *langid.Identifier
	CodeMix        *codemix.Classifier

	// Transliteration may be nil, in which case step 5 always passes
	// through. Production configuration treats the service as a hard
	// startup dependency (spec.md §7); nil is only meant for tests and
	// local demos that do not want a live network dependency.
	Transliteration *translit.Client

	// TransliterationFallback resolves spec.md §9 Open Question (b): when
	// true, a per-request transliteration fault degrades to pass-through
	// instead of aborting the request. Defaults to false (raise), per
	// internal/config's documented default.
	TransliterationFallback bool

	Features  *features.Extractor
	Synonyms  *synonym.Mapper
	Embedder  *embedding.Generator

	VectorIndex     resolver.VectorIndex
	ProductResolver resolver.ProductResolver

	// TopK bounds vector search results (default 10 when zero).
	TopK int
}

// Orchestrator implements the Pipeline Orchestrator component.
type Orchestrator struct {
	logger *slog.Logger
	deps   Dependencies
}

var (
	singletonOnce sync.Once
	singleton     *Orchestrator
)

// Init constructs the process-wide Orchestrator singleton from deps.
// Re-invoking Init after the first successful call is a no-op and returns
// the original instance (spec.md §5: "double-initialization is a no-op").
func Init(deps Dependencies) *Orchestrator {
	singletonOnce.Do(func() {
		singleton = New(deps)
	})
	return singleton
}

// Get returns the process-wide singleton, or nil if Init was never called.
func Get() *Orchestrator {
	return singleton
}

// New constructs a standalone Orchestrator without touching the package
// singleton. Tests use this directly so they can run several independent
// orchestrators in the same process.
func New(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.TopK == 0 {
		deps.TopK = 10
	}
	return &Orchestrator{logger: deps.Logger, deps: deps}
}

// Process implements the §4.10 algorithm: the pipeline's single async
// entry point. A synchronous caller can call this directly since nothing
// here spawns a goroutine; per spec.md §5 the orchestrator exposes an
// async entry point and a synchronous wrapper that both yield a result
// before returning, and in Go that distinction collapses to one method
// taking a context.
func (o *Orchestrator) Process(ctx context.Context, rawInput string) (Response, error) {
	totalStart := time.Now()
	stageTimes := make(map[string]float64)
	var optimizations []string
	var cacheObservations, cacheHits int

	record := func(stage string, start time.Time) {
		stageTimes[stage] = elapsedMs(start)
	}

	// 1. Input Adapter.
	stageStart := time.Now()
	adapted := o.deps.InputAdapter.Process(ctx, rawInput)
	record("input_adapter", stageStart)
	if adapted.CacheHit {
		cacheObservations++
		cacheHits++
		optimizations = append(optimizations, "input_adapter_cache_hit")
	}
	normalizedText := adapted.QueryText

	// 2. Spell Corrector.
	stageStart = time.Now()
	correctedText := o.deps.SpellCorrector.Correct(normalizedText, true)
	record("spell_correct", stageStart)

	// 3. Tokenizer + script tagging + language identification.
	stageStart = time.Now()
	tokenResult, err := o.deps.Tokenizer.Tokenize(ctx, correctedText, true)
	if err != nil {
		return Response{}, preprocesserrors.NewInternalError(
			"tokenizer returned an error",
			err.Error(),
			"this is a bug in the tokenizer; please report it",
			err,
		)
	}
	record("tokenize", stageStart)

	stageStart = time.Now()
	languageLabel, _ := o.deps.LanguageID.Identify(ctx, correctedText)
	record("language_id", stageStart)

	// 4. Code-Mix Classifier.
	stageStart = time.Now()
	classification := o.deps.CodeMix.Classify(correctedText, tokenResult.ScriptTags, languageLabel)
	record("code_mix", stageStart)
	optimizations = append(optimizations, "code_mix_"+string(classification.Method))
	if classification.SkipStep5 {
		optimizations = append(optimizations, "skip_step5")
	}

	// 5. Transliteration routing.
	stageStart = time.Now()
	englishText, translitCacheHit, err := o.routeTransliteration(ctx, correctedText, classification, languageLabel)
	record("transliteration", stageStart)
	if err != nil {
		return Response{}, err
	}
	if translitCacheHit {
		cacheObservations++
		cacheHits++
		optimizations = append(optimizations, "transliteration_cache_hit")
	}

	// 6. Feature extraction.
	stageStart = time.Now()
	featureSet := o.deps.Features.Extract(englishText)
	record("feature_extract", stageStart)

	// 7. Early exit on an exact product-code match.
	productCode, hasProductCode := featureSet.ProductCode(englishText)
	if hasProductCode && o.deps.ProductResolver != nil {
		stageStart = time.Now()
		product, err := o.deps.ProductResolver.GetByCode(ctx, productCode)
		elapsed := time.Since(stageStart).Seconds()
		record("product_resolve", stageStart)
		if err != nil {
			metrics.RecordStageError(metrics.StageProductResolve)
			return Response{}, preprocesserrors.NewInternalError(
				"product resolver failed during early-exit lookup",
				err.Error(),
				"verify the product resolver backend is reachable",
				err,
			)
		}
		metrics.RecordStageRun(metrics.StageProductResolve, elapsed)
		if product != nil {
			metrics.RecordEarlyExit()
			optimizations = append(optimizations, "early_exit")
			return o.buildResponse(rawInput, normalizedText, correctedText, englishText, []resolver.Product{*product},
				languageLabel, tokenResult, featureSet, stageTimes, totalStart, true, optimizations, cacheHitRate(cacheObservations, cacheHits)), nil
		}
	}

	// 8. Synonym expansion, skipped on an exact-match feature bag.
	stageStart = time.Now()
	synonymTokens := o.deps.Synonyms.ExpandTokens(tokenResult.Tokens, hasProductCode)
	record("synonym", stageStart)
	if hasProductCode {
		optimizations = append(optimizations, "synonym_skip_exact_match")
	}

	embeddingText := englishText
	if len(synonymTokens) > 0 {
		embeddingText = englishText + " " + strings.Join(synonymTokens, " ")
	}

	// 9. Embedding generation.
	stageStart = time.Now()
	vector, err := o.deps.Embedder.Generate(ctx, embeddingText)
	record("embedding", stageStart)
	if err != nil {
		return Response{}, preprocesserrors.NewInternalError(
			"embedding generation failed",
			err.Error(),
			"verify the embedding provider is reachable and its API key is valid",
			err,
		)
	}

	// 10. Vector search with an optional category/price filter.
	filter := buildFilter(featureSet)
	stageStart = time.Now()
	var searchResults []resolver.SearchResult
	if o.deps.VectorIndex != nil {
		searchResults, err = o.deps.VectorIndex.Search(ctx, vector, o.deps.TopK, filter)
		elapsed := time.Since(stageStart).Seconds()
		record("vector_search", stageStart)
		if err != nil {
			metrics.RecordStageError(metrics.StageVectorSearch)
			return Response{}, preprocesserrors.NewInternalError(
				"vector search failed",
				err.Error(),
				"verify the vector index backend is reachable",
				err,
			)
		}
		metrics.RecordStageRun(metrics.StageVectorSearch, elapsed)
	}

	// 11. Product resolution.
	ids := make([]string, len(searchResults))
	for i, r := range searchResults {
		ids[i] = r.ID
	}
	var products []resolver.Product
	if o.deps.ProductResolver != nil && len(ids) > 0 {
		stageStart = time.Now()
		products, err = o.deps.ProductResolver.Resolve(ctx, ids)
		elapsed := time.Since(stageStart).Seconds()
		record("product_resolve", stageStart)
		if err != nil {
			metrics.RecordStageError(metrics.StageProductResolve)
			return Response{}, preprocesserrors.NewInternalError(
				"product resolver failed",
				err.Error(),
				"verify the product resolver backend is reachable",
				err,
			)
		}
		metrics.RecordStageRun(metrics.StageProductResolve, elapsed)
	}

	return o.buildResponse(rawInput, normalizedText, correctedText, embeddingText, products,
		languageLabel, tokenResult, featureSet, stageTimes, totalStart, false, optimizations, cacheHitRate(cacheObservations, cacheHits)), nil
}

// routeTransliteration implements the §4.10 step 5 decision tree.
func (o *Orchestrator) routeTransliteration(ctx context.Context, correctedText string, classification codemix.Classification, language langid.Label) (string, bool, error) {
	if classification.SkipStep5 {
		metrics.RecordStageSkip(metrics.StageTransliteration)
		return correctedText, false, nil
	}

	if o.deps.Transliteration == nil {
		return correctedText, false, nil
	}

	switch classification.Label {
	case codemix.PureNative:
		return o.callTranslit(ctx, correctedText, translit.LanguageFlags{Native: true, Romanized: false}, language.Code)

	case codemix.RomanizedIndic, codemix.Mixed:
		romanizedLanguage := classification.RomanizedLanguage
		if romanizedLanguage == "" {
			romanizedLanguage = language.Code
		}
		return o.callTranslit(ctx, correctedText, translit.LanguageFlags{Native: false, Romanized: true}, romanizedLanguage)

	case codemix.Ambiguous:
		if stripRomanizedSuffix(language.Code) != "en" {
			return o.callTranslit(ctx, correctedText, translit.LanguageFlags{Native: false, Romanized: true}, language.Code)
		}
		return correctedText, false, nil

	default:
		return correctedText, false, nil
	}
}

func (o *Orchestrator) callTranslit(ctx context.Context, text string, flags translit.LanguageFlags, romanizedLanguage string) (string, bool, error) {
	result, err := o.deps.Transliteration.Process(ctx, text, flags, romanizedLanguage)
	if err != nil {
		if o.deps.TransliterationFallback {
			o.logger.Warn("pipeline.transliteration_degraded", "err", err)
			return text, false, nil
		}
		return "", false, err
	}
	return result.NormalizedQuery, result.CacheHit, nil
}

func (o *Orchestrator) buildResponse(
	original, normalized, corrected, processedQuery string,
	products []resolver.Product,
	language langid.Label,
	tokenResult tokenizer.Result,
	featureSet features.Set,
	stageTimes map[string]float64,
	totalStart time.Time,
	earlyExit bool,
	optimizations []string,
	cacheHitRate float64,
) Response {
	scriptTags := make([]string, len(tokenResult.ScriptTags))
	for i, s := range tokenResult.ScriptTags {
		scriptTags[i] = string(s)
	}

	total := time.Since(totalStart).Seconds()
	metrics.RecordRequest(total, false)

	return Response{
		Products: products,
		Count:    len(products),
		QueryInfo: QueryInfo{
			OriginalQuery:      original,
			Normalized:         normalized,
			Corrected:          corrected,
			ProcessedQuery:     processedQuery,
			DetectedLanguage:   language.Code,
			LanguageConfidence: language.Confidence,
			Tokens:             tokenResult.Tokens,
			ScriptTags:         scriptTags,
			Features:           featureSet.AsMap(),
		},
		Metrics: RunMetrics{
			TotalLatencyMs: total * 1000,
			StageTimesMs:   stageTimes,
			EarlyExit:      earlyExit,
			Optimizations:  optimizations,
			CacheHitRate:   cacheHitRate,
		},
	}
}

// buildFilter derives the vector-search filter from resolved features
// (spec.md §6.3: category eq and/or price lte).
func buildFilter(set features.Set) *resolver.Filter {
	var filter resolver.Filter
	hasFilter := false

	if set.Category != "" {
		category := set.Category
		filter.CategoryEq = &category
		hasFilter = true
	}
	if set.PriceMax != "" {
		if price, ok := features.ParsePrice(set.PriceMax); ok {
			filter.PriceLTE = &price
			hasFilter = true
		}
	}

	if !hasFilter {
		return nil
	}
	return &filter
}

func stripRomanizedSuffix(code string) string {
	return strings.TrimSuffix(code, "_Latn")
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}

func cacheHitRate(observations, hits int) float64 {
	if observations == 0 {
		return 0
	}
	return float64(hits) / float64(observations)
}
