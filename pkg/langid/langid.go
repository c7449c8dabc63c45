// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package langid implements the whole-query language identification half
// of Step 3 (spec.md §4.3), including the fast-path heuristics that run
// before the compact LID model is ever invoked. No Go binding for a
// pretrained 176-label fastText-style model exists anywhere in this
// example pack, so the Model interface below is the seam: a Mock-style
// deterministic heuristic implementation (grounded on the teacher's
// MockEmbeddingProvider pattern in pkg/embedding) stands in for it, and a
// real model binding can be swapped in behind the same interface without
// touching the orchestrator.
package langid

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/kraklabs/preprocess/internal/cache"
	"github.com/kraklabs/preprocess/internal/metrics"
	"github.com/kraklabs/preprocess/pkg/romandetect"
	"github.com/kraklabs/preprocess/pkg/scriptutil"
)

// Label is the LID output (spec.md §3 LanguageLabel): an ISO 639-1 code,
// optionally suffixed "_Latn" to denote romanization, plus a confidence.
type Label struct {
	Code       string
	Confidence float64
}

// Method records which fast-path rule (or the model itself) produced the
// label, matching spec.md §9's preference for an explicit method field
// over silent behavior branching.
type Method string

const (
	MethodNativeScript  Method = "native_script_to_model"
	MethodRomanizedRule Method = "romanized_marker_rule"
	MethodEnglishRule   Method = "english_marker_rule"
	MethodRomanDetector Method = "smart_romanized_detector"
	MethodModel         Method = "lid_model"
)

// Model is the compact pretrained LID model's contract. Identify returns
// an ISO 639-1 code and a confidence in [0,1] for the given joined query
// text.
type Model interface {
	Identify(text string) (code string, confidence float64)
}

// hindiRomanizedMarkers and bengaliRomanizedMarkers are the rule-based
// romanized Indic marker word sets from the original language_detector,
// carried over verbatim as the concrete fast-path table spec.md §4.3(b)
// leaves abstract.
var hindiRomanizedMarkers = map[string]bool{
	"mujhe": true, "chahiye": true, "ka": true, "ki": true, "ke": true,
	"hai": true, "hain": true, "kya": true, "kaise": true, "mera": true,
	"meri": true, "aap": true, "tum": true, "acha": true, "nahi": true,
	"dikhao": true, "batao": true,
}

var bengaliRomanizedMarkers = map[string]bool{
	"amake": true, "amar": true, "dekhao": true, "dao": true,
	"lagbe": true, "ache": true, "koren": true, "kemon": true, "valo": true,
	"bhalo": true, "tomar": true,
}

// englishProductMarkers are common English e-commerce product words used
// by fast-path rule (c) to short-circuit to en without a model call.
var englishProductMarkers = map[string]bool{
	"headphone": true, "headphones": true, "phone": true, "laptop": true,
	"shoes": true, "watch": true, "bag": true, "wireless": true,
	"under": true, "price": true, "buy": true, "best": true, "for": true,
	"with": true, "and": true, "the": true, "case": true, "cover": true,
}

// Identifier implements the whole-query language identification component.
// It is constructed once by the Pipeline Orchestrator and is safe for
// concurrent use.
type Identifier struct {
	logger   *slog.Logger
	model    Model
	detector *romandetect.Detector

	cache *cache.LRU[string, cachedLabel]
}

// cachedLabel pairs a Label with the Method that produced it, so a cache
// hit reports the method that actually ran instead of a hardcoded guess.
type cachedLabel struct {
	label  Label
	method Method
}

// New constructs an Identifier. A nil model defaults to NewHeuristicModel.
func New(logger *slog.Logger, model Model, detector *romandetect.Detector) *Identifier {
	if logger == nil {
		logger = slog.Default()
	}
	if model == nil {
		model = NewHeuristicModel()
	}
	if detector == nil {
		detector = romandetect.New(logger)
	}
	return &Identifier{
		logger:   logger,
		model:    model,
		detector: detector,
		cache:    cache.NewLRU[string, cachedLabel](5000),
	}
}

// Identify runs language identification exactly once per query (spec.md §8
// property 3), applying fast-path rules (a)-(c) before falling back to the
// smart romanized detector (d) and finally the LID model (e).
func (id *Identifier) Identify(ctx context.Context, text string) (Label, Method) {
	if cached, ok := id.cache.Get(text); ok {
		metrics.RecordCacheHit("language_detection")
		return cached.label, cached.method
	}
	metrics.RecordCacheMiss("language_detection")

	start := time.Now()
	label, method := id.identifyUncached(ctx, text)
	metrics.RecordStageRun(metrics.StageLanguageID, time.Since(start).Seconds())

	id.cache.Add(text, cachedLabel{label: label, method: method})
	return label, method
}

func (id *Identifier) identifyUncached(_ context.Context, text string) (Label, Method) {
	words := wordsOf(text)

	// Rule (a): any Indic native-script character present routes straight
	// to the LID model; native scripts are easy for it.
	if scriptutil.ContainsIndic(text) {
		code, conf := id.model.Identify(text)
		return Label{Code: code, Confidence: conf}, MethodNativeScript
	}

	// Rule (b): ≥ 2 romanized marker word hits.
	if hits := markerHits(words, hindiRomanizedMarkers); hits >= 2 {
		return Label{Code: "hi_Latn", Confidence: 0.65}, MethodRomanizedRule
	}
	if hits := markerHits(words, bengaliRomanizedMarkers); hits >= 2 {
		return Label{Code: "bn_Latn", Confidence: 0.65}, MethodRomanizedRule
	}

	// Rule (c): purely ASCII with common English product words and no
	// Indic markers.
	if isASCII(text) {
		if markerHits(words, englishProductMarkers) >= 2 {
			return Label{Code: "en", Confidence: 0.95}, MethodEnglishRule
		}
	}

	// Rule (d): smart romanized detector.
	if romanResult := id.detector.Detect(text); romanResult.Language == "hi" || romanResult.Language == "bn" {
		if romanResult.Confidence >= 0.25 {
			return Label{Code: romanResult.Language + "_Latn", Confidence: romanResult.Confidence}, MethodRomanDetector
		}
	}

	// Rule (e): invoke the LID model.
	code, conf := id.model.Identify(text)
	return Label{Code: code, Confidence: conf}, MethodModel
}

func wordsOf(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func markerHits(words []string, markers map[string]bool) int {
	hits := 0
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:")
		if markers[w] {
			hits++
		}
	}
	return hits
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
