// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package codemix implements the Code-Mix Classifier (spec.md §4.5): a
// Fast Lane that must handle at least 80% of traffic in under 1ms via pure
// rule checks, and a Smart Checkpoint that only runs on the Fast Lane's
// `ambiguous` verdict, optionally backed by a quantized classifier
// artifact and otherwise falling back to heuristics.
package codemix

import (
	"log/slog"
	"strings"
	"time"

	"github.com/kraklabs/preprocess/internal/metrics"
	"github.com/kraklabs/preprocess/pkg/langid"
	"github.com/kraklabs/preprocess/pkg/romandetect"
	"github.com/kraklabs/preprocess/pkg/scriptutil"
)

// Label is the closed set of script classes this component emits.
type Label string

const (
	PureEnglish    Label = "pure_english"
	PureNative     Label = "pure_native"
	RomanizedIndic Label = "romanized_indic"
	Mixed          Label = "mixed"
	Ambiguous      Label = "ambiguous"
)

// Method records which path produced the classification (spec.md §3).
type Method string

const (
	MethodFastLane                Method = "fast_lane"
	MethodSmartCheckpointML       Method = "smart_checkpoint_ml"
	MethodSmartCheckpointFallback Method = "smart_checkpoint_fallback"
)

// skipConfidenceThreshold and fastLaneEnglishThreshold resolve spec.md §9
// Open Question (a): the spec fixes 0.75 for the skip decision and 0.85
// for the Fast Lane pure_english entry condition.
const (
	skipConfidenceThreshold  = 0.75
	fastLaneEnglishThreshold = 0.85
)

// pureNativeLanguages is the closed set of LID codes that count as native
// Indic for Fast Lane Rule A.
var pureNativeLanguages = map[string]bool{
	"hi": true, "bn": true, "ta": true, "te": true, "gu": true, "kn": true,
	"ml": true, "pa": true, "or": true, "mr": true, "as": true, "sa": true,
}

// Classification is the Code-Mix Classifier's output.
type Classification struct {
	Label             Label
	Confidence        float64
	Method            Method
	SkipStep5         bool
	RomanizedLanguage string // empty unless Label == RomanizedIndic
}

// ClassifierModel is the optional quantized Smart Checkpoint artifact's
// contract. When configured, it receives the assembled feature vector and
// returns a label with its probability.
type ClassifierModel interface {
	Classify(features FeatureVector) (Label, float64)
}

// FeatureVector is the input to the optional Smart Checkpoint model:
// script distribution, English-marker count, romanized confidence, a
// transliteration-marker presence flag, and length features.
type FeatureVector struct {
	ScriptCounts       map[scriptutil.Script]int
	EnglishMarkerCount int
	RomanizedConfidence float64
	HasTransliterationMarkers bool
	TokenCount         int
	CharCount          int
}

// Classifier implements the Code-Mix Classifier.
type Classifier struct {
	logger   *slog.Logger
	detector *romandetect.Detector
	model    ClassifierModel // optional; nil means heuristic fallback
}

// New constructs a Classifier. model may be nil, in which case the Smart
// Checkpoint always uses the heuristic fallback path.
func New(logger *slog.Logger, detector *romandetect.Detector, model ClassifierModel) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if detector == nil {
		detector = romandetect.New(logger)
	}
	return &Classifier{logger: logger, detector: detector, model: model}
}

// Classify runs the Fast Lane first, then the Smart Checkpoint only when
// the Fast Lane result is Ambiguous.
func (c *Classifier) Classify(text string, scripts []scriptutil.Script, language langid.Label) Classification {
	start := time.Now()
	result := c.classify(text, scripts, language)
	metrics.RecordStageRun(metrics.StageCodeMix, time.Since(start).Seconds())
	return result
}

func (c *Classifier) classify(text string, scripts []scriptutil.Script, language langid.Label) Classification {
	if label, confidence, ok := c.fastLane(scripts, language); ok {
		return c.finalize(label, confidence, MethodFastLane, "")
	}

	return c.smartCheckpoint(text, scripts, language)
}

// fastLane implements Rules A and B. ok is false when neither rule fires,
// meaning the query must go to the Smart Checkpoint.
func (c *Classifier) fastLane(scripts []scriptutil.Script, language langid.Label) (Label, float64, bool) {
	wordScripts := wordScriptsOf(scripts)
	if len(wordScripts) == 0 {
		return "", 0, false
	}

	if pureNativeLanguages[bareCode(language.Code)] && allIndic(wordScripts) {
		return PureNative, 0.95, true
	}

	if allLatin(wordScripts) && bareCode(language.Code) == "en" && language.Confidence >= fastLaneEnglishThreshold {
		return PureEnglish, language.Confidence, true
	}

	return "", 0, false
}

// smartCheckpoint runs only on the Fast Lane's ambiguous verdict.
func (c *Classifier) smartCheckpoint(text string, scripts []scriptutil.Script, language langid.Label) Classification {
	if c.model != nil {
		fv := c.assembleFeatures(text, scripts, language)
		label, confidence := c.model.Classify(fv)
		romanizedLanguage := ""
		if label == RomanizedIndic {
			romanizedLanguage = bareCode(language.Code)
		}
		return c.finalize(label, confidence, MethodSmartCheckpointML, romanizedLanguage)
	}

	return c.heuristicFallback(text, scripts, language)
}

// heuristicFallback implements the no-classifier-configured branch of
// §4.5's Smart Checkpoint.
func (c *Classifier) heuristicFallback(text string, scripts []scriptutil.Script, language langid.Label) Classification {
	wordScripts := wordScriptsOf(scripts)
	hasLatin := containsScript(wordScripts, scriptutil.Latin)
	hasNative := containsAnyIndic(wordScripts)
	code := bareCode(language.Code)
	isIndicHint := pureNativeLanguages[code] || strings.HasSuffix(language.Code, "_Latn")

	switch {
	case hasLatin && hasNative:
		return c.finalize(Mixed, 0.6, MethodSmartCheckpointFallback, "")
	case hasLatin && isIndicHint:
		romanizedLanguage := code
		return c.finalize(RomanizedIndic, 0.6, MethodSmartCheckpointFallback, romanizedLanguage)
	case hasLatin && code == "en" && englishMarkerCount(text) >= 2:
		return c.finalize(PureEnglish, 0.6, MethodSmartCheckpointFallback, "")
	default:
		return c.finalize(Ambiguous, 0.5, MethodSmartCheckpointFallback, "")
	}
}

func (c *Classifier) assembleFeatures(text string, scripts []scriptutil.Script, language langid.Label) FeatureVector {
	counts := make(map[scriptutil.Script]int)
	for _, s := range scripts {
		counts[s]++
	}
	roman := c.detector.Detect(text)
	return FeatureVector{
		ScriptCounts:              counts,
		EnglishMarkerCount:        englishMarkerCount(text),
		RomanizedConfidence:       roman.Confidence,
		HasTransliterationMarkers: roman.Language != "en",
		TokenCount:                len(scripts),
		CharCount:                 len([]rune(text)),
	}
}

func (c *Classifier) finalize(label Label, confidence float64, method Method, romanizedLanguage string) Classification {
	skip := (label == PureEnglish || label == PureNative) && confidence >= skipConfidenceThreshold
	return Classification{
		Label:             label,
		Confidence:        confidence,
		Method:            method,
		SkipStep5:         skip,
		RomanizedLanguage: romanizedLanguage,
	}
}

func wordScriptsOf(scripts []scriptutil.Script) []scriptutil.Script {
	out := make([]scriptutil.Script, 0, len(scripts))
	for _, s := range scripts {
		if s == scriptutil.Number || s == scriptutil.Other || s == scriptutil.Space {
			continue
		}
		out = append(out, s)
	}
	return out
}

func allIndic(scripts []scriptutil.Script) bool {
	for _, s := range scripts {
		if !scriptutil.IsIndic(s) {
			return false
		}
	}
	return true
}

func allLatin(scripts []scriptutil.Script) bool {
	for _, s := range scripts {
		if s != scriptutil.Latin {
			return false
		}
	}
	return true
}

func containsScript(scripts []scriptutil.Script, target scriptutil.Script) bool {
	for _, s := range scripts {
		if s == target {
			return true
		}
	}
	return false
}

func containsAnyIndic(scripts []scriptutil.Script) bool {
	for _, s := range scripts {
		if scriptutil.IsIndic(s) {
			return true
		}
	}
	return false
}

// bareCode strips an optional "_Latn" romanization suffix to recover the
// underlying ISO code for language-set membership checks.
func bareCode(code string) string {
	return strings.TrimSuffix(code, "_Latn")
}

var englishMarkers = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "under": true,
	"best": true, "buy": true, "price": true, "wireless": true, "phone": true,
}

func englishMarkerCount(text string) int {
	count := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:")
		if englishMarkers[w] {
			count++
		}
	}
	return count
}
