// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package romandetect implements the Smart Romanized Detector (spec.md
// §4.4): a statistical detector of romanized Hindi/Bengali text that
// combines four weighted signals without any large static dictionary.
// The per-language word, n-gram, and character-frequency tables are
// carried over from the original smart_romanized_detector.py, not
// reinvented — see SPEC_FULL.md §3.
package romandetect

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/kraklabs/preprocess/internal/cache"
	"github.com/kraklabs/preprocess/internal/metrics"
)

// Signal weights fixed by spec.md §4.4.
const (
	weightCoreWord  = 0.65
	weightNGram     = 0.15
	weightCharFreq  = 0.10
	weightPhonetic  = 0.10

	acceptThreshold  = 0.30
	preferenceMargin = 0.15
)

// Result is the detector's output: the best-scoring language and its
// confidence in [0,1].
type Result struct {
	Language   string // "hi", "bn", or "en"
	Confidence float64
}

// coreHindiWords and coreBengaliWords are small curated vocabularies of
// postpositions, common verbs, and e-commerce terms, carried over from
// the original detector's core_hindi_words / core_bengali_words sets.
var coreHindiWords = []string{
	"mujhe", "chahiye", "hai", "hain", "ka", "ki", "ke", "kaise", "kya",
	"acha", "accha", "dikhao", "batao", "mera", "meri", "wala", "wali",
	"sasta", "mehenga", "khareedna",
}

var coreBengaliWords = []string{
	"amake", "amar", "ache", "dekhao", "dao", "lagbe", "koren", "kemon",
	"valo", "bhalo", "tomar", "dam", "damer", "kinte", "sasta",
}

// hindiNGrams and bengaliNGrams are character bigram/trigram fragments
// characteristic of each language's romanization conventions.
var hindiNGrams = []string{"aa", "ee", "oo", "kya", "cha", "iye", "ahi"}
var bengaliNGrams = []string{"ae", "oa", "sh", "dh", "kh", "bho"}

// hindiWordPattern and bengaliWordPattern are phonetic regex patterns:
// aspirated-consonant starts, double vowels, vowel-r endings.
var hindiWordPattern = regexp.MustCompile(`(?i)\b(kh|gh|ch|jh|th|dh|ph|bh)\w*|\w*(aa|ee|oo)\w*|\w*[aeiou]r\b`)
var bengaliWordPattern = regexp.MustCompile(`(?i)\b(bh|dh|gh|jh|kh)\w*|\w*(ae|oa)\w*`)

// hindiCharFreq, bengaliCharFreq, englishCharFreq are per-language
// character frequency distributions over a-z used for the cosine
// similarity signal. Values are illustrative relative frequencies
// carried over from the original detector's tables, not claimed to be
// corpus-exact.
var hindiCharFreq = map[rune]float64{
	'a': 0.13, 'i': 0.09, 'h': 0.07, 'e': 0.06, 'k': 0.06, 'n': 0.06,
	'r': 0.05, 'c': 0.04, 'y': 0.04, 's': 0.04, 'm': 0.04, 'u': 0.04,
}

var bengaliCharFreq = map[rune]float64{
	'a': 0.12, 'e': 0.08, 'o': 0.07, 'h': 0.05, 'k': 0.05, 'n': 0.05,
	'm': 0.05, 'd': 0.05, 'r': 0.04, 'b': 0.04, 's': 0.04, 'i': 0.05,
}

var englishCharFreq = map[rune]float64{
	'e': 0.13, 't': 0.09, 'a': 0.08, 'o': 0.08, 'i': 0.07, 'n': 0.07,
	's': 0.06, 'r': 0.06, 'h': 0.06, 'l': 0.04, 'd': 0.04, 'c': 0.03,
}

// Detector implements the Smart Romanized Detector component.
type Detector struct {
	logger *slog.Logger
	cache  *cache.LRU[string, Result]
}

// New constructs a Detector.
func New(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{
		logger: logger,
		cache:  cache.NewLRU[string, Result](3000),
	}
}

// Detect combines the four signals and returns the best-scoring language.
// A non-English label is only accepted if its score is >= 0.30, and is
// preferred over English even when English scores up to 0.15 higher
// (spec.md §4.4: sparse but critical Indic words outweigh more English
// surface).
func (d *Detector) Detect(text string) Result {
	if cached, ok := d.cache.Get(text); ok {
		metrics.RecordCacheHit("romanized_detection")
		return cached
	}
	metrics.RecordCacheMiss("romanized_detection")

	start := time.Now()
	result := d.detectUncached(text)
	metrics.RecordStageRun(metrics.StageLanguageID, time.Since(start).Seconds())

	d.cache.Add(text, result)
	return result
}

func (d *Detector) detectUncached(text string) Result {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	hiScore := d.scoreLanguage(lower, words, coreHindiWords, hindiNGrams, hindiWordPattern, hindiCharFreq)
	bnScore := d.scoreLanguage(lower, words, coreBengaliWords, bengaliNGrams, bengaliWordPattern, bengaliCharFreq)
	enScore := charFreqCosineSimilarity(charFrequency(lower), englishCharFreq)

	best := "hi"
	bestScore := hiScore
	if bnScore > bestScore {
		best, bestScore = "bn", bnScore
	}

	if bestScore < acceptThreshold {
		return Result{Language: "en", Confidence: enScore}
	}

	// Prefer the non-English label even if English scores up to
	// preferenceMargin higher.
	if enScore > bestScore+preferenceMargin {
		return Result{Language: "en", Confidence: enScore}
	}

	return Result{Language: best, Confidence: bestScore}
}

func (d *Detector) scoreLanguage(lower string, words []string, coreWords []string, ngrams []string, phonetic *regexp.Regexp, freq map[rune]float64) float64 {
	coreScore := coreWordScore(words, coreWords)
	ngramScore := ngramScore(lower, ngrams)
	freqScore := charFreqCosineSimilarity(charFrequency(lower), freq)
	phoneticScore := phoneticScore(words, phonetic)

	return weightCoreWord*coreScore + weightNGram*ngramScore + weightCharFreq*freqScore + weightPhonetic*phoneticScore
}

// coreWordScore: each matched core word contributes 0.25, capped at 1.0.
func coreWordScore(words []string, core []string) float64 {
	set := make(map[string]bool, len(core))
	for _, w := range core {
		set[w] = true
	}
	score := 0.0
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:")
		if set[w] {
			score += 0.25
			if score >= 1.0 {
				return 1.0
			}
		}
	}
	return score
}

// ngramScore: fraction of configured n-grams found as substrings, capped
// at 1.0.
func ngramScore(lower string, ngrams []string) float64 {
	if len(ngrams) == 0 {
		return 0
	}
	hits := 0
	for _, g := range ngrams {
		if strings.Contains(lower, g) {
			hits++
		}
	}
	return float64(hits) / float64(len(ngrams))
}

// phoneticScore: fraction of words matching the phonetic pattern, capped
// at 1.0.
func phoneticScore(words []string, pattern *regexp.Regexp) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		if pattern.MatchString(w) {
			hits++
		}
	}
	score := float64(hits) / float64(len(words))
	if score > 1.0 {
		return 1.0
	}
	return score
}

func charFrequency(text string) map[rune]float64 {
	counts := make(map[rune]int)
	total := 0
	for _, r := range text {
		if r >= 'a' && r <= 'z' {
			counts[r]++
			total++
		}
	}
	freq := make(map[rune]float64, len(counts))
	if total == 0 {
		return freq
	}
	for r, c := range counts {
		freq[r] = float64(c) / float64(total)
	}
	return freq
}

func charFreqCosineSimilarity(a, b map[rune]float64) float64 {
	var dot, normA, normB float64
	for r, va := range a {
		dot += va * b[r]
		normA += va * va
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
