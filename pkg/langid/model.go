// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package langid

import "github.com/kraklabs/preprocess/pkg/scriptutil"

// HeuristicModel is the default Model implementation used when no
// pretrained LID model binding is configured. It approximates a compact
// 176-label model's output for the subset of languages this system cares
// about (English, the native-script Indic languages, and Arabic) using the same
// per-character Unicode-block signal the rest of the pipeline already
// computes, so it gives a principled answer for native-script text and a
// conservative English default for Latin-only text it cannot otherwise
// place.
//
// Swapping in a real fastText-style model only requires implementing the
// Model interface; nothing else in this package changes.
type HeuristicModel struct{}

// NewHeuristicModel constructs the default model.
func NewHeuristicModel() *HeuristicModel {
	return &HeuristicModel{}
}

// scriptToLanguage maps a dominant native script to its most common
// associated ISO 639-1 code. This is necessarily lossy (Devanagari is
// shared by Hindi and Marathi, for instance) but serves as a reasonable
// default absent a trained model.
var scriptToLanguage = map[scriptutil.Script]string{
	scriptutil.Devanagari: "hi",
	scriptutil.Bengali:    "bn",
	scriptutil.Tamil:      "ta",
	scriptutil.Telugu:     "te",
	scriptutil.Gujarati:   "gu",
	scriptutil.Kannada:    "kn",
	scriptutil.Malayalam:  "ml",
	scriptutil.Punjabi:    "pa",
	scriptutil.Odia:       "or",
	scriptutil.Arabic:     "ar",
}

// Identify implements Model.
func (m *HeuristicModel) Identify(text string) (string, float64) {
	counts := make(map[scriptutil.Script]int)
	for _, r := range text {
		counts[scriptutil.ClassifyRune(r)]++
	}

	var bestScript scriptutil.Script
	bestCount := 0
	for s, c := range counts {
		if scriptutil.IsIndic(s) || s == scriptutil.Arabic {
			if c > bestCount {
				bestScript = s
				bestCount = c
			}
		}
	}

	if bestCount > 0 {
		if code, ok := scriptToLanguage[bestScript]; ok {
			total := 0
			for _, c := range counts {
				total += c
			}
			confidence := 0.6
			if total > 0 {
				confidence = 0.5 + 0.5*float64(bestCount)/float64(total)
			}
			return code, confidence
		}
	}

	return "en", 0.55
}
