// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package config reads the pipeline's startup configuration surface
// (spec.md §6.5). It follows the teacher's old bootstrap.ProjectConfig
// idiom: a plain struct with a defaulting function that fills in zero
// values rather than a validation framework, loaded from YAML via
// gopkg.in/yaml.v3 exactly as the teacher's go.mod already provides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	preprocesserrors "github.com/kraklabs/preprocess/internal/errors"
)

// Config is the startup configuration surface for the pipeline. Every
// field here is read once at process start and never mutated afterward,
// mirroring spec.md §5's "constructed once, never mutated" rule for model
// objects.
type Config struct {
	// LIDModelPath is the filesystem path to the compact 176-label
	// language-ID model artifact.
	LIDModelPath string `yaml:"lid_model_path"`

	// SpellMaxEditDistance bounds SymSpell suggestion distance (default 2).
	SpellMaxEditDistance int `yaml:"spell_max_edit_distance"`

	// SpellPrefixLength is the SymSpell prefix index length (default 7).
	SpellPrefixLength int `yaml:"spell_prefix_length"`

	// TransliterationURL is the base URL of the remote IndicXlit service.
	TransliterationURL string `yaml:"transliteration_url"`

	// TransliterationTimeout bounds the startup health probe of the
	// transliteration service; each later request uses the client's fixed
	// 3s timeout.
	TransliterationTimeout time.Duration `yaml:"transliteration_timeout"`

	// VectorIndexName, VectorIndexRegion, VectorIndexAPIKey address the
	// external vector-index backend (spec.md §6.3); this core only holds
	// the connection coordinates, never the backend implementation.
	VectorIndexName   string `yaml:"vector_index_name"`
	VectorIndexRegion string `yaml:"vector_index_region"`
	VectorIndexAPIKey string `yaml:"vector_index_api_key"`

	// EmbeddingModelID identifies the sentence-embedding model to load.
	EmbeddingModelID string `yaml:"embedding_model_id"`

	// EmbeddingDevice selects the inference device ("cpu", "cuda:0", ...).
	EmbeddingDevice string `yaml:"embedding_device"`

	// CodeMixClassifierPath is an optional path to a quantized Smart
	// Checkpoint classifier artifact. Empty means the heuristic fallback
	// path of §4.5 is used instead.
	CodeMixClassifierPath string `yaml:"code_mix_classifier_path,omitempty"`

	// TransliterationFallback, when true, makes transliteration failures
	// degrade to pass-through instead of raising (spec.md §9 Open Question
	// (b): the default is raise-by-default, so this defaults to false).
	TransliterationFallback bool `yaml:"transliteration_fallback"`
}

// Defaults matching spec.md's stated defaults (max edit distance 2, prefix
// length 7) and a conservative 3s network timeout (§4.6, §5).
const (
	DefaultSpellMaxEditDistance  = 2
	DefaultSpellPrefixLength     = 7
	DefaultTransliterationTimeout = 3 * time.Second
)

// applyDefaults fills zero-valued fields with their defaults. This mirrors
// bootstrap.InitProject's old approach: direct zero-value checks, not a
// validation framework.
func (c *Config) applyDefaults() {
	if c.SpellMaxEditDistance == 0 {
		c.SpellMaxEditDistance = DefaultSpellMaxEditDistance
	}
	if c.SpellPrefixLength == 0 {
		c.SpellPrefixLength = DefaultSpellPrefixLength
	}
	if c.TransliterationTimeout == 0 {
		c.TransliterationTimeout = DefaultTransliterationTimeout
	}
}

// Validate checks the hard-dependency fields this core cannot run without.
// Per spec.md §7, a missing LID model path or embedding model id is a
// "hard dependency missing at startup" fault: raise at construction.
func (c *Config) Validate() error {
	if c.LIDModelPath == "" {
		return preprocesserrors.NewConfigError(
			"Missing language-ID model path",
			"lid_model_path is empty in the loaded configuration",
			"Set lid_model_path to a compact 176-label LID model artifact",
			nil,
		)
	}
	if c.EmbeddingModelID == "" {
		return preprocesserrors.NewConfigError(
			"Missing embedding model identifier",
			"embedding_model_id is empty in the loaded configuration",
			"Set embedding_model_id to a sentence-embedding model name",
			nil,
		)
	}
	if c.TransliterationURL == "" {
		return preprocesserrors.NewConfigError(
			"Missing transliteration service URL",
			"transliteration_url is empty in the loaded configuration",
			"Set transliteration_url to the IndicXlit service base URL",
			nil,
		)
	}
	return nil
}

// Load reads a YAML configuration file at path, applies defaults, and
// validates the hard-dependency fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, preprocesserrors.NewConfigError(
			"Cannot read configuration file",
			err.Error(),
			fmt.Sprintf("Verify that %s exists and is readable", path),
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, preprocesserrors.NewConfigError(
			"Cannot parse configuration file",
			err.Error(),
			fmt.Sprintf("Verify that %s is valid YAML", path),
			err,
		)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
