// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package translit implements the Transliteration Client (spec.md §4.6): a
// pooled HTTP client to a remote IndicXlit-style transliteration service
// (spec.md §6.2), gated at startup by a health probe requiring
// model_loaded=true, with no retry on the serving path since the
// orchestrator owns the pass-through decision on failure.
package translit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/kraklabs/preprocess/internal/cache"
	preprocesserrors "github.com/kraklabs/preprocess/internal/errors"
	"github.com/kraklabs/preprocess/internal/metrics"
)

// requestTimeout is the fixed per-call timeout (spec.md §4.6, §5): 3s, no
// retry.
const requestTimeout = 3 * time.Second

// defaultSupportedLanguages is used only as a fallback when a service's
// /health response omits supported_languages entirely (a malformed or
// older deployment). Once a health probe returns a non-empty list, that
// list is authoritative (spec.md §6.2, resolving Open Question (c) of
// spec.md §9: the service's advertised set wins over this client's guess).
var defaultSupportedLanguages = map[string]bool{
	"as": true, "bn": true, "brx": true, "doi": true, "gom": true,
	"gu": true, "hi": true, "kn": true, "ks": true, "mai": true,
	"ml": true, "mni": true, "mr": true, "ne": true, "or": true,
	"pa": true, "sa": true, "sd": true, "si": true, "ta": true, "te": true,
}

// languageNameToISO normalizes common English language names to their ISO
// code, one of several accepted `romanized_language` shapes (spec.md
// §4.6).
var languageNameToISO = map[string]string{
	"assamese": "as", "bengali": "bn", "bodo": "brx", "dogri": "doi",
	"konkani": "gom", "gujarati": "gu", "hindi": "hi", "kannada": "kn",
	"kashmiri": "ks", "maithili": "mai", "malayalam": "ml", "manipuri": "mni",
	"marathi": "mr", "nepali": "ne", "odia": "or", "oriya": "or",
	"punjabi": "pa", "sanskrit": "sa", "sindhi": "sd", "sinhala": "si",
	"tamil": "ta", "telugu": "te",
}

// LanguageFlags describes the routing signal the orchestrator passes in
// (spec.md §4.6): whether the detected label is native script and/or
// romanized.
type LanguageFlags struct {
	Native    bool
	Romanized bool
}

// Result is the client's output contract.
type Result struct {
	NormalizedQuery string
	ServiceUsed     bool
	LatencyMs       float64
	CacheHit        bool
}

type healthResponse struct {
	ModelLoaded        bool     `json:"model_loaded"`
	SupportedLanguages []string `json:"supported_languages"`
}

type transliterateRequest struct {
	Query            string `json:"query"`
	Language         string `json:"language"`
	PreserveEnglish  bool   `json:"preserve_english"`
}

type transliterateResponse struct {
	Transliterated string  `json:"transliterated"`
	LatencyMs      float64 `json:"latency_ms"`
}

type cacheKey struct {
	text            string
	targetLanguage  string
	preserveEnglish bool
}

// Client implements the Transliteration Client component. It is
// constructed once by the Pipeline Orchestrator (singleton, spec.md §5)
// and its startup health probe must pass before the orchestrator will use
// it.
type Client struct {
	logger             *slog.Logger
	baseURL            string
	httpClient         *http.Client
	cache              *cache.LRU[cacheKey, Result]
	healthy            bool
	supportedLanguages map[string]bool
}

// New constructs a Client and fails if the remote service's health probe
// does not report model_loaded=true (spec.md §4.6, §7 hard-dependency
// policy: no silent quality regression at startup).
func New(ctx context.Context, logger *slog.Logger, baseURL string) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		logger:  logger,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cache: cache.NewLRU[cacheKey, Result](10000),
	}

	if err := c.checkHealth(ctx); err != nil {
		return nil, preprocesserrors.NewNetworkError(
			"transliteration service health check failed",
			err.Error(),
			"verify the transliteration service is running and has finished loading its model",
			err,
		)
	}

	return c, nil
}

func (c *Client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.healthy = false
		return fmt.Errorf("health request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read health response: %w", err)
	}

	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return fmt.Errorf("parse health response: %w", err)
	}

	if !health.ModelLoaded {
		return fmt.Errorf("transliteration model not loaded")
	}

	if len(health.SupportedLanguages) > 0 {
		advertised := make(map[string]bool, len(health.SupportedLanguages))
		for _, lang := range health.SupportedLanguages {
			advertised[strings.ToLower(strings.TrimSpace(lang))] = true
		}
		c.supportedLanguages = advertised
	} else {
		c.supportedLanguages = defaultSupportedLanguages
	}

	c.healthy = true
	return nil
}

// Process implements the §4.6 contract. A request that resolves to a
// pass-through never touches the network.
func (c *Client) Process(ctx context.Context, query string, flags LanguageFlags, romanizedLanguage string) (Result, error) {
	if flags.Native && !flags.Romanized {
		return Result{NormalizedQuery: query}, nil
	}
	if !flags.Native && !flags.Romanized {
		return Result{NormalizedQuery: query}, nil
	}

	targetLanguage, ok := c.normalizeLanguage(romanizedLanguage)
	if !ok {
		return Result{NormalizedQuery: query}, nil
	}
	if targetLanguage == "en" {
		return Result{NormalizedQuery: query}, nil
	}

	key := cacheKey{text: query, targetLanguage: targetLanguage, preserveEnglish: true}
	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordCacheHit("transliteration")
		cached.CacheHit = true
		return cached, nil
	}
	metrics.RecordCacheMiss("transliteration")

	if !c.healthy {
		return Result{}, preprocesserrors.NewNetworkError(
			"transliteration service unreachable",
			"client marked unhealthy after a prior connection failure",
			"retry once the transliteration service recovers, or enable transliteration_fallback in config",
			nil,
		)
	}

	start := time.Now()
	transliterated, serviceLatencyMs, err := c.callRemote(ctx, query, targetLanguage)
	elapsed := time.Since(start).Seconds()
	metrics.RecordStageRun(metrics.StageTransliteration, elapsed)

	if err != nil {
		c.healthy = false
		metrics.RecordStageError(metrics.StageTransliteration)
		return Result{}, preprocesserrors.NewNetworkError(
			"transliteration request failed",
			err.Error(),
			"retry once the transliteration service recovers, or enable transliteration_fallback in config",
			err,
		)
	}

	result := Result{
		NormalizedQuery: transliterated,
		ServiceUsed:     true,
		LatencyMs:       serviceLatencyMs,
	}
	c.cache.Add(key, result)
	return result, nil
}

func (c *Client) callRemote(ctx context.Context, query, targetLanguage string) (string, float64, error) {
	reqBody := transliterateRequest{Query: query, Language: targetLanguage, PreserveEnglish: true}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transliterate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("transliteration service returned status %d: %s", resp.StatusCode, string(body))
	}

	var out transliterateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", 0, fmt.Errorf("parse response: %w", err)
	}

	return out.Transliterated, out.LatencyMs, nil
}

// normalizeLanguage maps any of the accepted `romanized_language` shapes
// (an English name, an ISO code, or an "_Latn" form) to a supported ISO
// code. ok is false when the input does not resolve to anything this
// client's service advertised at its last health probe.
func (c *Client) normalizeLanguage(romanizedLanguage string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(romanizedLanguage))
	if lower == "" {
		return "", false
	}
	lower = strings.TrimSuffix(lower, "_latn")

	if lower == "en" || lower == "english" {
		return "en", true
	}

	supported := c.supportedLanguages
	if supported == nil {
		supported = defaultSupportedLanguages
	}

	if iso, ok := languageNameToISO[lower]; ok {
		if supported[iso] {
			return iso, true
		}
		return "", false
	}
	if supported[lower] {
		return lower, true
	}
	return "", false
}
