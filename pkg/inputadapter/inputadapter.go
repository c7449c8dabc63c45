// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package inputadapter implements the Input Adapter (spec.md §4.1): raw
// input classification (text vs URL), shortener expansion, e-commerce
// platform/product-id extraction, scraper consumption, and conversion of
// a scraped product record into query text. A FIFO cache of 1,000 avoids
// re-scraping the same product.
package inputadapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/kraklabs/preprocess/internal/cache"
	"github.com/kraklabs/preprocess/internal/metrics"
)

// urlIndicators are substrings that trigger the slow (URL) path; their
// absence short-circuits to the fast text path (spec.md §4.1 step 1).
var urlIndicators = []string{"http://", "https://", "www.", ".com", ".in", ".org", ".ly"}

// ScrapedProduct is the external scraper's record shape (spec.md §6.1).
type ScrapedProduct struct {
	Name     string
	Price    *float64
	Specs    map[string]string
	Category string
	Brand    string
	Rating   *float64
}

// Scraper is the external collaborator consumed by step 5 (spec.md §6.1).
// The core never introspects HTML; it only consumes this record.
type Scraper interface {
	ScrapeProduct(ctx context.Context, url string) (*ScrapedProduct, error)
}

// ProcessedInput is the Input Adapter's output record (spec.md §3).
type ProcessedInput struct {
	InputType    string // "text" or "url"
	QueryText    string
	Platform     string
	ProductID    string
	ProductData  *ScrapedProduct
	ExpandedURL  string
	CacheHit     bool
}

// platformPatterns extracts (platform, product_id) pairs from known
// e-commerce URL shapes (spec.md §4.1 step 2): Amazon ASIN, Flipkart
// `pid=`, Myntra path id, and the rest of the major Indian marketplaces.
type platformPattern struct {
	name    string
	host    string
	pattern *regexp.Regexp
}

var platformPatterns = []platformPattern{
	{"amazon", "amazon.", regexp.MustCompile(`/dp/([A-Z0-9]{10})`)},
	{"amazon", "amazon.", regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`)},
	{"flipkart", "flipkart.", regexp.MustCompile(`[?&]pid=([A-Za-z0-9]+)`)},
	{"myntra", "myntra.", regexp.MustCompile(`/(\d{6,})/buy`)},
	{"snapdeal", "snapdeal.", regexp.MustCompile(`/product/[^/]+/(\d+)`)},
	{"ajio", "ajio.", regexp.MustCompile(`/p/(\d+)`)},
	{"meesho", "meesho.", regexp.MustCompile(`/p/(\d+)`)},
}

// shortenerHosts is the known list of URL shorteners requiring a HEAD
// expansion before platform matching (spec.md §4.1 step 4).
var shortenerHosts = map[string]bool{
	"bit.ly": true, "tinyurl.com": true, "amzn.to": true,
	"fkrt.it": true, "cutt.ly": true, "rebrand.ly": true,
}

// Adapter implements the Input Adapter component.
type Adapter struct {
	logger     *slog.Logger
	httpClient *http.Client
	scraper    Scraper // optional
	cache      *cache.FIFO[string, ScrapedProduct]
}

// New constructs an Adapter. scraper may be nil, in which case URLs whose
// platform is identified still degrade to pass-through (spec.md §4.1
// step 6: all network/scrape errors degrade, never raise).
func New(logger *slog.Logger, scraper Scraper) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		logger:     logger,
		httpClient: &http.Client{Timeout: 3 * time.Second},
		scraper:    scraper,
		cache:      cache.NewFIFO[string, ScrapedProduct](1000),
	}
}

// Process implements the §4.1 contract.
func (a *Adapter) Process(ctx context.Context, raw string) ProcessedInput {
	start := time.Now()
	result := a.process(ctx, raw)
	metrics.RecordStageRun(metrics.StageInputAdapter, time.Since(start).Seconds())
	return result
}

func (a *Adapter) process(ctx context.Context, raw string) ProcessedInput {
	if !looksLikeURL(raw) {
		return ProcessedInput{InputType: "text", QueryText: raw}
	}

	if !isValidURL(raw) {
		return ProcessedInput{InputType: "text", QueryText: raw}
	}

	expanded := raw
	if isShortener(raw) {
		if resolved, err := a.expandShortener(ctx, raw); err == nil {
			expanded = resolved
		} else {
			a.logger.Warn("inputadapter.shortener_expand_failed", "url", raw, "err", err)
		}
	}

	platform, productID, ok := extractPlatformProductID(expanded)
	if !ok {
		return ProcessedInput{InputType: "url", QueryText: expanded, ExpandedURL: expanded}
	}

	cacheKey := platform + ":" + productID
	if cached, ok := a.cache.Get(cacheKey); ok {
		metrics.RecordCacheHit("product")
		product := cached
		return ProcessedInput{
			InputType:   "url",
			QueryText:   productToText(product),
			Platform:    platform,
			ProductID:   productID,
			ProductData: &product,
			ExpandedURL: expanded,
			CacheHit:    true,
		}
	}
	metrics.RecordCacheMiss("product")

	if a.scraper == nil {
		return ProcessedInput{InputType: "url", QueryText: expanded, Platform: platform, ProductID: productID, ExpandedURL: expanded}
	}

	product, err := a.scraper.ScrapeProduct(ctx, expanded)
	if err != nil || product == nil {
		if err != nil {
			a.logger.Warn("inputadapter.scrape_failed", "url", expanded, "err", err)
		}
		return ProcessedInput{InputType: "url", QueryText: expanded, Platform: platform, ProductID: productID, ExpandedURL: expanded}
	}

	a.cache.Add(cacheKey, *product)

	return ProcessedInput{
		InputType:   "url",
		QueryText:   productToText(*product),
		Platform:    platform,
		ProductID:   productID,
		ProductData: product,
		ExpandedURL: expanded,
	}
}

func looksLikeURL(raw string) bool {
	lower := strings.ToLower(raw)
	for _, indicator := range urlIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func isValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := u.Host
	if host == "" {
		host = u.Path // scheme-less input like "www.example.com/x"
	}
	return strings.Contains(host, ".")
}

func isShortener(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return shortenerHosts[strings.ToLower(u.Hostname())]
}

func (a *Adapter) expandShortener(ctx context.Context, raw string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return raw, err
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return raw, err
	}
	defer func() { _ = resp.Body.Close() }()

	if final := resp.Request.URL.String(); final != "" {
		return final, nil
	}
	return raw, nil
}

func extractPlatformProductID(rawURL string) (string, string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", false
	}
	host := strings.ToLower(u.Hostname())

	for _, p := range platformPatterns {
		if !strings.Contains(host, p.host) {
			continue
		}
		if m := p.pattern.FindStringSubmatch(rawURL); m != nil {
			return p.name, m[1], true
		}
	}
	return "", "", false
}

// productToText converts a scraped product record to a space-joined
// query string (spec.md §4.1 step 5) in the order name, specs ("key value"
// pairs, in map iteration order), price, category, brand (omitted when the
// name already contains it), rating.
func productToText(p ScrapedProduct) string {
	var parts []string
	if p.Name != "" {
		parts = append(parts, p.Name)
	}
	for k, v := range p.Specs {
		parts = append(parts, fmt.Sprintf("%s %s", k, v))
	}
	if p.Price != nil {
		parts = append(parts, fmt.Sprintf("%.0f rupees", *p.Price))
	}
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	if p.Brand != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(p.Brand)) {
		parts = append(parts, p.Brand)
	}
	if p.Rating != nil {
		parts = append(parts, fmt.Sprintf("%.1f rating", *p.Rating))
	}
	return strings.Join(parts, " ")
}
