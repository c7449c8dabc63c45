// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package inputadapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_PlainTextPassesThrough(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "cheap mobile under 10000")

	assert.Equal(t, "text", result.InputType)
	assert.Equal(t, "cheap mobile under 10000", result.QueryText)
}

func TestProcess_NonURLWithDotIsStillText(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "samsung a52 5g, 128gb")

	assert.Equal(t, "text", result.InputType)
}

func TestProcess_AmazonURLExtractsASIN(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "https://www.amazon.in/Some-Product/dp/B08N5WRWNW/ref=sr_1_1")

	assert.Equal(t, "url", result.InputType)
	assert.Equal(t, "amazon", result.Platform)
	assert.Equal(t, "B08N5WRWNW", result.ProductID)
}

func TestProcess_FlipkartURLExtractsPID(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "https://www.flipkart.com/product/p/itm123?pid=MOBFWQ6BZHGQHS")

	assert.Equal(t, "flipkart", result.Platform)
	assert.Equal(t, "MOBFWQ6BZHGQHS", result.ProductID)
}

func TestProcess_UnrecognizedURLPassesThroughAsURL(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "https://example.org/some/random/path")

	assert.Equal(t, "url", result.InputType)
	assert.Empty(t, result.Platform)
}

type stubScraper struct {
	product *ScrapedProduct
	err     error
	calls   int
}

func (s *stubScraper) ScrapeProduct(ctx context.Context, url string) (*ScrapedProduct, error) {
	s.calls++
	return s.product, s.err
}

func TestProcess_CallsScraperForRecognizedProduct(t *testing.T) {
	price := 24999.0
	scraper := &stubScraper{product: &ScrapedProduct{
		Name: "Galaxy M14", Brand: "Samsung", Category: "mobile",
		Specs: map[string]string{"ram": "6gb"}, Price: &price,
	}}
	a := New(nil, scraper)

	result := a.Process(context.Background(), "https://www.amazon.in/dp/B08N5WRWNW")

	require.NotNil(t, result.ProductData)
	assert.Equal(t, 1, scraper.calls)
	assert.Contains(t, result.QueryText, "Galaxy M14")
	assert.Contains(t, result.QueryText, "Samsung")
}

func TestProcess_ScraperCacheHitOnSecondCall(t *testing.T) {
	scraper := &stubScraper{product: &ScrapedProduct{Name: "Galaxy M14"}}
	a := New(nil, scraper)

	first := a.Process(context.Background(), "https://www.amazon.in/dp/B08N5WRWNW")
	second := a.Process(context.Background(), "https://www.amazon.in/dp/B08N5WRWNW")

	assert.False(t, first.CacheHit)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, scraper.calls)
}

func TestProcess_ScraperErrorDegradesToURLPassthrough(t *testing.T) {
	scraper := &stubScraper{err: errors.New("scrape timeout")}
	a := New(nil, scraper)

	result := a.Process(context.Background(), "https://www.amazon.in/dp/B08N5WRWNW")

	assert.Equal(t, "url", result.InputType)
	assert.Nil(t, result.ProductData)
}

func TestProcess_NilScraperDegradesGracefully(t *testing.T) {
	a := New(nil, nil)
	result := a.Process(context.Background(), "https://www.amazon.in/dp/B08N5WRWNW")

	assert.Equal(t, "url", result.InputType)
	assert.Equal(t, "amazon", result.Platform)
	assert.Nil(t, result.ProductData)
}

func TestExpandShortener_FollowsRedirectToFinalURL(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	shortener := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/dp/B08N5WRWNW", http.StatusMovedPermanently)
	}))
	defer shortener.Close()

	a := New(nil, nil)
	resolved, err := a.expandShortener(context.Background(), shortener.URL)

	require.NoError(t, err)
	assert.Contains(t, resolved, "/dp/B08N5WRWNW")
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, looksLikeURL("https://www.amazon.in/dp/X"))
	assert.True(t, looksLikeURL("www.flipkart.com/p/x"))
	assert.False(t, looksLikeURL("cheap mobile phone"))
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, isValidURL("https://www.amazon.in/dp/X"))
	assert.False(t, isValidURL("https://"))
}

func TestProductToText_JoinsNameAndBrandAndSpecs(t *testing.T) {
	price := 999.0
	text := productToText(ScrapedProduct{
		Name: "Wireless Earbuds", Brand: "boAt", Category: "audio",
		Specs: map[string]string{"battery": "20hr"}, Price: &price,
	})

	assert.Contains(t, text, "Wireless Earbuds")
	assert.Contains(t, text, "boAt")
	assert.Contains(t, text, "audio")
	assert.Contains(t, text, "battery 20hr")
	assert.Contains(t, text, "rupees")
}

func TestProductToText_IncludesRatingWhenSet(t *testing.T) {
	rating := 4.3
	text := productToText(ScrapedProduct{Name: "Wireless Earbuds", Rating: &rating})

	assert.Contains(t, text, "4.3 rating")
}
