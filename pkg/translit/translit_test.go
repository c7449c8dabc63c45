// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package translit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthyServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(healthResponse{ModelLoaded: true, SupportedLanguages: []string{"hi", "bn"}})
	})
	mux.HandleFunc("/transliterate", func(w http.ResponseWriter, r *http.Request) {
		var req transliterateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(transliterateResponse{
			Transliterated: "मुझे " + req.Language,
			LatencyMs:      5,
		})
	})
	return httptest.NewServer(mux)
}

func TestNew_FailsWhenModelNotLoaded(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(healthResponse{ModelLoaded: false})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := New(context.Background(), nil, server.URL)
	assert.Error(t, err)
}

func TestNew_FailsOnUnreachableServer(t *testing.T) {
	_, err := New(context.Background(), nil, "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestNew_SucceedsWhenModelLoaded(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()

	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestProcess_PassThroughWhenNativeNotRomanized(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	result, err := client.Process(context.Background(), "सस्ता फोन", LanguageFlags{Native: true, Romanized: false}, "")
	require.NoError(t, err)
	assert.Equal(t, "सस्ता फोन", result.NormalizedQuery)
	assert.False(t, result.ServiceUsed)
}

func TestProcess_PassThroughWhenNeitherFlagSet(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	result, err := client.Process(context.Background(), "xyz", LanguageFlags{}, "")
	require.NoError(t, err)
	assert.Equal(t, "xyz", result.NormalizedQuery)
}

func TestProcess_PassThroughWhenTargetIsEnglish(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	result, err := client.Process(context.Background(), "wireless headphones", LanguageFlags{Romanized: true}, "en")
	require.NoError(t, err)
	assert.Equal(t, "wireless headphones", result.NormalizedQuery)
}

func TestProcess_PassThroughWhenLanguageUnrecognized(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	result, err := client.Process(context.Background(), "mujhe chahiye", LanguageFlags{Romanized: true}, "klingon")
	require.NoError(t, err)
	assert.Equal(t, "mujhe chahiye", result.NormalizedQuery)
}

func TestProcess_CallsRemoteForRomanizedHindi(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	result, err := client.Process(context.Background(), "mujhe chahiye", LanguageFlags{Romanized: true}, "hindi")
	require.NoError(t, err)
	assert.True(t, result.ServiceUsed)
	assert.Contains(t, result.NormalizedQuery, "hi")
}

func TestProcess_CachesResultByKey(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(healthResponse{ModelLoaded: true})
	})
	mux.HandleFunc("/transliterate", func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(transliterateResponse{Transliterated: "result"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	_, err = client.Process(context.Background(), "mujhe chahiye", LanguageFlags{Romanized: true}, "hi")
	require.NoError(t, err)
	_, err = client.Process(context.Background(), "mujhe chahiye", LanguageFlags{Romanized: true}, "hi")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestProcess_MarksUnhealthyOnConnectionFailure(t *testing.T) {
	server := newHealthyServer(t)
	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)
	server.Close()

	_, err = client.Process(context.Background(), "mujhe chahiye", LanguageFlags{Romanized: true}, "hi")
	assert.Error(t, err)
	assert.False(t, client.healthy)

	_, err = client.Process(context.Background(), "another query", LanguageFlags{Romanized: true}, "hi")
	assert.Error(t, err)
}

func TestNormalizeLanguage(t *testing.T) {
	c := &Client{supportedLanguages: defaultSupportedLanguages}
	cases := []struct {
		in      string
		wantISO string
		wantOK  bool
	}{
		{"hindi", "hi", true},
		{"hi", "hi", true},
		{"hi_Latn", "hi", true},
		{"en", "en", true},
		{"english", "en", true},
		{"klingon", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		iso, ok := c.normalizeLanguage(tc.in)
		assert.Equal(t, tc.wantOK, ok, tc.in)
		if tc.wantOK {
			assert.Equal(t, tc.wantISO, iso, tc.in)
		}
	}
}

func TestNormalizeLanguage_RespectsServiceAdvertisedSet(t *testing.T) {
	// tamil is a recognized language name, but this service only ever
	// advertised hi/bn at health-check time, so it must not resolve.
	c := &Client{supportedLanguages: map[string]bool{"hi": true, "bn": true}}

	_, ok := c.normalizeLanguage("tamil")
	assert.False(t, ok)

	iso, ok := c.normalizeLanguage("hindi")
	require.True(t, ok)
	assert.Equal(t, "hi", iso)
}

func TestNew_StoresServiceAdvertisedSupportedLanguages(t *testing.T) {
	server := newHealthyServer(t)
	defer server.Close()

	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"hi": true, "bn": true}, client.supportedLanguages)
}

func TestNew_FallsBackToDefaultSetWhenHealthOmitsLanguages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(healthResponse{ModelLoaded: true})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(context.Background(), nil, server.URL)
	require.NoError(t, err)

	assert.True(t, client.supportedLanguages["ta"], "falls back to the default advertised set")
}
