// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package synonym

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand_ReturnsCuratedSynonyms(t *testing.T) {
	m := New(nil, 0)
	result := m.Expand("mobile", false)

	assert.Contains(t, result, "phone")
	assert.LessOrEqual(t, len(result), DefaultCap)
}

func TestExpand_SkipsOnExactMatch(t *testing.T) {
	m := New(nil, 0)
	result := m.Expand("mobile", true)

	assert.Nil(t, result)
}

func TestExpand_UnknownTokenReturnsEmpty(t *testing.T) {
	m := New(nil, 0)
	result := m.Expand("zyxwv", false)

	assert.Empty(t, result)
}

func TestExpand_CapsAtConfiguredN(t *testing.T) {
	m := New(nil, 2)
	result := m.Expand("mobile", false)

	assert.LessOrEqual(t, len(result), 2)
}

type stubFallback struct{ syns []string }

func (s stubFallback) Synonyms(word string) []string { return s.syns }

func TestExpand_UsesFallbackWhenConfigured(t *testing.T) {
	m := New(stubFallback{syns: []string{"gizmo"}}, 3)
	result := m.Expand("zyxwv", false)

	assert.Contains(t, result, "gizmo")
}

func TestExpand_DedupesAgainstCuratedBeforeFallback(t *testing.T) {
	m := New(stubFallback{syns: []string{"phone"}}, 3)
	result := m.Expand("mobile", false)

	count := 0
	for _, s := range result {
		if s == "phone" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestExpandTokens_UnionAcrossQuery(t *testing.T) {
	m := New(nil, 3)
	result := m.ExpandTokens([]string{"mobile", "cheap"}, false)

	assert.Contains(t, result, "phone")
	assert.Contains(t, result, "budget")
}

func TestExpandTokens_SkipsOnExactMatch(t *testing.T) {
	m := New(nil, 3)
	result := m.ExpandTokens([]string{"mobile"}, true)

	assert.Nil(t, result)
}
