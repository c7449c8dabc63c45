// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package tokenizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/preprocess/pkg/scriptutil"
)

func TestNew_StrictModeWithoutFastTierFails(t *testing.T) {
	_, err := New(nil, true)
	require.Error(t, err)
}

func TestNew_NonStrictSucceeds(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)
	require.NotNil(t, tok)
}

func TestTokenize_PartitionsInput(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	input := "wireless headphones under 5000"
	result, err := tok.Tokenize(context.Background(), input, false)
	require.NoError(t, err)

	// Every token must be a substring of the original input, and their
	// concatenation with separators reconstructs it modulo whitespace
	// (spec.md §8 property 1).
	joined := strings.Join(result.Tokens, " ")
	assert.Equal(t, input, joined)
}

func TestTokenize_ScriptTagsLengthMatchesTokens(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	result, err := tok.Tokenize(context.Background(), "iPhn 12 128gb", true)
	require.NoError(t, err)
	assert.Len(t, result.ScriptTags, len(result.Tokens))
	assert.Len(t, result.TaggedTokens, len(result.Tokens))
}

func TestTokenize_ModelCodesStaySingleToken(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	result, err := tok.Tokenize(context.Background(), "a52 12pro 5000mah 128gb", false)
	require.NoError(t, err)
	assert.Contains(t, result.Tokens, "a52")
	assert.Contains(t, result.Tokens, "12pro")
	assert.Contains(t, result.Tokens, "5000mah")
	assert.Contains(t, result.Tokens, "128gb")
}

func TestTokenize_Determinism(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	input := "मुझे wireless headphone chahiye"
	first, err := tok.Tokenize(context.Background(), input, true)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := tok.Tokenize(context.Background(), input, true)
		require.NoError(t, err)
		assert.Equal(t, first.Tokens, again.Tokens)
		assert.Equal(t, first.ScriptTags, again.ScriptTags)
	}
}

func TestTokenize_NativeDevanagariTaggedCorrectly(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	result, err := tok.Tokenize(context.Background(), "मुझे चाहिए", true)
	require.NoError(t, err)
	for _, s := range result.ScriptTags {
		assert.Equal(t, scriptutil.Devanagari, s)
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	result, err := tok.Tokenize(context.Background(), "", true)
	require.NoError(t, err)
	assert.Empty(t, result.Tokens)
	assert.Empty(t, result.ScriptTags)
}

func TestTokenize_CacheHitReturnsSameResult(t *testing.T) {
	tok, err := New(nil, false)
	require.NoError(t, err)

	input := "wireless headphones under 5000"
	first, err := tok.Tokenize(context.Background(), input, true)
	require.NoError(t, err)
	second, err := tok.Tokenize(context.Background(), input, true)
	require.NoError(t, err)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.ScriptTags, second.ScriptTags)
}
