// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package romandetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_RomanizedHindi(t *testing.T) {
	d := New(nil)
	result := d.Detect("mujhe wireless headphone chahiye")
	assert.Equal(t, "hi", result.Language)
	assert.GreaterOrEqual(t, result.Confidence, 0.30)
}

func TestDetect_RomanizedBengali(t *testing.T) {
	d := New(nil)
	result := d.Detect("amake 2000 taka damer earphone dekhao")
	assert.Equal(t, "bn", result.Language)
	assert.GreaterOrEqual(t, result.Confidence, 0.30)
}

func TestDetect_PureEnglishStaysEnglish(t *testing.T) {
	d := New(nil)
	result := d.Detect("wireless headphones under 5000")
	assert.Equal(t, "en", result.Language)
}

func TestDetect_CachesResult(t *testing.T) {
	d := New(nil)
	text := "mujhe chahiye"
	first := d.Detect(text)
	second := d.Detect(text)
	assert.Equal(t, first, second)
}

func TestDetect_EmptyInput(t *testing.T) {
	d := New(nil)
	result := d.Detect("")
	assert.Equal(t, "en", result.Language)
}
