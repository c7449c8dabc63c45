// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package spellcorrect implements the Spell Corrector (spec.md §4.2): a
// curated rewrite table applied token-wise, followed by a symmetric-
// delete (SymSpell-style) dictionary lookup for tokens that survive the
// preserve-pattern filter, and finally currency/quantity unit
// normalization. Results are LRU-cached by (text, flag).
package spellcorrect

import (
	"regexp"
	"strings"
	"time"

	"github.com/kraklabs/preprocess/internal/cache"
	preprocesserrors "github.com/kraklabs/preprocess/internal/errors"
	"github.com/kraklabs/preprocess/internal/metrics"
)

// rewriteTable is the curated e-commerce misspelling and romanized-
// currency rewrite table (spec.md §4.2), applied by dictionary lookup,
// not regex.
var rewriteTable = map[string]string{
	"mobail":    "mobile",
	"mobil":     "mobile",
	"fone":      "phone",
	"laptap":    "laptop",
	"lapi":      "laptop",
	"hedphone":  "headphone",
	"hedphones": "headphones",
	"headphon":  "headphone",
	"headfone":  "headphone",
	"earphon":   "earphone",
	"earfone":   "earphone",
	"blutooth":  "bluetooth",
	"bluetoth":  "bluetooth",
	"wirless":   "wireless",
	"wireles":   "wireless",
	"wirelss":   "wireless",
	"chaeger":   "charger",
	"charher":   "charger",
	"chargr":    "charger",
	"wach":      "watch",
	"shooz":     "shoes",
	"jeens":     "jeans",
	"tshrt":     "tshirt",
	"tshirt":    "t-shirt",
	"sandle":    "sandal",
	"sandles":   "sandals",
	"takar":     "taka",
	"takaa":     "taka",
	"rupaye":    "rupees",
	"rupaya":    "rupees",
	"rupye":     "rupees",
	"rupya":     "rupees",
	"rupe":      "rupees",
	"rs.":       "rs",

	// Brand and product-name misspellings (original_source
	// spell_corrector.py _build_rewrite_rules()).
	"iphon":   "iphone",
	"iphne":   "iphone",
	"iphn":    "iphone",
	"sumsung": "samsung",
	"samsng":  "samsung",
	"samsug":  "samsung",
	"onplus":  "oneplus",
	"onepls":  "oneplus",
	"reelme":  "realme",
	"xiomi":   "xiaomi",
	"readmi":  "redmi",
}

// currencyAliases maps quantity/currency aliases to their canonical form
// (spec.md §4.2 step 4).
var currencyAliases = map[string]string{
	"rs":    "rupees",
	"inr":   "rupees",
	"₹":     "rupees",
	"taka":  "rupees",
	"rupee": "rupees",
}

// preservePatterns short-circuit SymSpell lookup for tokens that should
// never be corrected: pure digits, digit+unit suffixes, model-code
// shapes, and anything shorter than 3 characters.
var (
	pureDigitsPattern  = regexp.MustCompile(`^\d+$`)
	digitUnitPattern   = regexp.MustCompile(`(?i)^\d+(gb|tb|mb|mah|mp|inch|cm|mm|kg|gm|ml|l)$`)
	modelCodePattern   = regexp.MustCompile(`(?i)^[a-z]\d{1,4}[a-z]?$|^[a-z]+\d+[a-z]*$`)
)

func isPreserved(token string) bool {
	if len([]rune(token)) < 3 {
		return true
	}
	if pureDigitsPattern.MatchString(token) {
		return true
	}
	if digitUnitPattern.MatchString(token) {
		return true
	}
	if modelCodePattern.MatchString(token) {
		return true
	}
	return false
}

// seedDictionary is the default SymSpell dictionary, built from brand,
// category, spec, and price-term frequency pairs (spec.md §4.2: "built
// from brand/category/spec/price-term frequency pairs when no custom
// dictionary is provided"). Values are relative frequencies used only to
// break ties between equally-distant suggestions.
var seedDictionary = map[string]int{
	"mobile": 100, "phone": 100, "smartphone": 80, "laptop": 90, "notebook": 40,
	"headphone": 70, "headphones": 70, "earphone": 60, "earphones": 60,
	"bluetooth": 65, "wireless": 70, "charger": 60, "watch": 75, "smartwatch": 55,
	"shoes": 70, "sneakers": 50, "sandals": 45, "jeans": 55, "shirt": 60,
	"tshirt": 50, "jacket": 45, "dress": 55, "saree": 40, "kurta": 40,
	"samsung": 80, "apple": 85, "iphone": 85, "xiaomi": 60, "redmi": 55, "oneplus": 55,
	"realme": 50, "nike": 60, "adidas": 58, "puma": 45,
	"storage": 50, "battery": 55, "processor": 45, "camera": 65, "display": 50,
	"price": 70, "discount": 50, "offer": 45, "sale": 50, "cheap": 40, "budget": 45,
	"rupees": 60, "taka": 40,
}

// Corrector implements the Spell Corrector component.
type Corrector struct {
	maxEditDistance int
	prefixLength    int
	deletes         map[string][]string // delete-variant -> candidate dictionary words
	cache           *cache.LRU[cacheKey, string]
}

type cacheKey struct {
	text string
	flag bool
}

// New builds the symmetric-delete index from the seed dictionary at
// construction. maxEditDistance and prefixLength default to 2 and 7
// (spec.md §4.2) when non-positive.
func New(maxEditDistance, prefixLength int) (*Corrector, error) {
	if maxEditDistance <= 0 {
		maxEditDistance = 2
	}
	if prefixLength <= 0 {
		prefixLength = 7
	}
	if maxEditDistance > prefixLength {
		return nil, preprocesserrors.NewConfigError(
			"invalid spell corrector configuration",
			"max edit distance cannot exceed prefix length",
			"lower spell_max_edit_distance or raise spell_prefix_length in config",
			nil,
		)
	}

	c := &Corrector{
		maxEditDistance: maxEditDistance,
		prefixLength:    prefixLength,
		deletes:         make(map[string][]string),
		cache:           cache.NewLRU[cacheKey, string](10000),
	}
	for word := range seedDictionary {
		c.indexWord(word)
	}
	return c, nil
}

func (c *Corrector) indexWord(word string) {
	prefix := word
	if len([]rune(prefix)) > c.prefixLength {
		prefix = string([]rune(prefix)[:c.prefixLength])
	}
	for _, variant := range deletes(prefix, c.maxEditDistance) {
		c.deletes[variant] = append(c.deletes[variant], word)
	}
	c.deletes[prefix] = append(c.deletes[prefix], word)
}

// deletes generates every string reachable from s by deleting up to
// maxDist characters, the symmetric-delete trick SymSpell relies on to
// avoid computing edit distance against the whole dictionary at query
// time.
func deletes(s string, maxDist int) []string {
	set := map[string]bool{}
	frontier := []string{s}
	for d := 0; d < maxDist; d++ {
		var next []string
		for _, f := range frontier {
			runes := []rune(f)
			for i := range runes {
				variant := string(runes[:i]) + string(runes[i+1:])
				if !set[variant] {
					set[variant] = true
					next = append(next, variant)
				}
			}
		}
		frontier = next
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	return out
}

// Correct implements the §4.2 contract. It never raises; empty input
// passes through unchanged.
func (c *Corrector) Correct(text string, applyUnitNormalization bool) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	key := cacheKey{text: text, flag: applyUnitNormalization}
	if cached, ok := c.cache.Get(key); ok {
		metrics.RecordCacheHit("spell_correction")
		return cached
	}
	metrics.RecordCacheMiss("spell_correction")

	start := time.Now()
	result := c.correctUncached(text, applyUnitNormalization)
	metrics.RecordStageRun(metrics.StageSpellCorrect, time.Since(start).Seconds())

	c.cache.Add(key, result)
	return result
}

func (c *Corrector) correctUncached(text string, applyUnitNormalization bool) string {
	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		lower := strings.ToLower(tok)

		if rewritten, ok := rewriteTable[lower]; ok {
			out = append(out, rewritten)
			continue
		}

		if isPreserved(tok) {
			out = append(out, tok)
			continue
		}

		corrected := c.lookup(lower)
		out = append(out, corrected)
	}

	result := strings.Join(out, " ")
	if applyUnitNormalization {
		result = normalizeUnits(result)
	}
	return result
}

// lookup returns the closest SymSpell candidate within maxEditDistance,
// or word unchanged if none qualifies.
func (c *Corrector) lookup(word string) string {
	prefix := word
	if len([]rune(prefix)) > c.prefixLength {
		prefix = string([]rune(prefix)[:c.prefixLength])
	}

	candidates := map[string]bool{}
	for _, cand := range c.deletes[prefix] {
		candidates[cand] = true
	}
	for _, variant := range deletes(prefix, c.maxEditDistance) {
		for _, cand := range c.deletes[variant] {
			candidates[cand] = true
		}
	}

	best := ""
	bestDist := c.maxEditDistance + 1
	bestFreq := -1
	for cand := range candidates {
		dist := levenshtein(word, cand)
		if dist > c.maxEditDistance {
			continue
		}
		freq := seedDictionary[cand]
		if dist < bestDist || (dist == bestDist && freq > bestFreq) {
			best, bestDist, bestFreq = cand, dist, freq
		}
	}

	if best == "" {
		return word
	}
	return best
}

// normalizeUnits maps currency/quantity aliases to canonical forms
// (spec.md §4.2 step 4), applied token-wise after spell correction.
func normalizeUnits(text string) string {
	tokens := strings.Fields(text)
	for i, tok := range tokens {
		lower := strings.ToLower(strings.TrimRight(tok, ".,"))
		if canonical, ok := currencyAliases[lower]; ok {
			tokens[i] = canonical
		}
	}
	return strings.Join(tokens, " ")
}

// levenshtein computes classic edit distance; dictionaries here are small
// enough that the simple O(n*m) DP table is not a latency concern.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	m, n := len(ra), len(rb)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[n]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
