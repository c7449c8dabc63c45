// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package features implements the Feature Extractor (spec.md §4.7): a
// battery of regexes over the English-normalized query text, followed by
// category resolution with an explicit confidence-tagged priority chain
// and a category-type allow-list filter.
package features

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kraklabs/preprocess/internal/metrics"
)

// Method records how the category was resolved (spec.md §4.7).
type Method string

const (
	MethodRegex   Method = "regex"
	MethodContext Method = "context"
	MethodNER     Method = "ner"
	MethodNone    Method = "none"
)

// Set is the structured facet bag the extractor produces.
type Set struct {
	Storage    string
	RAM        string
	ScreenSize string
	Resolution string
	CameraMP   string
	Battery    string
	Processor  string
	Price      string
	PriceMin   string
	PriceMax   string
	Size       string
	Material   string
	Sleeve     string
	Dimension  string
	Capacity   string
	LuggageSize string
	LuggageType string
	Wheels     string
	Color      string
	Brand      string

	Category           string
	CategoryConfidence float64
	CategoryMethod     Method
}

// AsMap renders the non-empty scalar facets as a plain map, matching the
// `features` shape in the §6.6 response.
func (s Set) AsMap() map[string]string {
	out := make(map[string]string)
	add := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	add("storage", s.Storage)
	add("ram", s.RAM)
	add("screen_size", s.ScreenSize)
	add("resolution", s.Resolution)
	add("camera_mp", s.CameraMP)
	add("battery", s.Battery)
	add("processor", s.Processor)
	add("price", s.Price)
	add("price_min", s.PriceMin)
	add("price_max", s.PriceMax)
	add("size", s.Size)
	add("material", s.Material)
	add("sleeve", s.Sleeve)
	add("dimension", s.Dimension)
	add("capacity", s.Capacity)
	add("luggage_size", s.LuggageSize)
	add("luggage_type", s.LuggageType)
	add("wheels", s.Wheels)
	add("color", s.Color)
	add("brand", s.Brand)
	if s.Category != "" {
		out["category"] = s.Category
	}
	return out
}

// ProductCode returns the first model-code-shaped token (2-5 letters, an
// optional hyphen, 3-6 digits, an optional trailing letter; matched
// case-insensitively) for the orchestrator's direct lookup, per spec.md
// §4.10 step 7's early-exit check. This extractor does not itself decide
// exactness; it just surfaces the regex hit the orchestrator checks.
var productCodePattern = regexp.MustCompile(`(?i)\b([A-Z]{2,5}-?\d{3,6}[A-Z]?)\b`)

func (s Set) ProductCode(text string) (string, bool) {
	m := productCodePattern.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

var (
	storagePattern    = regexp.MustCompile(`(?i)\b(\d{2,4})\s?(gb|tb)\b`)
	ramPattern        = regexp.MustCompile(`(?i)\b(\d{1,2})\s?gb\s?ram\b`)
	screenSizePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d)?)\s?(inch|in|"|')\b`)
	resolutionPattern = regexp.MustCompile(`(?i)\b(720p|1080p|4k|2k|hd|fhd|uhd)\b`)
	cameraMPPattern   = regexp.MustCompile(`(?i)\b(\d{1,3})\s?mp\b`)
	batteryPattern    = regexp.MustCompile(`(?i)\b(\d{3,6})\s?mah\b`)
	processorPattern  = regexp.MustCompile(`(?i)\b(i[3579]|ryzen\s?[3579]|snapdragon\s?\d{3,4}|exynos\s?\d{3,4}|mediatek|bionic|m1|m2|m3)\b`)

	// Price accepts ₹, rs, and romanized currency words carried over from
	// the original feature extractor's romanized price tables.
	pricePattern    = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr|taka)\s?(\d{2,7})\b|\b(\d{2,7})\s?(?:rs|rupees|taka)\b`)
	priceMaxUnder   = regexp.MustCompile(`(?i)\b(?:under|below|se\s?kam|ke\s?upar\s?nahi|ar\s?kome)\s?(?:₹|rs\.?|taka)?\s?(\d{2,7})\b`)
	priceMinAbove   = regexp.MustCompile(`(?i)\b(?:above|over|ke\s?upar|ar\s?modhe|se\s?jyada)\s?(?:₹|rs\.?|taka)?\s?(\d{2,7})\b`)

	sizePattern      = regexp.MustCompile(`(?i)\b(xs|small|medium|large|xl|xxl|xxxl|[s|m|l]\b|\d{1,2}(?:\.\d)?\s?(?:uk|us|eu))\b`)
	materialPattern  = regexp.MustCompile(`(?i)\b(cotton|leather|polyester|denim|wool|silk|nylon|linen|rubber|steel|plastic|aluminum|aluminium)\b`)
	sleevePattern    = regexp.MustCompile(`(?i)\b(full sleeve|half sleeve|sleeveless|long sleeve|short sleeve)\b`)
	dimensionPattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?\s?[x×]\s?\d+(?:\.\d+)?(?:\s?[x×]\s?\d+(?:\.\d+)?)?)\s?(cm|inch|in|mm)?\b`)
	capacityPattern  = regexp.MustCompile(`(?i)\b(\d{1,3})\s?(l|litre|liter|litres|liters|ml)\b`)

	luggageSizePattern = regexp.MustCompile(`(?i)\b(cabin|small|medium|large|check-?in)\s?(?:size|luggage|bag)?\b`)
	luggageTypePattern = regexp.MustCompile(`(?i)\b(hard\s?side|soft\s?side|hardshell|duffel|trolley|backpack)\b`)
	wheelsPattern      = regexp.MustCompile(`(?i)\b([2468])\s?wheel(?:er|s)?\b`)

	colorPattern = regexp.MustCompile(`(?i)\b(black|white|red|blue|green|yellow|pink|purple|orange|grey|gray|gold|silver|brown|navy|maroon|beige|khaki)\b`)
)

// brandList is a small curated e-commerce brand vocabulary used both for
// direct brand extraction and for category inference by context.
var brandList = []string{
	"samsung", "apple", "xiaomi", "redmi", "oneplus", "realme", "oppo", "vivo",
	"nokia", "motorola", "asus", "dell", "hp", "lenovo", "acer", "msi",
	"nike", "adidas", "puma", "reebok", "woodland", "bata",
	"american tourister", "safari", "skybags", "vip",
	"prestige", "philips", "bajaj", "havells", "usha",
}

var phoneBrands = map[string]bool{
	"samsung": true, "apple": true, "xiaomi": true, "redmi": true,
	"oneplus": true, "realme": true, "oppo": true, "vivo": true,
	"nokia": true, "motorola": true,
}

var laptopBrands = map[string]bool{
	"asus": true, "dell": true, "hp": true, "lenovo": true, "acer": true,
	"msi": true, "apple": true,
}

// categoryKeywords maps 100 category keywords to their category, spanning
// electronics, appliances, fashion, sports, books, beauty, furniture,
// kitchen, toys, and luggage. The set here is representative, not
// exhaustive, and is meant to be extended in place.
var categoryKeywords = map[string]string{
	"phone": "phone", "smartphone": "phone", "mobile": "phone",
	"laptop": "laptop", "notebook": "laptop", "ultrabook": "laptop",
	"headphone": "audio", "headphones": "audio", "earphone": "audio",
	"earphones": "audio", "earbuds": "audio", "speaker": "audio",
	"tv": "electronics", "television": "electronics", "monitor": "electronics",
	"tablet": "electronics", "smartwatch": "electronics", "camera": "electronics",
	"refrigerator": "appliances", "fridge": "appliances", "washing machine": "appliances",
	"microwave": "appliances", "ac": "appliances", "air conditioner": "appliances",
	"geyser": "appliances", "water heater": "appliances", "mixer": "appliances",
	"grinder": "appliances", "vacuum": "appliances", "iron": "appliances",

	"shirt": "clothing", "t-shirt": "clothing", "tshirt": "clothing",
	"jeans": "clothing", "trousers": "clothing", "kurta": "clothing",
	"saree": "clothing", "dress": "clothing", "jacket": "clothing",
	"sweater": "clothing", "hoodie": "clothing", "shorts": "clothing",
	"shoes": "footwear", "sneakers": "footwear", "sandals": "footwear",
	"slippers": "footwear", "boots": "footwear", "heels": "footwear",

	"bat": "sports", "ball": "sports", "racket": "sports", "racquet": "sports",
	"dumbbell": "sports", "treadmill": "sports", "cycle": "sports",
	"bicycle": "sports", "yoga mat": "sports", "gym": "sports",

	"novel": "books", "book": "books", "textbook": "books", "comic": "books",
	"magazine": "books",

	"lipstick": "beauty", "makeup": "beauty", "perfume": "beauty",
	"shampoo": "beauty", "moisturizer": "beauty", "sunscreen": "beauty",
	"foundation": "beauty", "kajal": "beauty",

	"sofa": "furniture", "bed": "furniture", "wardrobe": "furniture",
	"table": "furniture", "chair": "furniture", "bookshelf": "furniture",
	"cabinet": "furniture", "recliner": "furniture",

	"cookware": "kitchen", "pan": "kitchen", "pot": "kitchen",
	"pressure cooker": "kitchen", "kettle": "kitchen", "toaster": "kitchen",
	"blender": "kitchen", "dinner set": "kitchen", "bottle": "kitchen",

	"toy": "toys", "doll": "toys", "lego": "toys", "puzzle": "toys",
	"rc car": "toys", "action figure": "toys",

	"suitcase": "luggage", "trolley bag": "luggage", "backpack": "luggage",
	"duffel bag": "luggage", "travel bag": "luggage", "luggage": "luggage",
}

// ignoreNounChunks are generic nouns the NER fallback excludes from
// consideration as a category (spec.md §4.7, method `ner`).
var ignoreNounChunks = map[string]bool{
	"thing": true, "item": true, "product": true, "stuff": true,
	"something": true, "one": true,
}

// categoryAllowlist filters out facets that are inconsistent with a
// resolved category (spec.md §4.7: e.g. ram/storage for luggage).
var categoryAllowlist = map[string]map[string]bool{
	"electronics": {"storage": true, "ram": true, "screen_size": true, "resolution": true, "camera_mp": true, "battery": true, "processor": true, "color": true, "brand": true},
	"phone":       {"storage": true, "ram": true, "screen_size": true, "resolution": true, "camera_mp": true, "battery": true, "processor": true, "color": true, "brand": true},
	"laptop":      {"storage": true, "ram": true, "screen_size": true, "resolution": true, "processor": true, "color": true, "brand": true},
	"audio":       {"battery": true, "color": true, "brand": true},
	"luggage":     {"size": true, "material": true, "dimension": true, "capacity": true, "luggage_size": true, "luggage_type": true, "wheels": true, "color": true, "brand": true},
	"clothing":    {"size": true, "material": true, "sleeve": true, "color": true, "brand": true},
	"footwear":    {"size": true, "material": true, "color": true, "brand": true},
	"furniture":   {"material": true, "dimension": true, "color": true},
	"appliances":  {"capacity": true, "color": true, "brand": true, "battery": true},
}

// Extractor implements the Feature Extractor component.
type Extractor struct {
	ner NERProvider // optional
}

// NERProvider is the optional secondary category source (spec.md §4.7).
// No Go NER binding exists in the example pack, so this is a seam: absent
// a configured provider, the extractor simply skips to method `none`.
type NERProvider interface {
	NounChunks(text string) []string
}

// New constructs an Extractor. ner may be nil.
func New(ner NERProvider) *Extractor {
	return &Extractor{ner: ner}
}

// Extract runs the full regex battery and category resolution over text.
func (e *Extractor) Extract(text string) Set {
	start := time.Now()
	set := e.extractFacets(text)
	set.Category, set.CategoryConfidence, set.CategoryMethod = e.resolveCategory(text, set)
	set = applyAllowlist(set)
	metrics.RecordStageRun(metrics.StageFeatureExtract, time.Since(start).Seconds())
	return set
}

func (e *Extractor) extractFacets(text string) Set {
	var s Set

	if m := storagePattern.FindStringSubmatch(text); m != nil {
		s.Storage = strings.ToUpper(m[1] + m[2])
	}
	if m := ramPattern.FindStringSubmatch(text); m != nil {
		s.RAM = m[1] + "GB"
	}
	if m := screenSizePattern.FindStringSubmatch(text); m != nil {
		s.ScreenSize = m[1] + " inch"
	}
	if m := resolutionPattern.FindString(text); m != "" {
		s.Resolution = strings.ToUpper(m)
	}
	if m := cameraMPPattern.FindStringSubmatch(text); m != nil {
		s.CameraMP = m[1] + "MP"
	}
	if m := batteryPattern.FindStringSubmatch(text); m != nil {
		s.Battery = m[1] + "mAh"
	}
	if m := processorPattern.FindString(text); m != "" {
		s.Processor = strings.ToLower(m)
	}

	if m := priceMaxUnder.FindStringSubmatch(text); m != nil {
		s.PriceMax = m[1]
	}
	if m := priceMinAbove.FindStringSubmatch(text); m != nil {
		s.PriceMin = m[1]
	}
	if s.PriceMax == "" && s.PriceMin == "" {
		if m := pricePattern.FindStringSubmatch(text); m != nil {
			if m[1] != "" {
				s.Price = m[1]
			} else {
				s.Price = m[2]
			}
		}
	}

	if m := sizePattern.FindString(text); m != "" {
		s.Size = strings.ToUpper(m)
	}
	if m := materialPattern.FindString(text); m != "" {
		s.Material = strings.ToLower(m)
	}
	if m := sleevePattern.FindString(text); m != "" {
		s.Sleeve = strings.ToLower(m)
	}
	if m := dimensionPattern.FindString(text); m != "" {
		s.Dimension = strings.ToLower(strings.TrimSpace(m))
	}
	if m := capacityPattern.FindStringSubmatch(text); m != nil {
		s.Capacity = m[1] + strings.ToUpper(m[2][:1]) + m[2][1:]
	}

	if m := luggageSizePattern.FindStringSubmatch(text); m != nil {
		s.LuggageSize = strings.ToLower(m[1])
	}
	if m := luggageTypePattern.FindString(text); m != "" {
		s.LuggageType = strings.ToLower(m)
	}
	if m := wheelsPattern.FindStringSubmatch(text); m != nil {
		s.Wheels = m[1]
	}

	if m := colorPattern.FindString(text); m != "" {
		s.Color = strings.ToLower(m)
	}

	lower := strings.ToLower(text)
	for _, brand := range brandList {
		if strings.Contains(lower, brand) {
			s.Brand = brand
			break
		}
	}

	return s
}

// resolveCategory implements the §4.7 priority chain.
func (e *Extractor) resolveCategory(text string, s Set) (string, float64, Method) {
	lower := strings.ToLower(text)
	// The longest matching keyword wins (ties broken alphabetically), so a
	// short keyword inside a longer word ("ac" in "jacket") does not
	// override the longer match and the result does not depend on map order.
	best := ""
	for keyword := range categoryKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		if len(keyword) > len(best) || (len(keyword) == len(best) && keyword < best) {
			best = keyword
		}
	}
	if best != "" {
		return categoryKeywords[best], 0.95, MethodRegex
	}

	if s.Brand != "" {
		if phoneBrands[s.Brand] && (s.RAM != "" || s.Storage != "") {
			return "phone", 0.85, MethodContext
		}
		if laptopBrands[s.Brand] && (s.Processor != "" || (s.RAM != "" && s.Storage != "")) {
			return "laptop", 0.85, MethodContext
		}
	}

	if e.ner != nil {
		for _, chunk := range e.ner.NounChunks(text) {
			chunk = strings.ToLower(strings.TrimSpace(chunk))
			if chunk == "" || ignoreNounChunks[chunk] {
				continue
			}
			return chunk, 0.75, MethodNER
		}
	}

	return "", 0.0, MethodNone
}

// applyAllowlist drops facets inconsistent with the resolved category.
func applyAllowlist(s Set) Set {
	allow, ok := categoryAllowlist[s.Category]
	if !ok {
		return s
	}

	if !allow["storage"] {
		s.Storage = ""
	}
	if !allow["ram"] {
		s.RAM = ""
	}
	if !allow["screen_size"] {
		s.ScreenSize = ""
	}
	if !allow["resolution"] {
		s.Resolution = ""
	}
	if !allow["camera_mp"] {
		s.CameraMP = ""
	}
	if !allow["battery"] {
		s.Battery = ""
	}
	if !allow["processor"] {
		s.Processor = ""
	}
	if !allow["size"] {
		s.Size = ""
	}
	if !allow["material"] {
		s.Material = ""
	}
	if !allow["sleeve"] {
		s.Sleeve = ""
	}
	if !allow["dimension"] {
		s.Dimension = ""
	}
	if !allow["capacity"] {
		s.Capacity = ""
	}
	if !allow["luggage_size"] {
		s.LuggageSize = ""
	}
	if !allow["luggage_type"] {
		s.LuggageType = ""
	}
	if !allow["wheels"] {
		s.Wheels = ""
	}
	if !allow["color"] {
		s.Color = ""
	}
	if !allow["brand"] {
		s.Brand = ""
	}
	return s
}

// ParsePrice is a small helper the orchestrator uses when it needs the
// numeric price for a vector-search filter (spec.md §6.3 `{price: {lte}}`).
func ParsePrice(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
