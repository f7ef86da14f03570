package estimate

import (
	"strings"
	"unicode"
)

// curve holds the power-law calibration for one category bucket:
// units(rank) = scale * rank^(-exponent), zero beyond maxRank.
type curve struct {
	scale    float64
	exponent float64
	maxRank  int
}

// calibration curves per category bucket, fit against observed sales of
// ranked products. The default bucket is deliberately conservative.
var curves = map[string]curve{
	"home_kitchen":     {scale: 11200, exponent: 0.58, maxRank: 600000},
	"kitchen_dining":   {scale: 9800, exponent: 0.56, maxRank: 450000},
	"electronics":      {scale: 14500, exponent: 0.62, maxRank: 500000},
	"toys_games":       {scale: 8900, exponent: 0.55, maxRank: 400000},
	"beauty":           {scale: 10400, exponent: 0.57, maxRank: 350000},
	"grocery":          {scale: 12100, exponent: 0.60, maxRank: 300000},
	"sports_outdoors":  {scale: 8200, exponent: 0.54, maxRank: 450000},
	"pet_supplies":     {scale: 9100, exponent: 0.56, maxRank: 250000},
	"office_products":  {scale: 7600, exponent: 0.53, maxRank: 300000},
	"tools_home":       {scale: 8700, exponent: 0.55, maxRank: 400000},
	"health_household": {scale: 11800, exponent: 0.59, maxRank: 350000},
	"default":          {scale: 7000, exponent: 0.52, maxRank: 300000},
}

// bucketAliases maps human-readable category names (lowercased, first path
// segment) onto calibration buckets.
var bucketAliases = map[string]string{
	"home & kitchen":           "home_kitchen",
	"home and kitchen":         "home_kitchen",
	"kitchen & dining":         "kitchen_dining",
	"kitchen and dining":       "kitchen_dining",
	"electronics":              "electronics",
	"toys & games":             "toys_games",
	"toys and games":           "toys_games",
	"beauty":                   "beauty",
	"beauty & personal care":   "beauty",
	"grocery":                  "grocery",
	"grocery & gourmet food":   "grocery",
	"sports & outdoors":        "sports_outdoors",
	"pet supplies":             "pet_supplies",
	"office products":          "office_products",
	"tools & home improvement": "tools_home",
	"health & household":       "health_household",
	"health and household":     "health_household",
}

// NormalizeCategory maps a category name onto a calibration bucket. It
// rejects internal provider classification codes (numeric IDs, CODE_STYLE
// tokens) so only human-readable names reach the curves; unrecognized but
// readable names fall back to the default bucket.
func NormalizeCategory(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if name == "" || looksLikeProviderCode(name) {
		return "", false
	}

	// Rank categories often arrive as a breadcrumb path; the top segment
	// decides the bucket.
	if i := strings.IndexAny(name, ">|/"); i > 0 {
		name = strings.TrimSpace(name[:i])
	}

	key := strings.ToLower(name)
	if bucket, ok := bucketAliases[key]; ok {
		return bucket, true
	}
	return "default", true
}

// looksLikeProviderCode detects internal classification identifiers such as
// "165793011" or "KITCHEN_DINING_GRP" that must not be treated as category
// names.
func looksLikeProviderCode(s string) bool {
	digits, uppers, letters := 0, 0, 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsUpper(r):
			uppers++
			letters++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if letters == 0 {
		return digits > 0
	}
	// All-caps tokens with underscores and no spaces are code-style.
	return uppers == letters && !strings.Contains(s, " ") && strings.Contains(s, "_")
}

// unitsForRank evaluates the bucket's calibration curve.
func unitsForRank(bucket string, rank int) float64 {
	c, ok := curves[bucket]
	if !ok {
		c = curves["default"]
	}
	if rank <= 0 || rank > c.maxRank {
		return 0
	}
	return c.scale * powNeg(float64(rank), c.exponent)
}
