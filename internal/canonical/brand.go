package canonical

import (
	"strings"
	"unicode"

	"github.com/ascendly/marketsnap/internal/domain"
)

// brandStrategy is one rung of the brand waterfall. It returns ok=false to
// pass resolution to the next rung.
type brandStrategy func(row *domain.RawListing) (domain.BrandResolution, bool)

// brandWaterfall is evaluated in priority order; first match wins. Each rung
// tags its own source and initial status.
var brandWaterfall = []brandStrategy{
	brandFromOfficialFlag,
	brandFromStructuredField,
	brandFromSellerName,
	brandFromTitle,
}

// ResolveBrand runs the waterfall for one listing's first raw appearance.
// When no rung matches, the result is status unknown with no raw brand.
func ResolveBrand(row *domain.RawListing) domain.BrandResolution {
	for _, strategy := range brandWaterfall {
		if res, ok := strategy(row); ok {
			res.NormalizedBrand = NormalizeBrand(res.RawBrand)
			return res
		}
	}
	return domain.BrandResolution{Status: domain.BrandUnknown, Source: domain.BrandSourceUnknown}
}

func brandFromOfficialFlag(row *domain.RawListing) (domain.BrandResolution, bool) {
	if !row.OfficialBrand || row.Brand == nil || strings.TrimSpace(*row.Brand) == "" {
		return domain.BrandResolution{}, false
	}
	return domain.BrandResolution{
		RawBrand: strings.TrimSpace(*row.Brand),
		Status:   domain.BrandCanonical,
		Source:   domain.BrandSourceOfficialFlag,
	}, true
}

func brandFromStructuredField(row *domain.RawListing) (domain.BrandResolution, bool) {
	if row.Brand == nil || strings.TrimSpace(*row.Brand) == "" {
		return domain.BrandResolution{}, false
	}
	return domain.BrandResolution{
		RawBrand: strings.TrimSpace(*row.Brand),
		Status:   domain.BrandCanonical,
		Source:   domain.BrandSourceStructuredField,
	}, true
}

// brandFromSellerName uses the storefront name unless it contains the
// platform's own name, which identifies first-party or commingled offers
// rather than a brand.
func brandFromSellerName(row *domain.RawListing) (domain.BrandResolution, bool) {
	if row.SellerName == nil {
		return domain.BrandResolution{}, false
	}
	seller := strings.TrimSpace(*row.SellerName)
	if seller == "" || strings.Contains(strings.ToLower(seller), "amazon") {
		return domain.BrandResolution{}, false
	}
	return domain.BrandResolution{
		RawBrand: seller,
		Status:   domain.BrandLowConfidence,
		Source:   domain.BrandSourceSellerName,
	}, true
}

// genericStopwords terminate title-token brand extraction: product adjectives,
// materials, sizes, and colors that never start a brand name.
var genericStopwords = map[string]struct{}{
	"electric": {}, "stainless": {}, "steel": {}, "premium": {}, "professional": {},
	"portable": {}, "wireless": {}, "rechargeable": {}, "adjustable": {}, "heavy": {},
	"large": {}, "small": {}, "medium": {}, "mini": {}, "xl": {}, "xxl": {},
	"black": {}, "white": {}, "red": {}, "blue": {}, "green": {}, "silver": {}, "gray": {}, "grey": {},
	"set": {}, "pack": {}, "pcs": {}, "piece": {}, "new": {}, "upgraded": {}, "improved": {},
	"the": {}, "for": {}, "with": {}, "and": {},
}

// brandFromTitle takes the first one to three capitalized tokens of the
// title, stopping at the first generic word or non-capitalized token.
func brandFromTitle(row *domain.RawListing) (domain.BrandResolution, bool) {
	if row.Title == nil {
		return domain.BrandResolution{}, false
	}

	var tokens []string
	for _, tok := range strings.Fields(*row.Title) {
		if len(tokens) == 3 {
			break
		}
		clean := strings.Trim(tok, ",.;:()[]|-")
		if clean == "" {
			break
		}
		runes := []rune(clean)
		if !unicode.IsUpper(runes[0]) {
			break
		}
		if _, generic := genericStopwords[strings.ToLower(clean)]; generic {
			break
		}
		tokens = append(tokens, clean)
	}

	if len(tokens) == 0 {
		return domain.BrandResolution{}, false
	}
	return domain.BrandResolution{
		RawBrand: strings.Join(tokens, " "),
		Status:   domain.BrandLowConfidence,
		Source:   domain.BrandSourceTitle,
	}, true
}

// NormalizeBrand produces the comparison form of a brand string.
func NormalizeBrand(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// UpgradeBrands is the post-resolution pass. A brand is upgraded to canonical
// when it appears on at least two listings, was sourced from the secondary
// provider, or accounts for at least 3% of total estimated page revenue. The
// pass only ever raises Status; RawBrand is never cleared or rewritten.
func UpgradeBrands(listings []domain.CanonicalListing) {
	counts := make(map[string]int)
	revenue := make(map[string]float64)
	var totalRevenue float64

	for i := range listings {
		norm := listings[i].BrandInfo.NormalizedBrand
		if norm == "" {
			continue
		}
		counts[norm]++
		revenue[norm] += listings[i].EstimatedRevenue
		totalRevenue += listings[i].EstimatedRevenue
	}

	for i := range listings {
		info := &listings[i].BrandInfo
		if !info.Resolved() || info.Status == domain.BrandCanonical {
			continue
		}
		norm := info.NormalizedBrand
		switch {
		case counts[norm] >= 2:
			info.Status = domain.BrandCanonical
		case info.Source == domain.BrandSourceSecondary:
			info.Status = domain.BrandCanonical
		case totalRevenue > 0 && revenue[norm]/totalRevenue >= 0.03:
			info.Status = domain.BrandCanonical
		}
	}
}
