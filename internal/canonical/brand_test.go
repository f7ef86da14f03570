package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ascendly/marketsnap/internal/domain"
)

func strp(s string) *string { return &s }

func TestResolveBrand_Waterfall(t *testing.T) {
	tests := []struct {
		name       string
		row        domain.RawListing
		wantBrand  string
		wantStatus domain.BrandStatus
		wantSource domain.BrandSource
	}{
		{
			name:       "official flag wins",
			row:        domain.RawListing{Brand: strp("Acme"), OfficialBrand: true, SellerName: strp("SomeShop")},
			wantBrand:  "Acme",
			wantStatus: domain.BrandCanonical,
			wantSource: domain.BrandSourceOfficialFlag,
		},
		{
			name:       "structured field without flag",
			row:        domain.RawListing{Brand: strp("Acme"), SellerName: strp("SomeShop")},
			wantBrand:  "Acme",
			wantStatus: domain.BrandCanonical,
			wantSource: domain.BrandSourceStructuredField,
		},
		{
			name:       "seller name fallback",
			row:        domain.RawListing{SellerName: strp("KitchenKraft Store")},
			wantBrand:  "KitchenKraft Store",
			wantStatus: domain.BrandLowConfidence,
			wantSource: domain.BrandSourceSellerName,
		},
		{
			name:       "platform seller name is skipped, falls to title",
			row:        domain.RawListing{SellerName: strp("Amazon Warehouse"), Title: strp("Zulay Kitchen Garlic Press")},
			wantBrand:  "Zulay Kitchen Garlic",
			wantStatus: domain.BrandLowConfidence,
			wantSource: domain.BrandSourceTitle,
		},
		{
			name:       "title tokens stop at generic word",
			row:        domain.RawListing{Title: strp("OXO Stainless Steel Garlic Press")},
			wantBrand:  "OXO",
			wantStatus: domain.BrandLowConfidence,
			wantSource: domain.BrandSourceTitle,
		},
		{
			name:       "title capped at three tokens",
			row:        domain.RawListing{Title: strp("Alpha Beta Gamma Delta Press")},
			wantBrand:  "Alpha Beta Gamma",
			wantStatus: domain.BrandLowConfidence,
			wantSource: domain.BrandSourceTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveBrand(&tt.row)
			assert.Equal(t, tt.wantBrand, got.RawBrand)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, NormalizeBrand(tt.wantBrand), got.NormalizedBrand)
		})
	}
}

func TestResolveBrand_NoSignalIsUnknown(t *testing.T) {
	got := ResolveBrand(&domain.RawListing{Title: strp("lowercase generic press")})
	assert.Equal(t, domain.BrandUnknown, got.Status)
	assert.Empty(t, got.RawBrand)
	assert.False(t, got.Resolved())
}

func TestUpgradeBrands_SecondAppearanceUpgrades(t *testing.T) {
	// "Acme" inferred from a title once: low_confidence. A second listing of
	// the same brand upgrades both to canonical without touching RawBrand.
	listings := []domain.CanonicalListing{
		{ASIN: "A", BrandInfo: domain.BrandResolution{
			RawBrand: "Acme", NormalizedBrand: "acme",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceTitle,
		}},
		{ASIN: "B", BrandInfo: domain.BrandResolution{
			RawBrand: "Acme", NormalizedBrand: "acme",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceTitle,
		}},
	}

	UpgradeBrands(listings)

	for _, l := range listings {
		assert.Equal(t, domain.BrandCanonical, l.BrandInfo.Status)
		assert.Equal(t, "Acme", l.BrandInfo.RawBrand, "raw brand must never change")
	}
}

func TestUpgradeBrands_RevenueShareUpgrades(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", EstimatedRevenue: 97, BrandInfo: domain.BrandResolution{
			RawBrand: "BigCo", NormalizedBrand: "bigco",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceSellerName,
		}},
		{ASIN: "B", EstimatedRevenue: 3, BrandInfo: domain.BrandResolution{
			RawBrand: "Acme", NormalizedBrand: "acme",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceTitle,
		}},
	}

	UpgradeBrands(listings)

	require.Equal(t, domain.BrandCanonical, listings[0].BrandInfo.Status)
	// Exactly 3% of total revenue meets the threshold.
	assert.Equal(t, domain.BrandCanonical, listings[1].BrandInfo.Status)
}

func TestUpgradeBrands_SingleLowRevenueBrandStaysLow(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", EstimatedRevenue: 990, BrandInfo: domain.BrandResolution{
			RawBrand: "BigCo", NormalizedBrand: "bigco",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceSellerName,
		}},
		{ASIN: "B", EstimatedRevenue: 10, BrandInfo: domain.BrandResolution{
			RawBrand: "Tiny", NormalizedBrand: "tiny",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceTitle,
		}},
	}

	UpgradeBrands(listings)
	assert.Equal(t, domain.BrandLowConfidence, listings[1].BrandInfo.Status)
}

func TestUpgradeBrands_SecondarySourceUpgrades(t *testing.T) {
	listings := []domain.CanonicalListing{
		{ASIN: "A", BrandInfo: domain.BrandResolution{
			RawBrand: "Acme", NormalizedBrand: "acme",
			Status: domain.BrandLowConfidence, Source: domain.BrandSourceSecondary,
		}},
	}
	UpgradeBrands(listings)
	assert.Equal(t, domain.BrandCanonical, listings[0].BrandInfo.Status)
}
