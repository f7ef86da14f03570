package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ascendly/marketsnap/internal/domain"
)

func intp(n int) *int { return &n }

func listingWith(brand string, reviews int, sponsored bool, price float64) domain.CanonicalListing {
	l := domain.CanonicalListing{
		ReviewCount: intp(reviews),
		Sponsored:   domain.SponsoredMeta{AppearsSponsored: sponsored},
		Price:       domain.NewField(price, domain.SourcePrimary, domain.ConfidenceMedium),
	}
	if brand != "" {
		l.BrandInfo = domain.BrandResolution{
			RawBrand:        brand,
			NormalizedBrand: brand,
			Status:          domain.BrandCanonical,
			Source:          domain.BrandSourceStructuredField,
		}
	}
	return l
}

func TestCompute_ZeroListings(t *testing.T) {
	res := Compute(nil, domain.SellerContext{})

	assert.Zero(t, res.Score)
	assert.Equal(t, domain.CPILow, res.Label)
	assert.Contains(t, res.Explanation, "no data")
}

func TestCompute_IsPure(t *testing.T) {
	build := func() []domain.CanonicalListing {
		return []domain.CanonicalListing{
			listingWith("acme", 4200, true, 19.99),
			listingWith("acme", 900, false, 21.50),
			listingWith("other", 150, false, 24.00),
		}
	}
	seller := domain.SellerContext{Stage: domain.SellerNew}

	first := Compute(build(), seller)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compute(build(), seller))
	}
}

func TestCompute_ReviewDominanceBands(t *testing.T) {
	// Top 3 hold 9600 of 9800 reviews: ~98% share, top band.
	listings := []domain.CanonicalListing{
		listingWith("a", 5000, false, 20),
		listingWith("b", 3000, false, 20),
		listingWith("c", 1600, false, 20),
		listingWith("d", 100, false, 20),
		listingWith("e", 100, false, 20),
	}
	res := Compute(listings, domain.SellerContext{})
	assert.InDelta(t, 30.0, res.ReviewDominance, 1e-9)
}

func TestCompute_BrandConcentration(t *testing.T) {
	// One brand on 3 of 4 listings: 75% share, top band.
	listings := []domain.CanonicalListing{
		listingWith("acme", 10, false, 20),
		listingWith("acme", 10, false, 20),
		listingWith("acme", 10, false, 20),
		listingWith("other", 10, false, 20),
	}
	res := Compute(listings, domain.SellerContext{})
	assert.InDelta(t, 25.0, res.BrandConcentration, 1e-9)
}

func TestCompute_UnresolvedBrandsDoNotConcentrate(t *testing.T) {
	listings := []domain.CanonicalListing{
		listingWith("", 10, false, 20),
		listingWith("", 10, false, 20),
		listingWith("", 10, false, 20),
		listingWith("solo", 10, false, 20),
	}
	res := Compute(listings, domain.SellerContext{})
	// Only the one resolved brand counts: 25% share.
	assert.InDelta(t, 10.0, res.BrandConcentration, 1e-9)
}

func TestCompute_PriceCompressionBand(t *testing.T) {
	// Full 15 points only when (p90-p10)/avg < 0.15.
	tight := make([]domain.CanonicalListing, 0, 10)
	for i := 0; i < 10; i++ {
		tight = append(tight, listingWith("", 0, false, 25.0+float64(i)*0.20))
	}
	wide := []domain.CanonicalListing{
		listingWith("", 0, false, 10),
		listingWith("", 0, false, 20),
		listingWith("", 0, false, 25),
		listingWith("", 0, false, 30),
		listingWith("", 0, false, 50),
	}

	assert.InDelta(t, 15.0, Compute(tight, domain.SellerContext{}).PriceCompression, 1e-9)
	assert.Less(t, Compute(wide, domain.SellerContext{}).PriceCompression, 15.0)
}

func TestCompute_SellerModifier(t *testing.T) {
	listings := []domain.CanonicalListing{listingWith("acme", 100, false, 20)}

	base := Compute(listings, domain.SellerContext{Stage: domain.SellerEstablished})
	fresh := Compute(listings, domain.SellerContext{Stage: domain.SellerNew})
	scaling := Compute(listings, domain.SellerContext{Stage: domain.SellerScaling})

	assert.InDelta(t, base.Score+10, fresh.Score, 1e-9)
	assert.InDelta(t, 10.0, fresh.SellerModifier, 1e-9)
	assert.InDelta(t, -10.0, scaling.SellerModifier, 1e-9)
}

func TestCompute_ScoreClampedAndLabeled(t *testing.T) {
	// Maximal pressure page: dominant reviews, single brand, all sponsored,
	// near-identical prices, new seller.
	listings := make([]domain.CanonicalListing, 0, 10)
	for i := 0; i < 10; i++ {
		listings = append(listings, listingWith("giant", 5000, true, 19.99))
	}

	res := Compute(listings, domain.SellerContext{Stage: domain.SellerNew})
	assert.LessOrEqual(t, res.Score, 100.0)
	assert.Equal(t, domain.CPIExtreme, res.Label)
}

func TestLabelBoundaries(t *testing.T) {
	assert.Equal(t, domain.CPILow, labelFor(30))
	assert.Equal(t, domain.CPIModerate, labelFor(31))
	assert.Equal(t, domain.CPIModerate, labelFor(60))
	assert.Equal(t, domain.CPIHigh, labelFor(61))
	assert.Equal(t, domain.CPIHigh, labelFor(80))
	assert.Equal(t, domain.CPIExtreme, labelFor(81))
}
