package canonical

import (
	"strings"

	"github.com/ascendly/marketsnap/internal/domain"
)

// ResolveFulfillment infers the fulfillment channel from primary-provider
// signals. Authoritative channel data comes only from the secondary
// provider's pricing record and is merged during enrichment, where it
// overwrites anything inferred here. With no signal at all the channel is
// UNKNOWN; it must never default to merchant-fulfilled.
func ResolveFulfillment(row *domain.RawListing) domain.Field[domain.FulfillmentChannel] {
	delivery := ""
	if row.DeliveryText != nil {
		delivery = strings.ToLower(*row.DeliveryText)
	}

	fulfilledByPlatform := strings.Contains(delivery, "fulfilled by amazon") ||
		strings.Contains(delivery, "ships from amazon")

	// Prime eligibility plus explicit delivery-text confirmation.
	if row.PrimeEligible && fulfilledByPlatform {
		return domain.NewField(domain.FulfillmentFBA, domain.SourceInferred, domain.ConfidenceHigh)
	}

	if fulfilledByPlatform || (row.PrimeEligible && delivery == "") {
		return domain.NewField(domain.FulfillmentFBA, domain.SourceInferred, domain.ConfidenceMedium)
	}

	if strings.Contains(delivery, "ships from and sold by") ||
		strings.Contains(delivery, "sold and shipped by") {
		return domain.NewField(domain.FulfillmentFBM, domain.SourceInferred, domain.ConfidenceMedium)
	}

	unknown := domain.UnavailableField[domain.FulfillmentChannel]()
	unknown.Value = domain.FulfillmentUnknown
	return unknown
}
