package domain

import "sort"

// PriceStatsOf summarizes prices over listings that carry a present price
// field. Percentiles use linear interpolation over the sorted sample.
func PriceStatsOf(listings []CanonicalListing) PriceStats {
	prices := make([]float64, 0, len(listings))
	for i := range listings {
		if listings[i].Price.Present {
			prices = append(prices, listings[i].Price.Value)
		}
	}
	if len(prices) == 0 {
		return PriceStats{}
	}
	sort.Float64s(prices)

	var sum float64
	for _, p := range prices {
		sum += p
	}

	return PriceStats{
		P10:     percentile(prices, 0.10),
		Median:  percentile(prices, 0.50),
		P90:     percentile(prices, 0.90),
		Average: sum / float64(len(prices)),
		Sampled: len(prices),
	}
}

// ReviewStatsOf summarizes review volume over listings that carry a review
// count.
func ReviewStatsOf(listings []CanonicalListing) ReviewStats {
	counts := make([]int, 0, len(listings))
	for i := range listings {
		if listings[i].ReviewCount != nil {
			counts = append(counts, *listings[i].ReviewCount)
		}
	}
	if len(counts) == 0 {
		return ReviewStats{}
	}
	sort.Ints(counts)

	sum := 0
	for _, c := range counts {
		sum += c
	}

	mid := counts[len(counts)/2]
	if len(counts)%2 == 0 {
		mid = (counts[len(counts)/2-1] + counts[len(counts)/2]) / 2
	}

	return ReviewStats{
		Average: float64(sum) / float64(len(counts)),
		Median:  float64(mid),
		Max:     counts[len(counts)-1],
		Sampled: len(counts),
	}
}

// percentile interpolates the q-th quantile of a sorted sample.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
