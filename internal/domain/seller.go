package domain

import "fmt"

// SellerStage buckets the requesting seller's maturity. It feeds the CPI
// seller-fit modifier only; it never touches the market math.
type SellerStage string

const (
	SellerNew         SellerStage = "new"
	SellerEstablished SellerStage = "established"
	SellerScaling     SellerStage = "scaling"
)

// ParseSellerStage validates a stage string from the API layer.
func ParseSellerStage(s string) (SellerStage, error) {
	switch SellerStage(s) {
	case SellerNew, SellerEstablished, SellerScaling:
		return SellerStage(s), nil
	case "":
		return SellerEstablished, nil
	default:
		return "", fmt.Errorf("domain: unknown seller stage %q", s)
	}
}

// SellerContext describes the seller the snapshot is computed for.
type SellerContext struct {
	Stage            SellerStage `json:"stage"`
	ExperienceMonths int         `json:"experience_months"`
}
