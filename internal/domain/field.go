package domain

// Source identifies where a canonical field value came from. Reconciliation
// rules key off the source: secondary-provider values are authoritative,
// inferred values are freely replaceable.
type Source string

const (
	SourcePrimary     Source = "primary_provider"
	SourceSecondary   Source = "secondary_provider"
	SourceInferred    Source = "inferred"
	SourceUnavailable Source = "unavailable"
)

// Confidence labels how much trust downstream math may place in a value.
type Confidence string

const (
	ConfidenceHigh    Confidence = "high"
	ConfidenceMedium  Confidence = "medium"
	ConfidenceLow     Confidence = "low"
	ConfidenceUnknown Confidence = "unknown"
)

// confidenceRank orders confidence labels for comparisons. Higher is better.
func confidenceRank(c Confidence) int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether c is at or above the given confidence level.
func (c Confidence) AtLeast(other Confidence) bool {
	return confidenceRank(c) >= confidenceRank(other)
}

// Field carries a value together with its provenance. Every mutable field on
// a CanonicalListing is a Field so that downstream code is forced to handle
// the unavailable and inferred states explicitly instead of reading a zero
// value by accident.
type Field[T any] struct {
	Value      T          `json:"value"`
	Present    bool       `json:"present"`
	Source     Source     `json:"source"`
	Confidence Confidence `json:"confidence"`
}

// NewField constructs a present Field with the given provenance.
func NewField[T any](value T, src Source, conf Confidence) Field[T] {
	return Field[T]{Value: value, Present: true, Source: src, Confidence: conf}
}

// UnavailableField constructs the explicit "no value" state.
func UnavailableField[T any]() Field[T] {
	return Field[T]{Source: SourceUnavailable, Confidence: ConfidenceUnknown}
}

// Locked reports whether the field holds an authoritative secondary-provider
// value that must never be overwritten by a later pass.
func (f Field[T]) Locked() bool {
	return f.Present && f.Source == SourceSecondary && f.Confidence == ConfidenceHigh
}

// Overwritable reports whether an incoming secondary-provider value may
// replace this field: empty and inferred fields are fair game, everything
// else is kept.
func (f Field[T]) Overwritable() bool {
	return !f.Present || f.Source == SourceInferred || f.Source == SourceUnavailable
}
