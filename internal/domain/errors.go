package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrPermissionDenied    = errors.New("provider permission denied")
	ErrBudgetExhausted     = errors.New("call budget exhausted")
	ErrMalformedResponse   = errors.New("malformed provider response")
	ErrExtractionFailed    = errors.New("zero listings extracted from non-empty response")
	ErrNoCredentials       = errors.New("missing provider credentials")
)
