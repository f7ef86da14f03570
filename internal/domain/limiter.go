package domain

import (
	"context"
	"time"
)

// RateLimiter guards the public API against abusive clients. It is unrelated
// to the per-request provider call budget, which bounds outbound cost.
type RateLimiter interface {
	// Allow reports whether a request for key is permitted under the limit,
	// counting the request when it is.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
