package domain

import "sync"

// CallBudget is the shared ceiling on budget-charged provider calls for one
// aggregation request. It is threaded by reference through the whole call
// graph; there is no package-level counter. The ceiling is a best-effort cost
// guard rather than a correctness invariant, but the mutex keeps the skip
// accounting exact for the coverage log when enrichment batches run
// concurrently.
type CallBudget struct {
	mu      sync.Mutex
	count   int
	max     int
	skipped int
}

// NewCallBudget creates a budget allowing up to max charged calls.
func NewCallBudget(max int) *CallBudget {
	return &CallBudget{max: max}
}

// Acquire charges one call if the ceiling has not been reached. It must be
// called immediately before the network call it pays for. A false return
// means the call must be skipped, not queued or retried.
func (b *CallBudget) Acquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.count >= b.max {
		b.skipped++
		return false
	}
	b.count++
	return true
}

// Exhausted reports whether the ceiling has been reached without charging.
func (b *CallBudget) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count >= b.max
}

// Stats returns the charged, maximum, and skipped call counts.
func (b *CallBudget) Stats() (count, max, skipped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count, b.max, b.skipped
}
