package filter

import "context"

// CircuitBreakerGate rejects every open while any circuit breaker is
// tripped (§4.4 gate 1).
type CircuitBreakerGate struct{}

func (CircuitBreakerGate) Name() string { return "circuit_breaker" }

func (CircuitBreakerGate) Evaluate(_ context.Context, c Candidate) (bool, string) {
	if c.Breaker.Tripped {
		return false, "circuit breaker tripped: " + c.Breaker.Reason
	}
	return true, ""
}
