package filter

import (
	"context"
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerGate_RejectsWhenTripped(t *testing.T) {
	c := Candidate{Breaker: core.CircuitBreakerState{Tripped: true, Reason: "daily loss limit breached"}}
	passed, reason := CircuitBreakerGate{}.Evaluate(context.Background(), c)
	assert.False(t, passed)
	assert.Contains(t, reason, "daily loss limit breached")
}

func TestCircuitBreakerGate_PassesWhenClear(t *testing.T) {
	c := Candidate{Breaker: core.CircuitBreakerState{Tripped: false}}
	passed, _ := CircuitBreakerGate{}.Evaluate(context.Background(), c)
	assert.True(t, passed)
}
