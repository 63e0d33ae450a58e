package plugin

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// GuardedScorer wraps a Scorer with a circuit breaker and timeout so a
// misbehaving ML backend fails fast with an error rather than stalling
// the loop (§4.10 "Filter library error → treat as reject").
type GuardedScorer struct {
	inner   Scorer
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewGuardedScorer(inner Scorer, timeout time.Duration) *GuardedScorer {
	settings := gobreaker.Settings{
		Name:        "ml_scorer",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}
	return &GuardedScorer{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings), timeout: timeout}
}

// Score returns (0, err) on breaker-open, timeout, or scorer error; the ML
// quality gate treats any error as a safe-by-default rejection in filter
// mode, or simply records it in shadow mode.
func (g *GuardedScorer) Score(ctx context.Context, f Features) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Score(ctx, f)
	})
	if err != nil {
		return 0, err
	}
	return result.(float64), nil
}
