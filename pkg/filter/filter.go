// Package filter implements the ordered, short-circuiting signal-filter
// pipeline (§4.4): circuit-breaker, direction, trend, execution-quality,
// optional ML-quality, and optional LLM-policy gates, each recording its
// verdict into an append-only TradeTag.
package filter

import (
	"context"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
)

// Candidate is everything a gate needs to judge one aggregated signal.
type Candidate struct {
	Pair      string
	Aggregate core.AggregatedSignal
	Snapshot  core.IndicatorSnapshot
	Candles   []core.Candle
	Ticker    core.Ticker
	OrderBook core.OrderBook
	OrderSizeUSDT float64

	Breaker  core.CircuitBreakerState
	WinRate  float64 // recent win-rate, drives adaptive direction thresholds
}

// Gate is one stage of the pipeline. Name must be stable — it is recorded
// as the Gate of each decision in the TradeTag's Decisions.
type Gate interface {
	Name() string
	Evaluate(ctx context.Context, c Candidate) (passed bool, reason string)
}

// Pipeline runs gates in registration order and short-circuits at the
// first rejection, recording every gate visited into the decision chain.
type Pipeline struct {
	gates []Gate
}

func NewPipeline(gates ...Gate) *Pipeline {
	return &Pipeline{gates: gates}
}

// Run evaluates c against every gate until one rejects or all pass,
// returning whether the candidate may proceed to the risk manager and the
// ordered GateDecision trail for the TradeTag.
func (p *Pipeline) Run(ctx context.Context, c Candidate) (bool, []core.GateDecision) {
	decisions := make([]core.GateDecision, 0, len(p.gates))
	for _, g := range p.gates {
		start := time.Now()
		passed, reason := g.Evaluate(ctx, c)
		decisions = append(decisions, core.GateDecision{
			Gate:    g.Name(),
			Passed:  passed,
			Reason:  reason,
			Latency: time.Since(start),
		})
		if !passed {
			return false, decisions
		}
	}
	return true, decisions
}
