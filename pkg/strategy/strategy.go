// Package strategy implements the ensemble of named technical-analysis
// strategies and the vote-aggregation algorithm that turns their signals
// into one AggregatedSignal per evaluation cycle (§4.2).
package strategy

import "github.com/raykavin/tradecore/pkg/core"

// Strategy is the capability every ensemble member implements. A strategy
// is a pure value function: it must never mutate candles or snapshot, and
// must return Hold rather than panic when history is insufficient.
type Strategy interface {
	Name() string
	WarmupPeriod() int
	Evaluate(candles []core.Candle, snapshot core.IndicatorSnapshot) core.Signal
}

// hold builds the zero-strength abstention every strategy returns when it
// has nothing to say.
func hold(name string, snapshot core.IndicatorSnapshot, reason string) core.Signal {
	return core.Signal{
		StrategyName: name,
		Side:         core.SignalHold,
		Strength:     0,
		Confidence:   0,
		Reason:       reason,
		Indicators:   snapshot,
		Time:         snapshot.Time,
	}
}

// clamp01 restricts a score to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
