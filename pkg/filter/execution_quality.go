package filter

import (
	"context"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
)

// ExecutionQualityConfig holds the four execution-quality checks' bounds
// (§4.4 gate 4, §6 "Filters" group).
type ExecutionQualityConfig struct {
	MaxSpreadPct        float64
	DepthMultiplier     float64
	MinDepthUSDT        float64
	StabilityWindow     time.Duration
	StabilityThreshold  float64
	ATRSpikeMultiplier  float64
}

func DefaultExecutionQualityConfig() ExecutionQualityConfig {
	return ExecutionQualityConfig{
		MaxSpreadPct:       0.0015,
		DepthMultiplier:    3,
		MinDepthUSDT:       5000,
		StabilityWindow:    30 * time.Second,
		StabilityThreshold: 0.008,
		ATRSpikeMultiplier: 2.5,
	}
}

// ExecutionQualityGate rejects any candidate that fails spread, liquidity,
// price-stability, or volatility-spike checks (§4.4 gate 4).
type ExecutionQualityGate struct {
	Config ExecutionQualityConfig

	// RecentTicks supplies the sliding price window for the stability
	// check; when it is nil the stability check is skipped.
	RecentTicks func(pair string, window time.Duration) []float64

	// RollingATRMean supplies the rolling mean ATR the spike check
	// compares the current snapshot's ATR against.
	RollingATRMean func(pair string) float64
}

func (ExecutionQualityGate) Name() string { return "execution_quality" }

func (g ExecutionQualityGate) Evaluate(_ context.Context, c Candidate) (bool, string) {
	if ok, reason := g.checkSpread(c); !ok {
		return false, reason
	}
	if ok, reason := g.checkLiquidity(c); !ok {
		return false, reason
	}
	if ok, reason := g.checkStability(c); !ok {
		return false, reason
	}
	if ok, reason := g.checkVolatilitySpike(c); !ok {
		return false, reason
	}
	return true, ""
}

func (g ExecutionQualityGate) checkSpread(c Candidate) (bool, string) {
	if c.Ticker.Bid <= 0 {
		return false, "no bid to compute spread"
	}
	if c.Ticker.SpreadPct() > g.Config.MaxSpreadPct {
		return false, "spread exceeds max_spread_pct"
	}
	return true, ""
}

func (g ExecutionQualityGate) checkLiquidity(c Candidate) (bool, string) {
	levels := c.OrderBook.Bids
	if c.Aggregate.Side == core.SignalLong {
		levels = c.OrderBook.Asks
	}
	depth := core.TopDepth(levels, 5)
	required := g.Config.DepthMultiplier * c.OrderSizeUSDT
	if required < g.Config.MinDepthUSDT {
		required = g.Config.MinDepthUSDT
	}
	if depth < required {
		return false, "opposite-side depth below required liquidity"
	}
	return true, ""
}

func (g ExecutionQualityGate) checkStability(c Candidate) (bool, string) {
	if g.RecentTicks == nil {
		return true, ""
	}
	window := g.RecentTicks(c.Pair, g.Config.StabilityWindow)
	if len(window) < 2 {
		return true, ""
	}
	min, max := window[0], window[0]
	for _, p := range window {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
	}
	if min <= 0 {
		return true, ""
	}
	if (max-min)/min > g.Config.StabilityThreshold {
		return false, "price instability exceeds stability_threshold_pct"
	}
	return true, ""
}

func (g ExecutionQualityGate) checkVolatilitySpike(c Candidate) (bool, string) {
	if g.RollingATRMean == nil {
		return true, ""
	}
	mean := g.RollingATRMean(c.Pair)
	if mean <= 0 {
		return true, ""
	}
	if c.Snapshot.ATR > g.Config.ATRSpikeMultiplier*mean {
		return false, "atr spike exceeds rolling mean multiplier"
	}
	return true, ""
}
