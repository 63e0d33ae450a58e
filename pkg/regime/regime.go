// Package regime classifies the prevailing market state from ADX and
// Bollinger bandwidth so the ensemble and filter pipeline can gate strategy
// selection and direction thresholds on it (§4.3).
package regime

import "github.com/raykavin/tradecore/pkg/core"

const (
	trendExitADX = 27
	trendExitBB  = 2.5

	strongTrendADX = 35
	strongTrendBB  = 2.0

	standardTrendADX = 30
	standardTrendBB  = 3.0

	rangingADX = 20
	rangingBB  = 2.0
)

// Detector holds the previous classification so the hysteresis rule can
// keep a Trending state alive through minor pullbacks.
type Detector struct {
	previous core.MarketRegime
}

func NewDetector() *Detector {
	return &Detector{previous: core.RegimeTransitioning}
}

// Result is the regime classification plus its confidence; the strategies
// allowed to trade in a regime come from AllowedStrategies.
type Result struct {
	Regime     core.MarketRegime
	Confidence float64
}

// Classify applies the precedence-ordered decision rules against the
// latest ADX and Bollinger bandwidth (percent, e.g. 2.41 for 2.41%).
// Rule order is significant: the strong-trend override must be evaluated
// before the standard trending rule, independent of hysteresis, to avoid
// misclassifying a high-ADX/low-bandwidth breakout as Ranging.
func (d *Detector) Classify(adx, bandwidthPct float64) Result {
	regime := d.classify(adx, bandwidthPct)
	d.previous = regime
	return Result{
		Regime:     regime,
		Confidence: confidence(adx, bandwidthPct),
	}
}

func (d *Detector) classify(adx, bandwidthPct float64) core.MarketRegime {
	// 1. Hysteresis: a prior Trending state survives a mild ADX/bandwidth
	// pullback rather than flip-flopping every candle.
	if d.previous == core.RegimeTrending && adx >= trendExitADX && bandwidthPct >= trendExitBB {
		return core.RegimeTrending
	}

	// 2. Strong-trend override must precede the standard trending rule:
	// a high-ADX breakout with comparatively low bandwidth was previously
	// misclassified as Ranging by rule 4 before this override existed.
	if adx >= strongTrendADX && bandwidthPct > strongTrendBB {
		return core.RegimeTrending
	}

	// 3. Standard trending.
	if adx >= standardTrendADX && bandwidthPct > standardTrendBB {
		return core.RegimeTrending
	}

	// 4. Ranging requires both conditions, not either.
	if adx < rangingADX && bandwidthPct < rangingBB {
		return core.RegimeRanging
	}

	// 5. Otherwise.
	return core.RegimeTransitioning
}

// confidence is a linear blend of how far ADX and bandwidth sit above
// their lower (ranging) thresholds, saturating at 1.
func confidence(adx, bandwidthPct float64) float64 {
	scoreADX := linearScore(adx, rangingADX, strongTrendADX)
	scoreBB := linearScore(bandwidthPct, rangingBB, strongTrendBB)
	return 0.7*scoreADX + 0.3*scoreBB
}

func linearScore(v, lower, saturation float64) float64 {
	if v <= lower {
		return 0
	}
	if v >= saturation {
		return 1
	}
	return (v - lower) / (saturation - lower)
}

// AllowedStrategies returns the names of strategies permitted to trade in
// a given regime. Names match pkg/strategy registrations.
func AllowedStrategies(regime core.MarketRegime) []string {
	switch regime {
	case core.RegimeTrending:
		return []string{"ema_cross", "macd_cross", "adx_trend", "super_trend", "breakout"}
	case core.RegimeRanging:
		return []string{"bollinger_trend", "rsi_divergence", "kdj_cross", "band_limited_hedging"}
	default:
		return []string{"ema_cross", "bollinger_breakthrough", "rsi_divergence"}
	}
}
