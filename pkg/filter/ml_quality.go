package filter

import (
	"context"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/plugin"
)

// MLQualityGate is the optional ML scoring gate (§4.4 gate 5). In off
// mode it is a no-op pass; in shadow mode it scores and records but never
// rejects; in filter mode it rejects below quality_threshold. Any scorer
// error is treated as a safe-by-default rejection when in filter mode
// (§4.10 "Filter library error → treat as reject").
type MLQualityGate struct {
	Mode             plugin.ScorerMode
	Scorer           plugin.Scorer
	QualityThreshold float64

	// LastScore records the most recent score for observability/shadow
	// logging; it is not consulted by Evaluate.
	LastScore float64
}

func (MLQualityGate) Name() string { return "ml_quality" }

func (g *MLQualityGate) Evaluate(ctx context.Context, c Candidate) (bool, string) {
	if g.Mode == plugin.ScorerOff || g.Mode == "" {
		return true, ""
	}
	if g.Scorer == nil {
		return true, "ml scorer not wired"
	}

	score, err := g.Scorer.Score(ctx, features(c))
	if err != nil {
		if g.Mode == plugin.ScorerFilter {
			return false, "ml scorer error treated as reject: " + err.Error()
		}
		return true, "ml scorer error ignored in shadow mode"
	}
	g.LastScore = score

	if g.Mode == plugin.ScorerShadow {
		return true, "shadow score recorded"
	}

	if score < g.QualityThreshold {
		return false, "ml quality score below threshold"
	}
	return true, ""
}

func features(c Candidate) plugin.Features {
	snap := c.Snapshot
	var atrPct float64
	if len(c.Candles) > 0 && c.Candles[len(c.Candles)-1].Close > 0 {
		atrPct = snap.ATR / c.Candles[len(c.Candles)-1].Close
	}
	var priceChange10 float64
	if n := len(c.Candles); n >= 11 && c.Candles[n-11].Close > 0 {
		priceChange10 = (c.Candles[n-1].Close - c.Candles[n-11].Close) / c.Candles[n-11].Close
	}
	return plugin.Features{
		SignalStrength:   c.Aggregate.Strength,
		Agreement:        c.Aggregate.Agreement,
		RSI:              snap.RSI,
		ADX:              snap.ADX,
		ATRPct:           atrPct,
		BBPercentB:       snap.PercentB,
		VolumeRatio:      snap.VolumeRatio,
		PriceChange10:    priceChange10,
		Volatility10:     snap.BollingerWidth,
		MarketRegimeCode: regimeCode(snap.Regime),
	}
}

func regimeCode(r core.MarketRegime) float64 {
	switch r {
	case core.RegimeTrending:
		return 1
	case core.RegimeRanging:
		return -1
	default:
		return 0
	}
}
