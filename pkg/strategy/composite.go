package strategy

import "github.com/raykavin/tradecore/pkg/core"

// MultiTimeframe confirms a fast-timeframe signal against the slower SMA
// trend: it requires the short-horizon momentum (MACD histogram) and the
// longer-horizon trend (price vs. SMA) to agree before voting.
type MultiTimeframe struct{}

func (MultiTimeframe) Name() string     { return "multi_timeframe" }
func (MultiTimeframe) WarmupPeriod() int { return 55 }

func (MultiTimeframe) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) == 0 || snap.SMA <= 0 {
		return hold("multi_timeframe", snap, "no sma baseline")
	}
	price := candles[len(candles)-1].Close
	longTrendUp := price > snap.SMA
	longTrendDown := price < snap.SMA
	shortUp := snap.MACDHist > 0
	shortDown := snap.MACDHist < 0

	switch {
	case longTrendUp && shortUp:
		return core.Signal{
			StrategyName: "multi_timeframe", Side: core.SignalLong,
			Strength: clamp01((price - snap.SMA) / snap.SMA * 20), Confidence: 0.65,
			Reason: "short and long timeframe agree bullish", Indicators: snap, Time: snap.Time,
		}
	case longTrendDown && shortDown:
		return core.Signal{
			StrategyName: "multi_timeframe", Side: core.SignalShort,
			Strength: clamp01((snap.SMA - price) / snap.SMA * 20), Confidence: 0.65,
			Reason: "short and long timeframe agree bearish", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("multi_timeframe", snap, "timeframes disagree")
}

// CompositeScore blends RSI, MACD histogram sign, and %B into a single
// weighted score rather than voting on any one indicator's crossover,
// giving the ensemble a member whose conviction grows gradually rather
// than flipping at a single threshold.
type CompositeScore struct{}

func (CompositeScore) Name() string     { return "composite_score" }
func (CompositeScore) WarmupPeriod() int { return 35 }

func (CompositeScore) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	rsiScore := (snap.RSI - 50) / 50 // [-1,1]
	macdScore := clampSign(snap.MACDHist * 30)
	bbScore := (snap.PercentB - 0.5) * 2 // [-1,1] roughly

	score := 0.4*rsiScore + 0.35*macdScore + 0.25*bbScore

	switch {
	case score > 0.15:
		return core.Signal{
			StrategyName: "composite_score", Side: core.SignalLong,
			Strength: clamp01(score), Confidence: clamp01(score * 1.2),
			Reason: "composite score bullish", Indicators: snap, Time: snap.Time,
		}
	case score < -0.15:
		return core.Signal{
			StrategyName: "composite_score", Side: core.SignalShort,
			Strength: clamp01(-score), Confidence: clamp01(-score * 1.2),
			Reason: "composite score bearish", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("composite_score", snap, "composite score near neutral")
}

func clampSign(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// Registry returns every non-hedging strategy, in a fixed order, for
// wiring into an Ensemble.
func Registry() []Strategy {
	return []Strategy{
		BollingerTrend{},
		BollingerBreakthrough{},
		MACDCross{},
		EMACross{},
		RSIDivergence{},
		KDJCross{},
		ADXTrend{},
		VolumeBreakout{},
		MultiTimeframe{},
		CompositeScore{},
		SuperTrendFollow{},
		Breakout{},
	}
}
