package strategy

import "github.com/raykavin/tradecore/pkg/core"

// BollingerTrend follows a band expansion in the direction price is
// already moving — the breakout-follow Bollinger mode (§4.2).
type BollingerTrend struct{}

func (BollingerTrend) Name() string     { return "bollinger_trend" }
func (BollingerTrend) WarmupPeriod() int { return 25 }

func (BollingerTrend) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) == 0 || snap.BollingerWidth <= 0 {
		return hold("bollinger_trend", snap, "no band width")
	}
	price := candles[len(candles)-1].Close
	switch {
	case price >= snap.BollingerUpper && snap.BollingerWidth > 0.02:
		return core.Signal{
			StrategyName: "bollinger_trend", Side: core.SignalLong,
			Strength: clamp01(snap.BollingerWidth * 10), Confidence: 0.5,
			Reason: "price riding expanding upper band", Indicators: snap, Time: snap.Time,
		}
	case price <= snap.BollingerLower && snap.BollingerWidth > 0.02:
		return core.Signal{
			StrategyName: "bollinger_trend", Side: core.SignalShort,
			Strength: clamp01(snap.BollingerWidth * 10), Confidence: 0.5,
			Reason: "price riding expanding lower band", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("bollinger_trend", snap, "price within bands")
}

// BollingerBreakthrough is the mean-revert counterpart: it fades a price
// that has pushed outside the bands rather than following it.
type BollingerBreakthrough struct{}

func (BollingerBreakthrough) Name() string     { return "bollinger_breakthrough" }
func (BollingerBreakthrough) WarmupPeriod() int { return 25 }

func (BollingerBreakthrough) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) == 0 {
		return hold("bollinger_breakthrough", snap, "no candles")
	}
	price := candles[len(candles)-1].Close
	switch {
	case price < snap.BollingerLower:
		overshoot := (snap.BollingerLower - price) / snap.BollingerLower
		return core.Signal{
			StrategyName: "bollinger_breakthrough", Side: core.SignalLong,
			Strength: clamp01(overshoot * 30), Confidence: 0.55,
			Reason: "price below lower band, reversion expected", Indicators: snap, Time: snap.Time,
		}
	case price > snap.BollingerUpper:
		overshoot := (price - snap.BollingerUpper) / snap.BollingerUpper
		return core.Signal{
			StrategyName: "bollinger_breakthrough", Side: core.SignalShort,
			Strength: clamp01(overshoot * 30), Confidence: 0.55,
			Reason: "price above upper band, reversion expected", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("bollinger_breakthrough", snap, "price within bands")
}

// RSIDivergence is a simplified momentum-exhaustion vote on RSI extremes;
// it does not scan price/RSI peaks for divergence, and the composite
// strategy does not either.
type RSIDivergence struct{}

func (RSIDivergence) Name() string     { return "rsi_divergence" }
func (RSIDivergence) WarmupPeriod() int { return 20 }

func (RSIDivergence) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	switch {
	case snap.RSI <= 30:
		return core.Signal{
			StrategyName: "rsi_divergence", Side: core.SignalLong,
			Strength: clamp01((30 - snap.RSI) / 20), Confidence: 0.5,
			Reason: "rsi oversold", Indicators: snap, Time: snap.Time,
		}
	case snap.RSI >= 70:
		return core.Signal{
			StrategyName: "rsi_divergence", Side: core.SignalShort,
			Strength: clamp01((snap.RSI - 70) / 20), Confidence: 0.5,
			Reason: "rsi overbought", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("rsi_divergence", snap, "rsi within neutral band")
}

// KDJCross votes on the KDJ K/D crossover, using the J line's overshoot
// past [0,100] to size conviction at extremes.
type KDJCross struct{}

func (KDJCross) Name() string     { return "kdj_cross" }
func (KDJCross) WarmupPeriod() int { return 18 }

func (KDJCross) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	switch {
	case snap.KDJ_K > snap.KDJ_D && snap.KDJ_J < 20:
		return core.Signal{
			StrategyName: "kdj_cross", Side: core.SignalLong,
			Strength: clamp01((20 - snap.KDJ_J) / 20), Confidence: 0.5,
			Reason: "kdj bullish cross from oversold", Indicators: snap, Time: snap.Time,
		}
	case snap.KDJ_K < snap.KDJ_D && snap.KDJ_J > 80:
		return core.Signal{
			StrategyName: "kdj_cross", Side: core.SignalShort,
			Strength: clamp01((snap.KDJ_J - 80) / 20), Confidence: 0.5,
			Reason: "kdj bearish cross from overbought", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("kdj_cross", snap, "no kdj extreme crossover")
}
