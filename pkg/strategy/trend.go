package strategy

import "github.com/raykavin/tradecore/pkg/core"

// EMACross votes Long when the fast EMA sits above the slow EMA, Short
// when it sits below; the EMAs' slopes are not checked.
type EMACross struct{}

func (EMACross) Name() string     { return "ema_cross" }
func (EMACross) WarmupPeriod() int { return 55 }

func (EMACross) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) < 2 {
		return hold("ema_cross", snap, "insufficient history")
	}
	spread := (snap.EMAFast - snap.EMASlow) / snap.EMASlow
	switch {
	case snap.EMAFast > snap.EMASlow:
		return core.Signal{
			StrategyName: "ema_cross", Side: core.SignalLong,
			Strength: clamp01(spread * 40), Confidence: clamp01(snap.ADX / 40),
			Reason: "ema9 above ema21", Indicators: snap, Time: snap.Time,
		}
	case snap.EMAFast < snap.EMASlow:
		return core.Signal{
			StrategyName: "ema_cross", Side: core.SignalShort,
			Strength: clamp01(-spread * 40), Confidence: clamp01(snap.ADX / 40),
			Reason: "ema9 below ema21", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("ema_cross", snap, "ema9 equals ema21")
}

// MACDCross votes on the MACD line crossing its signal line.
type MACDCross struct{}

func (MACDCross) Name() string     { return "macd_cross" }
func (MACDCross) WarmupPeriod() int { return 35 }

func (MACDCross) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	switch {
	case snap.MACD > snap.MACDSignal && snap.MACDHist > 0:
		return core.Signal{
			StrategyName: "macd_cross", Side: core.SignalLong,
			Strength: clamp01(snap.MACDHist * 50), Confidence: 0.6,
			Reason: "macd above signal", Indicators: snap, Time: snap.Time,
		}
	case snap.MACD < snap.MACDSignal && snap.MACDHist < 0:
		return core.Signal{
			StrategyName: "macd_cross", Side: core.SignalShort,
			Strength: clamp01(-snap.MACDHist * 50), Confidence: 0.6,
			Reason: "macd below signal", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("macd_cross", snap, "no macd crossover")
}

// ADXTrend votes with the directional indicator once ADX confirms trend
// strength; it abstains in choppy, low-ADX conditions.
type ADXTrend struct{}

func (ADXTrend) Name() string     { return "adx_trend" }
func (ADXTrend) WarmupPeriod() int { return 28 }

func (ADXTrend) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if snap.ADX < 20 {
		return hold("adx_trend", snap, "adx below trend threshold")
	}
	confidence := clamp01((snap.ADX - 20) / 30)
	switch {
	case snap.PlusDI > snap.MinusDI:
		return core.Signal{
			StrategyName: "adx_trend", Side: core.SignalLong,
			Strength: confidence, Confidence: confidence,
			Reason: "adx trending with +DI dominant", Indicators: snap, Time: snap.Time,
		}
	case snap.MinusDI > snap.PlusDI:
		return core.Signal{
			StrategyName: "adx_trend", Side: core.SignalShort,
			Strength: confidence, Confidence: confidence,
			Reason: "adx trending with -DI dominant", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("adx_trend", snap, "+DI equals -DI")
}

// SuperTrendFollow uses the EMA/ADX combination as a lightweight proxy for
// the super-trend line direction without recomputing the full band state
// per tick; it is grounded on indicator.SuperTrend's up/down semantics.
type SuperTrendFollow struct{}

func (SuperTrendFollow) Name() string     { return "super_trend" }
func (SuperTrendFollow) WarmupPeriod() int { return 40 }

func (SuperTrendFollow) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if snap.ATR <= 0 {
		return hold("super_trend", snap, "no atr")
	}
	trendUp := snap.EMAFast > snap.EMASlow && snap.ADX >= 22
	trendDown := snap.EMAFast < snap.EMASlow && snap.ADX >= 22
	strength := clamp01(snap.ADX / 45)
	switch {
	case trendUp:
		return core.Signal{
			StrategyName: "super_trend", Side: core.SignalLong,
			Strength: strength, Confidence: strength,
			Reason: "super-trend up", Indicators: snap, Time: snap.Time,
		}
	case trendDown:
		return core.Signal{
			StrategyName: "super_trend", Side: core.SignalShort,
			Strength: strength, Confidence: strength,
			Reason: "super-trend down", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("super_trend", snap, "no confirmed trend")
}

// Breakout votes Long when price pushes through the upper Bollinger band
// with volume confirmation, Short on the mirror break of the lower band.
type Breakout struct{}

func (Breakout) Name() string     { return "breakout" }
func (Breakout) WarmupPeriod() int { return 25 }

func (Breakout) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) == 0 {
		return hold("breakout", snap, "no candles")
	}
	price := candles[len(candles)-1].Close
	volumeConfirmed := snap.VolumeRatio >= 1.2
	switch {
	case price > snap.BollingerUpper && volumeConfirmed:
		return core.Signal{
			StrategyName: "breakout", Side: core.SignalLong,
			Strength: clamp01(snap.PercentB - 1 + 0.5), Confidence: clamp01(snap.VolumeRatio / 2),
			Reason: "upper band breakout with volume", Indicators: snap, Time: snap.Time,
		}
	case price < snap.BollingerLower && volumeConfirmed:
		return core.Signal{
			StrategyName: "breakout", Side: core.SignalShort,
			Strength: clamp01(0.5 - snap.PercentB), Confidence: clamp01(snap.VolumeRatio / 2),
			Reason: "lower band breakout with volume", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("breakout", snap, "no volume-confirmed breakout")
}

// VolumeBreakout votes purely on an abnormal volume surge combined with
// the direction of the current candle body.
type VolumeBreakout struct{}

func (VolumeBreakout) Name() string     { return "volume_breakout" }
func (VolumeBreakout) WarmupPeriod() int { return 21 }

func (VolumeBreakout) Evaluate(candles []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if len(candles) == 0 || snap.VolumeRatio < 1.5 {
		return hold("volume_breakout", snap, "no volume surge")
	}
	last := candles[len(candles)-1]
	strength := clamp01((snap.VolumeRatio - 1.5) / 2)
	if last.Close > last.Open {
		return core.Signal{
			StrategyName: "volume_breakout", Side: core.SignalLong,
			Strength: strength, Confidence: strength,
			Reason: "volume surge on bullish candle", Indicators: snap, Time: snap.Time,
		}
	}
	if last.Close < last.Open {
		return core.Signal{
			StrategyName: "volume_breakout", Side: core.SignalShort,
			Strength: strength, Confidence: strength,
			Reason: "volume surge on bearish candle", Indicators: snap, Time: snap.Time,
		}
	}
	return hold("volume_breakout", snap, "doji on volume surge")
}
