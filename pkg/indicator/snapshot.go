package indicator

import (
	"fmt"

	"github.com/raykavin/tradecore/pkg/core"
)

// Periods groups the lookback periods used to build a Snapshot. Defaults
// match the values named in the strategy descriptions (§4.2).
type Periods struct {
	EMAFast   int
	EMASlow   int
	EMATrend  int
	SMA       int
	MACDFast  int
	MACDSlow  int
	MACDSig   int
	RSI       int
	BBPeriod  int
	BBDev     float64
	ATR       int
	ADX       int
	KDJRSV    int
	KDJK      int
	KDJD      int
	VolumeAvg int
}

// DefaultPeriods returns the periods used when a strategy does not
// override them.
func DefaultPeriods() Periods {
	return Periods{
		EMAFast: 9, EMASlow: 21, EMATrend: 55, SMA: 50,
		MACDFast: 12, MACDSlow: 26, MACDSig: 9,
		RSI:      14,
		BBPeriod: 20, BBDev: 2,
		ATR: 14, ADX: 14,
		KDJRSV: 9, KDJK: 3, KDJD: 3,
		VolumeAvg: 20,
	}
}

// minWarmup is the minimum candle count Build accepts. It sits above the
// longest default lookback, the 55-candle EMA trend leg used by the
// uptrend-confirmation rule, so every indicator in Periods has a reading
// at its default settings.
const minWarmup = 65

// Build computes an IndicatorSnapshot aligned to the last closed candle in
// candles. candles must be ordered oldest-first and candles[len-1] must be
// complete; callers must never build a snapshot off a partial candle.
func Build(pair string, candles []core.Candle, p Periods) (core.IndicatorSnapshot, error) {
	n := len(candles)
	if n == 0 {
		return core.IndicatorSnapshot{}, fmt.Errorf("indicator: no candles for %s", pair)
	}
	last := candles[n-1]
	if !last.Complete {
		return core.IndicatorSnapshot{}, fmt.Errorf("indicator: latest candle for %s is not complete", pair)
	}
	if n < minWarmup {
		return core.IndicatorSnapshot{}, fmt.Errorf("indicator: need at least %d candles for %s, have %d", minWarmup, pair, n)
	}

	high := make([]float64, n)
	low := make([]float64, n)
	closeP := make([]float64, n)
	volume := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closeP[i] = c.Close
		volume[i] = c.Volume
	}

	emaFast := EMA(closeP, p.EMAFast)
	emaSlow := EMA(closeP, p.EMASlow)
	emaTrend := EMA(closeP, p.EMATrend)
	sma := SMA(closeP, p.SMA)
	macd, macdSig, macdHist := MACD(closeP, p.MACDFast, p.MACDSlow, p.MACDSig)
	rsi := RSI(closeP, p.RSI)
	upper, mid, lower := BB(closeP, p.BBPeriod, p.BBDev, TypeSMA)
	width := BollingerBandwidth(upper, mid, lower)
	pctB := PercentB(closeP, upper, lower)
	atr := ATR(high, low, closeP, p.ATR)
	adx := ADX(high, low, closeP, p.ADX)
	plusDI := PlusDI(high, low, closeP, p.ADX)
	minusDI := MinusDI(high, low, closeP, p.ADX)
	k, d, j := KDJ(high, low, closeP, p.KDJRSV, p.KDJK, p.KDJD)
	volRatio := VolumeRatio(volume, p.VolumeAvg)

	last0 := n - 1
	return core.IndicatorSnapshot{
		Pair: pair,
		Time: last.Time,

		EMAFast:  emaFast[last0],
		EMASlow:  emaSlow[last0],
		EMATrend: emaTrend[last0],
		SMA:      sma[last0],

		MACD:       macd[last0],
		MACDSignal: macdSig[last0],
		MACDHist:   macdHist[last0],

		RSI: rsi[last0],

		BollingerUpper: upper[last0],
		BollingerMid:   mid[last0],
		BollingerLower: lower[last0],
		BollingerWidth: width[last0],
		PercentB:       pctB[last0],

		ATR:     atr[last0],
		ADX:     adx[last0],
		PlusDI:  plusDI[last0],
		MinusDI: minusDI[last0],

		KDJ_K: k[last0],
		KDJ_D: d[last0],
		KDJ_J: j[last0],

		VolumeRatio: volRatio[last0],
	}, nil
}
