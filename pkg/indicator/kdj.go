package indicator

import "github.com/markcheno/go-talib"

// KDJ calculates the KDJ stochastic oscillator (K, D and the derived J line)
// commonly used alongside Bollinger Bands in range/trend strategies (§4.2).
// J = 3*K - 2*D, which can overshoot [0,100] and is used to spot extremes
// the plain stochastic misses.
func KDJ(high, low, close []float64, rsvPeriod, kPeriod, dPeriod int) (k, d, j []float64) {
	k, d = talib.Stoch(high, low, close, rsvPeriod, kPeriod, talib.SMA, dPeriod, talib.SMA)
	j = make([]float64, len(k))
	for i := range k {
		j[i] = 3*k[i] - 2*d[i]
	}
	return k, d, j
}

// VolumeRatio is the ratio of the latest volume to its moving average,
// used by the direction gate's volume confirmation, the volume-based
// breakout strategies and the ML feature vector.
func VolumeRatio(volume []float64, period int) []float64 {
	avg := talib.Sma(volume, period)
	ratio := make([]float64, len(volume))
	for i := range volume {
		if avg[i] == 0 {
			continue
		}
		ratio[i] = volume[i] / avg[i]
	}
	return ratio
}

// BollingerBandwidth returns (upper-lower)/mid as a ratio, a volatility
// proxy used by the regime detector (after scaling to percent), the
// Bollinger and band-limited hedging strategies, and the ML feature vector.
func BollingerBandwidth(upper, mid, lower []float64) []float64 {
	w := make([]float64, len(mid))
	for i := range mid {
		if mid[i] == 0 {
			continue
		}
		w[i] = (upper[i] - lower[i]) / mid[i]
	}
	return w
}

// PercentB returns the %B oscillator: where price sits within the bands,
// 0 at the lower band and 1 at the upper band.
func PercentB(close, upper, lower []float64) []float64 {
	b := make([]float64, len(close))
	for i := range close {
		span := upper[i] - lower[i]
		if span == 0 {
			continue
		}
		b[i] = (close[i] - lower[i]) / span
	}
	return b
}
