package filter

import (
	"context"

	"github.com/raykavin/tradecore/pkg/core"
)

// DirectionThresholds are the asymmetric strength/agreement bounds plus
// the uptrend-confirmation rule (§4.4 gate 2).
type DirectionThresholds struct {
	LongMinStrength   float64
	LongMinAgreement  float64
	ShortMinStrength  float64
	ShortMinAgreement float64
}

// BaselineDirectionThresholds returns the "baseline" bounds (win-rate ≥ 40%).
func BaselineDirectionThresholds() DirectionThresholds {
	return DirectionThresholds{
		LongMinStrength: 0.80, LongMinAgreement: 0.75,
		ShortMinStrength: 0.65, ShortMinAgreement: 0.60,
	}
}

// AdaptThresholds raises the baseline bounds as recent win-rate degrades,
// per §4.4: <30% → 0.85/0.85, 30–40% → 0.82/0.80, ≥40% → baseline.
func AdaptThresholds(winRate float64) DirectionThresholds {
	base := BaselineDirectionThresholds()
	switch {
	case winRate < 0.30:
		base.LongMinStrength, base.LongMinAgreement = 0.85, 0.85
	case winRate < 0.40:
		base.LongMinStrength, base.LongMinAgreement = 0.82, 0.80
	}
	return base
}

// DirectionGate applies asymmetric Long/Short thresholds and, for Long,
// requires uptrend confirmation (§4.4 gate 2).
type DirectionGate struct{}

func (DirectionGate) Name() string { return "direction" }

func (DirectionGate) Evaluate(_ context.Context, c Candidate) (bool, string) {
	agg := c.Aggregate
	if agg.Side == core.SignalHold {
		return false, "no directional consensus"
	}

	t := AdaptThresholds(c.WinRate)

	switch agg.Side {
	case core.SignalLong:
		if agg.Strength < t.LongMinStrength {
			return false, "long strength below threshold"
		}
		if agg.Agreement < t.LongMinAgreement {
			return false, "long agreement below threshold"
		}
		if !uptrendConfirmed(c) {
			return false, "uptrend not confirmed"
		}
	case core.SignalShort:
		if agg.Strength < t.ShortMinStrength {
			return false, "short strength below threshold"
		}
		if agg.Agreement < t.ShortMinAgreement {
			return false, "short agreement below threshold"
		}
	default:
		return false, "non-directional signal"
	}

	return true, ""
}

// uptrendConfirmed implements the §4.4 Long confirmation rule: EMA9 >
// EMA21 > EMA55, price above EMA9, at least 2 of the last 3 candles
// bullish, and volume either ≥1.2× the 20-SMA or the recent 3-bar average
// exceeds the 20-SMA.
func uptrendConfirmed(c Candidate) bool {
	snap := c.Snapshot
	if snap.EMAFast <= snap.EMASlow || snap.EMASlow <= snap.EMATrend {
		return false
	}
	n := len(c.Candles)
	if n == 0 || c.Candles[n-1].Close <= snap.EMAFast {
		return false
	}

	bullish := 0
	for i := n - 1; i >= 0 && i >= n-3; i-- {
		if c.Candles[i].Close > c.Candles[i].Open {
			bullish++
		}
	}
	if bullish < 2 {
		return false
	}

	if snap.VolumeRatio >= 1.2 {
		return true
	}
	if n >= 3 && snap.VolumeRatio > 0 {
		volumeAvg20 := c.Candles[n-1].Volume / snap.VolumeRatio
		recentAvg := (c.Candles[n-1].Volume + c.Candles[n-2].Volume + c.Candles[n-3].Volume) / 3
		return recentAvg > volumeAvg20
	}
	return false
}
