package filter

import (
	"context"

	"github.com/raykavin/tradecore/pkg/core"
)

// TrendGate rejects counter-trend opens in strongly directional markets
// (§4.4 gate 3): an explicit rule list keyed on ADX, RSI, MACD and %B,
// rather than a single combined score, so each rejection reason stays
// specific.
type TrendGate struct{}

func (TrendGate) Name() string { return "trend" }

func (TrendGate) Evaluate(_ context.Context, c Candidate) (bool, string) {
	snap := c.Snapshot
	switch c.Aggregate.Side {
	case core.SignalLong:
		if snap.ADX > 25 && snap.EMAFast < snap.EMASlow && snap.MACDHist < 0 {
			return false, "strong downtrend: adx>25 with ema and macd both down"
		}
		if snap.RSI < 20 {
			return false, "rsi below 20, momentum too weak for long"
		}
		if snap.PercentB < 0 && snap.ADX > 25 {
			return false, "price below lower band in a strong trend"
		}
	case core.SignalShort:
		if snap.ADX > 25 && snap.EMAFast > snap.EMASlow && snap.MACDHist > 0 {
			return false, "strong uptrend: adx>25 with ema and macd both up"
		}
		if snap.RSI > 80 {
			return false, "rsi above 80, momentum too strong to short"
		}
		if snap.PercentB > 1 && snap.ADX > 25 {
			return false, "price above upper band in a strong trend"
		}
	}
	return true, ""
}
