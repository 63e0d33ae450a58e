package strategy

import (
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestBollingerTrend_FollowsUpperBandExpansion(t *testing.T) {
	candles := []core.Candle{{Close: 105}}
	snap := core.IndicatorSnapshot{BollingerUpper: 104, BollingerLower: 96, BollingerWidth: 0.05}
	sig := BollingerTrend{}.Evaluate(candles, snap)
	assert.Equal(t, core.SignalLong, sig.Side)
}

func TestBollingerTrend_HoldsInsideBands(t *testing.T) {
	candles := []core.Candle{{Close: 100}}
	snap := core.IndicatorSnapshot{BollingerUpper: 104, BollingerLower: 96, BollingerWidth: 0.05}
	sig := BollingerTrend{}.Evaluate(candles, snap)
	assert.Equal(t, core.SignalHold, sig.Side)
}

func TestBollingerTrend_ZeroWidthHolds(t *testing.T) {
	candles := []core.Candle{{Close: 105}}
	snap := core.IndicatorSnapshot{BollingerUpper: 104, BollingerLower: 96, BollingerWidth: 0}
	sig := BollingerTrend{}.Evaluate(candles, snap)
	assert.Equal(t, core.SignalHold, sig.Side)
}

func TestBollingerBreakthrough_FadesBelowLowerBand(t *testing.T) {
	candles := []core.Candle{{Close: 90}}
	snap := core.IndicatorSnapshot{BollingerUpper: 110, BollingerLower: 95}
	sig := BollingerBreakthrough{}.Evaluate(candles, snap)
	assert.Equal(t, core.SignalLong, sig.Side)
}

func TestBollingerBreakthrough_FadesAboveUpperBand(t *testing.T) {
	candles := []core.Candle{{Close: 120}}
	snap := core.IndicatorSnapshot{BollingerUpper: 110, BollingerLower: 95}
	sig := BollingerBreakthrough{}.Evaluate(candles, snap)
	assert.Equal(t, core.SignalShort, sig.Side)
}

func TestRSIDivergence_OversoldAndOverbought(t *testing.T) {
	long := RSIDivergence{}.Evaluate(nil, core.IndicatorSnapshot{RSI: 20})
	assert.Equal(t, core.SignalLong, long.Side)

	short := RSIDivergence{}.Evaluate(nil, core.IndicatorSnapshot{RSI: 80})
	assert.Equal(t, core.SignalShort, short.Side)

	neutral := RSIDivergence{}.Evaluate(nil, core.IndicatorSnapshot{RSI: 50})
	assert.Equal(t, core.SignalHold, neutral.Side)
}

func TestKDJCross_BullishFromOversold(t *testing.T) {
	snap := core.IndicatorSnapshot{KDJ_K: 15, KDJ_D: 10, KDJ_J: 5}
	sig := KDJCross{}.Evaluate(nil, snap)
	assert.Equal(t, core.SignalLong, sig.Side)
}

func TestKDJCross_BearishFromOverbought(t *testing.T) {
	snap := core.IndicatorSnapshot{KDJ_K: 85, KDJ_D: 90, KDJ_J: 95}
	sig := KDJCross{}.Evaluate(nil, snap)
	assert.Equal(t, core.SignalShort, sig.Side)
}

func TestKDJCross_NoExtremeCrossoverHolds(t *testing.T) {
	snap := core.IndicatorSnapshot{KDJ_K: 50, KDJ_D: 50, KDJ_J: 50}
	sig := KDJCross{}.Evaluate(nil, snap)
	assert.Equal(t, core.SignalHold, sig.Side)
}
