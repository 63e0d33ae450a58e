package strategy

import (
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestBandLimitedHedging_SignalsOnlyInTightRangingBands(t *testing.T) {
	h := BandLimitedHedging{}
	ranging := core.IndicatorSnapshot{Regime: core.RegimeRanging, BollingerWidth: 0.01}
	sig := h.Evaluate(nil, ranging)
	assert.Equal(t, core.SignalLong, sig.Side)

	trending := core.IndicatorSnapshot{Regime: core.RegimeTrending, BollingerWidth: 0.01}
	assert.Equal(t, core.SignalHold, h.Evaluate(nil, trending).Side)

	wideRanging := core.IndicatorSnapshot{Regime: core.RegimeRanging, BollingerWidth: 0.05}
	assert.Equal(t, core.SignalHold, h.Evaluate(nil, wideRanging).Side)
}

func TestNewPair_SplitsCapitalEquallyAtRatio(t *testing.T) {
	h := BandLimitedHedging{Config: HedgeConfig{BasePositionRatio: 0.95}}
	pair := h.NewPair(100, 1000)
	wantSize := 0.95 * 1000 / 100
	assert.InDelta(t, wantSize, pair.Long.Amount, 1e-9)
	assert.InDelta(t, wantSize, pair.Short.Amount, 1e-9)
	assert.Equal(t, HedgeActive, pair.State)
}

func TestRebalance_NoTriggerBelowMES(t *testing.T) {
	h := BandLimitedHedging{Config: DefaultHedgeConfig(0.0004)}
	pair := HedgePair{
		Long:           HedgeLeg{Side: core.PositionSideLong, Amount: 1, Entry: 100},
		Short:          HedgeLeg{Side: core.PositionSideShort, Amount: 1, Entry: 100},
		ReferencePrice: 100,
	}
	decision := h.Rebalance(pair, 100.01)
	assert.False(t, decision.ShouldRebalance)
}

func TestRebalance_ZeroReferencePriceIsNoop(t *testing.T) {
	h := BandLimitedHedging{Config: DefaultHedgeConfig(0.0004)}
	decision := h.Rebalance(HedgePair{}, 100)
	assert.False(t, decision.ShouldRebalance)
}

func TestRebalance_TriggersOnSufficientMoveAndProfit(t *testing.T) {
	h := BandLimitedHedging{Config: HedgeConfig{
		MES: 0.01, Alpha: 0.5, MinProfitUSDT: 0.01,
		MinRebalanceProfitMultiplier: 1.5, FeeRate: 0.0004,
	}}
	pair := HedgePair{
		Long:           HedgeLeg{Side: core.PositionSideLong, Amount: 10, Entry: 100},
		Short:          HedgeLeg{Side: core.PositionSideShort, Amount: 10, Entry: 100},
		ReferencePrice: 100,
	}
	decision := h.Rebalance(pair, 105)
	assert.True(t, decision.ShouldRebalance)
	assert.Equal(t, core.PositionSideLong, decision.CloseSide)
	assert.Equal(t, 105.0, decision.NewReferencePrice)
	assert.InDelta(t, decision.MigratedToLoser+2*decision.RedistributedEach, decision.RealisedProfit, 1e-6)
}

func TestRebalance_BelowProfitThresholdIsNoop(t *testing.T) {
	h := BandLimitedHedging{Config: HedgeConfig{
		MES: 0.01, Alpha: 0.5, MinProfitUSDT: 1000,
		MinRebalanceProfitMultiplier: 1.5, FeeRate: 0.0004,
	}}
	pair := HedgePair{
		Long:           HedgeLeg{Side: core.PositionSideLong, Amount: 1, Entry: 100},
		Short:          HedgeLeg{Side: core.PositionSideShort, Amount: 1, Entry: 100},
		ReferencePrice: 100,
	}
	decision := h.Rebalance(pair, 102)
	assert.False(t, decision.ShouldRebalance)
}

func TestShouldExit_BelowEtaTriggersExit(t *testing.T) {
	h := BandLimitedHedging{Config: HedgeConfig{ExitEta: 0.05}}
	assert.True(t, h.ShouldExit(0.01))
	assert.False(t, h.ShouldExit(0.1))
}
