package risk

import (
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestStopLoss_WiderWins(t *testing.T) {
	// entry=100, sl_pct/leverage=0.004 -> fixed 99.6; atr=1.0, atr_mult=2.5
	// -> atr-based 97.5. The wider (lower, for a long) of the two must win.
	cfg := ExitConfig{StopLossPct: 0.004, ATRMultiplier: 2.5}
	got := StopLoss(core.PositionSideLong, 100, 1.0, 1, cfg)
	assert.InDelta(t, 97.5, got, 1e-9)
}

func TestStopLoss_ShortMirrorsLong(t *testing.T) {
	cfg := ExitConfig{StopLossPct: 0.004, ATRMultiplier: 2.5}
	got := StopLoss(core.PositionSideShort, 100, 1.0, 1, cfg)
	// fixed = 100.4, atr-based = 102.5; wider for a short is the max.
	assert.InDelta(t, 102.5, got, 1e-9)
}

func TestStopLoss_LeverageDividesPct(t *testing.T) {
	cfg := ExitConfig{StopLossPct: 0.02, ATRMultiplier: 100} // make atr leg irrelevant
	got := StopLoss(core.PositionSideLong, 100, 0, 5, cfg)
	assert.InDelta(t, 100*(1-0.02/5), got, 1e-9)
}

func TestTrailingActivates_OnlyOnLockedInProfit(t *testing.T) {
	pos := &core.Position{Side: core.PositionSideLong, EntryPrice: 100}
	assert.False(t, TrailingActivates(pos, 99))
	assert.False(t, TrailingActivates(pos, 100))
	assert.True(t, TrailingActivates(pos, 100.01))
}

func TestEvaluate_StopLossTakesPrecedence(t *testing.T) {
	cfg := DefaultExitConfig()
	pos := &core.Position{
		Side: core.PositionSideLong, EntryPrice: 100,
		StopLossPrice: 99, TakeProfitPrice: 101,
	}
	reason := Evaluate(pos, 98, cfg, false)
	assert.Equal(t, ExitStopLoss, reason)
}

func TestEvaluate_FixedTakeProfitBeforeDynamicOrTrailing(t *testing.T) {
	cfg := DefaultExitConfig()
	cfg.DynamicTakeProfitEnabled = false
	pos := &core.Position{
		Side: core.PositionSideLong, EntryPrice: 100,
		StopLossPrice: 90, TakeProfitPrice: 101,
	}
	reason := Evaluate(pos, 102, cfg, false)
	assert.Equal(t, ExitFixedTakeProfit, reason)
}

func TestEvaluate_DynamicTakeProfitActivationAndTrigger(t *testing.T) {
	// size s (here 1), fee_rate=0.0006, price moving from ~100 to 102.
	cfg := DefaultExitConfig()
	cfg.FeeRate = 0.0006
	cfg.DynamicTPMultiplier = 1.5
	cfg.MinProfitUSDT = 0.08
	cfg.FallbackPct = 0.004
	cfg.RecentPricesWindow = 5

	pos := &core.Position{
		Side: core.PositionSideLong, Amount: 1, EntryPrice: 100,
		RecentPricesCap: cfg.RecentPricesWindow,
		// No fixed TP/SL in range so only the dynamic mechanism can fire.
		StopLossPrice: 90, TakeProfitPrice: 1000,
	}

	// Net profit at 102 must exceed max(0.08, 1*102*0.0006*1.5)=0.0918.
	threshold := DynamicTakeProfitThreshold(pos.Amount, 102, cfg)
	assert.InDelta(t, 0.0918, threshold, 1e-6)

	reason := Evaluate(pos, 102, cfg, false)
	assert.Equal(t, ExitNone, reason)
	assert.True(t, pos.DynamicTPActivated)

	// Seed the recent-price window so that, once the current tick is
	// folded in by Evaluate's PushPrice, the resulting mean sits just
	// above the fallback trigger level for a drop to 101.4.
	pos.RecentPrices = []float64{102, 102, 102, 102}
	reason = Evaluate(pos, 101.4, cfg, false)
	assert.Equal(t, ExitDynamicTakeProfit, reason)
}

func TestEvaluate_TrailingStopAfterDynamicTPDeclines(t *testing.T) {
	cfg := DefaultExitConfig()
	cfg.DynamicTakeProfitEnabled = false
	cfg.TrailingStopPct = 0.01
	pos := &core.Position{
		Side: core.PositionSideLong, EntryPrice: 100,
		StopLossPrice: 90, TakeProfitPrice: 1000,
	}
	// Run the price up to arm the trailing stop.
	Evaluate(pos, 110, cfg, false)
	assert.True(t, pos.TrailingActivated || TrailingActivates(pos, TrailingPrice(pos, cfg)))
	// Trailing price = 110*(1-0.01) = 108.9; a pullback below it triggers.
	reason := Evaluate(pos, 108, cfg, false)
	assert.Equal(t, ExitTrailingStop, reason)
}

func TestEvaluate_ManualCloseIsLastResort(t *testing.T) {
	cfg := DefaultExitConfig()
	cfg.DynamicTakeProfitEnabled = false
	pos := &core.Position{
		Side: core.PositionSideLong, EntryPrice: 100,
		StopLossPrice: 90, TakeProfitPrice: 1000,
	}
	reason := Evaluate(pos, 100, cfg, true)
	assert.Equal(t, ExitManualClose, reason)
}

func TestDynamicTakeProfitThreshold_FloorsAtMinProfit(t *testing.T) {
	cfg := ExitConfig{MinProfitUSDT: 5, FeeRate: 0.0006, DynamicTPMultiplier: 1.5}
	got := DynamicTakeProfitThreshold(1, 100, cfg) // dyn = 0.09, below floor
	assert.Equal(t, 5.0, got)
}
