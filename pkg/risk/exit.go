package risk

import "github.com/raykavin/tradecore/pkg/core"

// ExitConfig holds the stop-loss/take-profit/trailing tuning knobs (§6 "Risk" group).
type ExitConfig struct {
	StopLossPct    float64
	ATRMultiplier  float64
	TakeProfitPct  float64
	TrailingStopPct float64

	DynamicTakeProfitEnabled bool
	MinProfitUSDT            float64
	FeeRate                  float64
	DynamicTPMultiplier      float64
	FallbackPct              float64
	RecentPricesWindow       int
}

func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		StopLossPct:     0.02,
		ATRMultiplier:   2.5,
		TakeProfitPct:   0.04,
		TrailingStopPct: 0.015,

		DynamicTakeProfitEnabled: true,
		MinProfitUSDT:            0.08,
		FeeRate:                  0.0006,
		DynamicTPMultiplier:      1.5,
		FallbackPct:              0.004,
		RecentPricesWindow:       5,
	}
}

// StopLoss computes the fixed and ATR-based stop-loss candidates and
// returns the wider of the two — min price for longs, max price for
// shorts — per §4.5. leverage divides sl_pct as specified
// ("entry × (1 ∓ sl_pct/leverage)").
func StopLoss(side core.PositionSide, entry, atr float64, leverage int, cfg ExitConfig) float64 {
	lev := float64(leverage)
	if lev <= 0 {
		lev = 1
	}
	slFraction := cfg.StopLossPct / lev

	if side == core.PositionSideLong {
		fixed := entry * (1 - slFraction)
		atrBased := entry - cfg.ATRMultiplier*atr
		if atrBased < fixed {
			return atrBased
		}
		return fixed
	}

	fixed := entry * (1 + slFraction)
	atrBased := entry + cfg.ATRMultiplier*atr
	if atrBased > fixed {
		return atrBased
	}
	return fixed
}

// TakeProfit computes the fixed take-profit price.
func TakeProfit(side core.PositionSide, entry float64, cfg ExitConfig) float64 {
	if side == core.PositionSideLong {
		return entry * (1 + cfg.TakeProfitPct)
	}
	return entry * (1 - cfg.TakeProfitPct)
}

// DynamicTakeProfitThreshold is max(min_profit_usdt, size*price*fee_rate*multiplier) (§4.5).
func DynamicTakeProfitThreshold(size, price float64, cfg ExitConfig) float64 {
	dyn := size * price * cfg.FeeRate * cfg.DynamicTPMultiplier
	if dyn > cfg.MinProfitUSDT {
		return dyn
	}
	return cfg.MinProfitUSDT
}

// TrailingPrice computes the trailing-stop trigger price from the
// position's tracked extreme, independent of the dynamic take-profit.
// Only meaningful once activated — see TrailingActivates.
func TrailingPrice(pos *core.Position, cfg ExitConfig) float64 {
	if pos.Side == core.PositionSideLong {
		return pos.HighestPrice * (1 - cfg.TrailingStopPct)
	}
	return pos.LowestPrice * (1 + cfg.TrailingStopPct)
}

// TrailingActivates reports whether the trailing stop may arm: the
// trailing price must represent locked-in profit relative to entry
// (§4.5 "Only activated when trailing_price > entry_price").
func TrailingActivates(pos *core.Position, trailingPrice float64) bool {
	if pos.Side == core.PositionSideLong {
		return trailingPrice > pos.EntryPrice
	}
	return trailingPrice < pos.EntryPrice
}

// ExitReason names which rule in the exit-evaluation order triggered (§4.5).
type ExitReason string

const (
	ExitNone               ExitReason = ""
	ExitStopLoss           ExitReason = "stop_loss"
	ExitFixedTakeProfit    ExitReason = "fixed_take_profit"
	ExitDynamicTakeProfit  ExitReason = "dynamic_take_profit"
	ExitTrailingStop       ExitReason = "trailing_stop"
	ExitManualClose        ExitReason = "manual_close"
)

// Evaluate applies the fixed exit-evaluation precedence from §4.5: stop
// loss, then fixed take-profit, then dynamic trailing take-profit, then
// trailing stop, then manual close. The first trigger wins.
func Evaluate(pos *core.Position, price float64, cfg ExitConfig, manualCloseRequested bool) ExitReason {
	pos.UpdatePriceExtremes(price)
	pos.PushPrice(price)

	if stopLossHit(pos, price) {
		return ExitStopLoss
	}
	if fixedTakeProfitHit(pos, price) {
		return ExitFixedTakeProfit
	}
	if dynamicTakeProfitHit(pos, price, cfg) {
		return ExitDynamicTakeProfit
	}
	if trailingStopHit(pos, price, cfg) {
		return ExitTrailingStop
	}
	if manualCloseRequested {
		return ExitManualClose
	}
	return ExitNone
}

func stopLossHit(pos *core.Position, price float64) bool {
	if pos.StopLossPrice <= 0 {
		return false
	}
	if pos.Side == core.PositionSideLong {
		return price <= pos.StopLossPrice
	}
	return price >= pos.StopLossPrice
}

func fixedTakeProfitHit(pos *core.Position, price float64) bool {
	if pos.TakeProfitPrice <= 0 {
		return false
	}
	if pos.Side == core.PositionSideLong {
		return price >= pos.TakeProfitPrice
	}
	return price <= pos.TakeProfitPrice
}

func dynamicTakeProfitHit(pos *core.Position, price float64, cfg ExitConfig) bool {
	if !cfg.DynamicTakeProfitEnabled {
		return false
	}

	netProfit := pos.UnrealisedPnL(price) - pos.EntryFee
	threshold := DynamicTakeProfitThreshold(pos.Amount, price, cfg)

	if !pos.DynamicTPActivated {
		if netProfit < threshold {
			return false
		}
		pos.DynamicTPActivated = true
	}
	if netProfit > pos.MaxProfitUSDT {
		pos.MaxProfitUSDT = netProfit
	}

	mean := pos.MeanRecentPrice()
	if mean <= 0 {
		return false
	}
	if pos.Side == core.PositionSideLong {
		return price <= mean*(1-cfg.FallbackPct)
	}
	return price >= mean*(1+cfg.FallbackPct)
}

func trailingStopHit(pos *core.Position, price float64, cfg ExitConfig) bool {
	trailingPrice := TrailingPrice(pos, cfg)
	if !pos.TrailingActivated {
		if !TrailingActivates(pos, trailingPrice) {
			return false
		}
		pos.TrailingActivated = true
	}
	if pos.Side == core.PositionSideLong {
		return price <= trailingPrice
	}
	return price >= trailingPrice
}
