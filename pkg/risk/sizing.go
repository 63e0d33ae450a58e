// Package risk implements position sizing, stop-loss/take-profit/trailing
// exit logic, circuit breakers, and rolling risk metrics (§4.5).
package risk

// SizingConfig holds the bounds and multipliers used by Size (§6 "Risk" group).
type SizingConfig struct {
	BaseRatio   float64 // fraction of balance committed before multipliers
	Leverage    int
	MinOrderUSDT float64
	MaxOrderUSDT float64

	UseKelly       bool
	KellyFractionMin float64
	KellyFractionMax float64

	HighVolatilityThreshold float64
	HighVolatilityFactor    float64

	// MinThresholdStrength is the direction-gate minimum strength a signal
	// must clear to be considered at all; it anchors the 0.5x-at-threshold
	// to 1.0x-at-full-strength linear ramp.
	MinThresholdStrength float64
}

func DefaultSizingConfig() SizingConfig {
	return SizingConfig{
		BaseRatio:    0.1,
		Leverage:     5,
		MinOrderUSDT: 10,
		MaxOrderUSDT: 5000,

		UseKelly:         true,
		KellyFractionMin: 0.1,
		KellyFractionMax: 0.6,

		HighVolatilityThreshold: 0.05,
		HighVolatilityFactor:    0.5,

		MinThresholdStrength: 0.65,
	}
}

// KellyFraction computes the Kelly criterion fraction from a rolling
// win-rate and average win/loss, clipped to [min,max] (§4.5).
func KellyFraction(winRate, avgWin, avgLoss, min, max float64) float64 {
	if avgLoss <= 0 || avgWin <= 0 {
		return min
	}
	b := avgWin / avgLoss
	f := winRate - (1-winRate)/b
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// StreakMultiplier implements the consecutive-loss throttle: 2 losses →
// 0.75x, 3 → 0.5x, 4 → 0.25x, ≥5 → 0 (kill switch).
func StreakMultiplier(consecutiveLosses int) float64 {
	switch {
	case consecutiveLosses >= 5:
		return 0
	case consecutiveLosses == 4:
		return 0.25
	case consecutiveLosses == 3:
		return 0.5
	case consecutiveLosses == 2:
		return 0.75
	default:
		return 1
	}
}

// StrengthMultiplier ramps linearly from 0.5x at the minimum accepted
// strength to 1.0x at full strength.
func StrengthMultiplier(strength, minThreshold float64) float64 {
	if strength <= minThreshold {
		return 0.5
	}
	if strength >= 1 {
		return 1
	}
	span := 1 - minThreshold
	if span <= 0 {
		return 1
	}
	return 0.5 + 0.5*(strength-minThreshold)/span
}

// VolatilityFactor reduces sizing when realised volatility exceeds the
// configured high-volatility threshold; otherwise sizing is unaffected.
func VolatilityFactor(realisedVolatility float64, cfg SizingConfig) float64 {
	if realisedVolatility > cfg.HighVolatilityThreshold {
		return cfg.HighVolatilityFactor
	}
	return 1
}

// SizingInputs groups the per-tick values Size needs beyond the static config.
type SizingInputs struct {
	Balance             float64
	Price               float64
	Strength            float64
	RealisedVolatility  float64
	ConsecutiveLosses   int
	WinRate             float64
	AvgWin              float64
	AvgLoss             float64
	LLMPositionMultiplier float64 // 0 means "not supplied"
}

// Size computes the order notional-to-quantity conversion per §4.5:
// size = base_ratio × balance × leverage / price, scaled by the Kelly
// fraction, volatility factor, strength multiplier, streak multiplier,
// and an optional LLM multiplier, then clamped to [min_order, max_order].
// Returns the order quantity in base-asset units and the notional USDT
// value actually used, post-clamp.
func Size(cfg SizingConfig, in SizingInputs) (quantity float64, notionalUSDT float64) {
	if in.Price <= 0 || in.Balance <= 0 {
		return 0, 0
	}

	kelly := 1.0
	if cfg.UseKelly {
		kelly = KellyFraction(in.WinRate, in.AvgWin, in.AvgLoss, cfg.KellyFractionMin, cfg.KellyFractionMax)
	}

	notional := cfg.BaseRatio * in.Balance * float64(cfg.Leverage)
	notional *= kelly
	notional *= VolatilityFactor(in.RealisedVolatility, cfg)
	notional *= StrengthMultiplier(in.Strength, cfg.MinThresholdStrength)
	notional *= StreakMultiplier(in.ConsecutiveLosses)

	if in.LLMPositionMultiplier > 0 {
		notional *= in.LLMPositionMultiplier
	}

	if notional < cfg.MinOrderUSDT {
		notional = 0
	} else if notional > cfg.MaxOrderUSDT {
		notional = cfg.MaxOrderUSDT
	}

	return notional / in.Price, notional
}
