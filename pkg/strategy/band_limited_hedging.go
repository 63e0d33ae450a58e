package strategy

import "github.com/raykavin/tradecore/pkg/core"

// HedgeState is the band-limited hedging sub-state-machine (§4.9).
type HedgeState string

const (
	HedgeActive HedgeState = "active"
	HedgePaused HedgeState = "paused"
	HedgeExit   HedgeState = "exit"
)

// HedgeConfig holds the band-limited dual-hedge tuning knobs (§6 "Band-limited" group).
type HedgeConfig struct {
	MES                          float64 // minimum effective step, default 9*fee_rate
	Alpha                        float64 // fraction of realised profit migrated to the losing leg
	BasePositionRatio            float64 // fraction of initial_capital/2 committed per leg
	MinRebalanceProfitMultiplier float64
	MinProfitUSDT                float64
	FeeRate                      float64
	ExitEta                      float64 // effective-volatility floor that triggers Exit
	ExitMESRatio                 float64
}

// DefaultHedgeConfig returns the defaults named in §4.9 ("default 9×fee_rate", "0.95 of initial_capital/2").
func DefaultHedgeConfig(feeRate float64) HedgeConfig {
	return HedgeConfig{
		MES:                          9 * feeRate,
		Alpha:                        0.5,
		BasePositionRatio:            0.95,
		MinRebalanceProfitMultiplier: 1.5,
		MinProfitUSDT:                0.08,
		FeeRate:                      feeRate,
		ExitEta:                      0.05,
		ExitMESRatio:                 0.2,
	}
}

// HedgeLeg is one side of the dual position.
type HedgeLeg struct {
	Side   core.PositionSide
	Amount float64
	Entry  float64
}

// HedgePair is the composite position the band-limited strategy manages;
// it counts as the single logical Position allowed by the at-most-one
// invariant (§4.8).
type HedgePair struct {
	Long  HedgeLeg
	Short HedgeLeg

	ReferencePrice float64
	State          HedgeState
}

// BandLimitedHedging implements Strategy so it can sit in the same
// registry as the voting strategies, but its Evaluate only ever signals
// whether the pair should be opened — rebalancing is driven by Rebalance,
// called directly by the bot loop once the pair is live, not through the
// ensemble vote path.
type BandLimitedHedging struct {
	Config HedgeConfig
}

func (BandLimitedHedging) Name() string     { return "band_limited_hedging" }
func (BandLimitedHedging) WarmupPeriod() int { return 20 }

// Evaluate signals Long to request pair initiation when bandwidth is tight
// enough for the strategy's band-limited regime (ranging, low volatility);
// it never signals Short as a standalone direction since both legs open
// together.
func (h BandLimitedHedging) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	if snap.Regime != core.RegimeRanging {
		return hold("band_limited_hedging", snap, "regime not ranging")
	}
	if snap.BollingerWidth <= 0 || snap.BollingerWidth > 0.02 {
		return hold("band_limited_hedging", snap, "bandwidth outside band-limited range")
	}
	return core.Signal{
		StrategyName: "band_limited_hedging",
		Side:         core.SignalLong, // interpreted by the bot loop as "open the pair"
		Strength:     0.7,
		Confidence:   0.6,
		Reason:       "band-limited regime detected",
		Indicators:   snap,
		Time:         snap.Time,
	}
}

// NewPair opens a symmetric long/short pair of equal size, committing
// h.Config.BasePositionRatio of capitalPerLeg to each leg.
func (h BandLimitedHedging) NewPair(price, capitalPerLeg float64) HedgePair {
	size := h.Config.BasePositionRatio * capitalPerLeg / price
	return HedgePair{
		Long:           HedgeLeg{Side: core.PositionSideLong, Amount: size, Entry: price},
		Short:          HedgeLeg{Side: core.PositionSideShort, Amount: size, Entry: price},
		ReferencePrice: price,
		State:          HedgeActive,
	}
}

// RebalanceDecision is the outcome of evaluating a tick against an open
// HedgePair: which leg to realise profit on, how much profit to migrate,
// and the new reference price.
type RebalanceDecision struct {
	ShouldRebalance bool
	CloseSide       core.PositionSide
	RealisedProfit  float64
	MigratedToLoser float64
	RedistributedEach float64
	NewReferencePrice float64
}

// Rebalance applies the §4.9 rebalance rule: trigger when the price has
// moved at least MES away from the reference, close the profitable leg,
// migrate alpha of its realised net profit to reduce the losing leg, and
// redistribute the remainder symmetrically to both legs.
func (h BandLimitedHedging) Rebalance(pair HedgePair, price float64) RebalanceDecision {
	if pair.ReferencePrice <= 0 {
		return RebalanceDecision{}
	}
	move := (price - pair.ReferencePrice) / pair.ReferencePrice
	if absf(move) < h.Config.MES {
		return RebalanceDecision{}
	}

	var profitLeg HedgeLeg
	var closeSide core.PositionSide
	if move > 0 {
		profitLeg = pair.Long
		closeSide = core.PositionSideLong
	} else {
		profitLeg = pair.Short
		closeSide = core.PositionSideShort
	}

	grossProfit := profitLeg.Amount * absf(price-profitLeg.Entry)
	netProfit := grossProfit - profitLeg.Amount*price*h.Config.FeeRate*2

	threshold := h.Config.MinProfitUSDT
	if dyn := profitLeg.Amount * price * h.Config.FeeRate * h.Config.MinRebalanceProfitMultiplier; dyn > threshold {
		threshold = dyn
	}
	if netProfit < threshold {
		return RebalanceDecision{}
	}

	migrated := h.Config.Alpha * netProfit
	remainder := (1 - h.Config.Alpha) * netProfit
	redistributedEach := remainder / 2

	return RebalanceDecision{
		ShouldRebalance:   true,
		CloseSide:         closeSide,
		RealisedProfit:    netProfit,
		MigratedToLoser:   migrated,
		RedistributedEach: redistributedEach,
		NewReferencePrice: price,
	}
}

// ShouldExit reports whether the pair's Active/Pause state should
// transition to Exit: it is true when realised volatility has dropped
// below ExitEta. ExitMESRatio is not consulted.
func (h BandLimitedHedging) ShouldExit(effectiveVolatility float64) bool {
	return effectiveVolatility < h.Config.ExitEta
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
