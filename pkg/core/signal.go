package core

import "time"

// MarketRegime classifies the prevailing market state (§4.3). Classification
// is precedence-ordered and hysteresis-gated — see pkg/regime.
type MarketRegime string

const (
	RegimeRanging      MarketRegime = "ranging"
	RegimeTrending     MarketRegime = "trending"
	RegimeTransitioning MarketRegime = "transitioning"
)

// IndicatorSnapshot is the full set of indicator readings aligned to one
// closed candle (§3), fed into the strategy ensemble and filter pipeline.
type IndicatorSnapshot struct {
	Pair string
	Time time.Time

	EMAFast  float64
	EMASlow  float64
	EMATrend float64
	SMA      float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	RSI float64

	BollingerUpper float64
	BollingerMid   float64
	BollingerLower float64
	BollingerWidth float64
	PercentB       float64

	ATR     float64
	ADX     float64
	PlusDI  float64
	MinusDI float64

	KDJ_K float64
	KDJ_D float64
	KDJ_J float64

	VolumeRatio float64

	Regime MarketRegime
}

// SignalSide is a strategy's directional vote, wider than PositionSide
// because it also covers close requests and abstention.
type SignalSide string

const (
	SignalLong       SignalSide = "long"
	SignalShort      SignalSide = "short"
	SignalCloseLong  SignalSide = "close_long"
	SignalCloseShort SignalSide = "close_short"
	SignalHold       SignalSide = "hold"
)

// Signal is a single strategy's vote for one evaluation cycle (§3, §4.2).
// It is a pure value: strategies must not mutate the candles or indicators
// they were evaluated against.
type Signal struct {
	StrategyName string
	Side         SignalSide
	Strength     float64 // normalised [0,1]
	Confidence   float64 // normalised [0,1]
	Reason       string
	Indicators   IndicatorSnapshot
	Time         time.Time
}

// AggregatedSignal is the ensemble's output after voting (§4.2).
type AggregatedSignal struct {
	Side             SignalSide
	Agreement        float64 // fraction of active strategies that voted for Side
	Strength         float64 // weighted mean strength of strategies that voted for Side
	Confidence       float64
	VoteCount        int
	TotalVotes       int
	Contributing     []Signal
	Time             time.Time

	// Rejected is true when agreement/strength/confidence fell below the
	// side-specific threshold and no trade should be opened.
	Rejected bool
}
