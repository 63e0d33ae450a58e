package core

import "time"

// RiskMetrics tracks the rolling statistics the risk manager and circuit
// breakers consume (§3, §4.5). It is updated after every closed trade and
// on every mark-to-market tick while a position is open.
type RiskMetrics struct {
	EquityUSDT       float64
	DailyPnLUSDT     float64
	DailyStartEquity float64

	ConsecutiveLosses int
	ConsecutiveWins   int

	PeakEquityUSDT float64
	DrawdownPct    float64

	WinRate      float64
	KellyFraction float64

	TradesToday int
	LastResetAt time.Time
}

// CircuitBreakerKind names one of the three independent breakers (§4.5).
type CircuitBreakerKind string

const (
	CircuitBreakerDailyLoss      CircuitBreakerKind = "daily_loss"
	CircuitBreakerConsecutiveLoss CircuitBreakerKind = "consecutive_loss"
	CircuitBreakerRapidDrawdown  CircuitBreakerKind = "rapid_drawdown"
)

// CircuitBreakerState is the tripped/clear state of one circuit breaker.
type CircuitBreakerState struct {
	Kind      CircuitBreakerKind
	Tripped   bool
	TrippedAt time.Time
	Reason    string
	ResetAt   time.Time
}

// ExchangeBackoffState tracks the gateway's error-classified backoff
// schedule (§4.6, §4.10).
type ExchangeBackoffState struct {
	ConsecutiveErrors int
	NextRetryAt       time.Time
	LastErrorKind     string
	LastErrorAt       time.Time
}
