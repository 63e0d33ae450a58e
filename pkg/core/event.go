package core

import "time"

// Event is the common type published through Notifier.OnEvent. Transports
// type-switch on the concrete value to decide how to render it; the core
// never formats user-facing strings itself (§6, §7).
type Event interface {
	EventName() string
	EventTime() time.Time
}

// TradeTag is the append-only record of a signal's path through the filter
// pipeline (§4.4), emitted whether or not the signal resulted in a trade.
type TradeTag struct {
	Pair      string
	Side      PositionSide
	Signal    AggregatedSignal
	Decisions []GateDecision
	Opened    bool
	Time      time.Time
}

func (TradeTag) EventName() string        { return "trade_tag" }
func (t TradeTag) EventTime() time.Time    { return t.Time }

// GateDecision records one filter gate's verdict on a candidate signal.
type GateDecision struct {
	Gate    string
	Passed  bool
	Reason  string
	Latency time.Duration
}

// PositionOpened is emitted when a new position is opened.
type PositionOpened struct {
	Pair     string
	Side     PositionSide
	Amount   float64
	Price    float64
	Strategy string
	Time     time.Time
}

func (PositionOpened) EventName() string     { return "position_opened" }
func (e PositionOpened) EventTime() time.Time { return e.Time }

// PositionClosed is emitted when a position is fully closed.
type PositionClosed struct {
	Pair       string
	Side       PositionSide
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	ProfitUSDT float64
	Reason     string
	Time       time.Time
}

func (PositionClosed) EventName() string      { return "position_closed" }
func (e PositionClosed) EventTime() time.Time  { return e.Time }

// CircuitBreakerTripped is emitted the moment a circuit breaker trips.
type CircuitBreakerTripped struct {
	Kind   CircuitBreakerKind
	Reason string
	Time   time.Time
}

func (CircuitBreakerTripped) EventName() string     { return "circuit_breaker_tripped" }
func (e CircuitBreakerTripped) EventTime() time.Time { return e.Time }

// CircuitBreakerCleared is emitted when a tripped breaker resets.
type CircuitBreakerCleared struct {
	Kind CircuitBreakerKind
	Time time.Time
}

func (CircuitBreakerCleared) EventName() string     { return "circuit_breaker_cleared" }
func (e CircuitBreakerCleared) EventTime() time.Time { return e.Time }

// GatewayErrorBackoff is emitted whenever the gateway enters or extends a
// backoff window after a classified error (§4.10).
type GatewayErrorBackoff struct {
	ErrorKind   string
	NextRetryAt time.Time
	Time        time.Time
}

func (GatewayErrorBackoff) EventName() string     { return "gateway_error_backoff" }
func (e GatewayErrorBackoff) EventTime() time.Time { return e.Time }
