package risk

import (
	"time"

	"github.com/raykavin/tradecore/pkg/core"
)

// ManagerConfig bundles the sub-configs a Manager needs.
type ManagerConfig struct {
	Sizing  SizingConfig
	Exit    ExitConfig
	Breaker BreakerConfig

	// IdleInterval is how often to poll while flat; PositionInterval is
	// the (tighter) poll cadence while a position is open (§4.7).
	IdleInterval     time.Duration
	PositionInterval time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Sizing:           DefaultSizingConfig(),
		Exit:             DefaultExitConfig(),
		Breaker:          DefaultBreakerConfig(),
		IdleInterval:     60 * time.Second,
		PositionInterval: 5 * time.Second,
	}
}

// Manager owns the rolling risk metrics, circuit breakers, and the sizing
// and exit computations that depend on them. It is the single place the
// bot loop consults before opening or while holding a position.
type Manager struct {
	cfg     ManagerConfig
	metrics core.RiskMetrics
	breaker *BreakerBank

	winHistory []bool // true = win, bounded ring for WinRate/Kelly inputs
	historyCap int

	sumWin  float64
	countWin int
	sumLoss float64
	countLoss int
}

func NewManager(cfg ManagerConfig, startEquity float64, now time.Time) *Manager {
	return &Manager{
		cfg:     cfg,
		breaker: NewBreakerBank(cfg.Breaker),
		historyCap: 50,
		metrics: core.RiskMetrics{
			EquityUSDT:       startEquity,
			DailyStartEquity: startEquity,
			PeakEquityUSDT:   startEquity,
			LastResetAt:      now,
		},
	}
}

// CheckInterval returns the adaptive poll cadence: tighter while a
// position is open, relaxed while flat (§4.7).
func (m *Manager) CheckInterval(hasOpenPosition bool) time.Duration {
	if hasOpenPosition {
		return m.cfg.PositionInterval
	}
	return m.cfg.IdleInterval
}

// RolloverDay resets the daily PnL baseline; call once per UTC day.
func (m *Manager) RolloverDay(now time.Time) {
	m.metrics.DailyStartEquity = m.metrics.EquityUSDT
	m.metrics.DailyPnLUSDT = 0
	m.metrics.TradesToday = 0
	m.metrics.LastResetAt = now
}

// RecordTrade updates equity, win/loss streaks, and rolling win-rate
// after a position closes with the given realised PnL in USDT.
func (m *Manager) RecordTrade(now time.Time, realisedPnL float64) {
	m.metrics.EquityUSDT += realisedPnL
	m.metrics.DailyPnLUSDT += realisedPnL
	m.metrics.TradesToday++

	if m.metrics.EquityUSDT > m.metrics.PeakEquityUSDT {
		m.metrics.PeakEquityUSDT = m.metrics.EquityUSDT
	}
	if m.metrics.PeakEquityUSDT > 0 {
		m.metrics.DrawdownPct = (m.metrics.PeakEquityUSDT - m.metrics.EquityUSDT) / m.metrics.PeakEquityUSDT
	}

	win := realisedPnL > 0
	if win {
		m.metrics.ConsecutiveWins++
		m.metrics.ConsecutiveLosses = 0
		m.sumWin += realisedPnL
		m.countWin++
	} else {
		m.metrics.ConsecutiveLosses++
		m.metrics.ConsecutiveWins = 0
		m.sumLoss += -realisedPnL
		m.countLoss++
	}

	m.winHistory = append(m.winHistory, win)
	if len(m.winHistory) > m.historyCap {
		m.winHistory = m.winHistory[len(m.winHistory)-m.historyCap:]
	}
	m.recomputeWinRate()
	m.metrics.KellyFraction = KellyFraction(m.metrics.WinRate, m.avgWin(), m.avgLoss(), m.cfg.Sizing.KellyFractionMin, m.cfg.Sizing.KellyFractionMax)

	_ = m.breaker.Evaluate(now, m.metrics)
}

func (m *Manager) recomputeWinRate() {
	if len(m.winHistory) == 0 {
		m.metrics.WinRate = 0
		return
	}
	wins := 0
	for _, w := range m.winHistory {
		if w {
			wins++
		}
	}
	m.metrics.WinRate = float64(wins) / float64(len(m.winHistory))
}

func (m *Manager) avgWin() float64 {
	if m.countWin == 0 {
		return 0
	}
	return m.sumWin / float64(m.countWin)
}

func (m *Manager) avgLoss() float64 {
	if m.countLoss == 0 {
		return 0
	}
	return m.sumLoss / float64(m.countLoss)
}

// Metrics returns a snapshot of the current rolling risk metrics.
func (m *Manager) Metrics() core.RiskMetrics { return m.metrics }

// WinRate exposes the rolling win-rate used by adaptive direction-gate
// thresholds (§4.4 gate 2).
func (m *Manager) WinRate() float64 { return m.metrics.WinRate }

// BreakersTripped reports whether any circuit breaker currently blocks
// new entries.
func (m *Manager) BreakersTripped() bool { return m.breaker.Tripped() }

// EvaluateBreakers re-checks all breakers against the current metrics
// and returns any now tripped. Call this periodically even without a
// trade, so time-based resets and rapid-drawdown windows stay current.
func (m *Manager) EvaluateBreakers(now time.Time) []core.CircuitBreakerState {
	return m.breaker.Evaluate(now, m.metrics)
}

// SizeOrder computes the order quantity/notional for a new entry given
// the current equity, price, and signal strength, honouring streak
// throttling and the optional LLM position-size multiplier.
func (m *Manager) SizeOrder(price, strength, realisedVolatility float64, llmMultiplier float64) (quantity, notionalUSDT float64) {
	in := SizingInputs{
		Balance:               m.metrics.EquityUSDT,
		Price:                 price,
		Strength:              strength,
		RealisedVolatility:    realisedVolatility,
		ConsecutiveLosses:     m.metrics.ConsecutiveLosses,
		WinRate:               m.metrics.WinRate,
		AvgWin:                m.avgWin(),
		AvgLoss:               m.avgLoss(),
		LLMPositionMultiplier: llmMultiplier,
	}
	return Size(m.cfg.Sizing, in)
}

// InitialStops sets a freshly opened position's stop-loss and
// take-profit prices from the exit config and current ATR. slPctOverride
// and tpPctOverride, when non-nil, replace the configured StopLossPct/
// TakeProfitPct before computing the prices — the bounded LLM-policy
// override path (§4.4 gate 6): the engine's Clamp already restricted them
// to ParamBounds, this just substitutes them into the same formula every
// other open uses.
func (m *Manager) InitialStops(pos *core.Position, atr float64, slPctOverride, tpPctOverride *float64) {
	cfg := m.cfg.Exit
	if slPctOverride != nil {
		cfg.StopLossPct = *slPctOverride
	}
	if tpPctOverride != nil {
		cfg.TakeProfitPct = *tpPctOverride
	}
	pos.StopLossPrice = StopLoss(pos.Side, pos.EntryPrice, atr, m.cfg.Sizing.Leverage, cfg)
	pos.TakeProfitPrice = TakeProfit(pos.Side, pos.EntryPrice, cfg)
}

// EvaluateExit runs the fixed exit-evaluation precedence against an open
// position and the current price (§4.5).
func (m *Manager) EvaluateExit(pos *core.Position, price float64, manualCloseRequested bool) ExitReason {
	return Evaluate(pos, price, m.cfg.Exit, manualCloseRequested)
}
