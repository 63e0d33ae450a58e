package risk

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/raykavin/tradecore/pkg/core"
)

// BreakerConfig holds the three trading circuit breakers' thresholds (§4.6).
type BreakerConfig struct {
	DailyLossLimitPct       float64
	ConsecutiveLossLimit    int
	RapidDrawdownPct        float64
	RapidDrawdownWindow     time.Duration
	ResetAfter              time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		DailyLossLimitPct:    0.05,
		ConsecutiveLossLimit: 5,
		RapidDrawdownPct:     0.03,
		RapidDrawdownWindow:  15 * time.Minute,
		ResetAfter:           24 * time.Hour,
	}
}

var (
	breakerMetricsOnce sync.Once
	breakerState       *prometheus.GaugeVec
	breakerTrips       *prometheus.CounterVec
)

func initBreakerMetrics() {
	breakerMetricsOnce.Do(func() {
		breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradecore_circuit_breaker_state",
			Help: "Trading circuit breaker state (0=closed, 1=tripped)",
		}, []string{"kind"})
		breakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_circuit_breaker_trips_total",
			Help: "Total number of trading circuit breaker trips",
		}, []string{"kind"})
	})
}

// equityPoint is one sample in the rapid-drawdown sliding window.
type equityPoint struct {
	at     time.Time
	equity float64
}

// BreakerBank evaluates and tracks the three independent circuit breakers
// from §4.6: daily loss, consecutive loss, and rapid drawdown. Any one
// tripped breaker blocks new entries until its ResetAt passes.
type BreakerBank struct {
	cfg BreakerConfig

	mu       sync.Mutex
	states   map[core.CircuitBreakerKind]*core.CircuitBreakerState
	window   []equityPoint
}

func NewBreakerBank(cfg BreakerConfig) *BreakerBank {
	initBreakerMetrics()
	return &BreakerBank{
		cfg: cfg,
		states: map[core.CircuitBreakerKind]*core.CircuitBreakerState{
			core.CircuitBreakerDailyLoss:        {Kind: core.CircuitBreakerDailyLoss},
			core.CircuitBreakerConsecutiveLoss:  {Kind: core.CircuitBreakerConsecutiveLoss},
			core.CircuitBreakerRapidDrawdown:    {Kind: core.CircuitBreakerRapidDrawdown},
		},
	}
}

// Evaluate updates breaker state from the latest metrics snapshot and
// returns the set of breakers now tripped (empty when none). Previously
// tripped breakers whose ResetAt has passed are cleared automatically.
func (b *BreakerBank) Evaluate(now time.Time, m core.RiskMetrics) []core.CircuitBreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.recordEquity(now, m.EquityUSDT)
	b.autoReset(now)

	b.checkDailyLoss(now, m)
	b.checkConsecutiveLoss(now, m)
	b.checkRapidDrawdown(now)

	var tripped []core.CircuitBreakerState
	for _, s := range b.states {
		if s.Tripped {
			tripped = append(tripped, *s)
		}
	}
	return tripped
}

// Tripped reports whether any breaker currently blocks new entries.
func (b *BreakerBank) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.states {
		if s.Tripped {
			return true
		}
	}
	return false
}

func (b *BreakerBank) recordEquity(now time.Time, equity float64) {
	b.window = append(b.window, equityPoint{at: now, equity: equity})
	cutoff := now.Add(-b.cfg.RapidDrawdownWindow)
	i := 0
	for i < len(b.window) && b.window[i].at.Before(cutoff) {
		i++
	}
	b.window = b.window[i:]
}

func (b *BreakerBank) autoReset(now time.Time) {
	for kind, s := range b.states {
		if s.Tripped && !s.ResetAt.IsZero() && !now.Before(s.ResetAt) {
			s.Tripped = false
			s.Reason = ""
			breakerState.WithLabelValues(string(kind)).Set(0)
		}
	}
}

func (b *BreakerBank) checkDailyLoss(now time.Time, m core.RiskMetrics) {
	s := b.states[core.CircuitBreakerDailyLoss]
	if s.Tripped || m.DailyStartEquity <= 0 {
		return
	}
	lossPct := -m.DailyPnLUSDT / m.DailyStartEquity
	if lossPct >= b.cfg.DailyLossLimitPct {
		b.trip(s, now, "daily loss limit breached")
	}
}

func (b *BreakerBank) checkConsecutiveLoss(now time.Time, m core.RiskMetrics) {
	s := b.states[core.CircuitBreakerConsecutiveLoss]
	if s.Tripped {
		return
	}
	if m.ConsecutiveLosses >= b.cfg.ConsecutiveLossLimit {
		b.trip(s, now, "consecutive loss limit breached")
	}
}

func (b *BreakerBank) checkRapidDrawdown(now time.Time) {
	s := b.states[core.CircuitBreakerRapidDrawdown]
	if s.Tripped || len(b.window) == 0 {
		return
	}
	peak := b.window[0].equity
	for _, p := range b.window {
		if p.equity > peak {
			peak = p.equity
		}
	}
	if peak <= 0 {
		return
	}
	latest := b.window[len(b.window)-1].equity
	drawdown := (peak - latest) / peak
	if drawdown >= b.cfg.RapidDrawdownPct {
		b.trip(s, now, "rapid drawdown within window breached")
	}
}

func (b *BreakerBank) trip(s *core.CircuitBreakerState, now time.Time, reason string) {
	s.Tripped = true
	s.TrippedAt = now
	s.Reason = reason
	s.ResetAt = now.Add(b.cfg.ResetAfter)
	breakerState.WithLabelValues(string(s.Kind)).Set(1)
	breakerTrips.WithLabelValues(string(s.Kind)).Inc()
}

// Reset forces every breaker closed, used on manual operator override or
// at the start of a new trading day.
func (b *BreakerBank) Reset(kinds ...core.CircuitBreakerKind) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(kinds) == 0 {
		for kind, s := range b.states {
			s.Tripped = false
			s.Reason = ""
			breakerState.WithLabelValues(string(kind)).Set(0)
		}
		return
	}
	for _, kind := range kinds {
		if s, ok := b.states[kind]; ok {
			s.Tripped = false
			s.Reason = ""
			breakerState.WithLabelValues(string(kind)).Set(0)
		}
	}
}
