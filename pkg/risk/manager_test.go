package risk

import (
	"testing"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func newTestManager(startEquity float64) *Manager {
	cfg := DefaultManagerConfig()
	return NewManager(cfg, startEquity, time.Now())
}

func TestManager_CheckIntervalAdaptsToPosition(t *testing.T) {
	m := newTestManager(1000)
	assert.Equal(t, m.cfg.IdleInterval, m.CheckInterval(false))
	assert.Equal(t, m.cfg.PositionInterval, m.CheckInterval(true))
}

func TestManager_RecordTradeUpdatesStreaksAndEquity(t *testing.T) {
	m := newTestManager(1000)
	now := time.Now()

	m.RecordTrade(now, 10)
	assert.Equal(t, 1010.0, m.Metrics().EquityUSDT)
	assert.Equal(t, 1, m.Metrics().ConsecutiveWins)
	assert.Equal(t, 0, m.Metrics().ConsecutiveLosses)

	m.RecordTrade(now, -5)
	assert.Equal(t, 1005.0, m.Metrics().EquityUSDT)
	assert.Equal(t, 0, m.Metrics().ConsecutiveWins)
	assert.Equal(t, 1, m.Metrics().ConsecutiveLosses)
	assert.Equal(t, 0.5, m.WinRate())
}

func TestManager_RecordTradeTripsBreaker(t *testing.T) {
	m := newTestManager(1000)
	now := time.Now()
	m.RecordTrade(now, -30)
	m.RecordTrade(now, -15)
	m.RecordTrade(now, -10) // cumulative daily loss = -55, 5.5% of 1000
	assert.True(t, m.BreakersTripped())
}

func TestManager_InitialStopsUsesExitConfig(t *testing.T) {
	m := newTestManager(1000)
	pos := &core.Position{Side: core.PositionSideLong, EntryPrice: 100}
	m.InitialStops(pos, 1.0, nil, nil)
	assert.Greater(t, pos.StopLossPrice, 0.0)
	assert.Less(t, pos.StopLossPrice, pos.EntryPrice)
	assert.Greater(t, pos.TakeProfitPrice, pos.EntryPrice)
}

func TestManager_InitialStopsAppliesLLMOverrides(t *testing.T) {
	m := newTestManager(1000)
	pos := &core.Position{Side: core.PositionSideLong, EntryPrice: 100}
	// slOverride=0.15 makes the fixed candidate (97) wider than the
	// ATR candidate (97.5 at atr=1.0, ATRMultiplier=2.5), so the override
	// is the one that decides the wider-of-two pick — proving it's read.
	slOverride, tpOverride := 0.15, 0.08
	m.InitialStops(pos, 1.0, &slOverride, &tpOverride)
	assert.InDelta(t, 97.0, pos.StopLossPrice, 1e-6)
	assert.InDelta(t, 108.0, pos.TakeProfitPrice, 1e-6)
}

func TestManager_SizeOrderZeroAtKillSwitch(t *testing.T) {
	m := newTestManager(1000)
	now := time.Now()
	for i := 0; i < 5; i++ {
		m.RecordTrade(now, -1)
	}
	qty, notional := m.SizeOrder(100, 1.0, 0.01, 0)
	assert.Equal(t, 0.0, qty)
	assert.Equal(t, 0.0, notional)
}
