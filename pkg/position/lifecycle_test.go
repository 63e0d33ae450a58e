package position

import (
	"context"
	"testing"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
	"github.com/raykavin/tradecore/pkg/logger/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *zerolog.Adapter {
	t.Helper()
	l, err := zerolog.New("error", time.RFC3339, false, true)
	require.NoError(t, err)
	return zerolog.NewAdapter(l)
}

// fakeBroker stubs core.Broker, returning whatever GetPositions the test
// configures; every other method panics since Reconcile never calls them.
type fakeBroker struct {
	core.Broker
	snapshots map[string][]core.PositionSnapshot
	err       error
}

func (f fakeBroker) GetPositions(_ context.Context, pair string) ([]core.PositionSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots[pair], nil
}

func TestManager_OpenGetClose(t *testing.T) {
	m := NewManager(testLogger(t))
	now := time.Now()
	pos := m.Open("BTCUSDT", core.PositionSideLong, 1, 100, 0.1, "ema_cross", now)
	assert.Equal(t, core.PositionSideLong, pos.Side)

	got, ok := m.Get("BTCUSDT")
	require.True(t, ok)
	assert.Same(t, pos, got)

	m.Close("BTCUSDT")
	_, ok = m.Get("BTCUSDT")
	assert.False(t, ok)
}

func TestManager_ApplyFill_SameSideWidens(t *testing.T) {
	m := NewManager(testLogger(t))
	m.Open("BTCUSDT", core.PositionSideLong, 1, 100, 0, "x", time.Now())

	pnl, closed := m.ApplyFill("BTCUSDT", core.PositionSideLong, 1, 200)
	assert.Equal(t, 0.0, pnl)
	assert.False(t, closed)

	pos, _ := m.Get("BTCUSDT")
	assert.Equal(t, 2.0, pos.Amount)
	assert.Equal(t, 150.0, pos.EntryPrice)
}

func TestManager_ApplyFill_OppositeSideReducesThenCloses(t *testing.T) {
	m := NewManager(testLogger(t))
	m.Open("BTCUSDT", core.PositionSideLong, 2, 100, 0, "x", time.Now())

	pnl, closed := m.ApplyFill("BTCUSDT", core.PositionSideShort, 1, 110)
	assert.InDelta(t, 10.0, pnl, 1e-9)
	assert.False(t, closed)
	pos, _ := m.Get("BTCUSDT")
	assert.Equal(t, 1.0, pos.Amount)

	pnl, closed = m.ApplyFill("BTCUSDT", core.PositionSideShort, 1, 90)
	assert.InDelta(t, -10.0, pnl, 1e-9)
	assert.True(t, closed)
	_, ok := m.Get("BTCUSDT")
	assert.False(t, ok)
}

func TestManager_ApplyFill_UnknownPairIsNoop(t *testing.T) {
	m := NewManager(testLogger(t))
	pnl, closed := m.ApplyFill("BTCUSDT", core.PositionSideLong, 1, 100)
	assert.Equal(t, 0.0, pnl)
	assert.False(t, closed)
}

func TestReconcile_AdoptsExchangeReportedPosition(t *testing.T) {
	m := NewManager(testLogger(t))
	gw := fakeBroker{snapshots: map[string][]core.PositionSnapshot{
		"BTCUSDT": {{Pair: "BTCUSDT", Side: core.PositionSideLong, Amount: 1.5, EntryPrice: 100}},
	}}
	err := m.Reconcile(context.Background(), gw, []string{"BTCUSDT"}, time.Now())
	require.NoError(t, err)

	pos, ok := m.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 1.5, pos.Amount)
	assert.Equal(t, core.PositionSideLong, pos.Side)
}

func TestReconcile_NoExchangePositionClearsLocal(t *testing.T) {
	m := NewManager(testLogger(t))
	m.Open("BTCUSDT", core.PositionSideLong, 1, 100, 0, "x", time.Now())
	gw := fakeBroker{snapshots: map[string][]core.PositionSnapshot{}}
	err := m.Reconcile(context.Background(), gw, []string{"BTCUSDT"}, time.Now())
	require.NoError(t, err)
	_, ok := m.Get("BTCUSDT")
	assert.False(t, ok)
}

func TestReconcile_AmountMismatchCorrectsLocally(t *testing.T) {
	m := NewManager(testLogger(t))
	m.Open("BTCUSDT", core.PositionSideLong, 1, 100, 0, "x", time.Now())
	gw := fakeBroker{snapshots: map[string][]core.PositionSnapshot{
		"BTCUSDT": {{Pair: "BTCUSDT", Side: core.PositionSideLong, Amount: 0.6, EntryPrice: 100}},
	}}
	err := m.Reconcile(context.Background(), gw, []string{"BTCUSDT"}, time.Now())
	require.NoError(t, err)
	pos, _ := m.Get("BTCUSDT")
	assert.Equal(t, 0.6, pos.Amount)
}

func TestReconcile_SideMismatchIsInvariantViolation(t *testing.T) {
	m := NewManager(testLogger(t))
	m.Open("BTCUSDT", core.PositionSideLong, 1, 100, 0, "x", time.Now())
	gw := fakeBroker{snapshots: map[string][]core.PositionSnapshot{
		"BTCUSDT": {{Pair: "BTCUSDT", Side: core.PositionSideShort, Amount: 1, EntryPrice: 100}},
	}}
	err := m.Reconcile(context.Background(), gw, []string{"BTCUSDT"}, time.Now())
	require.Error(t, err)
	assert.Equal(t, errkind.InvariantViolation, errkind.KindOf(err))
}
