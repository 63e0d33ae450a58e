// Package position owns the single open core.Position per pair: opening it
// from a fill, folding subsequent fills into it, closing it, and — on
// startup — reconciling local state against whatever the exchange itself
// reports open (§4.8), before any new position is allowed to open.
package position

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
	"github.com/raykavin/tradecore/pkg/logger"
)

// Manager tracks at most one core.Position per pair.
type Manager struct {
	mu        sync.Mutex
	positions map[string]*core.Position
	log       logger.Logger
}

func NewManager(log logger.Logger) *Manager {
	return &Manager{positions: make(map[string]*core.Position), log: log}
}

// Open records a newly opened position. Callers must have confirmed no
// position is already open for pair.
func (m *Manager) Open(pair string, side core.PositionSide, amount, price, fee float64, strategy string, now time.Time) *core.Position {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos := &core.Position{
		Side:            side,
		Amount:          amount,
		EntryPrice:      price,
		EntryTime:       now,
		EntryFee:        fee,
		StrategyName:    strategy,
		RecentPricesCap: 5,
	}
	pos.UpdatePriceExtremes(price)
	m.positions[pair] = pos
	return pos
}

// Get returns the tracked position for pair, if any.
func (m *Manager) Get(pair string) (*core.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[pair]
	return pos, ok
}

// Close drops the tracked position for pair.
func (m *Manager) Close(pair string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, pair)
}

// Reconcile implements the startup invariant (§4.8): before the bot loop
// allows any new open, every pair's local state must agree with what the
// exchange itself reports. A pair with no locally tracked position but an
// exchange-reported one is adopted as-is (recent-price history starts
// fresh from the reported entry price). A pair where the local side
// disagrees with the exchange side is a hard invariant violation — no
// partial-fill explanation covers a side mismatch, so the caller must
// flatten and not silently continue.
func (m *Manager) Reconcile(ctx context.Context, gw core.Broker, pairs []string, now time.Time) error {
	for _, pair := range pairs {
		snapshots, err := gw.GetPositions(ctx, pair)
		if err != nil {
			return fmt.Errorf("reconcile %s: %w", pair, err)
		}
		if len(snapshots) == 0 {
			m.Close(pair)
			continue
		}

		snap := snapshots[0]
		m.mu.Lock()
		local, tracked := m.positions[pair]
		switch {
		case !tracked:
			pos := &core.Position{
				Side:            snap.Side,
				Amount:          snap.Amount,
				EntryPrice:      snap.EntryPrice,
				EntryTime:       now,
				RecentPricesCap: 5,
			}
			pos.UpdatePriceExtremes(snap.EntryPrice)
			m.positions[pair] = pos
			m.log.WithField("pair", pair).Warn("adopted exchange-reported position absent from local state")
		case local.Side != snap.Side:
			m.mu.Unlock()
			return errkind.New(errkind.InvariantViolation, "position.Reconcile",
				fmt.Errorf("%s: local side %s disagrees with exchange side %s", pair, local.Side, snap.Side))
		case local.Amount != snap.Amount:
			local.Amount = snap.Amount
			m.log.WithField("pair", pair).Warn("adjusted locally tracked amount to match exchange")
		}
		m.mu.Unlock()
	}
	return nil
}

// ApplyFill folds a fill into the position for pair: same-side fills widen
// it (weighted-average entry price), opposite-side fills reduce or close
// it. Returns the realised PnL (before fees) and whether the position is
// now fully closed.
func (m *Manager) ApplyFill(pair string, side core.PositionSide, amount, price float64) (realisedPnL float64, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pos, ok := m.positions[pair]
	if !ok || pos.Amount == 0 {
		return 0, false
	}

	if pos.Side == side {
		pos.EntryPrice = (pos.EntryPrice*pos.Amount + price*amount) / (pos.Amount + amount)
		pos.Amount += amount
		return 0, false
	}

	closedAmount := amount
	if closedAmount > pos.Amount {
		closedAmount = pos.Amount
	}
	if pos.Side == core.PositionSideLong {
		realisedPnL = (price - pos.EntryPrice) * closedAmount
	} else {
		realisedPnL = (pos.EntryPrice - price) * closedAmount
	}

	pos.Amount -= closedAmount
	if pos.Amount <= 0 {
		delete(m.positions, pair)
		return realisedPnL, true
	}
	return realisedPnL, false
}
