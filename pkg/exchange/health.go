package exchange

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
	"github.com/raykavin/tradecore/pkg/logger"
)

// BackoffTracker turns successive gateway errors into the exponential
// retry schedule the bot loop waits on before its next attempt (§4.7).
// errkind.Kind.Retryable() gates whether a failure counts at all: a
// non-retryable classification does not count, resets the schedule and
// the consecutive-error counter, and is expected to propagate to the
// state machine instead.
type BackoffTracker struct {
	bo    *backoff.Backoff
	state core.ExchangeBackoffState
}

func NewBackoffTracker(min, max time.Duration) *BackoffTracker {
	return &BackoffTracker{bo: &backoff.Backoff{Min: min, Max: max, Factor: 2, Jitter: true}}
}

// Record classifies err and advances the backoff schedule when retryable.
// It returns the updated state for the caller to publish as a
// core.GatewayErrorBackoff event.
func (t *BackoffTracker) Record(now time.Time, err error) core.ExchangeBackoffState {
	kind := errkind.KindOf(err)
	if !kind.Retryable() {
		t.Reset()
		t.state.LastErrorKind = string(kind)
		t.state.LastErrorAt = now
		return t.state
	}

	t.state.ConsecutiveErrors++
	t.state.LastErrorKind = string(kind)
	t.state.LastErrorAt = now
	t.state.NextRetryAt = now.Add(t.bo.Duration())
	return t.state
}

// Reset clears the consecutive-error counter after a successful call.
func (t *BackoffTracker) Reset() {
	t.bo.Reset()
	t.state.ConsecutiveErrors = 0
	t.state.NextRetryAt = time.Time{}
}

func (t *BackoffTracker) State() core.ExchangeBackoffState { return t.state }

// OrderHealthSweeper periodically reconciles locally tracked open orders
// against the exchange's own view, catching orders that filled or were
// cancelled out-of-band (missed websocket event, restart mid-flight).
type OrderHealthSweeper struct {
	gw       core.Broker
	log      logger.Logger
	interval time.Duration

	// StaleThreshold/MaxAge are the §4.6 order-age gates: orders open
	// longer than StaleThreshold are logged, orders open longer than
	// MaxAge are cancelled outright. Zero disables the respective check.
	StaleThreshold time.Duration
	MaxAge         time.Duration

	mu     sync.Mutex
	orders map[string]core.Order // exchange order id -> last known state, keyed by pair+id
}

func NewOrderHealthSweeper(gw core.Broker, log logger.Logger, interval time.Duration) *OrderHealthSweeper {
	return &OrderHealthSweeper{gw: gw, log: log, interval: interval, orders: make(map[string]core.Order)}
}

// Track registers an order for periodic reconciliation.
func (s *OrderHealthSweeper) Track(o core.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[trackKey(o.Pair, o.ExchangeID)] = o
}

// Untrack drops an order once it reaches a terminal state.
func (s *OrderHealthSweeper) Untrack(pair string, exchangeID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, trackKey(pair, exchangeID))
}

func trackKey(pair string, id int64) string {
	return pair + ":" + strconv.FormatInt(id, 10)
}

// Run blocks, sweeping tracked orders every interval until ctx is done.
// Orders found filled or in a terminal state are reported via onResolved.
func (s *OrderHealthSweeper) Run(ctx context.Context, onResolved func(core.Order)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, onResolved)
		}
	}
}

func (s *OrderHealthSweeper) sweep(ctx context.Context, onResolved func(core.Order)) {
	s.mu.Lock()
	snapshot := make([]core.Order, 0, len(s.orders))
	for _, o := range s.orders {
		snapshot = append(snapshot, o)
	}
	s.mu.Unlock()

	now := time.Now()
	for _, tracked := range snapshot {
		current, err := s.gw.Order(ctx, tracked.Pair, tracked.ExchangeID)
		if err != nil {
			s.log.WithError(err).Warn("order health sweep: lookup failed")
			continue
		}
		if isTerminal(current.Status) {
			s.Untrack(current.Pair, current.ExchangeID)
			onResolved(current)
			continue
		}

		age := now.Sub(current.CreatedAt)
		if s.MaxAge > 0 && age > s.MaxAge {
			if err := s.gw.CancelOrder(ctx, current); err != nil {
				s.log.WithError(err).Warn("order health sweep: cancel of aged order failed")
				s.Track(current)
				continue
			}
			s.log.WithField("pair", current.Pair).WithField("age", age.String()).Warn("order health sweep: cancelled order past max age")
			s.Untrack(current.Pair, current.ExchangeID)
			continue
		}
		if s.StaleThreshold > 0 && age > s.StaleThreshold {
			s.log.WithField("pair", current.Pair).WithField("age", age.String()).Warn("order health sweep: order stale")
		}
		s.Track(current)
	}
}

func isTerminal(status core.OrderStatusType) bool {
	switch status {
	case core.OrderStatusTypeFilled, core.OrderStatusTypeCanceled, core.OrderStatusTypeRejected, core.OrderStatusTypeExpired:
		return true
	default:
		return false
	}
}
