// Package bot implements the control loop that drives one trading pair
// through the state machine of §4.7: connect, evaluate, gate, size, open,
// hold, exit, repeat — pausing on circuit breakers or gateway backoff, and
// never leaking an error past the loop.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
	"github.com/raykavin/tradecore/pkg/exchange"
	"github.com/raykavin/tradecore/pkg/filter"
	"github.com/raykavin/tradecore/pkg/indicator"
	"github.com/raykavin/tradecore/pkg/logger"
	"github.com/raykavin/tradecore/pkg/order"
	"github.com/raykavin/tradecore/pkg/position"
	"github.com/raykavin/tradecore/pkg/regime"
	"github.com/raykavin/tradecore/pkg/risk"
	"github.com/raykavin/tradecore/pkg/storage"
	"github.com/raykavin/tradecore/pkg/strategy"
)

// Config bundles the per-bot tuning a caller wires from config.Config
// (§6 Exchange/Intervals groups).
type Config struct {
	Pair                string
	Timeframe           string
	CandleLimit         int
	Leverage            int
	MaxOrderUSDT        float64
	ReduceOnlyTP        bool
	OrderHealthInterval time.Duration
	StaleOrderThreshold time.Duration
	MaxOrderAge         time.Duration

	MaxConsecutiveErrors int
	ErrorBackoffMin      time.Duration
	ErrorBackoffMax      time.Duration
}

func DefaultConfig(pair string) Config {
	return Config{
		Pair:                 pair,
		Timeframe:            "5m",
		CandleLimit:          200,
		Leverage:             5,
		MaxOrderUSDT:         500,
		OrderHealthInterval:  30 * time.Second,
		StaleOrderThreshold:  2 * time.Minute,
		MaxOrderAge:          10 * time.Minute,
		MaxConsecutiveErrors: 5,
		ErrorBackoffMin:      time.Second,
		ErrorBackoffMax:      time.Minute,
	}
}

// Bot drives a single pair through the state machine. All position and
// risk-metric mutation happens inside Run's goroutine; everything else
// (gateway I/O, the health sweeper) only ever feeds data back in.
type Bot struct {
	cfg Config
	gw  core.Exchange
	log logger.Logger

	ensemble  *strategy.Ensemble
	pipeline  *filter.Pipeline
	regimeDet *regime.Detector
	periods   indicator.Periods
	risk      *risk.Manager
	positions *position.Manager

	orderStore core.OrderStorage
	tagStore   storage.TradeTagStore
	notifier   core.Notifier
	sweeper    *exchange.OrderHealthSweeper
	backoff    *exchange.BackoffTracker
	llmGate    *filter.LLMPolicyGate

	// hedge, when set, switches tick() into the §4.9 dual-hedge sub-mode
	// for the whole lifetime of the bot instead of the ensemble/filter/
	// single-position path — the two modes are mutually exclusive per §1
	// ("exactly one symbol with at most one open position ... or a
	// long+short pair when explicitly running a dual-hedge strategy").
	hedge              *strategy.BandLimitedHedging
	hedgeCapitalPerLeg float64
	hedgePair          *strategy.HedgePair

	results *order.TradeSummary

	mu                sync.Mutex
	state             State
	lastTicker        core.Ticker
	consecutiveErrors int

	stopCh chan struct{}
	doneCh chan struct{}
}

func New(
	cfg Config,
	gw core.Exchange,
	log logger.Logger,
	ensemble *strategy.Ensemble,
	pipeline *filter.Pipeline,
	riskMgr *risk.Manager,
	orderStore core.OrderStorage,
	tagStore storage.TradeTagStore,
	notifier core.Notifier,
) *Bot {
	sweeper := exchange.NewOrderHealthSweeper(gw, log, cfg.OrderHealthInterval)
	sweeper.StaleThreshold = cfg.StaleOrderThreshold
	sweeper.MaxAge = cfg.MaxOrderAge

	return &Bot{
		cfg:        cfg,
		gw:         gw,
		log:        log.WithField("pair", cfg.Pair),
		ensemble:   ensemble,
		pipeline:   pipeline,
		regimeDet:  regime.NewDetector(),
		periods:    indicator.DefaultPeriods(),
		risk:       riskMgr,
		positions:  position.NewManager(log),
		orderStore: orderStore,
		tagStore:   tagStore,
		notifier:   notifier,
		sweeper:    sweeper,
		backoff:    exchange.NewBackoffTracker(cfg.ErrorBackoffMin, cfg.ErrorBackoffMax),
		results:    &order.TradeSummary{Pair: cfg.Pair},
		state:      StateStarting,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// SetNotifier attaches a notifier after construction, for callers that
// need the Bot itself (as a notification.Controller) to build the
// notifier first. Must be called before Run starts.
func (b *Bot) SetNotifier(n core.Notifier) {
	b.notifier = n
}

// SetLLMGate attaches the pipeline's LLM-policy gate so open() can read
// its bounded stop-loss/take-profit/position-multiplier overrides after a
// pass (§4.4 gate 6, §4.5, §9 "parameter-adjustment port"). Optional — a
// nil gate leaves sizing/stops at their unadjusted values.
func (b *Bot) SetLLMGate(g *filter.LLMPolicyGate) {
	b.llmGate = g
}

// SetHedgeStrategy switches the bot into the §4.9 dual-hedge sub-mode for
// the rest of its lifetime: tick dispatches to tickHedge instead of the
// ensemble/filter/evaluateEntry path, and the pair opened by it counts as
// the one logical position the at-most-one invariant (§4.8) allows. Must
// be called before Run starts; capitalPerLegUSDT funds each leg before
// HedgeConfig.BasePositionRatio scales it down.
func (b *Bot) SetHedgeStrategy(h *strategy.BandLimitedHedging, capitalPerLegUSDT float64) {
	b.hedge = h
	b.hedgeCapitalPerLeg = capitalPerLegUSDT
}

func (b *Bot) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bot) getState() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Run blocks, driving the state machine until ctx is cancelled or Stop is
// called. It returns an error only when startup fails; once the loop is
// running, every failure is classified, recorded, and handled inside the
// loop per §4.10.
func (b *Bot) Run(ctx context.Context) error {
	defer close(b.doneCh)

	if err := b.start(ctx); err != nil {
		return fmt.Errorf("bot: startup failed for %s: %w", b.cfg.Pair, err)
	}

	go b.sweeper.Run(ctx, b.onOrderResolved)

	for {
		select {
		case <-ctx.Done():
			b.shutdown(ctx)
			return nil
		case <-b.stopCh:
			b.shutdown(ctx)
			return nil
		default:
		}

		if err := b.tick(ctx); err != nil {
			b.handleError(ctx, err)
		} else {
			b.backoff.Reset()
			b.mu.Lock()
			b.consecutiveErrors = 0
			b.mu.Unlock()
		}

		hasPosition := b.getState() == StateInPosition
		select {
		case <-ctx.Done():
			b.shutdown(ctx)
			return nil
		case <-b.stopCh:
			b.shutdown(ctx)
			return nil
		case <-time.After(b.risk.CheckInterval(hasPosition)):
		}
	}
}

func (b *Bot) start(ctx context.Context) error {
	if err := b.gw.Connect(ctx); err != nil {
		return err
	}
	if _, err := b.gw.CandlesByLimit(ctx, b.cfg.Pair, b.cfg.Timeframe, b.cfg.CandleLimit); err != nil {
		return err
	}

	if b.hedge != nil {
		// Both legs live simultaneously, so the account needs hedge
		// position mode rather than the one-way mode a single-position
		// run uses.
		if err := b.gw.SetPositionMode(ctx, core.PositionModeHedge); err != nil {
			return err
		}
		b.setState(StateFlat)
		return nil
	}

	if err := b.positions.Reconcile(ctx, b.gw, []string{b.cfg.Pair}, time.Now()); err != nil {
		return err
	}
	if _, ok := b.positions.Get(b.cfg.Pair); ok {
		b.setState(StateInPosition)
	} else {
		b.setState(StateFlat)
	}
	return nil
}

// tick runs one full evaluation cycle: gather data, classify regime,
// evaluate the ensemble, gate the candidate, and either open, hold/exit,
// or do nothing, depending on state.
func (b *Bot) tick(ctx context.Context) error {
	// Breakers are re-evaluated every tick (not only on trade close) so
	// time-based resets and rapid-drawdown windows stay current even
	// while flat. A trip pauses the bot for status reporting, but entry
	// evaluation still runs below so the circuit-breaker gate itself
	// records the rejection into a TradeTag (§8 scenario 5) instead of
	// the loop silently skipping the tick.
	breakerState := core.CircuitBreakerState{}
	for _, s := range b.risk.EvaluateBreakers(time.Now()) {
		if s.Tripped {
			breakerState = s
			break
		}
	}
	if breakerState.Tripped {
		b.setState(StatePaused)
	} else if b.getState() == StatePaused {
		b.setState(StateFlat)
	}

	candles, err := b.gw.CandlesByLimit(ctx, b.cfg.Pair, b.cfg.Timeframe, b.cfg.CandleLimit)
	if err != nil {
		return err
	}
	ticker, err := b.gw.GetTicker(ctx, b.cfg.Pair)
	if err != nil {
		return err
	}
	if ticker.IsStale(time.Now(), 2*time.Minute) {
		return errkind.New(errkind.StaleData, "bot.tick", fmt.Errorf("ticker for %s is stale", b.cfg.Pair))
	}
	b.mu.Lock()
	b.lastTicker = ticker
	b.mu.Unlock()

	if b.hedge != nil {
		return b.tickHedge(ctx, candles, ticker)
	}

	if pos, ok := b.positions.Get(b.cfg.Pair); ok {
		return b.evaluateExit(ctx, pos, ticker)
	}

	return b.evaluateEntry(ctx, candles, ticker, breakerState)
}

// tickHedge drives the §4.9 band-limited dual-hedge sub-mode: open the
// pair when flat and the strategy signals a band-limited regime, then on
// every later tick check ShouldExit before Rebalance so a volatility
// collapse unwinds the pair instead of rebalancing a dying range.
func (b *Bot) tickHedge(ctx context.Context, candles []core.Candle, ticker core.Ticker) error {
	snapshot, err := indicator.Build(b.cfg.Pair, candles, b.periods)
	if err != nil {
		return errkind.New(errkind.StaleData, "bot.tickHedge", err)
	}
	result := b.regimeDet.Classify(snapshot.ADX, snapshot.BollingerWidth*100) // ratio → percent
	snapshot.Regime = result.Regime

	if b.hedgePair == nil {
		sig := b.hedge.Evaluate(candles, snapshot)
		if sig.Side != core.SignalLong {
			b.setState(StateFlat)
			return nil
		}
		return b.openHedgePair(ctx, ticker.Last)
	}

	effectiveVolatility := snapshot.ATR / ticker.Last
	if b.hedge.ShouldExit(effectiveVolatility) {
		return b.closeHedgePair(ctx, "volatility below band-limited floor")
	}

	decision := b.hedge.Rebalance(*b.hedgePair, ticker.Last)
	if !decision.ShouldRebalance {
		return nil
	}
	return b.rebalanceHedgePair(ctx, decision, ticker.Last)
}

// openHedgePair opens both legs at market and records the resulting pair
// as the bot's single logical position (§4.8).
func (b *Bot) openHedgePair(ctx context.Context, price float64) error {
	b.setState(StateOpening)
	pair := b.hedge.NewPair(price, b.hedgeCapitalPerLeg)

	longOrder, err := b.gw.CreateOrderMarket(ctx, core.OpenSide(core.PositionSideLong), b.cfg.Pair, pair.Long.Amount, false)
	if err != nil {
		b.setState(StateFlat)
		return err
	}
	shortOrder, err := b.gw.CreateOrderMarket(ctx, core.OpenSide(core.PositionSideShort), b.cfg.Pair, pair.Short.Amount, false)
	if err != nil {
		// Unwind the long leg rather than leave a naked one-sided
		// position sitting against a failed short fill.
		if _, closeErr := b.gw.CreateOrderMarket(ctx, core.OppositeSide(core.PositionSideLong), b.cfg.Pair, longOrder.Quantity, true); closeErr != nil {
			b.log.WithError(closeErr).Error("failed to unwind long leg after short leg failed, leaked position")
		}
		b.setState(StateFlat)
		return err
	}

	pair.Long.Entry = longOrder.Price
	pair.Short.Entry = shortOrder.Price
	b.hedgePair = &pair
	b.setState(StateInPosition)

	if b.notifier != nil {
		b.notifier.OnEvent(core.PositionOpened{Pair: b.cfg.Pair, Side: core.PositionSideLong, Amount: pair.Long.Amount, Price: pair.Long.Entry, Strategy: b.hedge.Name(), Time: longOrder.CreatedAt})
		b.notifier.OnEvent(core.PositionOpened{Pair: b.cfg.Pair, Side: core.PositionSideShort, Amount: pair.Short.Amount, Price: pair.Short.Entry, Strategy: b.hedge.Name(), Time: shortOrder.CreatedAt})
	}
	return nil
}

// rebalanceHedgePair applies one §4.9 rebalance: close the profitable leg,
// convert the migrated and redistributed USDT amounts into quantity at the
// current price, and reopen both legs at the new reference price.
func (b *Bot) rebalanceHedgePair(ctx context.Context, decision strategy.RebalanceDecision, price float64) error {
	closingLeg := b.hedgePair.Long
	if decision.CloseSide == core.PositionSideShort {
		closingLeg = b.hedgePair.Short
	}

	closeOrder, err := b.gw.CreateOrderMarket(ctx, core.OppositeSide(decision.CloseSide), b.cfg.Pair, closingLeg.Amount, true)
	if err != nil {
		return err
	}
	b.risk.RecordTrade(time.Now(), decision.RealisedProfit)
	if b.notifier != nil {
		b.notifier.OnEvent(core.PositionClosed{
			Pair: b.cfg.Pair, Side: decision.CloseSide, Amount: closingLeg.Amount,
			EntryPrice: closingLeg.Entry, ExitPrice: closeOrder.Price,
			ProfitUSDT: decision.RealisedProfit, Reason: "band_limited_rebalance", Time: closeOrder.CreatedAt,
		})
	}

	// Reduce the losing leg by the migrated amount, then reopen both legs
	// symmetrically by the redistributed remainder — §4.9's "migrate alpha
	// of realised profit to reduce the losing leg, redistribute (1-alpha)
	// symmetrically", expressed as quantity deltas at the current price.
	losingSide := core.PositionSideShort
	losingLeg := b.hedgePair.Short
	if decision.CloseSide == core.PositionSideShort {
		losingSide = core.PositionSideLong
		losingLeg = b.hedgePair.Long
	}

	reduceQty := decision.MigratedToLoser / price
	if reduceQty > 0 && reduceQty < losingLeg.Amount {
		if _, err := b.gw.CreateOrderMarket(ctx, core.OppositeSide(losingSide), b.cfg.Pair, reduceQty, true); err != nil {
			return err
		}
		losingLeg.Amount -= reduceQty
	}

	reopenQty := decision.RedistributedEach / price
	if reopenQty > 0 {
		if _, err := b.gw.CreateOrderMarket(ctx, core.OpenSide(decision.CloseSide), b.cfg.Pair, reopenQty, false); err != nil {
			return err
		}
		if _, err := b.gw.CreateOrderMarket(ctx, core.OpenSide(losingSide), b.cfg.Pair, reopenQty, false); err != nil {
			return err
		}
		closingLeg.Amount = reopenQty
		losingLeg.Amount += reopenQty
	}

	closingLeg.Entry = price
	losingLeg.Entry = price
	if decision.CloseSide == core.PositionSideLong {
		b.hedgePair.Long, b.hedgePair.Short = closingLeg, losingLeg
	} else {
		b.hedgePair.Short, b.hedgePair.Long = closingLeg, losingLeg
	}
	b.hedgePair.ReferencePrice = decision.NewReferencePrice
	return nil
}

// closeHedgePair unwinds both legs at market and clears the pair so the
// next tick re-evaluates from flat.
func (b *Bot) closeHedgePair(ctx context.Context, reason string) error {
	b.setState(StateClosing)
	longOrder, err := b.gw.CreateOrderMarket(ctx, core.OppositeSide(core.PositionSideLong), b.cfg.Pair, b.hedgePair.Long.Amount, true)
	if err != nil {
		b.setState(StateInPosition)
		return err
	}
	shortOrder, err := b.gw.CreateOrderMarket(ctx, core.OppositeSide(core.PositionSideShort), b.cfg.Pair, b.hedgePair.Short.Amount, true)
	if err != nil {
		b.setState(StateInPosition)
		return err
	}

	longPnL := (longOrder.Price - b.hedgePair.Long.Entry) * b.hedgePair.Long.Amount
	shortPnL := (b.hedgePair.Short.Entry - shortOrder.Price) * b.hedgePair.Short.Amount
	b.risk.RecordTrade(time.Now(), longPnL+shortPnL)

	if b.notifier != nil {
		b.notifier.OnEvent(core.PositionClosed{
			Pair: b.cfg.Pair, Side: core.PositionSideLong, Amount: b.hedgePair.Long.Amount,
			EntryPrice: b.hedgePair.Long.Entry, ExitPrice: longOrder.Price, ProfitUSDT: longPnL,
			Reason: reason, Time: longOrder.CreatedAt,
		})
		b.notifier.OnEvent(core.PositionClosed{
			Pair: b.cfg.Pair, Side: core.PositionSideShort, Amount: b.hedgePair.Short.Amount,
			EntryPrice: b.hedgePair.Short.Entry, ExitPrice: shortOrder.Price, ProfitUSDT: shortPnL,
			Reason: reason, Time: shortOrder.CreatedAt,
		})
	}

	b.hedgePair = nil
	b.setState(StateFlat)
	return nil
}

// emitTag persists and broadcasts one TradeTag, the append-only record of
// a single signal attempt whether accepted or rejected (§3 TradeTag, §8
// "for every signal seen in the aggregator there exists exactly one
// TradeTag emitted").
func (b *Bot) emitTag(tag core.TradeTag) {
	if b.tagStore != nil {
		if err := b.tagStore.Save(tag); err != nil {
			b.log.WithError(err).Warn("failed to persist trade tag")
		}
	}
	if b.notifier != nil {
		b.notifier.OnEvent(tag)
	}
}

func (b *Bot) evaluateEntry(ctx context.Context, candles []core.Candle, ticker core.Ticker, breakerState core.CircuitBreakerState) error {
	snapshot, err := indicator.Build(b.cfg.Pair, candles, b.periods)
	if err != nil {
		return errkind.New(errkind.StaleData, "bot.evaluateEntry", err)
	}

	result := b.regimeDet.Classify(snapshot.ADX, snapshot.BollingerWidth*100) // ratio → percent
	snapshot.Regime = result.Regime

	agg := b.ensemble.Evaluate(candles, snapshot, regime.AllowedStrategies(result.Regime))
	if agg.Side != core.SignalLong && agg.Side != core.SignalShort {
		return nil
	}

	side := core.PositionSideLong
	if agg.Side == core.SignalShort {
		side = core.PositionSideShort
	}

	// §4.2 rule 4 rejects the aggregate itself on agreement/strength/
	// confidence before it ever reaches the filter pipeline; confidence in
	// particular has no equivalent check in the §4.4 direction gate, so
	// this can't be folded into the pipeline without losing that rule.
	if agg.Rejected {
		b.emitTag(core.TradeTag{
			Pair:   b.cfg.Pair,
			Side:   side,
			Signal: agg,
			Decisions: []core.GateDecision{{
				Gate: "ensemble_aggregation", Passed: false,
				Reason: "aggregate below agreement/strength/confidence threshold",
			}},
			Opened: false,
			Time:   time.Now(),
		})
		return nil
	}

	book, err := b.gw.GetOrderbook(ctx, b.cfg.Pair, 20)
	if err != nil {
		return err
	}

	candidate := filter.Candidate{
		Pair:          b.cfg.Pair,
		Aggregate:     agg,
		Snapshot:      snapshot,
		Candles:       candles,
		Ticker:        ticker,
		OrderBook:     book,
		OrderSizeUSDT: b.cfg.MaxOrderUSDT,
		Breaker:       breakerState,
		WinRate:       b.risk.WinRate(),
	}

	passed, decisions := b.pipeline.Run(ctx, candidate)

	tag := core.TradeTag{
		Pair:      b.cfg.Pair,
		Side:      side,
		Signal:    agg,
		Decisions: decisions,
		Opened:    false,
		Time:      time.Now(),
	}
	b.emitTag(tag)
	if !passed {
		return nil
	}

	return b.open(ctx, side, snapshot, agg, ticker)
}

// resolveLLMOverrides reads the LLM-policy gate's last accepting decision
// (§4.4 gate 6) into the position-size multiplier and stop-loss/take-
// profit percentage overrides open() feeds to the risk manager. A nil or
// disabled gate leaves everything at its unadjusted default.
func resolveLLMOverrides(gate *filter.LLMPolicyGate) (multiplier float64, slOverride, tpOverride *float64) {
	multiplier = 1.0
	if gate == nil || !gate.Enabled {
		return multiplier, nil, nil
	}
	dec := gate.LastDecision
	if dec.PositionMultiplier != nil {
		multiplier = *dec.PositionMultiplier
	}
	return multiplier, dec.StopLossPctOverride, dec.TakeProfitPctOverride
}

func (b *Bot) open(ctx context.Context, side core.PositionSide, snapshot core.IndicatorSnapshot, agg core.AggregatedSignal, ticker core.Ticker) error {
	b.setState(StateOpening)

	llmMultiplier, slOverride, tpOverride := resolveLLMOverrides(b.llmGate)

	quantity, _ := b.risk.SizeOrder(ticker.Last, agg.Strength, snapshot.ATR/ticker.Last, llmMultiplier)
	if quantity <= 0 {
		b.setState(StateFlat)
		return nil
	}

	orderSide := core.OpenSide(side)
	placed, err := b.gw.CreateOrderMarket(ctx, orderSide, b.cfg.Pair, quantity, false)
	if err != nil {
		b.setState(StateFlat)
		return err
	}
	if b.orderStore != nil {
		if err := b.orderStore.CreateOrder(&placed); err != nil {
			b.log.WithError(err).Warn("failed to persist order")
		}
	}
	b.sweeper.Track(placed)

	pos := b.positions.Open(b.cfg.Pair, side, placed.Quantity, placed.Price, placed.Fee, agg.Contributing[0].StrategyName, placed.CreatedAt)
	b.risk.InitialStops(pos, snapshot.ATR, slOverride, tpOverride)
	b.setState(StateInPosition)

	if b.notifier != nil {
		b.notifier.OnEvent(core.PositionOpened{
			Pair: b.cfg.Pair, Side: side, Amount: pos.Amount, Price: pos.EntryPrice,
			Strategy: pos.StrategyName, Time: placed.CreatedAt,
		})
	}
	return nil
}

func (b *Bot) evaluateExit(ctx context.Context, pos *core.Position, ticker core.Ticker) error {
	reason := b.risk.EvaluateExit(pos, ticker.Last, false)
	if reason == risk.ExitNone {
		return nil
	}

	b.setState(StateClosing)
	posSide := pos.Side
	closeSide := core.OppositeSide(posSide)
	closeOrder, err := b.gw.CreateOrderMarket(ctx, closeSide, b.cfg.Pair, pos.Amount, true)
	if err != nil {
		b.setState(StateInPosition)
		return err
	}

	realisedPnL, closed := b.positions.ApplyFill(b.cfg.Pair, fillSide(closeSide), closeOrder.Quantity, closeOrder.Price)

	b.risk.RecordTrade(time.Now(), realisedPnL)
	notional := closeOrder.Price * closeOrder.Quantity
	b.results.Record(closeOrderToTradeResult(pos, closeOrder, realisedPnL), notional)

	if b.notifier != nil {
		b.notifier.OnEvent(core.PositionClosed{
			Pair: b.cfg.Pair, Side: pos.Side, Amount: pos.Amount,
			EntryPrice: pos.EntryPrice, ExitPrice: closeOrder.Price,
			ProfitUSDT: realisedPnL, Reason: string(reason), Time: closeOrder.CreatedAt,
		})
	}

	if closed {
		b.setState(StateFlat)
	} else {
		b.setState(StateInPosition)
	}
	return nil
}

// fillSide maps an order's side to the position side it adds exposure to,
// the input ApplyFill needs to decide same-side (widen) vs opposite-side
// (reduce/close).
func fillSide(s core.SideType) core.PositionSide {
	if s == core.SideTypeBuy {
		return core.PositionSideLong
	}
	return core.PositionSideShort
}

func closeOrderToTradeResult(pos *core.Position, o core.Order, realisedPnL float64) order.TradeResult {
	side := core.SideTypeBuy
	if pos.Side == core.PositionSideShort {
		side = core.SideTypeSell
	}
	return order.TradeResult{
		Pair:          o.Pair,
		ProfitPercent: realisedPnL / (pos.EntryPrice * o.Quantity),
		ProfitValue:   realisedPnL,
		Side:          side,
		Duration:      o.CreatedAt.Sub(pos.EntryTime),
		CreatedAt:     o.CreatedAt,
	}
}

func (b *Bot) onOrderResolved(o core.Order) {
	if b.orderStore != nil {
		if err := b.orderStore.UpdateOrder(&o); err != nil {
			b.log.WithError(err).Warn("failed to persist resolved order")
		}
	}
	if b.notifier != nil {
		b.notifier.OnOrder(o)
	}
}

func (b *Bot) handleError(ctx context.Context, err error) {
	state := b.backoff.Record(time.Now(), err)
	kind := errkind.KindOf(err)

	if b.notifier != nil {
		b.notifier.OnEvent(core.GatewayErrorBackoff{
			ErrorKind: string(kind), NextRetryAt: state.NextRetryAt, Time: time.Now(),
		})
	}

	b.mu.Lock()
	b.consecutiveErrors++
	tooMany := b.consecutiveErrors >= b.cfg.MaxConsecutiveErrors
	b.mu.Unlock()

	switch {
	case kind == errkind.AuthFailure || kind == errkind.InvariantViolation || kind == errkind.Fatal || tooMany:
		b.log.WithError(err).Error("bot paused: halting trading, continuing to monitor")
		b.setState(StatePaused)
	case kind.Retryable():
		b.log.WithError(err).Warn("transient gateway error, retrying next tick")
	default:
		b.log.WithError(err).Error("order-level error, staying flat")
	}
}

func (b *Bot) shutdown(ctx context.Context) {
	b.setState(StateStopping)
	if b.hedgePair != nil {
		if err := b.closeHedgePair(ctx, "bot shutdown"); err != nil {
			b.log.WithError(err).Error("failed to close hedge pair on shutdown, leaked position")
		}
	} else if pos, ok := b.positions.Get(b.cfg.Pair); ok {
		closeSide := core.OppositeSide(pos.Side)
		if _, err := b.gw.CreateOrderMarket(ctx, closeSide, b.cfg.Pair, pos.Amount, true); err != nil {
			b.log.WithError(err).Error("failed to close position on shutdown, leaked position")
		}
	}
	_ = b.gw.Disconnect()
}

// Stop requests an orderly shutdown and blocks until Run has returned.
func (b *Bot) Stop() {
	select {
	case <-b.stopCh:
	default:
		close(b.stopCh)
	}
	<-b.doneCh
}

// The following satisfy notification.Controller so a transport can drive
// this bot directly.

func (b *Bot) Account(ctx context.Context) (core.Account, error) { return b.gw.Account(ctx) }

func (b *Bot) LastPrice(ctx context.Context, pair string) (float64, error) {
	t, err := b.gw.GetTicker(ctx, pair)
	if err != nil {
		return 0, err
	}
	return t.Last, nil
}

func (b *Bot) Position(pair string) (assetAmount, quoteAmount float64, err error) {
	b.mu.Lock()
	price := b.lastTicker.Last
	b.mu.Unlock()

	if b.hedgePair != nil {
		if price == 0 {
			price = b.hedgePair.ReferencePrice
		}
		amount := b.hedgePair.Long.Amount + b.hedgePair.Short.Amount
		notional := amount * price
		return amount, notional, nil
	}

	pos, ok := b.positions.Get(pair)
	if !ok {
		return 0, 0, nil
	}
	if price == 0 {
		price = pos.EntryPrice
	}
	return pos.Amount, pos.NotionalAt(price), nil
}

func (b *Bot) CreateOrderMarket(ctx context.Context, side core.SideType, pair string, amount float64) (core.Order, error) {
	return b.gw.CreateOrderMarket(ctx, side, pair, amount, false)
}

func (b *Bot) Pairs() []string { return []string{b.cfg.Pair} }

func (b *Bot) Status() string { return b.getState().String() }

func (b *Bot) Start() {
	go func() {
		if err := b.Run(context.Background()); err != nil {
			b.log.WithError(err).Error("bot run exited")
		}
	}()
}
