package core

import (
	"context"
	"time"
)

// Exchange is the uniform contract the trading core consumes over one or
// more exchange backends (§4.6). A concrete adapter (e.g. pkg/exchange/binance)
// hides venue-specific position-mode keywords, reduce/close flags, and
// symbol formats behind this interface — nowhere else.
type Exchange interface {
	Broker
	Feeder
}

// Feeder is the market-data half of the gateway contract.
type Feeder interface {
	Connect(ctx context.Context) error
	Disconnect() error
	IsConnected() bool

	AssetsInfo(pair string) (AssetInfo, error)
	GetTicker(ctx context.Context, pair string) (Ticker, error)
	CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]Candle, error)
	CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]Candle, error)
	CandlesSubscription(ctx context.Context, pair, timeframe string) (chan Candle, chan error)
	GetOrderbook(ctx context.Context, pair string, depth int) (OrderBook, error)
}

// Broker is the trading half of the gateway contract.
type Broker interface {
	Account(ctx context.Context) (Account, error)
	GetPositions(ctx context.Context, pair string) ([]PositionSnapshot, error)
	Order(ctx context.Context, pair string, id int64) (Order, error)

	CreateOrderMarket(ctx context.Context, side SideType, pair string, size float64, reduceOnly bool) (Order, error)
	CreateOrderLimit(ctx context.Context, side SideType, pair string, size, price float64, reduceOnly, postOnly bool) (Order, error)
	CancelOrder(ctx context.Context, order Order) error

	SetLeverage(ctx context.Context, pair string, leverage int) error
	SetMarginMode(ctx context.Context, pair string, mode MarginMode) error
	SetPositionMode(ctx context.Context, mode PositionMode) error
}

// OrderBook is a depth snapshot used by the execution-quality liquidity gate.
type OrderBook struct {
	Pair string
	Bids []BookLevel
	Asks []BookLevel
	Time time.Time
}

// BookLevel is a single price/size level of an order book.
type BookLevel struct {
	Price float64
	Size  float64
}

// TopDepth sums the notional (price*size) across the first n levels.
func TopDepth(levels []BookLevel, n int) float64 {
	if n > len(levels) {
		n = len(levels)
	}
	var depth float64
	for _, lvl := range levels[:n] {
		depth += lvl.Price * lvl.Size
	}
	return depth
}

// MarginMode is the futures margin isolation mode.
type MarginMode string

const (
	MarginModeCross    MarginMode = "cross"
	MarginModeIsolated MarginMode = "isolated"
)

// PositionMode selects whether an exchange account holds one position per
// pair or a long/short hedge pair, required by the band-limited hedging
// strategy (§4.9).
type PositionMode string

const (
	PositionModeOneWay PositionMode = "one_way"
	PositionModeHedge  PositionMode = "hedge"
)

// PositionSnapshot is the exchange's own view of an open position, used by
// the startup reconciliation invariant (§4.8).
type PositionSnapshot struct {
	Pair          string
	Side          PositionSide
	Amount        float64
	EntryPrice    float64
	UnrealisedPnl float64
	Leverage      int
}

// Notifier is the port the core publishes typed events through; transports
// (Telegram, mail, ...) implement it outside the core.
type Notifier interface {
	Notify(string)
	OnOrder(order Order)
	OnError(err error)
	OnEvent(Event)
}

// NotifierWithStart is a Notifier that owns a background delivery loop.
type NotifierWithStart interface {
	Notifier
	Start()
}
