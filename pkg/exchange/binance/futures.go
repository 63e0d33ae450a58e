package binance

import (
	"context"
	"strconv"
	"sync"
	"time"

	adshaobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
	"github.com/raykavin/tradecore/pkg/logger"
)

const errNoNeedChangeMarginType int64 = -4046

// MakerConfig tunes the maker-mode smart order placement used by
// CreateOrderLimit when PostOnly is requested (§4.7): a limit order is
// placed an offset off the touch, polled until filled or the timeout
// elapses, then cancelled and re-submitted as a market order.
type MakerConfig struct {
	Enabled     bool
	OffsetPct   float64
	Timeout     time.Duration
	PollEvery   time.Duration
}

func DefaultMakerConfig() MakerConfig {
	return MakerConfig{
		Enabled:   true,
		OffsetPct: 0.0002,
		Timeout:   8 * time.Second,
		PollEvery: 500 * time.Millisecond,
	}
}

// Futures is a core.Exchange implementation over Binance USDT-M futures.
type Futures struct {
	client     *futures.Client
	log        logger.Logger
	maker      MakerConfig
	metaFetch  []MetadataFetcher

	mu         sync.RWMutex
	assetsInfo map[string]core.AssetInfo
	connected  bool
}

type Option func(*Futures)

func WithMakerConfig(cfg MakerConfig) Option {
	return func(f *Futures) { f.maker = cfg }
}

func WithMetadataFetcher(fetcher MetadataFetcher) Option {
	return func(f *Futures) { f.metaFetch = append(f.metaFetch, fetcher) }
}

// NewFutures constructs a Futures gateway and validates connectivity.
func NewFutures(ctx context.Context, log logger.Logger, apiKey, apiSecret string, useTestnet bool, opts ...Option) (*Futures, error) {
	adshaobinance.WebsocketKeepalive = true
	futures.UseTestnet = useTestnet

	f := &Futures{
		client:     futures.NewClient(apiKey, apiSecret),
		log:        log,
		maker:      DefaultMakerConfig(),
		assetsInfo: make(map[string]core.AssetInfo),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.Connect(ctx); err != nil {
		return nil, err
	}
	if err := f.loadAssetInfo(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

// Connect validates the API connection is reachable.
func (f *Futures) Connect(ctx context.Context) error {
	if err := f.client.NewPingService().Do(ctx); err != nil {
		return errkind.New(classifyError(err), "futures.Connect", err)
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *Futures) Disconnect() error {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
	return nil
}

func (f *Futures) IsConnected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

func (f *Futures) loadAssetInfo(ctx context.Context) error {
	info, err := f.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return errkind.New(classifyError(err), "futures.loadAssetInfo", err)
	}

	f.mu.Lock()
	for _, s := range info.Symbols {
		f.assetsInfo[s.Symbol] = convertAssetInfo(s)
	}
	f.mu.Unlock()
	return nil
}

func (f *Futures) AssetsInfo(pair string) (core.AssetInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.assetsInfo[pair]; ok {
		return info, nil
	}
	return core.AssetInfo{}, errkind.New(errkind.InvariantViolation, "futures.AssetsInfo", errUnknownAsset)
}

func (f *Futures) assetsSnapshot() map[string]core.AssetInfo {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.assetsInfo
}

// GetTicker returns the current best bid/ask for a pair.
func (f *Futures) GetTicker(ctx context.Context, pair string) (core.Ticker, error) {
	book, err := f.client.NewListBookTickersService().Symbol(pair).Do(ctx)
	if err != nil || len(book) == 0 {
		return core.Ticker{}, errkind.New(classifyError(err), "futures.GetTicker", err)
	}
	b := book[0]
	bid, _ := strconv.ParseFloat(b.BidPrice, 64)
	ask, _ := strconv.ParseFloat(b.AskPrice, 64)
	return core.Ticker{
		Pair: pair,
		Last: (bid + ask) / 2,
		Bid:  bid,
		Ask:  ask,
		Time: time.Now(),
	}, nil
}

// GetOrderbook returns the top `depth` bid/ask levels.
func (f *Futures) GetOrderbook(ctx context.Context, pair string, depth int) (core.OrderBook, error) {
	book, err := f.client.NewDepthService().Symbol(pair).Limit(depth).Do(ctx)
	if err != nil {
		return core.OrderBook{}, errkind.New(classifyError(err), "futures.GetOrderbook", err)
	}

	ob := core.OrderBook{Pair: pair, Time: time.Now()}
	for _, b := range book.Bids {
		price, _ := strconv.ParseFloat(b.Price, 64)
		size, _ := strconv.ParseFloat(b.Quantity, 64)
		ob.Bids = append(ob.Bids, core.BookLevel{Price: price, Size: size})
	}
	for _, a := range book.Asks {
		price, _ := strconv.ParseFloat(a.Price, 64)
		size, _ := strconv.ParseFloat(a.Quantity, 64)
		ob.Asks = append(ob.Asks, core.BookLevel{Price: price, Size: size})
	}
	return ob, nil
}

func (f *Futures) CandlesByLimit(ctx context.Context, pair, period string, limit int) ([]core.Candle, error) {
	data, err := f.client.NewKlinesService().Symbol(pair).Interval(period).Limit(limit + 1).Do(ctx)
	if err != nil {
		return nil, errkind.New(classifyError(err), "futures.CandlesByLimit", err)
	}

	candles := make([]core.Candle, 0, len(data)-1)
	for i, d := range data {
		if i == len(data)-1 {
			break // last kline from the REST endpoint is still forming
		}
		candles = append(candles, convertKline(pair, *d))
	}
	return candles, nil
}

func (f *Futures) CandlesByPeriod(ctx context.Context, pair, period string, start, end time.Time) ([]core.Candle, error) {
	data, err := f.client.NewKlinesService().Symbol(pair).Interval(period).
		StartTime(start.UnixNano() / int64(time.Millisecond)).
		EndTime(end.UnixNano() / int64(time.Millisecond)).
		Do(ctx)
	if err != nil {
		return nil, errkind.New(classifyError(err), "futures.CandlesByPeriod", err)
	}

	candles := make([]core.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, convertKline(pair, *d))
	}
	return candles, nil
}

// CandlesSubscription streams klines over a websocket, reconnecting with
// exponential backoff on disconnect (§4.7 error classification).
func (f *Futures) CandlesSubscription(ctx context.Context, pair, timeframe string) (chan core.Candle, chan error) {
	candleChan := make(chan core.Candle)
	errChan := make(chan error)
	bo := newConnectionBackoff()

	go func() {
		defer close(candleChan)
		defer close(errChan)

		for {
			done, _, err := futures.WsKlineServe(pair, timeframe, func(event *futures.WsKlineEvent) {
				bo.Reset()
				candle := convertWsKline(pair, event.Kline)
				if candle.Complete {
					for _, fetcher := range f.metaFetch {
						key, value := fetcher(pair, candle.Time)
						candle.Metadata[key] = value
					}
				}
				select {
				case candleChan <- candle:
				case <-ctx.Done():
				}
			}, func(err error) {
				select {
				case errChan <- err:
				case <-ctx.Done():
				}
			})
			if err != nil {
				errChan <- err
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-done:
				time.Sleep(bo.Duration())
			}
		}
	}()

	return candleChan, errChan
}

func (f *Futures) Account(ctx context.Context) (core.Account, error) {
	acc, err := f.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return core.Account{}, errkind.New(classifyError(err), "futures.Account", err)
	}

	var balances []core.Balance
	for _, asset := range acc.Assets {
		free, _ := strconv.ParseFloat(asset.WalletBalance, 64)
		if free == 0 {
			continue
		}
		balances = append(balances, core.Balance{Asset: asset.Asset, Free: free})
	}
	return core.NewAccount(balances)
}

func (f *Futures) GetPositions(ctx context.Context, pair string) ([]core.PositionSnapshot, error) {
	positions, err := f.client.NewGetPositionRiskService().Symbol(pair).Do(ctx)
	if err != nil {
		return nil, errkind.New(classifyError(err), "futures.GetPositions", err)
	}

	var out []core.PositionSnapshot
	for _, p := range positions {
		amt, _ := strconv.ParseFloat(p.PositionAmt, 64)
		if amt == 0 {
			continue
		}
		entry, _ := strconv.ParseFloat(p.EntryPrice, 64)
		pnl, _ := strconv.ParseFloat(p.UnRealizedProfit, 64)
		leverage, _ := strconv.Atoi(p.Leverage)

		side := core.PositionSideLong
		if amt < 0 {
			side = core.PositionSideShort
			amt = -amt
		}
		out = append(out, core.PositionSnapshot{
			Pair:          p.Symbol,
			Side:          side,
			Amount:        amt,
			EntryPrice:    entry,
			UnrealisedPnl: pnl,
			Leverage:      leverage,
		})
	}
	return out, nil
}

func (f *Futures) Order(ctx context.Context, pair string, id int64) (core.Order, error) {
	order, err := f.client.NewGetOrderService().Symbol(pair).OrderID(id).Do(ctx)
	if err != nil {
		return core.Order{}, errkind.New(classifyError(err), "futures.Order", err)
	}
	return convertOrder(order), nil
}

func (f *Futures) CreateOrderMarket(ctx context.Context, side core.SideType, pair string, size float64, reduceOnly bool) (core.Order, error) {
	if err := validateOrder(f.assetsSnapshot(), pair, size); err != nil {
		return core.Order{}, err
	}

	order, err := f.client.NewCreateOrderService().
		Symbol(pair).
		Type(futures.OrderTypeMarket).
		Side(futures.SideType(side)).
		ReduceOnly(reduceOnly).
		Quantity(formatQuantity(f.assetsSnapshot(), pair, size)).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return core.Order{}, errkind.New(classifyError(err), "futures.CreateOrderMarket", err)
	}
	return convertOrder(order), nil
}

// CreateOrderLimit places a limit order. When postOnly is requested and
// maker mode is enabled, it drives the smart-placement state machine
// (offset-from-touch, poll, timeout, market fallback) instead of a bare
// GTC limit order.
func (f *Futures) CreateOrderLimit(ctx context.Context, side core.SideType, pair string, size, price float64, reduceOnly, postOnly bool) (core.Order, error) {
	if err := validateOrder(f.assetsSnapshot(), pair, size); err != nil {
		return core.Order{}, err
	}

	if postOnly && f.maker.Enabled {
		return f.placeMakerOrder(ctx, side, pair, size, reduceOnly)
	}

	order, err := f.client.NewCreateOrderService().
		Symbol(pair).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Side(futures.SideType(side)).
		ReduceOnly(reduceOnly).
		Quantity(formatQuantity(f.assetsSnapshot(), pair, size)).
		Price(formatPrice(f.assetsSnapshot(), pair, price)).
		Do(ctx)
	if err != nil {
		return core.Order{}, errkind.New(classifyError(err), "futures.CreateOrderLimit", err)
	}
	return convertOrder(order), nil
}

// placeMakerOrder offsets a GTX (post-only) limit order off the current
// touch, polls until filled or the configured timeout elapses, cancels
// on timeout, and falls back to a market order so the caller always
// gets a fill.
func (f *Futures) placeMakerOrder(ctx context.Context, side core.SideType, pair string, size float64, reduceOnly bool) (core.Order, error) {
	ticker, err := f.GetTicker(ctx, pair)
	if err != nil {
		return core.Order{}, err
	}

	// §4.6: offset below the ask for buys, above the bid for sells.
	limitPrice := ticker.Ask * (1 - f.maker.OffsetPct)
	if side == core.SideTypeSell {
		limitPrice = ticker.Bid * (1 + f.maker.OffsetPct)
	}

	placed, err := f.client.NewCreateOrderService().
		Symbol(pair).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTX).
		Side(futures.SideType(side)).
		ReduceOnly(reduceOnly).
		Quantity(formatQuantity(f.assetsSnapshot(), pair, size)).
		Price(formatPrice(f.assetsSnapshot(), pair, limitPrice)).
		Do(ctx)
	if err != nil {
		return core.Order{}, errkind.New(classifyError(err), "futures.placeMakerOrder", err)
	}

	deadline := time.Now().Add(f.maker.Timeout)
	ticker2 := time.NewTicker(f.maker.PollEvery)
	defer ticker2.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return core.Order{}, ctx.Err()
		case <-ticker2.C:
			current, err := f.client.NewGetOrderService().Symbol(pair).OrderID(placed.OrderID).Do(ctx)
			if err != nil {
				continue
			}
			if current.Status == futures.OrderStatusTypeFilled {
				return convertOrder(current), nil
			}
			if current.Status == futures.OrderStatusTypeCanceled || current.Status == futures.OrderStatusTypeRejected || current.Status == futures.OrderStatusTypeExpired {
				break
			}
		}
	}

	_, _ = f.client.NewCancelOrderService().Symbol(pair).OrderID(placed.OrderID).Do(ctx)
	f.log.Warnf("maker order timed out for %s, falling back to market", pair)
	return f.CreateOrderMarket(ctx, side, pair, size, reduceOnly)
}

func (f *Futures) CancelOrder(ctx context.Context, order core.Order) error {
	_, err := f.client.NewCancelOrderService().Symbol(order.Pair).OrderID(order.ExchangeID).Do(ctx)
	if err != nil {
		return errkind.New(classifyError(err), "futures.CancelOrder", err)
	}
	return nil
}

func (f *Futures) SetLeverage(ctx context.Context, pair string, leverage int) error {
	_, err := f.client.NewChangeLeverageService().Symbol(pair).Leverage(leverage).Do(ctx)
	if err != nil {
		return errkind.New(classifyError(err), "futures.SetLeverage", err)
	}
	return nil
}

func (f *Futures) SetMarginMode(ctx context.Context, pair string, mode core.MarginMode) error {
	marginType := futures.MarginTypeIsolated
	if mode == core.MarginModeCross {
		marginType = futures.MarginTypeCrossed
	}

	err := f.client.NewChangeMarginTypeService().Symbol(pair).MarginType(marginType).Do(ctx)
	if err != nil {
		if apiErr, ok := err.(*common.APIError); ok && apiErr.Code == errNoNeedChangeMarginType {
			return nil
		}
		return errkind.New(classifyError(err), "futures.SetMarginMode", err)
	}
	return nil
}

func (f *Futures) SetPositionMode(ctx context.Context, mode core.PositionMode) error {
	err := f.client.NewChangePositionModeService().DualSide(mode == core.PositionModeHedge).Do(ctx)
	if err != nil {
		return errkind.New(classifyError(err), "futures.SetPositionMode", err)
	}
	return nil
}
