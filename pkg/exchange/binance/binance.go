// Package binance adapts a futures-only Binance USDT-M client to the
// core.Exchange gateway contract (§1: perpetuals only, no spot support).
package binance

import (
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/jpillora/backoff"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/errkind"
)

type sentinelError string

func (e sentinelError) Error() string { return string(e) }

const (
	errUnknownAsset sentinelError = "invalid asset"
	errBadQuantity  sentinelError = "invalid quantity"
)

// MetadataFetcher fetches an extra per-candle metric (e.g. funding rate).
type MetadataFetcher func(pair string, t time.Time) (string, float64)

func formatQuantity(assetsInfo map[string]core.AssetInfo, pair string, value float64) string {
	if info, ok := assetsInfo[pair]; ok {
		value = common.AmountToLotSize(info.StepSize, info.BaseAssetPrecision, value)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatPrice(assetsInfo map[string]core.AssetInfo, pair string, value float64) string {
	if info, ok := assetsInfo[pair]; ok {
		value = common.AmountToLotSize(info.TickSize, info.QuotePrecision, value)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func validateOrder(assetsInfo map[string]core.AssetInfo, pair string, quantity float64) error {
	info, ok := assetsInfo[pair]
	if !ok {
		return errkind.New(errkind.InvariantViolation, "binance.validateOrder", errUnknownAsset)
	}
	if quantity > info.MaxQuantity || quantity < info.MinQuantity {
		return errkind.New(errkind.OrderRejected, "binance.validateOrder", errBadQuantity)
	}
	return nil
}

// classifyError maps a go-binance API error to an errkind.Kind so the
// caller can decide to retry, back off, or surface it immediately.
func classifyError(err error) errkind.Kind {
	apiErr, ok := err.(*common.APIError)
	if !ok {
		return errkind.TransientNetwork
	}
	switch {
	case apiErr.Code == -1021 || apiErr.Code == -1003:
		return errkind.RateLimit
	case apiErr.Code == -2014 || apiErr.Code == -2015:
		return errkind.AuthFailure
	case apiErr.Code == -2019:
		return errkind.InsufficientBalance
	case apiErr.Code == -2010 || apiErr.Code == -2011:
		return errkind.OrderRejected
	default:
		return errkind.TransientNetwork
	}
}

// newConnectionBackoff returns the exponential backoff used for websocket
// reconnects.
func newConnectionBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

func convertKline(pair string, k futures.Kline) core.Candle {
	t := time.Unix(0, k.OpenTime*int64(time.Millisecond))
	c := core.Candle{Pair: pair, Time: t, UpdatedAt: t, Metadata: make(map[string]float64), Complete: true}
	c.Open, _ = strconv.ParseFloat(k.Open, 64)
	c.Close, _ = strconv.ParseFloat(k.Close, 64)
	c.High, _ = strconv.ParseFloat(k.High, 64)
	c.Low, _ = strconv.ParseFloat(k.Low, 64)
	c.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	return c
}

func convertWsKline(pair string, k futures.WsKline) core.Candle {
	t := time.Unix(0, k.StartTime*int64(time.Millisecond))
	c := core.Candle{Pair: pair, Time: t, UpdatedAt: t, Metadata: make(map[string]float64), Complete: k.IsFinal}
	c.Open, _ = strconv.ParseFloat(k.Open, 64)
	c.Close, _ = strconv.ParseFloat(k.Close, 64)
	c.High, _ = strconv.ParseFloat(k.High, 64)
	c.Low, _ = strconv.ParseFloat(k.Low, 64)
	c.Volume, _ = strconv.ParseFloat(k.Volume, 64)
	return c
}

func convertOrder(order *futures.Order) core.Order {
	cost, _ := strconv.ParseFloat(order.CumQuote, 64)
	quantity, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	originQuantity, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	price, _ := strconv.ParseFloat(order.Price, 64)

	if cost > 0 && quantity > 0 {
		price = cost / quantity
	} else {
		quantity = originQuantity
	}

	return core.Order{
		ExchangeID: order.OrderID,
		Pair:       order.Symbol,
		Side:       core.SideType(order.Side),
		Type:       core.OrderType(order.Type),
		Status:     core.OrderStatusType(order.Status),
		Price:      price,
		Quantity:   quantity,
		ReduceOnly: order.ReduceOnly,
		CreatedAt:  time.Unix(0, order.Time*int64(time.Millisecond)),
		UpdatedAt:  time.Unix(0, order.UpdateTime*int64(time.Millisecond)),
	}
}

func convertAssetInfo(s *futures.Symbol) core.AssetInfo {
	info := core.AssetInfo{
		BaseAsset:          s.BaseAsset,
		QuoteAsset:         s.QuoteAsset,
		QuotePrecision:     s.QuotePrecision,
		BaseAssetPrecision: s.BaseAssetPrecision,
	}
	for _, f := range s.Filters {
		typ, _ := f["filterType"].(string)
		switch typ {
		case "LOT_SIZE":
			info.MinQuantity = parseFilterFloat(f, "minQty")
			info.MaxQuantity = parseFilterFloat(f, "maxQty")
			info.StepSize = parseFilterFloat(f, "stepSize")
		case "PRICE_FILTER":
			info.MinPrice = parseFilterFloat(f, "minPrice")
			info.MaxPrice = parseFilterFloat(f, "maxPrice")
			info.TickSize = parseFilterFloat(f, "tickSize")
		}
	}
	return info
}

func parseFilterFloat(filter map[string]any, key string) float64 {
	v, ok := filter[key].(string)
	if !ok {
		return 0
	}
	f, _ := strconv.ParseFloat(v, 64)
	return f
}
