package order

import (
	"math"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
)

// TradeResult is the realised outcome of a fill that closed or reduced a
// tracked position, handed to risk.Manager.RecordTrade and to TradeSummary.
type TradeResult struct {
	Pair          string
	ProfitPercent float64
	ProfitValue   float64
	Side          core.SideType
	Duration      time.Duration
	CreatedAt     time.Time
}

// FillTracker accumulates a weighted-average entry price across partial
// fills for a single pair, independent of core.Position's stop/take-profit
// bookkeeping. The risk manager owns exit logic once a core.Position
// exists; FillTracker only answers "what did this fill do to our average
// price, and did it realise a trade".
type FillTracker struct {
	Side      core.SideType
	CreatedAt time.Time
	AvgPrice  float64
	Quantity  float64
}

// Update folds a new fill into the tracked position. It returns a
// TradeResult when the fill closes, reduces, or reverses the position, and
// reports whether the position is now fully flat.
func (p *FillTracker) Update(order *core.Order) (result *TradeResult, closed bool) {
	price := order.Price

	if p.Quantity == 0 || p.Side == order.Side {
		p.AvgPrice = weightedAverage(p.AvgPrice, p.Quantity, price, order.Quantity)
		p.Quantity += order.Quantity
		if p.Side == "" {
			p.Side = order.Side
			p.CreatedAt = order.CreatedAt
		}
		return nil, false
	}

	closedQuantity := math.Min(p.Quantity, order.Quantity)
	profitPercent := (price - p.AvgPrice) / p.AvgPrice
	profitValue := (price - p.AvgPrice) * closedQuantity
	if p.Side == core.SideTypeSell {
		profitPercent = -profitPercent
		profitValue = -profitValue
	}

	tradeResult := &TradeResult{
		Pair:          order.Pair,
		ProfitPercent: profitPercent,
		ProfitValue:   profitValue,
		Side:          p.Side,
		Duration:      order.CreatedAt.Sub(p.CreatedAt),
		CreatedAt:     order.CreatedAt,
	}

	order.Profit = profitPercent
	order.ProfitValue = profitValue

	switch {
	case p.Quantity == order.Quantity:
		p.Quantity = 0
		return tradeResult, true
	case p.Quantity > order.Quantity:
		p.Quantity -= order.Quantity
		return tradeResult, false
	default:
		remaining := order.Quantity - p.Quantity
		p.Quantity = remaining
		p.Side = order.Side
		p.CreatedAt = order.CreatedAt
		p.AvgPrice = price
		return tradeResult, false
	}
}

func weightedAverage(price1, quantity1, price2, quantity2 float64) float64 {
	if quantity1+quantity2 == 0 {
		return price2
	}
	return (price1*quantity1 + price2*quantity2) / (quantity1 + quantity2)
}
