package core

import "time"

// Position is the single open position the bot loop owns (§3, §4.8). A
// band-limited dual-hedge strategy holds a long/short pair, but logically
// that pair is tracked as one composite position by the strategy itself —
// the risk manager still sees at most one Position per leg it manages.
type Position struct {
	Side      PositionSide
	Amount    float64
	EntryPrice float64
	EntryTime  time.Time
	EntryFee   float64

	StopLossPrice   float64
	TakeProfitPrice float64

	TrailingActivated bool
	HighestPrice      float64
	LowestPrice       float64

	// DynamicTPActivated tracks whether the profit-gated mean-reversion
	// exit (§4.5) has armed for this position.
	DynamicTPActivated bool
	MaxProfitUSDT      float64

	// RecentPrices is the bounded FIFO the dynamic take-profit mean-reversion
	// check reads from (N=5 by default).
	RecentPrices []float64
	RecentPricesCap int

	StrategyName string
	Reason       string
}

// PushPrice appends a price to the bounded recent-price FIFO, evicting the
// oldest entry once the cap is reached.
func (p *Position) PushPrice(price float64) {
	cap := p.RecentPricesCap
	if cap <= 0 {
		cap = 5
	}
	p.RecentPrices = append(p.RecentPrices, price)
	if len(p.RecentPrices) > cap {
		p.RecentPrices = p.RecentPrices[len(p.RecentPrices)-cap:]
	}
}

// MeanRecentPrice returns the arithmetic mean of the recent-price FIFO.
// Returns 0 when no prices have been recorded yet.
func (p *Position) MeanRecentPrice() float64 {
	if len(p.RecentPrices) == 0 {
		return 0
	}
	var sum float64
	for _, v := range p.RecentPrices {
		sum += v
	}
	return sum / float64(len(p.RecentPrices))
}

// UpdatePriceExtremes refreshes HighestPrice/LowestPrice since entry, used
// by the trailing-stop calculation.
func (p *Position) UpdatePriceExtremes(price float64) {
	if p.HighestPrice == 0 || price > p.HighestPrice {
		p.HighestPrice = price
	}
	if p.LowestPrice == 0 || price < p.LowestPrice {
		p.LowestPrice = price
	}
}

// NotionalAt returns the position's notional value at a given price.
func (p *Position) NotionalAt(price float64) float64 {
	return p.Amount * price
}

// UnrealisedPnL returns the mark-to-market PnL at the given price, before fees.
func (p *Position) UnrealisedPnL(price float64) float64 {
	if p.Side == PositionSideLong {
		return (price - p.EntryPrice) * p.Amount
	}
	return (p.EntryPrice - price) * p.Amount
}
