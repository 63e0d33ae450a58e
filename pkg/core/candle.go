package core

import (
	"fmt"
	"strconv"
	"time"
)

type CandleSubscriber interface {
	OnCandle(Candle)
}

// Candle represents a single OHLCV bar for a (pair, timeframe) series.
// The most recent candle of a series may still be partial (Complete == false).
type Candle struct {
	Pair      string
	Time      time.Time
	UpdatedAt time.Time
	Open      float64
	Close     float64
	Low       float64
	High      float64
	Volume    float64
	Complete  bool

	// Metadata carries extra per-candle columns an exchange adapter
	// chooses to attach (funding rate, open interest, ...).
	Metadata map[string]float64
}

// GetPair returns the trading pair identifier for the candle
func (c Candle) GetPair() string { return c.Pair }

// GetTime returns the timestamp of the candle
func (c Candle) GetTime() time.Time { return c.Time }

// GetUpdatedAt returns the last update time of the candle
func (c Candle) GetUpdatedAt() time.Time { return c.UpdatedAt }

// GetOpen returns the opening price of the candle
func (c Candle) GetOpen() float64 { return c.Open }

// GetClose returns the closing price of the candle
func (c Candle) GetClose() float64 { return c.Close }

// GetLow returns the lowest price during the candle period
func (c Candle) GetLow() float64 { return c.Low }

// GetHigh returns the highest price during the candle period
func (c Candle) GetHigh() float64 { return c.High }

// GetVolume returns the trading volume during the candle period
func (c Candle) GetVolume() float64 { return c.Volume }

// IsComplete returns whether the candle period is complete
func (c Candle) IsComplete() bool { return c.Complete }

// GetMetadata returns the additional metadata associated with the candle
func (c Candle) GetMetadata() map[string]float64 { return c.Metadata }

// IsEmpty checks if the candle contains no significant data
func (c Candle) IsEmpty() bool { return c.Pair == "" && c.Close == 0 && c.Open == 0 && c.Volume == 0 }

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// Less implements the Item interface for comparison in the candle priority
// queue used to reorder out-of-sequence websocket updates.
func (c Candle) Less(j Item) bool {
	other := j.(Candle)

	// Primary sort by time
	if diff := other.Time.Sub(c.Time); diff != 0 {
		return diff > 0
	}

	// Secondary sort by update time
	if diff := other.UpdatedAt.Sub(c.UpdatedAt); diff != 0 {
		return diff > 0
	}

	// Tertiary sort by pair name
	return c.Pair < other.Pair
}

// Ticker is a point-in-time quote for a pair (§3).
type Ticker struct {
	Pair      string
	Last      float64
	Bid       float64
	Ask       float64
	Volume24h float64
	Time      time.Time
}

// SpreadPct returns (ask-bid)/bid, the input to the execution-quality
// spread gate. Returns 0 when the bid is non-positive; callers that need
// divide-by-zero-safe behaviour should check Bid > 0 themselves first.
func (t Ticker) SpreadPct() float64 {
	if t.Bid <= 0 {
		return 0
	}
	return (t.Ask - t.Bid) / t.Bid
}

// IsStale reports whether the ticker is older than maxAge as of now.
// Consumers must reject ticks for which this returns true (§3).
func (t Ticker) IsStale(now time.Time, maxAge time.Duration) bool {
	return now.Sub(t.Time) > maxAge
}
