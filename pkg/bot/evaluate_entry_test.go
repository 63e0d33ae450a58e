package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/indicator"
	"github.com/raykavin/tradecore/pkg/logger/zerolog"
	"github.com/raykavin/tradecore/pkg/regime"
	"github.com/raykavin/tradecore/pkg/strategy"
)

func testBotLogger(t *testing.T) *zerolog.Adapter {
	t.Helper()
	l, err := zerolog.New("error", time.RFC3339, false, true)
	require.NoError(t, err)
	return zerolog.NewAdapter(l)
}

// fakeSoleStrategy is the ensemble's only vote in these tests, forcing a
// deterministic Side/Strength/Confidence regardless of the candle window.
type fakeSoleStrategy struct {
	side       core.SignalSide
	strength   float64
	confidence float64
}

// Name returns "ema_cross" (not a fake name) because evaluateEntry filters
// ensemble members through regime.AllowedStrategies, which only admits
// real registered strategy names; "ema_cross" is on the Trending and
// Transitioning lists, and the steadily rising warm-up candles never
// classify as Ranging.
func (f fakeSoleStrategy) Name() string         { return "ema_cross" }
func (f fakeSoleStrategy) WarmupPeriod() int     { return 0 }
func (f fakeSoleStrategy) Evaluate(_ []core.Candle, snap core.IndicatorSnapshot) core.Signal {
	return core.Signal{
		StrategyName: "ema_cross", Side: f.side, Strength: f.strength,
		Confidence: f.confidence, Indicators: snap, Time: snap.Time,
	}
}

// captureNotifier records every event it is handed.
type captureNotifier struct {
	core.Notifier
	events []core.Event
}

func (c *captureNotifier) OnEvent(e core.Event) { c.events = append(c.events, e) }
func (c *captureNotifier) OnOrder(core.Order)   {}
func (c *captureNotifier) OnError(error)        {}
func (c *captureNotifier) Notify(string)        {}

func makeWarmupCandles(n int, startPrice float64) []core.Candle {
	candles := make([]core.Candle, n)
	price := startPrice
	base := time.Now().Add(-time.Duration(n) * 5 * time.Minute)
	for i := 0; i < n; i++ {
		o := price
		c := price + 0.5
		candles[i] = core.Candle{
			Pair: "BTCUSDT", Time: base.Add(time.Duration(i) * 5 * time.Minute),
			Open: o, Close: c, High: c + 0.2, Low: o - 0.2, Volume: 100,
			Complete: true,
		}
		price = c
	}
	return candles
}

func newTestBot(t *testing.T, sole strategy.Strategy, notifier core.Notifier) *Bot {
	t.Helper()
	return &Bot{
		cfg:       Config{Pair: "BTCUSDT"},
		log:       testBotLogger(t),
		ensemble:  strategy.NewEnsemble([]strategy.Strategy{sole}, strategy.DefaultThresholds()),
		regimeDet: regime.NewDetector(),
		periods:   indicator.DefaultPeriods(),
		notifier:  notifier,
		state:     StateFlat,
	}
}

func TestEvaluateEntry_EnsembleRejection_EmitsTagWithoutOpening(t *testing.T) {
	notifier := &captureNotifier{}
	// Strength/agreement clear the fixed ensemble thresholds but confidence
	// (0.1) does not — no equivalent check exists in the direction gate, so
	// this must be caught before the candidate ever reaches the pipeline.
	sole := fakeSoleStrategy{side: core.SignalLong, strength: 0.95, confidence: 0.1}
	b := newTestBot(t, sole, notifier)

	candles := makeWarmupCandles(80, 100)
	ticker := core.Ticker{Pair: "BTCUSDT", Last: 130, Bid: 129.9, Ask: 130.1, Time: time.Now()}

	err := b.evaluateEntry(context.Background(), candles, ticker, core.CircuitBreakerState{})
	require.NoError(t, err)

	require.Len(t, notifier.events, 1)
	tag, ok := notifier.events[0].(core.TradeTag)
	require.True(t, ok)
	assert.False(t, tag.Opened)
	require.Len(t, tag.Decisions, 1)
	assert.Equal(t, "ensemble_aggregation", tag.Decisions[0].Gate)
	assert.False(t, tag.Decisions[0].Passed)
	assert.Equal(t, StateFlat, b.getState(), "a rejected aggregate must never transition toward opening")
}

func TestEvaluateEntry_HoldAggregate_EmitsNoTag(t *testing.T) {
	notifier := &captureNotifier{}
	sole := fakeSoleStrategy{side: core.SignalHold}
	b := newTestBot(t, sole, notifier)

	candles := makeWarmupCandles(80, 100)
	ticker := core.Ticker{Pair: "BTCUSDT", Last: 100, Time: time.Now()}

	err := b.evaluateEntry(context.Background(), candles, ticker, core.CircuitBreakerState{})
	require.NoError(t, err)
	assert.Empty(t, notifier.events)
}
