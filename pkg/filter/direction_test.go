package filter

import (
	"context"
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestDirectionGate_LongRejectedWhenUptrendNotConfirmed(t *testing.T) {
	// A strong, well-agreed Long aggregate (strength=0.82, agreement=0.80)
	// must still reject at the direction gate when EMA9 < EMA21.
	c := Candidate{
		Aggregate: core.AggregatedSignal{Side: core.SignalLong, Strength: 0.82, Agreement: 0.80, Confidence: 0.9},
		Snapshot:  core.IndicatorSnapshot{EMAFast: 99, EMASlow: 100},
		Candles:   []core.Candle{{Open: 99, Close: 100}},
		WinRate:   0.5,
	}
	passed, reason := DirectionGate{}.Evaluate(context.Background(), c)
	assert.False(t, passed)
	assert.Equal(t, "uptrend not confirmed", reason)
}

func TestDirectionGate_LongPassesWithFullConfirmation(t *testing.T) {
	candles := []core.Candle{
		{Open: 98, Close: 99},
		{Open: 99, Close: 100},
		{Open: 100, Close: 101},
	}
	c := Candidate{
		Aggregate: core.AggregatedSignal{Side: core.SignalLong, Strength: 0.82, Agreement: 0.80, Confidence: 0.9},
		Snapshot:  core.IndicatorSnapshot{EMAFast: 100, EMASlow: 99, EMATrend: 95, VolumeRatio: 1.3},
		Candles:   candles,
		WinRate:   0.5,
	}
	passed, reason := DirectionGate{}.Evaluate(context.Background(), c)
	assert.True(t, passed, "unexpected rejection: %s", reason)
}

func TestDirectionGate_LongRejectedWhenTrendLegInverted(t *testing.T) {
	// EMA9 > EMA21 holds, but EMA21 <= EMA55 — the three-EMA ordering
	// required by §4.4 gate 2 still fails.
	candles := []core.Candle{
		{Open: 98, Close: 99},
		{Open: 99, Close: 100},
		{Open: 100, Close: 101},
	}
	c := Candidate{
		Aggregate: core.AggregatedSignal{Side: core.SignalLong, Strength: 0.82, Agreement: 0.80, Confidence: 0.9},
		Snapshot:  core.IndicatorSnapshot{EMAFast: 100, EMASlow: 99, EMATrend: 99, VolumeRatio: 1.3},
		Candles:   candles,
		WinRate:   0.5,
	}
	passed, reason := DirectionGate{}.Evaluate(context.Background(), c)
	assert.False(t, passed)
	assert.Equal(t, "uptrend not confirmed", reason)
}

func TestDirectionGate_ShortUsesLooserThresholds(t *testing.T) {
	c := Candidate{
		Aggregate: core.AggregatedSignal{Side: core.SignalShort, Strength: 0.66, Agreement: 0.61, Confidence: 0.9},
		Snapshot:  core.IndicatorSnapshot{},
		WinRate:   0.5,
	}
	passed, _ := DirectionGate{}.Evaluate(context.Background(), c)
	assert.True(t, passed)
}

func TestDirectionGate_HoldAlwaysRejected(t *testing.T) {
	c := Candidate{Aggregate: core.AggregatedSignal{Side: core.SignalHold}}
	passed, reason := DirectionGate{}.Evaluate(context.Background(), c)
	assert.False(t, passed)
	assert.Equal(t, "no directional consensus", reason)
}

func TestAdaptThresholds_RaisesBoundsAsWinRateDegrades(t *testing.T) {
	low := AdaptThresholds(0.2)
	assert.Equal(t, 0.85, low.LongMinStrength)
	assert.Equal(t, 0.85, low.LongMinAgreement)

	mid := AdaptThresholds(0.35)
	assert.Equal(t, 0.82, mid.LongMinStrength)
	assert.Equal(t, 0.80, mid.LongMinAgreement)

	baseline := AdaptThresholds(0.5)
	assert.Equal(t, BaselineDirectionThresholds(), baseline)
}
