package strategy

import (
	"testing"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

// fakeStrategy returns a fixed Signal regardless of input, for isolating
// ensemble aggregation behaviour from any one real strategy's logic.
type fakeStrategy struct {
	name   string
	warmup int
	signal core.Signal
}

func (f fakeStrategy) Name() string      { return f.name }
func (f fakeStrategy) WarmupPeriod() int { return f.warmup }
func (f fakeStrategy) Evaluate(_ []core.Candle, _ core.IndicatorSnapshot) core.Signal {
	return f.signal
}

func sig(name string, side core.SignalSide, strength, confidence float64) core.Signal {
	return core.Signal{StrategyName: name, Side: side, Strength: strength, Confidence: confidence}
}

func TestEnsemble_ZeroActiveStrategiesHoldsNoDivideByZero(t *testing.T) {
	e := NewEnsemble(nil, DefaultThresholds())
	agg := e.Evaluate(nil, core.IndicatorSnapshot{}, nil)
	assert.Equal(t, core.SignalHold, agg.Side)
	assert.Equal(t, 0, agg.TotalVotes)
	assert.True(t, agg.Rejected)
}

func TestEnsemble_TieResolvesToHold(t *testing.T) {
	strategies := []Strategy{
		fakeStrategy{name: "a", signal: sig("a", core.SignalLong, 0.9, 0.9)},
		fakeStrategy{name: "b", signal: sig("b", core.SignalShort, 0.9, 0.9)},
	}
	e := NewEnsemble(strategies, DefaultThresholds())
	candles := make([]core.Candle, 100)
	agg := e.Evaluate(candles, core.IndicatorSnapshot{}, nil)
	assert.Equal(t, core.SignalHold, agg.Side)
}

func TestEnsemble_MajorityWinsAndAgreementComputed(t *testing.T) {
	strategies := []Strategy{
		fakeStrategy{name: "a", signal: sig("a", core.SignalLong, 0.95, 0.9)},
		fakeStrategy{name: "b", signal: sig("b", core.SignalLong, 0.95, 0.9)},
		fakeStrategy{name: "c", signal: sig("c", core.SignalLong, 0.95, 0.9)},
		fakeStrategy{name: "d", signal: sig("d", core.SignalShort, 0.95, 0.9)},
	}
	e := NewEnsemble(strategies, DefaultThresholds())
	candles := make([]core.Candle, 100)
	agg := e.Evaluate(candles, core.IndicatorSnapshot{}, nil)
	assert.Equal(t, core.SignalLong, agg.Side)
	assert.InDelta(t, 0.75, agg.Agreement, 1e-9)
	assert.False(t, agg.Rejected)
}

func TestEnsemble_LongStricterThanShort(t *testing.T) {
	t.Run("long rejected below long threshold but short equivalent passes", func(t *testing.T) {
		thresholds := DefaultThresholds()
		longStrategies := []Strategy{
			fakeStrategy{name: "a", signal: sig("a", core.SignalLong, 0.70, 0.9)},
		}
		e := NewEnsemble(longStrategies, thresholds)
		candles := make([]core.Candle, 100)
		agg := e.Evaluate(candles, core.IndicatorSnapshot{}, nil)
		assert.Equal(t, core.SignalLong, agg.Side)
		assert.True(t, agg.Rejected, "0.70 strength must fail the stricter long threshold of 0.80")

		shortStrategies := []Strategy{
			fakeStrategy{name: "a", signal: sig("a", core.SignalShort, 0.70, 0.9)},
		}
		e2 := NewEnsemble(shortStrategies, thresholds)
		agg2 := e2.Evaluate(candles, core.IndicatorSnapshot{}, nil)
		assert.False(t, agg2.Rejected, "0.70 strength clears the looser short threshold of 0.65")
	})
}

func TestEnsemble_AllowedNamesFiltersParticipants(t *testing.T) {
	strategies := []Strategy{
		fakeStrategy{name: "a", signal: sig("a", core.SignalLong, 0.9, 0.9)},
		fakeStrategy{name: "b", signal: sig("b", core.SignalShort, 0.9, 0.9)},
	}
	e := NewEnsemble(strategies, DefaultThresholds())
	candles := make([]core.Candle, 100)
	agg := e.Evaluate(candles, core.IndicatorSnapshot{}, []string{"a"})
	assert.Equal(t, 1, agg.TotalVotes)
	assert.Equal(t, core.SignalLong, agg.Side)
}

func TestEnsemble_InsufficientHistorySkipsStrategy(t *testing.T) {
	strategies := []Strategy{
		fakeStrategy{name: "a", warmup: 200, signal: sig("a", core.SignalLong, 0.9, 0.9)},
	}
	e := NewEnsemble(strategies, DefaultThresholds())
	candles := make([]core.Candle, 10)
	agg := e.Evaluate(candles, core.IndicatorSnapshot{}, nil)
	assert.Equal(t, 0, agg.TotalVotes)
	assert.Equal(t, core.SignalHold, agg.Side)
}

func TestEnsemble_IdempotentOnIdenticalInput(t *testing.T) {
	strategies := []Strategy{
		fakeStrategy{name: "a", signal: sig("a", core.SignalLong, 0.9, 0.9)},
		fakeStrategy{name: "b", signal: sig("b", core.SignalLong, 0.82, 0.8)},
	}
	e := NewEnsemble(strategies, DefaultThresholds())
	candles := make([]core.Candle, 100)
	snap := core.IndicatorSnapshot{Time: time.Now()}
	agg1 := e.Evaluate(candles, snap, nil)
	agg2 := e.Evaluate(candles, snap, nil)
	assert.Equal(t, agg1.Side, agg2.Side)
	assert.Equal(t, agg1.Strength, agg2.Strength)
	assert.Equal(t, agg1.Agreement, agg2.Agreement)
	assert.Equal(t, agg1.Rejected, agg2.Rejected)
}
