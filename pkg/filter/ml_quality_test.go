package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/raykavin/tradecore/pkg/plugin"
	"github.com/stretchr/testify/assert"
)

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Score(context.Context, plugin.Features) (float64, error) {
	return s.score, s.err
}

func TestMLQualityGate_OffModeAlwaysPasses(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerOff, Scorer: stubScorer{score: 0}}
	passed, _ := g.Evaluate(context.Background(), Candidate{})
	assert.True(t, passed)
}

func TestMLQualityGate_NilScorerPasses(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerFilter, QualityThreshold: 0.8}
	passed, reason := g.Evaluate(context.Background(), Candidate{})
	assert.True(t, passed)
	assert.Contains(t, reason, "not wired")
}

func TestMLQualityGate_ShadowModeRecordsButNeverRejects(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerShadow, Scorer: stubScorer{score: 0.1}, QualityThreshold: 0.8}
	passed, _ := g.Evaluate(context.Background(), Candidate{})
	assert.True(t, passed)
	assert.Equal(t, 0.1, g.LastScore)
}

func TestMLQualityGate_FilterModeRejectsBelowThreshold(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerFilter, Scorer: stubScorer{score: 0.5}, QualityThreshold: 0.8}
	passed, reason := g.Evaluate(context.Background(), Candidate{})
	assert.False(t, passed)
	assert.Contains(t, reason, "below threshold")
}

func TestMLQualityGate_FilterModePassesAboveThreshold(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerFilter, Scorer: stubScorer{score: 0.9}, QualityThreshold: 0.8}
	passed, _ := g.Evaluate(context.Background(), Candidate{})
	assert.True(t, passed)
	assert.Equal(t, 0.9, g.LastScore)
}

func TestMLQualityGate_ScorerErrorRejectsInFilterMode(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerFilter, Scorer: stubScorer{err: errors.New("timeout")}, QualityThreshold: 0.8}
	passed, reason := g.Evaluate(context.Background(), Candidate{})
	assert.False(t, passed)
	assert.Contains(t, reason, "treated as reject")
}

func TestMLQualityGate_ScorerErrorIgnoredInShadowMode(t *testing.T) {
	g := &MLQualityGate{Mode: plugin.ScorerShadow, Scorer: stubScorer{err: errors.New("timeout")}, QualityThreshold: 0.8}
	passed, reason := g.Evaluate(context.Background(), Candidate{})
	assert.True(t, passed)
	assert.Contains(t, reason, "ignored")
}

func TestFeatures_MapsSnapshotAndCandlesIntoVector(t *testing.T) {
	c := Candidate{
		Aggregate: core.AggregatedSignal{Strength: 0.7, Agreement: 0.8},
		Snapshot: core.IndicatorSnapshot{
			RSI: 55, ADX: 30, ATR: 2, PercentB: 0.6, VolumeRatio: 1.2,
			BollingerWidth: 3.1, Regime: core.RegimeTrending,
		},
		Candles: []core.Candle{
			{Close: 100}, {Close: 101}, {Close: 102}, {Close: 103}, {Close: 104},
			{Close: 105}, {Close: 106}, {Close: 107}, {Close: 108}, {Close: 109}, {Close: 110},
		},
	}
	f := features(c)
	assert.Equal(t, 0.7, f.SignalStrength)
	assert.Equal(t, 0.8, f.Agreement)
	assert.Equal(t, 55.0, f.RSI)
	assert.Equal(t, 30.0, f.ADX)
	assert.InDelta(t, 2.0/110.0, f.ATRPct, 1e-9)
	assert.InDelta(t, (110.0-100.0)/100.0, f.PriceChange10, 1e-9)
	assert.Equal(t, 1.0, f.MarketRegimeCode)
}

func TestFeatures_ShortCandleHistorySkipsPriceChange(t *testing.T) {
	c := Candidate{Candles: []core.Candle{{Close: 100}, {Close: 101}}}
	f := features(c)
	assert.Equal(t, 0.0, f.PriceChange10)
}

func TestRegimeCode_MapsEachRegime(t *testing.T) {
	assert.Equal(t, 1.0, regimeCode(core.RegimeTrending))
	assert.Equal(t, -1.0, regimeCode(core.RegimeRanging))
	assert.Equal(t, 0.0, regimeCode(core.RegimeTransitioning))
}
