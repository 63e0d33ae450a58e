package regime

import (
	"testing"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestClassify_StrongTrendOverride(t *testing.T) {
	// A strong trend (adx=36.8) with tight bandwidth (2.41%) must still
	// classify Trending, not Ranging; the override precedence guards
	// against a prior misclassification here.
	d := NewDetector()
	result := d.Classify(36.8, 2.41)
	assert.Equal(t, core.RegimeTrending, result.Regime)
}

func TestClassify_BoundaryRangingVsTrending(t *testing.T) {
	d1 := NewDetector()
	assert.Equal(t, core.RegimeRanging, d1.classify(19.9, 1.9))

	d2 := NewDetector()
	assert.Equal(t, core.RegimeTrending, d2.classify(35.1, 2.1))
}

func TestClassify_RangingRequiresConjunction(t *testing.T) {
	d := NewDetector()
	// Low ADX but high bandwidth must not range (disjunction would wrongly
	// classify this Ranging).
	assert.NotEqual(t, core.RegimeRanging, d.classify(15, 5))

	d2 := NewDetector()
	assert.NotEqual(t, core.RegimeRanging, d2.classify(25, 1))
}

func TestClassify_Hysteresis(t *testing.T) {
	d := NewDetector()
	// Establish a Trending state with a strong reading.
	assert.Equal(t, core.RegimeTrending, d.classify(40, 4))
	// A pullback that would not independently qualify as Trending under
	// rules 2/3 still holds via hysteresis (adx>=27, bandwidth>=2.5).
	assert.Equal(t, core.RegimeTrending, d.classify(28, 2.6))
}

func TestClassify_Transitioning(t *testing.T) {
	d := NewDetector()
	got := d.classify(24, 2.2)
	assert.Equal(t, core.RegimeTransitioning, got)
}

func TestAllowedStrategies_MatchRegisteredNames(t *testing.T) {
	// Names must correspond to strategies actually registered in
	// pkg/strategy; a stale name here would silently empty the ensemble.
	registered := map[string]bool{
		"ema_cross": true, "macd_cross": true, "adx_trend": true,
		"super_trend": true, "breakout": true, "volume_breakout": true,
		"bollinger_trend": true, "bollinger_breakthrough": true,
		"rsi_divergence": true, "kdj_cross": true, "composite_score": true,
		"multi_timeframe": true, "band_limited_hedging": true,
	}
	for _, regime := range []core.MarketRegime{core.RegimeTrending, core.RegimeRanging, core.RegimeTransitioning} {
		for _, name := range AllowedStrategies(regime) {
			assert.Truef(t, registered[name], "regime %s allows unregistered strategy %q", regime, name)
		}
	}
}

func TestConfidence_Bounds(t *testing.T) {
	assert.Equal(t, 0.0, confidence(0, 0))
	assert.Equal(t, 1.0, confidence(100, 100))
}
