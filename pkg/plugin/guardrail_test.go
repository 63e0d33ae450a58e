package plugin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePolicy struct {
	calls int
	err   error
	decision PolicyDecision
}

func (f *fakePolicy) Analyze(context.Context, PolicyContext) (PolicyDecision, error) {
	f.calls++
	if f.err != nil {
		return PolicyDecision{}, f.err
	}
	return f.decision, nil
}

func TestGuardedPolicy_CallsInnerWhenWithinCaps(t *testing.T) {
	inner := &fakePolicy{decision: PolicyDecision{Accept: true, RiskMode: RiskModeNormal}}
	g := NewGuardedPolicy(inner, nil, GuardedPolicyConfig{Timeout: time.Second, FailureMode: FailurePass})
	decision, err := g.Analyze(context.Background(), PolicyContext{CandleHash: "a", SignalFingerprint: "b"})
	assert.NoError(t, err)
	assert.True(t, decision.Accept)
	assert.Equal(t, 1, inner.calls)
}

func TestGuardedPolicy_DailyCallCapBlocksInner(t *testing.T) {
	inner := &fakePolicy{decision: PolicyDecision{Accept: true}}
	g := NewGuardedPolicy(inner, nil, GuardedPolicyConfig{
		Timeout: time.Second, FailureMode: FailurePass, MaxDailyCalls: 1,
	})
	ctx := context.Background()
	pc1 := PolicyContext{CandleHash: "a", SignalFingerprint: "1"}
	pc2 := PolicyContext{CandleHash: "a", SignalFingerprint: "2"}

	_, err := g.Analyze(ctx, pc1)
	assert.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	decision, err := g.Analyze(ctx, pc2)
	assert.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second call must be blocked by the daily cap, not reach inner")
	assert.True(t, decision.Accept, "FailurePass fallback still accepts")
}

func TestGuardedPolicy_FailureRejectRejectsOnInnerError(t *testing.T) {
	inner := &fakePolicy{err: errors.New("provider timeout")}
	g := NewGuardedPolicy(inner, nil, GuardedPolicyConfig{Timeout: time.Second, FailureMode: FailureReject})
	decision, err := g.Analyze(context.Background(), PolicyContext{CandleHash: "a", SignalFingerprint: "b"})
	assert.NoError(t, err)
	assert.False(t, decision.Accept)
}

func TestGuardedPolicy_FailurePassAcceptsOnInnerError(t *testing.T) {
	inner := &fakePolicy{err: errors.New("provider timeout")}
	g := NewGuardedPolicy(inner, nil, GuardedPolicyConfig{Timeout: time.Second, FailureMode: FailurePass})
	decision, err := g.Analyze(context.Background(), PolicyContext{CandleHash: "a", SignalFingerprint: "b"})
	assert.NoError(t, err)
	assert.True(t, decision.Accept)
}

func TestCacheKey_DeterministicAndDistinctPerContext(t *testing.T) {
	a := cacheKey(PolicyContext{CandleHash: "h1", SignalFingerprint: "f1"})
	b := cacheKey(PolicyContext{CandleHash: "h1", SignalFingerprint: "f1"})
	c := cacheKey(PolicyContext{CandleHash: "h2", SignalFingerprint: "f1"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestPolicyDecision_ClampRestrictsOverridesToBounds(t *testing.T) {
	sl := 0.5
	tp := 0.001
	mult := 5.0
	d := PolicyDecision{StopLossPctOverride: &sl, TakeProfitPctOverride: &tp, PositionMultiplier: &mult}
	bounds := DefaultParamBounds()
	d.Clamp(bounds)
	assert.Equal(t, bounds.MaxStopLossPct, *d.StopLossPctOverride)
	assert.Equal(t, bounds.MinTakeProfitPct, *d.TakeProfitPctOverride)
	assert.Equal(t, bounds.MaxPositionMultiplier, *d.PositionMultiplier)
}
