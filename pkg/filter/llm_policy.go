package filter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/raykavin/tradecore/pkg/plugin"
)

// LLMPolicyGate is the optional LLM policy gate (§4.4 gate 6). When
// disabled it passes unconditionally. When enabled, a rejecting
// PolicyDecision rejects the candidate; an accepting decision's bounded
// overrides are surfaced via LastDecision for the risk manager to apply.
type LLMPolicyGate struct {
	Enabled bool
	Engine  plugin.PolicyEngine
	Bounds  plugin.ParamBounds

	LastDecision plugin.PolicyDecision
}

func (LLMPolicyGate) Name() string { return "llm_policy" }

func (g *LLMPolicyGate) Evaluate(ctx context.Context, c Candidate) (bool, string) {
	if !g.Enabled || g.Engine == nil {
		return true, ""
	}

	pc := plugin.PolicyContext{
		Pair:              c.Pair,
		CandleHash:        candleHash(c),
		SignalFingerprint: signalFingerprint(c),
		Features:          features(c),
	}

	decision, err := g.Engine.Analyze(ctx, pc)
	if err != nil {
		return true, "llm policy error ignored: " + err.Error()
	}
	decision.Clamp(g.Bounds)
	g.LastDecision = decision

	if !decision.Accept {
		return false, "llm policy rejected: " + decision.Reason
	}
	return true, ""
}

func candleHash(c Candidate) string {
	if len(c.Candles) == 0 {
		return ""
	}
	last := c.Candles[len(c.Candles)-1]
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%f|%f|%f|%f", last.Pair, last.Time.Unix(), last.Open, last.High, last.Low, last.Close)))
	return hex.EncodeToString(sum[:8])
}

func signalFingerprint(c Candidate) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%.4f|%.4f", c.Aggregate.Side, c.Aggregate.Strength, c.Aggregate.Agreement)))
	return hex.EncodeToString(sum[:8])
}
