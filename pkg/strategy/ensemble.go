package strategy

import "github.com/raykavin/tradecore/pkg/core"

// Thresholds are the asymmetric acceptance bounds applied after voting;
// Long is strictly stricter than Short to correct historical long-side
// underperformance (§4.2).
type Thresholds struct {
	LongMinAgreement  float64
	LongMinStrength   float64
	LongMinConfidence float64

	ShortMinAgreement  float64
	ShortMinStrength   float64
	ShortMinConfidence float64
}

// DefaultThresholds returns the baseline acceptance bounds named in §4.4's
// direction filter ("e.g., 0.80 / 0.75").
func DefaultThresholds() Thresholds {
	return Thresholds{
		LongMinAgreement:  0.75,
		LongMinStrength:   0.80,
		LongMinConfidence: 0.5,

		ShortMinAgreement:  0.60,
		ShortMinStrength:   0.65,
		ShortMinConfidence: 0.4,
	}
}

// Ensemble runs every registered strategy and aggregates their votes.
type Ensemble struct {
	strategies []Strategy
	thresholds Thresholds
}

func NewEnsemble(strategies []Strategy, thresholds Thresholds) *Ensemble {
	return &Ensemble{strategies: strategies, thresholds: thresholds}
}

// Evaluate runs every strategy permitted by allowedNames (nil/empty means
// all), then aggregates per §4.2:
//  1. count votes per side, highest vote count wins, ties → Hold;
//  2. agreement = winning_votes / active_strategies;
//  3. strength = weighted mean strength over strategies that voted for the
//     winning side;
//  4. reject if agreement/strength/confidence fall below the side's
//     threshold.
func (e *Ensemble) Evaluate(candles []core.Candle, snapshot core.IndicatorSnapshot, allowedNames []string) core.AggregatedSignal {
	allowed := toSet(allowedNames)

	votes := make(map[core.SignalSide][]core.Signal)
	var active int
	var all []core.Signal

	for _, s := range e.strategies {
		if len(allowed) > 0 && !allowed[s.Name()] {
			continue
		}
		if len(candles) < s.WarmupPeriod() {
			continue
		}
		active++
		sig := s.Evaluate(candles, snapshot)
		all = append(all, sig)
		if sig.Side == core.SignalHold {
			continue
		}
		votes[sig.Side] = append(votes[sig.Side], sig)
	}

	agg := core.AggregatedSignal{
		Side:         core.SignalHold,
		TotalVotes:   active,
		Contributing: all,
		Time:         snapshot.Time,
		Rejected:     true,
	}
	if active == 0 {
		return agg
	}

	winningSide, winningVotes, tie := pickWinner(votes)
	if tie || winningSide == core.SignalHold || len(winningVotes) == 0 {
		return agg
	}

	agreement := float64(len(winningVotes)) / float64(active)
	strength := weightedMeanStrength(winningVotes)
	confidence := weightedMeanConfidence(winningVotes)

	agg.Side = winningSide
	agg.VoteCount = len(winningVotes)
	agg.Agreement = agreement
	agg.Strength = strength
	agg.Confidence = confidence

	minAgreement, minStrength, minConfidence := e.thresholds.forSide(winningSide)
	agg.Rejected = agreement < minAgreement || strength < minStrength || confidence < minConfidence

	return agg
}

func (t Thresholds) forSide(side core.SignalSide) (agreement, strength, confidence float64) {
	if side == core.SignalLong {
		return t.LongMinAgreement, t.LongMinStrength, t.LongMinConfidence
	}
	return t.ShortMinAgreement, t.ShortMinStrength, t.ShortMinConfidence
}

// pickWinner returns the side with the highest vote count. A tie between
// the top two side vote counts resolves to Hold, per §4.2 rule 1.
func pickWinner(votes map[core.SignalSide][]core.Signal) (side core.SignalSide, sigs []core.Signal, tie bool) {
	bestCount := -1
	secondCount := -1
	for s, vs := range votes {
		switch {
		case len(vs) > bestCount:
			secondCount = bestCount
			bestCount = len(vs)
			side = s
			sigs = vs
		case len(vs) > secondCount:
			secondCount = len(vs)
		}
	}
	if bestCount == -1 {
		return core.SignalHold, nil, false
	}
	return side, sigs, bestCount == secondCount
}

func weightedMeanStrength(sigs []core.Signal) float64 {
	if len(sigs) == 0 {
		return 0
	}
	var sum, weight float64
	for _, s := range sigs {
		w := s.Confidence
		if w <= 0 {
			w = 1
		}
		sum += s.Strength * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

func weightedMeanConfidence(sigs []core.Signal) float64 {
	if len(sigs) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sigs {
		sum += s.Confidence
	}
	return sum / float64(len(sigs))
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
