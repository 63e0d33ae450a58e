package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingGate lets a test observe whether a gate downstream of a
// rejection was ever invoked, proving the pipeline short-circuits.
type recordingGate struct {
	name    string
	pass    bool
	reason  string
	invoked *bool
}

func (g recordingGate) Name() string { return g.name }
func (g recordingGate) Evaluate(_ context.Context, _ Candidate) (bool, string) {
	*g.invoked = true
	return g.pass, g.reason
}

func TestPipeline_ShortCircuitsAtFirstRejection(t *testing.T) {
	var gate1Invoked, gate2Invoked bool
	p := NewPipeline(
		recordingGate{name: "first", pass: false, reason: "rejected by first", invoked: &gate1Invoked},
		recordingGate{name: "second", pass: true, invoked: &gate2Invoked},
	)

	passed, decisions := p.Run(context.Background(), Candidate{})
	assert.False(t, passed)
	require.Len(t, decisions, 1)
	assert.Equal(t, "first", decisions[0].Gate)
	assert.Equal(t, "rejected by first", decisions[0].Reason)
	assert.True(t, gate1Invoked)
	assert.False(t, gate2Invoked, "pipeline must not evaluate gates after a rejection")
}

func TestPipeline_RunsAllGatesWhenAllPass(t *testing.T) {
	var g1, g2, g3 bool
	p := NewPipeline(
		recordingGate{name: "a", pass: true, invoked: &g1},
		recordingGate{name: "b", pass: true, invoked: &g2},
		recordingGate{name: "c", pass: true, invoked: &g3},
	)
	passed, decisions := p.Run(context.Background(), Candidate{})
	assert.True(t, passed)
	assert.Len(t, decisions, 3)
	assert.True(t, g1 && g2 && g3)
}

func TestPipeline_OrderPreserving(t *testing.T) {
	var invoked [3]bool
	p := NewPipeline(
		recordingGate{name: "x", pass: true, invoked: &invoked[0]},
		recordingGate{name: "y", pass: true, invoked: &invoked[1]},
		recordingGate{name: "z", pass: false, reason: "stop here", invoked: &invoked[2]},
	)
	_, decisions := p.Run(context.Background(), Candidate{})
	names := make([]string, len(decisions))
	for i, d := range decisions {
		names[i] = d.Gate
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
}
