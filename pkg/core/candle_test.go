package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicker_SpreadPct(t *testing.T) {
	tk := Ticker{Bid: 100, Ask: 100.5}
	assert.InDelta(t, 0.005, tk.SpreadPct(), 1e-9)
}

func TestTicker_SpreadPct_ZeroBidIsSafe(t *testing.T) {
	tk := Ticker{Bid: 0, Ask: 100.5}
	assert.Equal(t, 0.0, tk.SpreadPct())
}

func TestTicker_IsStale(t *testing.T) {
	now := time.Now()
	fresh := Ticker{Time: now.Add(-1 * time.Second)}
	stale := Ticker{Time: now.Add(-5 * time.Minute)}
	assert.False(t, fresh.IsStale(now, 2*time.Minute))
	assert.True(t, stale.IsStale(now, 2*time.Minute))
}

func TestTopDepth_SumsFirstNLevels(t *testing.T) {
	levels := []BookLevel{
		{Price: 100, Size: 1},
		{Price: 101, Size: 2},
		{Price: 102, Size: 3},
	}
	assert.Equal(t, 100.0+202.0, TopDepth(levels, 2))
	assert.Equal(t, 100.0+202.0+306.0, TopDepth(levels, 10)) // clamps to len(levels)
}
