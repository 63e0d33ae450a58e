package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPushPrice_BoundedFIFO(t *testing.T) {
	pos := &Position{RecentPricesCap: 3}
	for _, p := range []float64{1, 2, 3, 4, 5} {
		pos.PushPrice(p)
	}
	assert.Equal(t, []float64{3, 4, 5}, pos.RecentPrices)
}

func TestPushPrice_DefaultsCapToFive(t *testing.T) {
	pos := &Position{}
	for i := 0; i < 10; i++ {
		pos.PushPrice(float64(i))
	}
	assert.Len(t, pos.RecentPrices, 5)
}

func TestMeanRecentPrice_EmptyIsZero(t *testing.T) {
	pos := &Position{}
	assert.Equal(t, 0.0, pos.MeanRecentPrice())
}

func TestMeanRecentPrice(t *testing.T) {
	pos := &Position{RecentPricesCap: 5}
	pos.PushPrice(10)
	pos.PushPrice(20)
	assert.Equal(t, 15.0, pos.MeanRecentPrice())
}

func TestUpdatePriceExtremes_TracksHighAndLow(t *testing.T) {
	pos := &Position{}
	pos.UpdatePriceExtremes(100)
	pos.UpdatePriceExtremes(110)
	pos.UpdatePriceExtremes(95)
	assert.Equal(t, 110.0, pos.HighestPrice)
	assert.Equal(t, 95.0, pos.LowestPrice)
}

func TestUnrealisedPnL_LongAndShort(t *testing.T) {
	long := &Position{Side: PositionSideLong, Amount: 2, EntryPrice: 100}
	assert.Equal(t, 20.0, long.UnrealisedPnL(110))
	assert.Equal(t, -20.0, long.UnrealisedPnL(90))

	short := &Position{Side: PositionSideShort, Amount: 2, EntryPrice: 100}
	assert.Equal(t, 20.0, short.UnrealisedPnL(90))
	assert.Equal(t, -20.0, short.UnrealisedPnL(110))
}

func TestNotionalAt(t *testing.T) {
	pos := &Position{Amount: 3}
	assert.Equal(t, 300.0, pos.NotionalAt(100))
}
