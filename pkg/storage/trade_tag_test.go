package storage

import (
	"testing"
	"time"

	"github.com/raykavin/tradecore/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) TradeTagStore {
	t.Helper()
	store, err := NewTradeTagStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTradeTagStore_SaveAndRecentFiltersByPair(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(core.TradeTag{Pair: "BTCUSDT", Opened: true, Time: time.Now()}))
	require.NoError(t, store.Save(core.TradeTag{Pair: "ETHUSDT", Opened: false, Time: time.Now()}))
	require.NoError(t, store.Save(core.TradeTag{Pair: "BTCUSDT", Opened: false, Time: time.Now()}))

	tags, err := store.Recent("BTCUSDT", 0)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
	for _, tag := range tags {
		assert.Equal(t, "BTCUSDT", tag.Pair)
	}
}

func TestTradeTagStore_RecentHonoursLimit(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Save(core.TradeTag{Pair: "BTCUSDT", Time: time.Now()}))
	}

	tags, err := store.Recent("BTCUSDT", 2)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestTradeTagStore_RecentEmptyPairReturnsAll(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Save(core.TradeTag{Pair: "BTCUSDT", Time: time.Now()}))
	require.NoError(t, store.Save(core.TradeTag{Pair: "ETHUSDT", Time: time.Now()}))

	tags, err := store.Recent("", 0)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}
