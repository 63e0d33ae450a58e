package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCommandParams_ParsesPairAmountAndPercent(t *testing.T) {
	match := buyRegexp.FindStringSubmatch("/buy BTCUSDT 50%")
	require := assert.New(t)
	require.NotEmpty(match)

	params := extractCommandParams(buyRegexp, match)
	require.Equal("BTCUSDT", params["pair"])
	require.Equal("50", params["amount"])
	require.Equal("%", params["percent"])
}

func TestExtractCommandParams_AbsoluteAmountHasEmptyPercent(t *testing.T) {
	match := sellRegexp.FindStringSubmatch("/sell ETHUSDT 100")
	assert.NotEmpty(t, match)

	params := extractCommandParams(sellRegexp, match)
	assert.Equal(t, "ETHUSDT", params["pair"])
	assert.Equal(t, "100", params["amount"])
	assert.Equal(t, "", params["percent"])
}

func TestBuyRegexp_RejectsMalformedCommand(t *testing.T) {
	match := buyRegexp.FindStringSubmatch("/buy onlyonearg")
	assert.Empty(t, match)
}
