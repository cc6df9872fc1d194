package feed

import (
	"testing"
	"time"

	"github.com/gurre/barengine/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrameDecodesStockAndCryptoTrades(t *testing.T) {
	raw := []byte(`[
		{"ev":"T","sym":"AAPL","x":4,"z":1,"p":"190.25","s":100,"c":[0],"t":1700000000000000000},
		{"ev":"XT","pair":"BTC-USD","p":"65000.50","s":"0.25","c":[2],"x":1,"r":0,"t":1700000000000}
	]`)
	trades, statuses, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Empty(t, statuses)
	require.Len(t, trades, 2)

	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.True(t, trades[0].Price.Equal(money.MustParse("190.25")))
	assert.True(t, trades[0].Volume.Equal(money.New(100, 0)))
	assert.Equal(t, time.Duration(1700000000000)*time.Millisecond, trades[0].EventTime)

	assert.Equal(t, "BTC-USD", trades[1].Symbol)
	assert.True(t, trades[1].Price.Equal(money.MustParse("65000.50")))
	assert.True(t, trades[1].Volume.Equal(money.MustParse("0.25")))
}

func TestParseFrameSkipsMalformedEntries(t *testing.T) {
	raw := []byte(`[
		{"ev":"T","sym":"AAPL","x":4,"z":1,"p":"not-a-number","s":100,"t":1},
		{"ev":"T","sym":"MSFT","x":4,"z":1,"p":"400.00","s":10,"t":2000000}
	]`)
	trades, _, err := ParseFrame(raw)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "MSFT", trades[0].Symbol)
}

func TestParseFrameCapturesStatusUpdates(t *testing.T) {
	raw := []byte(`[{"ev":"status","status":"connected","message":"Connected Successfully"}]`)
	trades, statuses, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Empty(t, trades)
	require.Len(t, statuses, 1)
	assert.Equal(t, "connected", statuses[0].Status)
}

func TestParseFrameRejectsNonArrayPayload(t *testing.T) {
	_, _, err := ParseFrame([]byte(`{"ev":"T"}`))
	assert.Error(t, err)
}
