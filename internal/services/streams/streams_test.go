package streams

import (
	"fmt"
	"testing"
	"time"

	"github.com/anvh2/market-bias/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoinFromSymbol(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT":       "BTC",
		"ETHUSDT":       "ETH",
		"BTC-USD":       "BTC",
		"BTC-USDT-SWAP": "BTC",
		"XBT/USD":       "BTC",
		"SOLUSDC":       "SOL",
		"BTC":           "BTC",
	}

	for symbol, coin := range cases {
		assert.Equal(t, coin, CoinFromSymbol(symbol), symbol)
	}
}

func TestDedupBounds(t *testing.T) {
	d := newDedupSet()

	assert.False(t, d.Check("a"))
	assert.True(t, d.Check("a"))

	for i := 0; i < 12000; i++ {
		d.Check(fmt.Sprintf("id-%d", i))
	}

	// invariant 3: the set never exceeds the cap
	assert.LessOrEqual(t, d.Len(), 10000)

	// the retained tail still dedups
	assert.True(t, d.Check("id-11999"))
}

func TestTradeWindowSums(t *testing.T) {
	now := time.Now()
	w := &tradeWindow{}

	w.Add(now.Add(-50*time.Minute).UnixMilli(), 100, 0)
	w.Add(now.Add(-10*time.Minute).UnixMilli(), 200, 50)
	w.Add(now.Add(-1*time.Minute).UnixMilli(), 0, 25)

	buy, sell := w.Sums(now, 5*time.Minute)
	assert.Equal(t, 0.0, buy)
	assert.Equal(t, 25.0, sell)

	buy, sell = w.Sums(now, 15*time.Minute)
	assert.Equal(t, 200.0, buy)
	assert.Equal(t, 75.0, sell)

	assert.InDelta(t, 225.0, w.Delta(now, time.Hour), 1e-9)
}

func TestBybitParseTrade(t *testing.T) {
	raw := []byte(`{"topic":"publicTrade.BTCUSDT","type":"snapshot","ts":1700000000100,"data":[{"T":1700000000000,"s":"BTCUSDT","S":"Buy","v":"0.5","p":"50000","i":"trade-1"}]}`)

	message, err := NewBybitLinear().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Trades, 1)

	trade := message.Trades[0]
	assert.Equal(t, "BTCUSDT", trade.Symbol)
	assert.Equal(t, models.SideBuy, trade.Side)
	assert.Equal(t, 25000.0, trade.Notional())
	assert.Equal(t, 25000.0, trade.Delta())
}

func TestBybitParseLiquidation(t *testing.T) {
	raw := []byte(`{"topic":"liquidation.BTCUSDT","data":{"updatedTime":1700000000000,"symbol":"BTCUSDT","side":"Sell","size":"2","price":"50000"}}`)

	message, err := NewBybitLinear().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Liquidations, 1)

	event := message.Liquidations[0]
	assert.Equal(t, "BTC", event.Symbol)
	assert.Equal(t, models.SideSell, event.Side) // a long was liquidated
	assert.Equal(t, 100000.0, event.Notional)
}

func TestOKXParse(t *testing.T) {
	pong, err := NewOKX().Parse([]byte("pong"))
	require.NoError(t, err)
	assert.Nil(t, pong)

	raw := []byte(`{"arg":{"channel":"trades","instId":"BTC-USDT-SWAP"},"data":[{"instId":"BTC-USDT-SWAP","tradeId":"42","px":"50000","sz":"1","side":"sell","ts":"1700000000000"}]}`)
	message, err := NewOKX().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Trades, 1)
	assert.Equal(t, models.SideSell, message.Trades[0].Side)
	assert.Equal(t, int64(1700000000000), message.Trades[0].Time)
}

func TestCoinbaseParseTakerSide(t *testing.T) {
	// maker sold -> taker bought
	raw := []byte(`{"type":"match","trade_id":7,"side":"sell","size":"0.1","price":"50000","product_id":"BTC-USD","time":"2023-11-14T22:13:20.000000Z"}`)
	message, err := NewCoinbase().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Trades, 1)
	assert.Equal(t, models.SideBuy, message.Trades[0].Side)

	// heartbeats yield nothing
	hb, err := NewCoinbase().Parse([]byte(`{"type":"heartbeat","sequence":1}`))
	require.NoError(t, err)
	assert.Nil(t, hb)
}

func TestKrakenParse(t *testing.T) {
	raw := []byte(`[337,[["50000.10000","0.20000000","1700000000.123456","b","m",""]],"trade","XBT/USD"]`)

	message, err := NewKraken().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Trades, 1)

	trade := message.Trades[0]
	assert.Equal(t, "XBT/USD", trade.Symbol)
	assert.Equal(t, models.SideBuy, trade.Side)
	assert.Equal(t, 50000.1, trade.Price)

	// status frames are ignored
	status, err := NewKraken().Parse([]byte(`{"event":"heartbeat"}`))
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestHyperliquidParse(t *testing.T) {
	raw := []byte(`{"channel":"trades","data":[{"coin":"BTC","side":"A","px":"50000","sz":"0.3","time":1700000000000,"tid":99}]}`)

	message, err := NewHyperliquid().Parse(raw)
	require.NoError(t, err)
	require.Len(t, message.Trades, 1)
	assert.Equal(t, models.SideSell, message.Trades[0].Side)
	assert.Equal(t, "99", message.Trades[0].TradeID)
}
