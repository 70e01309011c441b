package streams

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
)

func TestPipelineFlush(t *testing.T) {
	viper.Set("market.whale_trade_min_notional", 250000.0)

	marketStore := store.New(logger.NewDev())
	pipe := NewPipeline("bybit", "perp", marketStore)

	now := time.Now()
	ts := now.Add(-time.Minute).UnixMilli()

	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTCUSDT", Price: 50000, Size: 0.1, Side: models.SideBuy, Time: ts, TradeID: "1"})
	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTCUSDT", Price: 50000, Size: 0.04, Side: models.SideSell, Time: ts + 1, TradeID: "2"})
	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTCUSDT", Price: 50000, Size: 0.04, Side: models.SideSell, Time: ts + 1, TradeID: "2"}) // dup
	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTCUSDT", Price: 50000, Size: 10, Side: models.SideBuy, Time: ts + 2, TradeID: "3"})    // whale

	pipe.flush(now)

	cvd := marketStore.CVDSeries("bybit", "BTC")
	require.Len(t, cvd, 1)
	// +5000 - 2000 + 500000, the duplicate dropped
	assert.InDelta(t, 503000.0, cvd[0].Delta, 1e-6)

	flows := marketStore.GetExchangeFlows("BTC", "5")
	require.Contains(t, flows, "bybit:perp")
	assert.InDelta(t, 505000.0, flows["bybit:perp"].BuyVolume, 1e-6)
	assert.InDelta(t, 2000.0, flows["bybit:perp"].SellVolume, 1e-6)

	whales := marketStore.GetLargeTrades(0)
	require.Len(t, whales, 1)
	assert.Equal(t, "3", whales[0].TradeID)
}

func TestPipelineDropsNonPositiveNotional(t *testing.T) {
	marketStore := store.New(logger.NewDev())
	pipe := NewPipeline("okx", "perp", marketStore)

	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTC-USDT-SWAP", Price: 0, Size: 1, Side: models.SideBuy, Time: time.Now().UnixMilli(), TradeID: "x"})

	pipe.flush(time.Now())
	assert.Empty(t, marketStore.CVDSeries("okx", "BTC"))
}

func TestPipelineSpotUpdatesSpotCVD(t *testing.T) {
	marketStore := store.New(logger.NewDev())
	pipe := NewPipeline("coinbase", "spot", marketStore)

	ts := time.Now().UnixMilli()
	pipe.OnTrade("BTC", &models.Trade{Symbol: "BTC-USD", Price: 50000, Size: 0.2, Side: models.SideBuy, Time: ts, TradeID: "a"})

	sc := marketStore.GetSpotCVD("coinbase", "BTC")
	require.NotNil(t, sc)
	assert.InDelta(t, 10000.0, sc.Cumulative, 1e-6)
}
