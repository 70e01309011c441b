package store

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/libs/storage/simpledb"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return New(logger.NewDev())
}

func TestAppendMonotonic(t *testing.T) {
	s := newTestStore()
	now := time.Now().UnixMilli()

	s.AddPrice("binance", "BTC", 50000, now)
	s.AddPrice("binance", "BTC", 50100, now-5000) // clock went backwards
	s.AddPrice("binance", "BTC", 50200, now+1000)

	prices := s.PriceSeries("binance", "BTC")
	require.Len(t, prices, 3)
	for i := 1; i < len(prices); i++ {
		assert.LessOrEqual(t, prices[i-1].Time, prices[i].Time)
	}
}

func TestCleanupRetention(t *testing.T) {
	s := newTestStore()
	now := time.Now()

	s.AddPrice("binance", "BTC", 49000, now.Add(-25*time.Hour).UnixMilli())
	s.AddPrice("binance", "BTC", 50000, now.Add(-1*time.Hour).UnixMilli())
	s.AddLiquidation("BTC", &models.LiquidationEvent{
		Symbol: "BTC", Side: models.SideSell, Price: 50000, Quantity: 1,
		Notional: 50000, Time: now.Add(-3 * time.Hour).UnixMilli(), Exchange: "binance",
	})
	s.AddLiquidation("BTC", &models.LiquidationEvent{
		Symbol: "BTC", Side: models.SideBuy, Price: 50000, Quantity: 1,
		Notional: 50000, Time: now.Add(-30 * time.Minute).UnixMilli(), Exchange: "binance",
	})

	s.Cleanup(now)

	cutoff := now.Add(-24 * time.Hour).UnixMilli()
	for _, p := range s.PriceSeries("binance", "BTC") {
		assert.GreaterOrEqual(t, p.Time, cutoff)
	}
	assert.Len(t, s.PriceSeries("binance", "BTC"), 1)
	assert.Len(t, s.GetLiquidations("BTC"), 1)
}

func TestCleanupEmptyStore(t *testing.T) {
	s := newTestStore()
	s.Cleanup(time.Now()) // must not panic
}

// Ordering holds within one exchange stream; across exchanges the
// per-bucket reduction must be commutative.
func TestAggregatedCVDPermutationInvariance(t *testing.T) {
	base := time.Now().UnixMilli() / 5000 * 5000

	perExchange := map[string][]struct {
		ts    int64
		delta float64
	}{
		"binance":  {{base + 100, 1000}, {base + 5100, 700}},
		"bybit":    {{base + 200, -400}, {base + 9900, -90}},
		"coinbase": {{base + 4900, 250}},
	}

	aggregate := func(order []string) []*models.CVDPoint {
		s := newTestStore()
		for _, exchange := range order {
			for _, d := range perExchange[exchange] {
				s.UpdateSpotCVD(exchange, "BTC", d.delta, d.ts)
			}
		}
		return s.GetAggregatedSpotCVDHistory("BTC")
	}

	expected := aggregate([]string{"binance", "bybit", "coinbase"})
	require.Len(t, expected, 2)
	assert.InDelta(t, 850.0, expected[0].Delta, 1e-9)
	assert.InDelta(t, 610.0, expected[1].Delta, 1e-9)

	exchanges := []string{"binance", "bybit", "coinbase"}
	for trial := 0; trial < 10; trial++ {
		order := append([]string(nil), exchanges...)
		rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		got := aggregate(order)
		require.Len(t, got, len(expected))
		for i := range expected {
			assert.Equal(t, expected[i].Time, got[i].Time)
			assert.InDelta(t, expected[i].Delta, got[i].Delta, 1e-9)
		}
	}
}

func TestLargeTradeDedup(t *testing.T) {
	s := newTestStore()
	now := time.Now().UnixMilli()

	trade := &models.LargeTrade{
		Exchange: "binance", Venue: "perp", Symbol: "BTC",
		Price: 50000, Size: 10, Notional: 500000, Side: models.SideBuy,
		TradeID: "t-1", Time: now, ReceivedAt: now,
	}

	assert.True(t, s.AddLargeTrade(trade))
	assert.False(t, s.AddLargeTrade(trade))

	seen := make(map[string]bool)
	for _, tr := range s.GetLargeTrades(0) {
		key := fmt.Sprintf("%s:%s:%s", tr.Exchange, tr.TradeID, tr.Symbol)
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestLargeTradesNewestFirst(t *testing.T) {
	s := newTestStore()
	now := time.Now().UnixMilli()

	for i := 0; i < 5; i++ {
		s.AddLargeTrade(&models.LargeTrade{
			Exchange: "binance", Symbol: "BTC", TradeID: fmt.Sprintf("t-%d", i),
			Notional: 300000, Time: now + int64(i),
		})
	}

	trades := s.GetLargeTrades(3)
	require.Len(t, trades, 3)
	assert.Equal(t, "t-4", trades[0].TradeID)
	assert.Equal(t, "t-3", trades[1].TradeID)
	assert.Equal(t, "t-2", trades[2].TradeID)
}

func TestSpotCVDRollingSums(t *testing.T) {
	s := newTestStore()
	now := time.Now().UnixMilli()

	s.UpdateSpotCVD("binance", "BTC", 100, now-2*60*60*1000) // outside every window
	s.UpdateSpotCVD("binance", "BTC", 200, now-30*60*1000)   // 1h only
	s.UpdateSpotCVD("binance", "BTC", 300, now-10*60*1000)   // 15m, 1h
	s.UpdateSpotCVD("binance", "BTC", 400, now-60*1000)      // 5m, 15m, 1h

	sc := s.GetSpotCVD("binance", "BTC")
	require.NotNil(t, sc)
	assert.InDelta(t, 1000.0, sc.Cumulative, 1e-9)
	assert.InDelta(t, 400.0, sc.Sum5m, 1e-9)
	assert.InDelta(t, 700.0, sc.Sum15m, 1e-9)
	assert.InDelta(t, 900.0, sc.Sum1h, 1e-9)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := simpledb.NewStorage(logger.NewDev(), dir+"/datastore.json")
	require.NoError(t, err)

	s := newTestStore()
	now := time.Now()

	s.AddPrice("binance", "BTC", 50000, now.Add(-25*time.Hour).UnixMilli()) // expired
	s.AddPrice("binance", "BTC", 51000, now.Add(-1*time.Hour).UnixMilli())
	s.AddOpenInterest("binance", "BTC", 2e9, now.Add(-1*time.Hour).UnixMilli())
	s.UpdateSpotCVD("coinbase", "BTC", 12345, now.Add(-10*time.Minute).UnixMilli())
	s.AddLargeTrade(&models.LargeTrade{Exchange: "binance", Symbol: "BTC", TradeID: "w-1", Notional: 1e6, Time: now.UnixMilli()})

	require.True(t, s.Dirty())
	s.Save(db, now)
	assert.False(t, s.Dirty())

	restored := newTestStore()
	restored.Restore(db, now)

	prices := restored.PriceSeries("binance", "BTC")
	require.Len(t, prices, 1) // the expired point was filtered on restore
	assert.Equal(t, 51000.0, prices[0].Value)

	oi := restored.OISeries("binance", "BTC")
	require.Len(t, oi, 1)
	assert.Equal(t, 2e9, oi[0].Value)

	sc := restored.GetSpotCVD("coinbase", "BTC")
	require.NotNil(t, sc)
	require.Len(t, sc.Series, 1)

	assert.Len(t, restored.GetLargeTrades(0), 1)
	assert.False(t, restored.Dirty())
}

func TestSaveSkippedWhenClean(t *testing.T) {
	dir := t.TempDir()
	db, err := simpledb.NewStorage(logger.NewDev(), dir+"/datastore.json")
	require.NoError(t, err)

	s := newTestStore()
	s.Save(db, time.Now())

	restored := newTestStore()
	restored.Restore(db, time.Now()) // nothing saved, restore is a no-op
	assert.Empty(t, restored.Exchanges())
}
