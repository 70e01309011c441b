package tracker

import (
	"errors"
	"testing"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/libs/storage/simpledb"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrices struct {
	prices map[string]float64 // keyed exchange
}

func (f *fakePrices) CurrentPrice(exchange, coin string) (float64, error) {
	price, ok := f.prices[exchange]
	if !ok {
		return 0, errors.New("no price")
	}
	return price, nil
}

func prediction(coin, projectionType string, ts int64, price float64, direction string) *models.Prediction {
	return &models.Prediction{
		Coin:               coin,
		Type:               projectionType,
		Time:               ts,
		InitialPrice:       price,
		PredictedBias:      direction,
		PredictedDirection: direction,
		Score:              0.5,
		Strength:           direction,
		ConfidenceLevel:    "MEDIUM",
	}
}

// invariant 6: a second record inside the cooldown window is rejected.
func TestRecordCooldown(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now().UnixMilli()

	assert.True(t, tr.Record(prediction("BTC", constants.ProjectionType12Hr, now, 50000, models.DirectionBullish)))
	assert.False(t, tr.Record(prediction("BTC", constants.ProjectionType12Hr, now+time.Hour.Milliseconds(), 50100, models.DirectionBullish)))

	// a different type or coin is unaffected
	assert.True(t, tr.Record(prediction("BTC", constants.ProjectionTypeCVD2Hr, now, 50000, models.DirectionBullish)))
	assert.True(t, tr.Record(prediction("ETH", constants.ProjectionType12Hr, now, 3000, models.DirectionBearish)))

	// past the window the same (coin, type) records again
	later := now + (4*time.Hour + time.Minute).Milliseconds()
	assert.True(t, tr.Record(prediction("BTC", constants.ProjectionType12Hr, later, 50200, models.DirectionBullish)))
}

// invariant 7: nothing is evaluated before its type's delay.
func TestEvaluationDelay(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now()

	tr.Record(prediction("BTC", constants.ProjectionType12Hr, now.UnixMilli(), 50000, models.DirectionBullish))

	source := &fakePrices{prices: map[string]float64{"binance": 50600}}

	assert.Equal(t, 0, tr.Evaluate(source, now.Add(7*time.Hour)))
	for _, p := range tr.Predictions("BTC", 0) {
		assert.False(t, p.Evaluated)
	}

	assert.Equal(t, 1, tr.Evaluate(source, now.Add(8*time.Hour)))
}

// S6: BTC 12h bullish at 50000, price 50600 after 8h -> correct.
func TestEvaluateCorrect(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now()

	tr.Record(prediction("BTC", constants.ProjectionType12Hr, now.UnixMilli(), 50000, models.DirectionBullish))

	source := &fakePrices{prices: map[string]float64{"binance": 50600}}
	require.Equal(t, 1, tr.Evaluate(source, now.Add(8*time.Hour)))

	records := tr.Predictions("BTC", 1)
	require.Len(t, records, 1)
	p := records[0]
	assert.True(t, p.Evaluated)
	assert.Equal(t, models.OutcomeCorrect, p.Outcome)
	require.NotNil(t, p.ActualChangePct)
	assert.InDelta(t, 1.2, *p.ActualChangePct, 1e-9)

	agg := tr.Aggregates("BTC")["BTC"]
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.Correct)
	assert.Equal(t, 100.0, agg.WinRate)
}

func TestEvaluateFallbackAndInconclusive(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now()

	tr.Record(prediction("BTC", constants.ProjectionTypeCVD2Hr, now.UnixMilli(), 50000, models.DirectionBearish))

	// binance missing, hyperliquid serves the read
	source := &fakePrices{prices: map[string]float64{"hyperliquid": 49000}}
	require.Equal(t, 1, tr.Evaluate(source, now.Add(2*time.Hour)))
	p := tr.Predictions("BTC", 1)[0]
	assert.Equal(t, models.OutcomeCorrect, p.Outcome)

	// no venue has a price: inconclusive
	tr2 := New(logger.NewDev())
	tr2.Record(prediction("BTC", constants.ProjectionTypeCVD2Hr, now.UnixMilli(), 50000, models.DirectionBullish))
	require.Equal(t, 1, tr2.Evaluate(&fakePrices{}, now.Add(2*time.Hour)))
	assert.Equal(t, models.OutcomeInconclusive, tr2.Predictions("BTC", 1)[0].Outcome)
}

func TestEvaluateNeutralBand(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now()

	tr.Record(prediction("BTC", constants.ProjectionType4Hr, now.UnixMilli(), 50000, models.DirectionNeutral))

	// +0.3% stays inside the neutral band
	source := &fakePrices{prices: map[string]float64{"binance": 50150}}
	tr.Evaluate(source, now.Add(3*time.Hour))
	assert.Equal(t, models.OutcomeCorrect, tr.Predictions("BTC", 1)[0].Outcome)
}

func TestEquityCurveAndStreaks(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now()

	// three records spaced past the cooldown, evaluated against a fixed price
	times := []int64{
		now.Add(-20 * time.Hour).UnixMilli(),
		now.Add(-14 * time.Hour).UnixMilli(),
		now.Add(-9 * time.Hour).UnixMilli(),
	}
	directions := []string{models.DirectionBullish, models.DirectionBullish, models.DirectionBearish}
	for i, ts := range times {
		require.True(t, tr.Record(prediction("BTC", constants.ProjectionType12Hr, ts, 50000, directions[i])))
	}

	source := &fakePrices{prices: map[string]float64{"binance": 51000}} // +2% -> bullish
	tr.Evaluate(source, now)

	curve := tr.EquityCurve(&Filter{Coin: "BTC"}, 10000)
	require.Len(t, curve, 3)
	assert.InDelta(t, 10000*1.02, curve[0].Equity, 1e-6)
	assert.InDelta(t, 10000*1.02*1.02, curve[1].Equity, 1e-6)
	assert.InDelta(t, 10000*1.02*1.02*0.985, curve[2].Equity, 1e-6)

	streaks := tr.StreakStats(&Filter{Coin: "BTC"})
	assert.Equal(t, 2, streaks.LongestWin)
	assert.Equal(t, 1, streaks.LongestLoss)
	assert.Equal(t, -1, streaks.Current)
}

func TestQueryFilters(t *testing.T) {
	tr := New(logger.NewDev())
	now := time.Now().UnixMilli()

	tr.Record(prediction("BTC", constants.ProjectionType12Hr, now, 50000, models.DirectionBullish))
	tr.Record(prediction("ETH", constants.ProjectionTypeDaily, now, 3000, models.DirectionBearish))

	assert.Len(t, tr.Query(&Filter{Coin: "BTC"}), 1)
	assert.Len(t, tr.Query(&Filter{Type: constants.ProjectionTypeDaily}), 1)
	assert.Len(t, tr.Query(&Filter{From: now + 1}), 0)
	assert.Len(t, tr.Query(nil), 2)
}

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	db, err := simpledb.NewStorage(logger.NewDev(), dir+"/winrates.json")
	require.NoError(t, err)

	tr := New(logger.NewDev())
	now := time.Now()

	require.True(t, tr.Record(prediction("BTC", constants.ProjectionType12Hr, now.UnixMilli(), 50000, models.DirectionBullish)))
	tr.Save(db, now)

	restored := New(logger.NewDev())
	restored.Restore(db)

	assert.Len(t, restored.Predictions("BTC", 0), 1)

	// the cooldown index survives the round trip
	assert.False(t, restored.Record(prediction("BTC", constants.ProjectionType12Hr, now.UnixMilli()+1000, 50100, models.DirectionBullish)))
}

func TestSavePrunesOldRecords(t *testing.T) {
	dir := t.TempDir()
	db, err := simpledb.NewStorage(logger.NewDev(), dir+"/winrates.json")
	require.NoError(t, err)

	tr := New(logger.NewDev())
	now := time.Now()

	old := prediction("BTC", constants.ProjectionType12Hr, now.Add(-366*24*time.Hour).UnixMilli(), 40000, models.DirectionBullish)
	require.True(t, tr.Record(old))
	require.True(t, tr.Record(prediction("BTC", constants.ProjectionTypeDaily, now.UnixMilli(), 50000, models.DirectionBullish)))

	tr.Save(db, now)
	assert.Len(t, tr.Predictions("BTC", 0), 1)
}
