package projection

import (
	"testing"
	"time"

	cache "github.com/anvh2/market-bias/internal/cache/projection"
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMarket struct {
	prices  map[string][]*models.Point // keyed exchange
	oi      []*models.Point
	funding []*models.Point
	cvd     []*models.CVDPoint
	spot6h  float64
	perp6h  float64
	whales  *models.WhaleConsensus
}

func (f *fakeMarket) PriceSeries(exchange, coin string) []*models.Point { return f.prices[exchange] }
func (f *fakeMarket) OISeries(exchange, coin string) []*models.Point    { return f.oi }
func (f *fakeMarket) FundingSeries(exchange, coin string) []*models.Point {
	return f.funding
}
func (f *fakeMarket) GetAggregatedPerpCVDHistory(coin string) []*models.CVDPoint { return f.cvd }
func (f *fakeMarket) AggregatedCVDDeltaSince(coin string, since time.Time) float64 {
	return f.perp6h
}
func (f *fakeMarket) AggregatedSpotCVDDeltaSince(coin string, since time.Time) float64 {
	return f.spot6h
}
func (f *fakeMarket) GetWhaleConsensus(coin string) *models.WhaleConsensus { return f.whales }
func (f *fakeMarket) GetLiquidations(coin string) []*models.LiquidationEvent {
	return nil
}

type fakeTracker struct {
	recorded []*models.Prediction
	reject   bool
}

func (f *fakeTracker) Record(p *models.Prediction) bool {
	if f.reject {
		return false
	}
	f.recorded = append(f.recorded, p)
	return true
}

func (f *fakeTracker) Performance(coin string) interface{} {
	return map[string]int{"total": len(f.recorded)}
}

func points(now time.Time, step time.Duration, values []float64) []*models.Point {
	out := make([]*models.Point, len(values))
	start := now.Add(-step * time.Duration(len(values)-1))
	for i, v := range values {
		out[i] = &models.Point{Time: start.Add(step * time.Duration(i)).UnixMilli(), Value: v}
	}
	return out
}

func flat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rampTo(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func newEngine(market MarketData, tracker Recorder) *Engine {
	return NewEngine(logger.NewDev(), market, cache.NewCache(), tracker)
}

// S1 composite: crowded longs with flat momentum tilt the 12h bearish.
func TestTwelveHourRegimeContrarian(t *testing.T) {
	now := time.Now()

	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance": points(now, 5*time.Minute, flat(50000, 60)),
		},
		oi:      points(now, 5*time.Minute, rampTo(1_000_000_000, 1_020_000_000, 13)),
		funding: points(now, 5*time.Minute, flat(0.001, 13)), // ~109.5% APR
	}

	tracker := &fakeTracker{}
	engine := newEngine(market, tracker)

	out := engine.TwelveHour("BTC", now)
	require.Equal(t, models.StatusActive, out.Status)
	assert.Equal(t, signals.RegimeLongCrowded, out.Components["regime"].Label)
	assert.Less(t, out.Prediction.Score, 0.0)
	assert.Equal(t, models.DirectionBearish, out.Prediction.Direction)
}

// invariant 8: score equals the weighted mean over contributing factors.
func TestTwelveHourWeightedSumIdentity(t *testing.T) {
	now := time.Now()

	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance": points(now, 5*time.Minute, rampTo(50000, 51000, 60)),
		},
		oi:      points(now, 5*time.Minute, rampTo(1e9, 1.02e9, 60)),
		funding: points(now, 5*time.Minute, flat(0.0001, 60)),
	}

	engine := newEngine(market, &fakeTracker{})
	out := engine.TwelveHour("BTC", now)
	require.Equal(t, models.StatusActive, out.Status)

	sum, weightSum := 0.0, 0.0
	for name, weight := range twelveHourWeights {
		signal := out.Components[name]
		if signal == nil || signal.Label == models.LabelInsufficientData {
			continue
		}
		sum += weight * signal.Score
		weightSum += weight
	}

	require.Greater(t, weightSum, 0.0)
	assert.InDelta(t, sum/weightSum, out.Prediction.Score, 1e-9)

	// no whale data: its 0.15 must be out of the denominator
	assert.Equal(t, models.LabelInsufficientData, out.Components["whales"].Label)
	assert.Less(t, weightSum, 1.0)
}

func TestTwelveHourCollecting(t *testing.T) {
	engine := newEngine(&fakeMarket{prices: map[string][]*models.Point{}}, &fakeTracker{})
	out := engine.TwelveHour("BTC", time.Now())
	assert.Equal(t, models.StatusCollecting, out.Status)
	assert.Nil(t, out.Prediction)
}

// S5 shape: over the whole series two venues rise and one falls, but no
// venue moves past 0.3% in the 1h agreement window, so agreement is 0 and
// the Daily is vetoed.
func TestDailyVeto(t *testing.T) {
	now := time.Now()

	n := 300 // past the warm-up band
	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance":     points(now, 5*time.Minute, rampTo(100, 100.9, n)),
			"hyperliquid": points(now, 5*time.Minute, rampTo(100, 101, n)),
			"bybit":       points(now, 5*time.Minute, rampTo(100, 99.2, n)),
		},
		oi:      points(now, 5*time.Minute, flat(1e9, n)),
		funding: points(now, 8*time.Hour, flat(0.0001, 90)),
		cvd:     nil,
	}
	market.cvd = cvdPoints(now, 5*time.Minute, flat(1000, n))

	tracker := &fakeTracker{}
	engine := newEngine(market, tracker)

	out := engine.Daily("BTC", now)
	assert.Equal(t, models.StatusVeto, out.Status)
	assert.Nil(t, out.Prediction)
	assert.Empty(t, tracker.recorded) // vetoed projections are not recorded
}

func TestDailyWarmingUp(t *testing.T) {
	now := time.Now()

	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance": points(now, 5*time.Minute, flat(50000, 12)),
		},
		oi:      points(now, 5*time.Minute, flat(1e9, 12)),
		funding: points(now, 5*time.Minute, flat(0.0001, 12)),
	}

	engine := newEngine(market, &fakeTracker{})
	out := engine.Daily("BTC", now)
	assert.Equal(t, models.StatusWarmingUp, out.Status)
}

func TestFourHourGradeAndRecord(t *testing.T) {
	now := time.Now()

	n := 60
	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance": points(now, 5*time.Minute, rampTo(100, 101.2, n)),
		},
		oi:  points(now, 5*time.Minute, rampTo(1e9, 1.03e9, n)),
		cvd: cvdPoints(now, 5*time.Minute, flat(1_000_000, n)),
	}

	tracker := &fakeTracker{}
	engine := newEngine(market, tracker)

	out := engine.FourHour("BTC", now)
	require.Equal(t, models.StatusActive, out.Status)
	assert.Greater(t, out.Prediction.Score, 0.6)
	assert.Equal(t, "A+", out.Prediction.Grade)
	require.NotNil(t, out.Invalidation)
	assert.Greater(t, out.Invalidation.Level, 0.0)

	require.Len(t, tracker.recorded, 1)
	assert.Equal(t, constants.ProjectionType4Hr, tracker.recorded[0].Type)
	assert.Equal(t, models.DirectionBullish, tracker.recorded[0].PredictedDirection)
}

// invariant 5: cached reads inside the TTL share generated_at.
func TestCachedProjectionCoherence(t *testing.T) {
	now := time.Now()

	n := 60
	market := &fakeMarket{
		prices: map[string][]*models.Point{
			"binance": points(now, 5*time.Minute, rampTo(100, 101.2, n)),
		},
		oi:  points(now, 5*time.Minute, rampTo(1e9, 1.03e9, n)),
		cvd: cvdPoints(now, 5*time.Minute, flat(1_000_000, n)),
	}

	engine := newEngine(market, &fakeTracker{})

	first := engine.Get4Hr("BTC")
	second := engine.Get4Hr("BTC")
	require.Equal(t, models.StatusActive, first.Status)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
}

func cvdPoints(now time.Time, step time.Duration, deltas []float64) []*models.CVDPoint {
	out := make([]*models.CVDPoint, len(deltas))
	start := now.Add(-step * time.Duration(len(deltas)-1))
	for i, d := range deltas {
		out[i] = &models.CVDPoint{Time: start.Add(step * time.Duration(i)).UnixMilli(), Delta: d}
	}
	return out
}
