package signals

import (
	"math/rand"
	"testing"
	"time"

	"github.com/anvh2/market-bias/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(now time.Time, step time.Duration, values ...float64) []*models.Point {
	points := make([]*models.Point, len(values))
	start := now.Add(-step * time.Duration(len(values)-1))
	for i, v := range values {
		points[i] = &models.Point{Time: start.Add(step * time.Duration(i)).UnixMilli(), Value: v}
	}
	return points
}

func TestMomentumInsufficient(t *testing.T) {
	signal := Momentum(nil, time.Now())
	assert.Equal(t, 0.0, signal.Score)
	assert.Equal(t, models.LabelInsufficientData, signal.Label)
}

func TestMomentumSaturation(t *testing.T) {
	now := time.Now()
	// +10% over 4h saturates the score at +1
	prices := series(now, 30*time.Minute, 100, 101, 102, 103, 104, 105, 107, 109, 110)
	signal := Momentum(prices, now)
	assert.Equal(t, 1.0, signal.Score)
	assert.Equal(t, models.DirectionBullish, signal.Label)
}

// S1 variant: flat price, OI +2% in 1h, funding 0.0001/8h (10.95% APR)
// lands in the healthy-long band.
func TestRegimeHealthyLong(t *testing.T) {
	now := time.Now()

	prices := series(now, 5*time.Minute, repeat(50000, 13)...)
	oi := series(now, 5*time.Minute, ramp(1_000_000_000, 1_020_000_000, 13)...)
	funding := series(now, 5*time.Minute, repeat(0.0001, 13)...)

	signal := Regime(oi, funding, prices, now, "binance")
	assert.Equal(t, RegimeHealthyLong, signal.Label)
	assert.Equal(t, 0.4, signal.Score)
	assert.InDelta(t, 10.95, signal.Meta["funding_apr"], 0.01)
}

// S1: rising OI with funding deep above the 30% APR crowding line.
func TestRegimeLongCrowded(t *testing.T) {
	now := time.Now()

	prices := series(now, 5*time.Minute, repeat(50000, 13)...)
	oi := series(now, 5*time.Minute, ramp(1_000_000_000, 1_020_000_000, 13)...)
	funding := series(now, 5*time.Minute, repeat(0.001, 13)...)

	signal := Regime(oi, funding, prices, now, "binance")
	assert.InDelta(t, 109.5, signal.Meta["funding_apr"], 0.01)
	assert.Equal(t, RegimeLongCrowded, signal.Label)
	assert.Equal(t, -0.6, signal.Score)
}

func TestRegimeCapitulation(t *testing.T) {
	now := time.Now()

	prices := series(now, 5*time.Minute, ramp(50000, 49000, 13)...) // -2%
	oi := series(now, 5*time.Minute, ramp(1_000_000_000, 960_000_000, 13)...)
	funding := series(now, 5*time.Minute, repeat(0.0001, 13)...)

	signal := Regime(oi, funding, prices, now, "binance")
	assert.Equal(t, RegimeCapitulation, signal.Label)
	assert.Equal(t, 0.3, signal.Score)
}

// S2: spot 6h delta +$60M vs perp -$40M is a capitulation bottom.
func TestSpotPerpCapitulationBottom(t *testing.T) {
	signal := SpotPerpDivergence(60_000_000, -40_000_000, "BTC", true)
	assert.Equal(t, DivergenceCapitulationBottom, signal.Label)
	assert.Equal(t, 0.75, signal.Score)
}

func TestSpotPerpMatrix(t *testing.T) {
	cases := []struct {
		spot, perp float64
		label      string
		score      float64
	}{
		{60e6, 0, DivergenceSpotAccumulation, 0.85},
		{60e6, 40e6, DivergenceAlignedBullish, 0.50},
		{-60e6, 40e6, DivergenceFakePump, -0.85},
		{-60e6, 0, DivergenceDistribution, -0.70},
		{-60e6, -40e6, DivergenceAlignedBearish, -0.50},
		{0, 0, DivergenceNeutral, 0},
	}

	for _, c := range cases {
		signal := SpotPerpDivergence(c.spot, c.perp, "BTC", true)
		assert.Equal(t, c.label, signal.Label, "spot=%v perp=%v", c.spot, c.perp)
		assert.Equal(t, c.score, signal.Score)
	}
}

// S3: $55M long vs $5M short liquidated in 1h, accelerating.
func TestLiquidationCascadeBearish(t *testing.T) {
	now := time.Now()
	events := []*models.LiquidationEvent{}

	add := func(age time.Duration, side string, notional float64) {
		events = append(events, &models.LiquidationEvent{
			Symbol: "BTC", Side: side, Price: 50000,
			Quantity: notional / 50000, Notional: notional,
			Time: now.Add(-age).UnixMilli(), Exchange: "binance",
		})
	}

	// old, slow tail then a violent 5m burst
	add(55*time.Minute, models.SideSell, 5_000_000)
	add(40*time.Minute, models.SideSell, 5_000_000)
	add(30*time.Minute, models.SideBuy, 5_000_000)
	add(12*time.Minute, models.SideSell, 10_000_000)
	add(3*time.Minute, models.SideSell, 20_000_000)
	add(1*time.Minute, models.SideSell, 15_000_000)

	signal := LiquidationCascade(events, now)
	assert.Equal(t, CascadeBearish, signal.Label)
	assert.Equal(t, -0.85, signal.Score)
}

func TestLiquidationExhaustion(t *testing.T) {
	now := time.Now()
	events := []*models.LiquidationEvent{
		{Side: models.SideSell, Notional: 60_000_000, Time: now.Add(-90 * time.Minute).UnixMilli()},
	}

	signal := LiquidationCascade(events, now)
	assert.Equal(t, CascadeLongExhaustion, signal.Label)
	assert.Equal(t, 0.40, signal.Score)
}

// S4: 90 days of 8h funding around 0.0001, current spikes to 0.0005.
func TestFundingZScoreExtreme(t *testing.T) {
	now := time.Now()
	points := make([]*models.Point, 0, 271)

	start := now.Add(-90 * 24 * time.Hour)
	for i := 0; i < 270; i++ {
		rate := 0.00009
		if i%2 == 0 {
			rate = 0.00011
		}
		points = append(points, &models.Point{
			Time:  start.Add(time.Duration(i) * 8 * time.Hour).UnixMilli(),
			Value: rate,
		})
	}
	points = append(points, &models.Point{Time: now.UnixMilli(), Value: 0.0005})

	signal := FundingZScore(points, now)
	assert.Equal(t, FundingExtremeLong, signal.Label)
	assert.Equal(t, -0.9, signal.Score)
	assert.Greater(t, signal.Meta["z"], 2.5)
}

func TestFundingZScoreInsufficient(t *testing.T) {
	signal := FundingZScore(nil, time.Now())
	assert.Equal(t, models.LabelInsufficientData, signal.Label)
}

// S5: 2-of-3 exchanges agree -> agreement ~0.67, below the Daily veto gate.
func TestCrossExchangeSplit(t *testing.T) {
	now := time.Now()

	prices := map[string][]*models.Point{
		"hyperliquid": series(now, 5*time.Minute, ramp(100, 101, 13)...),  // +1.0%
		"binance":     series(now, 5*time.Minute, ramp(100, 100.9, 13)...), // +0.9%
		"bybit":       series(now, 5*time.Minute, ramp(100, 99.2, 13)...),  // -0.8%
	}

	signal := CrossExchangeConfluence(prices, now)
	assert.InDelta(t, 2.0/3.0, signal.Meta["agreement"], 1e-9)
	assert.Less(t, signal.Meta["agreement"], CrossExchangeAgreementVeto)
	assert.Equal(t, 0.0, signal.Score)
}

func TestCrossExchangeFullAgreement(t *testing.T) {
	now := time.Now()

	prices := map[string][]*models.Point{
		"hyperliquid": series(now, 5*time.Minute, ramp(100, 101, 13)...),
		"binance":     series(now, 5*time.Minute, ramp(100, 101, 13)...),
		"bybit":       series(now, 5*time.Minute, ramp(100, 101, 13)...),
	}

	signal := CrossExchangeConfluence(prices, now)
	assert.Equal(t, 1.0, signal.Meta["agreement"])
	assert.Equal(t, 0.70, signal.Score)
}

func TestFlowConfluenceAllBullish(t *testing.T) {
	now := time.Now()

	prices := series(now, 5*time.Minute, ramp(100, 102, 25)...)    // ~1% per hour, strong
	oi := series(now, 5*time.Minute, ramp(1e9, 1.05e9, 25)...)     // ~2.4% per hour, strong
	cvd := cvdSeries(now, 5*time.Minute, repeat(1_000_000, 25)...) // far above strong

	signal := FlowConfluence(prices, oi, cvd, "BTC", now)
	assert.Equal(t, 1.0, signal.Score)
	assert.Equal(t, ConfluenceStrongBull, signal.Label)
}

func TestLiquidationZones(t *testing.T) {
	zones := LiquidationZones(50000, 40, 4_000_000_000, 25)
	require.NotNil(t, zones)
	assert.Equal(t, 110.0, zones.Leverage)
	assert.Less(t, zones.LongLiq, 50000.0)
	assert.Greater(t, zones.ShortLiq, 50000.0)
	assert.GreaterOrEqual(t, zones.LongLiq, 50000*0.98)
	assert.LessOrEqual(t, zones.ShortLiq, 50000*1.02)
	assert.Equal(t, ZoneProbabilityHigh, zones.Probability)
}

func TestWhaleAlignment(t *testing.T) {
	assert.Equal(t, models.LabelInsufficientData, WhaleAlignment(nil).Label)
	assert.Equal(t, models.LabelInsufficientData, WhaleAlignment(&models.WhaleConsensus{TotalPositions: 2}).Label)

	signal := WhaleAlignment(&models.WhaleConsensus{
		TotalPositions: 10, LongPct: 0.8, ConsistentLongs: 3, ConsistentShorts: 1,
	})
	assert.InDelta(t, 0.8, signal.Score, 1e-9)
	assert.Equal(t, models.DirectionBullish, signal.Label)
}

func TestDataCompleteness(t *testing.T) {
	c := DataCompleteness(288, 288, 288, 720)
	assert.Equal(t, CompletenessFull, c.Band)
	assert.Equal(t, 1.0, c.Overall)

	c = DataCompleteness(20, 20, 20, 20)
	assert.Equal(t, CompletenessWarmingUp, c.Band)

	c = DataCompleteness(150, 150, 150, 300)
	assert.Equal(t, CompletenessLow, c.Band)
	assert.Equal(t, 0.40, c.ConfidenceCap())
}

func TestSignalFreshness(t *testing.T) {
	fresh := SignalFreshness(0)
	assert.Equal(t, 1.0, fresh.Factor)
	assert.False(t, fresh.ShouldRefresh)

	old := SignalFreshness(5)
	assert.True(t, old.ShouldRefresh)
	assert.False(t, old.IsStale)

	stale := SignalFreshness(30)
	assert.True(t, stale.IsStale)
	assert.Equal(t, 0.60, stale.Factor)
}

// Score clamping must survive adversarial inputs.
func TestScoreClampingProperty(t *testing.T) {
	now := time.Now()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := 2 + rng.Intn(40)
		prices := make([]*models.Point, n)
		oi := make([]*models.Point, n)
		cvd := make([]*models.CVDPoint, n)
		start := now.Add(-6 * time.Hour)
		for i := 0; i < n; i++ {
			ts := start.Add(time.Duration(i) * 9 * time.Minute).UnixMilli()
			prices[i] = &models.Point{Time: ts, Value: rng.Float64() * 1e6}
			oi[i] = &models.Point{Time: ts, Value: rng.Float64() * 1e11}
			cvd[i] = &models.CVDPoint{Time: ts, Delta: (rng.Float64() - 0.5) * 1e9}
		}

		for _, signal := range []*models.Signal{
			Momentum(prices, now),
			CVDPersistence(cvd, "BTC", now),
			OIRateOfChange(oi, prices, now),
			FlowConfluence(prices, oi, cvd, "BTC", now),
			SpotPerpDivergence((rng.Float64()-0.5)*1e10, (rng.Float64()-0.5)*1e10, "BTC", true),
		} {
			assert.GreaterOrEqual(t, signal.Score, -1.0, signal.Name)
			assert.LessOrEqual(t, signal.Score, 1.0, signal.Name)
		}
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func ramp(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}

func cvdSeries(now time.Time, step time.Duration, deltas ...float64) []*models.CVDPoint {
	points := make([]*models.CVDPoint, len(deltas))
	start := now.Add(-step * time.Duration(len(deltas)-1))
	for i, d := range deltas {
		points[i] = &models.CVDPoint{Time: start.Add(step * time.Duration(i)).UnixMilli(), Delta: d}
	}
	return points
}
