package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

// Cascade labels.
const (
	CascadeBearish         = "BEARISH_CASCADE"
	CascadeBullish         = "BULLISH_CASCADE"
	CascadeLongExhaustion  = "LONG_EXHAUSTION"
	CascadeShortExhaustion = "SHORT_EXHAUSTION"
	CascadeNeutral         = "NEUTRAL"
)

const (
	cascadeMajorNotional    = 50_000_000
	cascadeModerateNotional = 20_000_000
	cascadeMinorNotional    = 10_000_000
)

func liquidationSums(events []*models.LiquidationEvent, now time.Time, window time.Duration) (total, longs, shorts float64) {
	start := now.Add(-window).UnixMilli()

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Time < start {
			break
		}
		total += e.Notional
		if e.Side == models.SideSell {
			longs += e.Notional
		} else {
			shorts += e.Notional
		}
	}

	return total, longs, shorts
}

// LiquidationCascade detects accelerating one-sided forced flow. A long
// cascade is bearish while it runs; a spent cascade flips contrarian.
func LiquidationCascade(events []*models.LiquidationEvent, now time.Time) *models.Signal {
	if len(events) == 0 {
		return insufficient("liquidation_cascade")
	}

	sum5m, _, _ := liquidationSums(events, now, 5*time.Minute)
	sum15m, _, _ := liquidationSums(events, now, 15*time.Minute)
	sum1h, longs1h, shorts1h := liquidationSums(events, now, time.Hour)
	sum2h, longs2h, shorts2h := liquidationSums(events, now, 2*time.Hour)

	rate5m := sum5m / 5
	rate15m := sum15m / 15
	rate1h := sum1h / 60

	accelerating := sum5m > 0 && rate5m > 1.5*rate15m && rate15m > 1.2*rate1h

	longDominant := longs1h > 1.5*shorts1h
	shortDominant := shorts1h > 1.5*longs1h

	signal := &models.Signal{
		Name:  "liquidation_cascade",
		Label: CascadeNeutral,
		Meta: map[string]float64{
			"sum_5m":    sum5m,
			"sum_15m":   sum15m,
			"sum_1h":    sum1h,
			"sum_2h":    sum2h,
			"longs_1h":  longs1h,
			"shorts_1h": shorts1h,
		},
	}

	magnitude := 0.0
	switch {
	case sum1h >= cascadeMajorNotional:
		magnitude = 0.85
	case sum1h >= cascadeModerateNotional:
		magnitude = 0.55
	case sum1h >= cascadeMinorNotional:
		magnitude = 0.30
	}

	switch {
	case accelerating && longDominant && magnitude > 0:
		signal.Label = CascadeBearish
		signal.Score = -magnitude
	case accelerating && shortDominant && magnitude > 0:
		signal.Label = CascadeBullish
		signal.Score = magnitude
	case !accelerating && sum2h > cascadeMajorNotional:
		// exhaustion: the flush already happened, lean the other way
		if longs2h > 1.5*shorts2h {
			signal.Label = CascadeLongExhaustion
			signal.Score = 0.40
		} else if shorts2h > 1.5*longs2h {
			signal.Label = CascadeShortExhaustion
			signal.Score = -0.40
		}
	}

	return signal
}
