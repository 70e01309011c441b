package projection

import (
	"time"

	"github.com/cinar/indicator"

	"github.com/anvh2/market-bias/internal/models"
)

const (
	atrPeriod       = 14
	candleBucketMs  = 5 * 60 * 1000
	invalidationWin = 4 * time.Hour
)

// bucketCandles folds the sampled price series into 5-minute OHLC candles.
func bucketCandles(prices []*models.Point, now time.Time, window time.Duration) []*models.Candle {
	start := now.Add(-window).UnixMilli()

	var candles []*models.Candle
	var current *models.Candle

	for _, p := range prices {
		if p.Time < start {
			continue
		}

		bucket := p.Time / candleBucketMs * candleBucketMs
		if current == nil || current.OpenTime != bucket {
			current = &models.Candle{
				OpenTime:  bucket,
				CloseTime: bucket + candleBucketMs - 1,
				Open:      p.Value,
				High:      p.Value,
				Low:       p.Value,
				Close:     p.Value,
			}
			candles = append(candles, current)
			continue
		}

		if p.Value > current.High {
			current.High = p.Value
		}
		if p.Value < current.Low {
			current.Low = p.Value
		}
		current.Close = p.Value
	}

	return candles
}

// invalidationLevels computes the swing band widened by a fraction of ATR.
// For a directional call the relevant side is the stop; for neutral the
// band is the breakout range.
func invalidationLevels(prices []*models.Point, now time.Time, atrFactor float64, window time.Duration) (swingLow, swingHigh float64, ok bool) {
	candles := bucketCandles(prices, now, window)
	if len(candles) < 2 {
		return 0, 0, false
	}

	high := make([]float64, len(candles))
	low := make([]float64, len(candles))
	closing := make([]float64, len(candles))

	swingLow, swingHigh = candles[0].Low, candles[0].High
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closing[i] = c.Close
		if c.Low < swingLow {
			swingLow = c.Low
		}
		if c.High > swingHigh {
			swingHigh = c.High
		}
	}

	atrValue := 0.0
	if len(candles) > atrPeriod {
		_, atr := indicator.Atr(atrPeriod, high, low, closing)
		atrValue = atr[len(atr)-1]
	} else {
		// not enough candles for a full ATR, fall back to the mean range
		sum := 0.0
		for i := range candles {
			sum += high[i] - low[i]
		}
		atrValue = sum / float64(len(candles))
	}

	return swingLow - atrFactor*atrValue, swingHigh + atrFactor*atrValue, true
}

func invalidationFor(prices []*models.Point, now time.Time, dir string, atrFactor float64) *models.Invalidation {
	low, high, ok := invalidationLevels(prices, now, atrFactor, invalidationWin)
	if !ok {
		return nil
	}

	switch dir {
	case models.DirectionBullish:
		return &models.Invalidation{Level: low, Basis: "swing_low_minus_atr"}
	case models.DirectionBearish:
		return &models.Invalidation{Level: high, Basis: "swing_high_plus_atr"}
	default:
		return &models.Invalidation{RangeLow: low, RangeHigh: high, Basis: "breakout_range"}
	}
}
