package signals

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

// ComputeVWAP derives a rolling VWAP over the window, using per-bucket
// absolute CVD notional as the volume weight. Bands sit one standard
// deviation of the weighted price around the value.
func ComputeVWAP(coin string, prices []*models.Point, cvd []*models.CVDPoint, now time.Time, window time.Duration) *models.VWAP {
	start := now.Add(-window).UnixMilli()

	volumes := make(map[int64]float64)
	for _, p := range cvd {
		if p.Time < start {
			continue
		}
		bucket := p.Time / aggVWAPBucketMs
		volumes[bucket] += math.Abs(p.Delta)
	}

	sumPV, sumV := 0.0, 0.0
	var weightedPrices []float64
	var weights []float64
	for _, p := range prices {
		if p.Time < start {
			continue
		}
		volume := volumes[p.Time/aggVWAPBucketMs]
		if volume == 0 {
			continue
		}
		sumPV += p.Value * volume
		sumV += volume
		weightedPrices = append(weightedPrices, p.Value)
		weights = append(weights, volume)
	}

	if sumV == 0 {
		return nil
	}

	value := sumPV / sumV

	variance := 0.0
	for i, p := range weightedPrices {
		variance += weights[i] * (p - value) * (p - value)
	}
	std := math.Sqrt(variance / sumV)

	return &models.VWAP{
		Coin:      coin,
		Value:     value,
		Upper:     value + std,
		Lower:     value - std,
		Window:    window.String(),
		UpdatedAt: now.UnixMilli(),
	}
}

const aggVWAPBucketMs = 5 * 60 * 1000
