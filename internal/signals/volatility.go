package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

const (
	VolatilityHigh   = "HIGH"
	VolatilityNormal = "NORMAL"
)

const volatilityHighPct = 3.0

// Volatility reports the 4h range as a percent of the average price. Not
// directional; score stays zero.
func Volatility(prices []*models.Point, now time.Time) *models.Signal {
	start := now.Add(-4 * time.Hour).UnixMilli()

	var high, low, sum float64
	count := 0
	for i := len(prices) - 1; i >= 0; i-- {
		p := prices[i]
		if p.Time < start {
			break
		}
		if count == 0 || p.Value > high {
			high = p.Value
		}
		if count == 0 || p.Value < low {
			low = p.Value
		}
		sum += p.Value
		count++
	}

	if count < 2 || sum == 0 {
		return insufficient("volatility")
	}

	avg := sum / float64(count)
	rangePct := (high - low) / avg * 100

	label := VolatilityNormal
	if rangePct > volatilityHighPct {
		label = VolatilityHigh
	}

	return &models.Signal{
		Name:  "volatility",
		Label: label,
		Meta: map[string]float64{
			"range_pct": rangePct,
			"high":      high,
			"low":       low,
			"avg":       avg,
		},
	}
}
