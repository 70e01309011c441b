package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

const momentumSaturationPct = 5.0

// Momentum blends the 5m, 30m and 4h price changes. A combined move of
// +-5% saturates the score.
func Momentum(prices []*models.Point, now time.Time) *models.Signal {
	if len(prices) < 2 {
		return insufficient("momentum")
	}

	d5m, ok5 := changeOver(prices, now, 5*time.Minute)
	d30m, ok30 := changeOver(prices, now, 30*time.Minute)
	d4h, ok4 := changeOver(prices, now, 4*time.Hour)

	if !ok5 && !ok30 && !ok4 {
		return insufficient("momentum")
	}

	raw := 0.1*d5m + 0.3*d30m + 0.6*d4h
	score := helpers.Clamp(raw/momentumSaturationPct, -1, 1)

	label := models.DirectionNeutral
	switch {
	case score > 0.1:
		label = models.DirectionBullish
	case score < -0.1:
		label = models.DirectionBearish
	}

	return &models.Signal{
		Name:  "momentum",
		Score: score,
		Label: label,
		Meta: map[string]float64{
			"change_5m":  d5m,
			"change_30m": d30m,
			"change_4h":  d4h,
		},
	}
}
