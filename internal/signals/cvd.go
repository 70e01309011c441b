package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// CVDPersistence weighs the 30m delta against the 2h delta and normalises
// by the coin's strong scale.
func CVDPersistence(cvd []*models.CVDPoint, coin string, now time.Time) *models.Signal {
	d30, n30 := sumDeltasSince(cvd, now, 30*time.Minute)
	d2h, n2h := sumDeltasSince(cvd, now, 2*time.Hour)

	if n2h == 0 {
		return insufficient("cvd_persistence")
	}

	weighted := 0.4*d30 + 0.6*d2h
	scale := constants.CVDThresholdFor(coin).Strong
	score := helpers.Clamp(weighted/scale, -1, 1)

	label := "BALANCED"
	switch {
	case score >= 0.5:
		label = "STRONG_BUYING"
	case score >= 0.15:
		label = "NET_BUYING"
	case score <= -0.5:
		label = "STRONG_SELLING"
	case score <= -0.15:
		label = "NET_SELLING"
	}

	return &models.Signal{
		Name:  "cvd_persistence",
		Score: score,
		Label: label,
		Meta: map[string]float64{
			"delta_30m":   d30,
			"delta_2h":    d2h,
			"samples_30m": float64(n30),
		},
	}
}
