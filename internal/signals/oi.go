package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

// OI rate-of-change labels.
const (
	OIBullishBuildup  = "BULLISH_BUILDUP"
	OIModerateBuildup = "MODERATE_BUILDUP"
	OITrappedLongs    = "TRAPPED_LONGS"
	OILongFlush       = "LONG_FLUSH"
	OINeutral         = "NEUTRAL"
)

// OIRateOfChange reads the 4h OI trend against the 4h price trend. Rising
// OI into falling price marks trapped longs, a bearish divergence.
func OIRateOfChange(oi, prices []*models.Point, now time.Time) *models.Signal {
	return OIPriceMomentum("oi_roc", oi, prices, now, 4*time.Hour)
}

// OIPriceMomentum is the windowed form; the Daily projection runs it on 8h.
func OIPriceMomentum(name string, oi, prices []*models.Point, now time.Time, window time.Duration) *models.Signal {
	oiChange, okOI := changeOver(oi, now, window)
	priceChange, okP := changeOver(prices, now, window)
	oi1h, _ := changeOver(oi, now, time.Hour)

	if !okOI || !okP {
		return insufficient(name)
	}

	signal := &models.Signal{
		Name:  name,
		Label: OINeutral,
		Meta: map[string]float64{
			"oi_change":    oiChange,
			"oi_change_1h": oi1h,
			"price_change": priceChange,
		},
	}

	switch {
	case oiChange > 1 && priceChange > 0.5:
		signal.Label = OIBullishBuildup
		signal.Score = 0.8
	case oiChange > 0.5 && oiChange <= 1 && priceChange > 0:
		signal.Label = OIModerateBuildup
		signal.Score = 0.5
	case oiChange > 1 && priceChange < -0.5:
		signal.Label = OITrappedLongs
		signal.Score = -0.7
	case oiChange < -1 && priceChange < -0.5:
		signal.Label = OILongFlush
		signal.Score = -0.8
	}

	return signal
}
