package signals

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// Regime labels.
const (
	RegimeLongCrowded  = "LONG_CROWDED"
	RegimeShortCrowded = "SHORT_CROWDED"
	RegimeHealthyLong  = "HEALTHY_LONG"
	RegimeHealthyShort = "HEALTHY_SHORT"
	RegimeCapitulation = "CAPITULATION"
	RegimeNeutral      = "NEUTRAL"
)

// Regime reads positioning from the OI trend against the funding APR.
// The scoring is contrarian: crowded sides score against themselves.
func Regime(oi, funding, prices []*models.Point, now time.Time, exchange string) *models.Signal {
	oiChange, okOI := changeOver(oi, now, time.Hour)
	rate, okF := latest(funding)
	priceChange, _ := changeOver(prices, now, time.Hour)

	if !okOI || !okF {
		return insufficient("regime")
	}

	apr := rate * constants.FundingPeriods(exchange) * 365 * 100

	oiRising := oiChange > 1
	oiFalling := oiChange < -1

	signal := &models.Signal{
		Name:  "regime",
		Label: RegimeNeutral,
		Meta: map[string]float64{
			"oi_change_1h":    oiChange,
			"funding_apr":     apr,
			"price_change_1h": priceChange,
		},
	}

	switch {
	case oiRising && apr > 30:
		signal.Label = RegimeLongCrowded
		signal.Score = -0.6
	case oiRising && apr < -30:
		signal.Label = RegimeShortCrowded
		signal.Score = 0.6
	case oiRising && apr > 10:
		signal.Label = RegimeHealthyLong
		signal.Score = 0.4
	case oiRising && apr < -10:
		signal.Label = RegimeHealthyShort
		signal.Score = -0.4
	case oiFalling && math.Abs(oiChange) > 3:
		signal.Label = RegimeCapitulation
		if priceChange < -1 {
			signal.Score = 0.3 // longs flushed into weakness, contrarian bid
		} else if priceChange > 1 {
			signal.Score = -0.3
		}
	}

	return signal
}
