package signals

import (
	"math"

	"github.com/anvh2/market-bias/internal/helpers"
)

// Zone probability levels.
const (
	ZoneProbabilityLow    = "LOW"
	ZoneProbabilityMedium = "MEDIUM"
	ZoneProbabilityHigh   = "HIGH"
)

// Zones estimates where clustered leverage gets force-closed.
type Zones struct {
	Price        float64 `json:"price"`
	LongLiq      float64 `json:"long_liq"`
	ShortLiq     float64 `json:"short_liq"`
	Leverage     float64 `json:"avg_leverage"`
	OIAtRisk     float64 `json:"oi_at_risk"`
	Probability  string  `json:"probability"`
	ZoneDistance float64 `json:"zone_distance_pct"`
}

// LiquidationZones derives the long/short liquidation bands from average
// funding APR, aggregated OI and 24h OI velocity.
func LiquidationZones(price, fundingAPR, aggregatedOI, oiVelocity24h float64) *Zones {
	if price <= 0 {
		return nil
	}

	leverage := 75.0
	switch {
	case math.Abs(fundingAPR) >= 30:
		leverage = 100
	case math.Abs(fundingAPR) >= 10:
		leverage = 85
	}

	if math.Abs(oiVelocity24h) > 20 {
		leverage += 10
	} else if math.Abs(oiVelocity24h) > 10 {
		leverage += 5
	}

	leverage = helpers.Clamp(leverage, 50, 125)

	distance := math.Min(1/leverage, 0.02)

	longLiq := price * (1 - distance)
	shortLiq := price * (1 + distance)

	oiAtRisk := 0.3 * aggregatedOI

	probability := ZoneProbabilityLow
	switch {
	case oiAtRisk >= 1_000_000_000 && distance < 0.012:
		probability = ZoneProbabilityHigh
	case oiAtRisk >= 300_000_000 && distance < 0.02:
		probability = ZoneProbabilityMedium
	}

	return &Zones{
		Price:        price,
		LongLiq:      longLiq,
		ShortLiq:     shortLiq,
		Leverage:     leverage,
		OIAtRisk:     oiAtRisk,
		Probability:  probability,
		ZoneDistance: distance * 100,
	}
}
