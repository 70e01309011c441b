package signals

import (
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// Spot/perp divergence labels.
const (
	DivergenceSpotAccumulation   = "SPOT_ACCUMULATION"
	DivergenceCapitulationBottom = "CAPITULATION_BOTTOM"
	DivergenceFakePump           = "FAKE_PUMP"
	DivergenceDistribution       = "DISTRIBUTION"
	DivergenceAlignedBullish     = "ALIGNED_BULLISH"
	DivergenceAlignedBearish     = "ALIGNED_BEARISH"
	DivergenceNeutral            = "NEUTRAL"
)

// SpotPerpDivergence compares the 6h spot CVD delta with the 6h perp CVD
// delta. Spot leads: spot accumulation against perp hesitation is the
// strongest bullish read, a perp-only pump the strongest bearish one.
func SpotPerpDivergence(spotDelta6h, perpDelta6h float64, coin string, haveData bool) *models.Signal {
	if !haveData {
		return insufficient("spot_perp_divergence")
	}

	weak := constants.CVDThresholdFor(coin).Weak

	trend := func(delta float64) int {
		if delta > weak {
			return 1
		}
		if delta < -weak {
			return -1
		}
		return 0
	}

	spot := trend(spotDelta6h)
	perp := trend(perpDelta6h)

	signal := &models.Signal{
		Name:  "spot_perp_divergence",
		Label: DivergenceNeutral,
		Meta: map[string]float64{
			"spot_delta_6h": spotDelta6h,
			"perp_delta_6h": perpDelta6h,
		},
	}

	switch {
	case spot > 0 && perp < 0:
		signal.Label = DivergenceCapitulationBottom
		signal.Score = 0.75
	case spot > 0 && perp > 0:
		signal.Label = DivergenceAlignedBullish
		signal.Score = 0.50
	case spot > 0:
		signal.Label = DivergenceSpotAccumulation
		signal.Score = 0.85
	case perp > 0 && spot < 0:
		signal.Label = DivergenceFakePump
		signal.Score = -0.85
	case spot < 0 && perp < 0:
		signal.Label = DivergenceAlignedBearish
		signal.Score = -0.50
	case spot < 0:
		signal.Label = DivergenceDistribution
		signal.Score = -0.70
	}

	return signal
}
