package projection

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
)

var dailyWeights = map[string]float64{
	"spot_perp_divergence": 0.35,
	"funding_z":            0.25,
	"oi_price_momentum":    0.20,
	"cross_exchange":       0.10,
	"whales":               0.05,
}

const consolidationRangePct = 2.5

func dailyBias(score float64, rangePct float64) string {
	abs := math.Abs(score)
	switch {
	case abs >= 0.6 && score > 0:
		return "STRONG_BULL"
	case abs >= 0.6:
		return "STRONG_BEAR"
	case abs >= 0.3 && score > 0:
		return models.DirectionBullish
	case abs >= 0.3:
		return models.DirectionBearish
	case abs >= 0.08 && score > 0:
		return "MICRO_BULL"
	case abs >= 0.08:
		return "MICRO_BEAR"
	case rangePct > 0 && rangePct < consolidationRangePct:
		return "CONSOLIDATION"
	default:
		return models.DirectionNeutral
	}
}

// Daily computes the 24h projection: spot-led, funding mean-reversion
// weighted, gated by data completeness and cross-exchange agreement.
func (e *Engine) Daily(coin string, now time.Time) *models.Projection {
	_, prices, oi, funding := e.primarySeries(coin)

	out := &models.Projection{
		Coin:        coin,
		Horizon:     constants.ProjectionTypeDaily,
		GeneratedAt: now.UnixMilli(),
	}

	cvd := e.market.GetAggregatedPerpCVDHistory(coin)

	completeness := signals.DataCompleteness(len(prices), len(oi), len(cvd), len(funding))
	if completeness.Band == signals.CompletenessWarmingUp {
		out.Status = models.StatusWarmingUp
		out.Reason = "data completeness below 25%"
		return out
	}

	crossEx := signals.CrossExchangeConfluence(e.crossExchangePrices(coin), now)
	if crossEx.Label != models.LabelInsufficientData && crossEx.Meta["agreement"] < signals.CrossExchangeAgreementVeto {
		out.Status = models.StatusVeto
		out.Reason = "cross-exchange agreement below 0.70"
		out.Components = map[string]*models.Signal{"cross_exchange": crossEx}
		return out
	}

	since := now.Add(-6 * time.Hour)
	spotDelta := e.market.AggregatedSpotCVDDeltaSince(coin, since)
	perpDelta := e.market.AggregatedCVDDeltaSince(coin, since)
	haveCVD := len(cvd) > 0

	divergence := signals.SpotPerpDivergence(spotDelta, perpDelta, coin, haveCVD)
	fundingZ := signals.FundingZScore(funding, now)
	oiMomentum := signals.OIPriceMomentum("oi_price_momentum", oi, prices, now, 8*time.Hour)
	whales := signals.WhaleAlignment(e.market.GetWhaleConsensus(coin))

	components := map[string]*models.Signal{
		"spot_perp_divergence": divergence,
		"funding_z":            fundingZ,
		"oi_price_momentum":    oiMomentum,
		"cross_exchange":       crossEx,
		"whales":               whales,
	}

	score, contributed := weighted(dailyWeights, components)

	// signed bonuses after normalisation
	if score != 0 {
		sign := math.Copysign(1, score)
		if math.Abs(fundingZ.Meta["z"]) >= 3 {
			score += sign * 0.10
		}

		aligned := true
		for _, s := range contributed {
			if s != 0 && math.Copysign(1, s) != sign {
				aligned = false
			}
		}
		if aligned && len(contributed) >= 3 {
			score += sign * 0.10
		}
	}
	score = helpers.Clamp(score, -1, 1)

	volatility := signals.Volatility(prices, now)
	components["volatility"] = volatility
	rangePct := 0.0
	if volatility.Label != models.LabelInsufficientData {
		rangePct = volatility.Meta["range_pct"]
	}

	confidence := 0.5
	if crossEx.Meta["agreement"] >= 0.9 {
		confidence += 0.15
	}
	if math.Abs(divergence.Score) >= 0.7 {
		confidence += 0.10
	}
	if math.Abs(fundingZ.Meta["z"]) >= 2 {
		confidence += 0.10
	}
	if limit := completeness.ConfidenceCap(); confidence > limit {
		confidence = limit
	}

	bias := dailyBias(score, rangePct)
	dir := direction(score)

	currentPrice := 0.0
	if len(prices) > 0 {
		currentPrice = prices[len(prices)-1].Value
	}

	out.Status = models.StatusActive
	out.CurrentPrice = currentPrice
	out.Prediction = &models.BiasCall{
		Bias:      bias,
		Strength:  bias,
		Score:     score,
		Direction: dir,
	}
	out.Confidence = &models.Confidence{Level: confidenceLevel(confidence), Score: confidence}
	out.Invalidation = invalidationFor(prices, now, dir, 0.75)
	out.KeyFactors = keyFactors(components, 3)
	out.Components = components
	out.ValidUntil = now.Add(constants.ProjectionTTL[constants.ProjectionTypeDaily]).UnixMilli()
	out.NextRefresh = out.ValidUntil

	e.record(coin, constants.ProjectionTypeDaily, currentPrice, out, contributed, now)

	return out
}
