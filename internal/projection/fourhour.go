package projection

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
)

var fourHourWeights = map[string]float64{
	"flow_confluence": 0.40,
	"oi_roc":          0.35,
	"cvd_persistence": 0.25,
}

func fourHourBias(score float64) string {
	abs := math.Abs(score)
	switch {
	case abs >= 0.6 && score > 0:
		return "STRONG_BULL"
	case abs >= 0.6:
		return "STRONG_BEAR"
	case abs >= 0.35 && score > 0:
		return models.DirectionBullish
	case abs >= 0.35:
		return models.DirectionBearish
	case abs >= 0.15 && score > 0:
		return "LEAN_BULL"
	case abs >= 0.15:
		return "LEAN_BEAR"
	default:
		return models.DirectionNeutral
	}
}

func fourHourGrade(score float64, allActive bool) string {
	abs := math.Abs(score)
	switch {
	case abs >= 0.6 && allActive:
		return "A+"
	case abs >= 0.6:
		return "A"
	case abs >= 0.35 && allActive:
		return "B+"
	case abs >= 0.35:
		return "B"
	default:
		return "C"
	}
}

// FourHour computes the short-horizon flow projection.
func (e *Engine) FourHour(coin string, now time.Time) *models.Projection {
	_, prices, oi, _ := e.primarySeries(coin)

	out := &models.Projection{
		Coin:        coin,
		Horizon:     constants.ProjectionType4Hr,
		GeneratedAt: now.UnixMilli(),
	}

	if len(prices) < minPricePoints {
		out.Status = models.StatusCollecting
		out.Reason = "not enough price history yet"
		return out
	}

	cvd := e.market.GetAggregatedPerpCVDHistory(coin)

	flow := signals.FlowConfluence(prices, oi, cvd, coin, now)
	oiRoC := signals.OIRateOfChange(oi, prices, now)
	cvdSig := signals.CVDPersistence(cvd, coin, now)

	components := map[string]*models.Signal{
		"flow_confluence": flow,
		"oi_roc":          oiRoC,
		"cvd_persistence": cvdSig,
	}

	score, contributed := weighted(fourHourWeights, components)
	score = helpers.Clamp(score, -1, 1)

	active := 0
	aligned := true
	sign := 0.0
	for _, s := range components {
		if s.Label == models.LabelInsufficientData || math.Abs(s.Score) < 0.15 {
			aligned = false
			continue
		}
		active++
		if sign == 0 {
			sign = math.Copysign(1, s.Score)
		} else if math.Copysign(1, s.Score) != sign {
			aligned = false
		}
	}
	allActive := active == len(components)

	confidence := 0.5
	if aligned && allActive {
		confidence += 0.20
	}
	if flow.Label != models.LabelInsufficientData && flow.Meta["vetoed"] == 0 {
		confidence += 0.10
	}
	if oiRoC.Label != models.LabelInsufficientData && math.Abs(oiRoC.Score) >= 0.7 {
		confidence += 0.10
	}
	if cvdSig.Label != models.LabelInsufficientData && math.Abs(cvdSig.Score) >= 0.5 {
		confidence += 0.10
	}
	if confidence > 1 {
		confidence = 1
	}

	bias := fourHourBias(score)
	dir := direction(score)
	currentPrice := prices[len(prices)-1].Value

	out.Status = models.StatusActive
	out.CurrentPrice = currentPrice
	out.Prediction = &models.BiasCall{
		Bias:      bias,
		Strength:  bias,
		Score:     score,
		Grade:     fourHourGrade(score, allActive),
		Direction: dir,
	}
	out.Confidence = &models.Confidence{Level: confidenceLevel(confidence), Score: confidence}
	out.Invalidation = invalidationFor(prices, now, dir, 0.5)
	out.KeyFactors = keyFactors(components, 3)
	out.Components = components
	out.ValidUntil = now.Add(constants.ProjectionTTL[constants.ProjectionType4Hr]).UnixMilli()
	out.NextRefresh = out.ValidUntil

	e.record(coin, constants.ProjectionType4Hr, currentPrice, out, contributed, now)

	return out
}
