package projection

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
	"go.uber.org/zap"
)

const minPricePoints = 10

var twelveHourWeights = map[string]float64{
	"momentum":        0.30,
	"regime":          0.25,
	"cvd_persistence": 0.20,
	"whales":          0.15,
	"cross_exchange":  0.10,
}

func twelveHourBias(score float64) string {
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
	case abs >= 0.1 && score > 0:
		return "LEAN_BULL"
	case abs >= 0.1:
		return "LEAN_BEAR"
	default:
		return models.DirectionNeutral
	}
}

// TwelveHour computes the BTC 12h bias projection, the widest composite.
func (e *Engine) TwelveHour(coin string, now time.Time) *models.Projection {
	exchange, prices, oi, funding := e.primarySeries(coin)

	out := &models.Projection{
		Coin:        coin,
		Horizon:     constants.ProjectionType12Hr,
		GeneratedAt: now.UnixMilli(),
	}

	if len(prices) < minPricePoints {
		out.Status = models.StatusCollecting
		out.Reason = "not enough price history yet"
		return out
	}

	cvd := e.market.GetAggregatedPerpCVDHistory(coin)

	components := map[string]*models.Signal{
		"momentum":        signals.Momentum(prices, now),
		"regime":          signals.Regime(oi, funding, prices, now, exchange),
		"cvd_persistence": signals.CVDPersistence(cvd, coin, now),
		"whales":          signals.WhaleAlignment(e.market.GetWhaleConsensus(coin)),
		"cross_exchange":  signals.CrossExchangeConfluence(e.crossExchangePrices(coin), now),
	}

	volatility := signals.Volatility(prices, now)
	fundingZ := signals.FundingZScore(funding, now)
	components["volatility"] = volatility
	components["funding_z"] = fundingZ

	score, contributed := weighted(twelveHourWeights, components)

	bias := twelveHourBias(score)
	dir := direction(score)
	currentPrice := prices[len(prices)-1].Value

	confidence := 0.5
	crossEx := components["cross_exchange"]
	if crossEx.Label != models.LabelInsufficientData && crossEx.Meta["agreement"] >= 0.8 {
		confidence += 0.15
	}
	if volatility.Label == signals.VolatilityNormal {
		confidence += 0.10
	}
	whaleData := components["whales"].Label != models.LabelInsufficientData
	if whaleData {
		confidence += 0.10
	}
	if regime := components["regime"]; regime.Label != models.LabelInsufficientData && math.Abs(regime.Score) >= 0.4 {
		confidence += 0.10
	}
	if confidence > 1 {
		confidence = 1
	}

	var warnings []string
	if volatility.Label == signals.VolatilityHigh {
		warnings = append(warnings, "volatility elevated over the last 4h")
	}
	if label := components["regime"].Label; label == signals.RegimeLongCrowded || label == signals.RegimeShortCrowded {
		warnings = append(warnings, "positioning crowded: "+label)
	}
	if fundingZ.Label == signals.FundingExtremeLong || fundingZ.Label == signals.FundingExtremeShort {
		warnings = append(warnings, "funding at statistical extreme")
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
	out.Invalidation = invalidationFor(prices, now, dir, 0.5)
	out.KeyFactors = keyFactors(components, 3)
	out.Warnings = warnings
	out.Components = components
	out.ValidUntil = now.Add(constants.ProjectionTTL[constants.ProjectionType12Hr]).UnixMilli()
	out.NextRefresh = out.ValidUntil

	e.record(coin, constants.ProjectionType12Hr, currentPrice, out, contributed, now)
	e.recordTwelveHourComponents(coin, currentPrice, prices, oi, cvd, components, now)

	return out
}

// recordTwelveHourComponents tracks the standalone component signals that
// ride along with every 12h emission.
func (e *Engine) recordTwelveHourComponents(coin string, price float64, prices, oi []*models.Point, cvd []*models.CVDPoint, components map[string]*models.Signal, now time.Time) {
	flow := signals.FlowConfluence(prices, oi, cvd, coin, now)
	oiRoC := signals.OIRateOfChange(oi, prices, now)
	cvdSig := components["cvd_persistence"]

	composite, contributed := weighted(fourHourWeights, map[string]*models.Signal{
		"flow_confluence": flow,
		"oi_roc":          oiRoC,
		"cvd_persistence": cvdSig,
	})

	e.recordComponent(coin, constants.ProjectionType4HrComposite, price, composite, contributed, now)

	if oiRoC.Label != models.LabelInsufficientData {
		e.recordComponent(coin, constants.ProjectionTypeOI4Hr, price, oiRoC.Score,
			map[string]float64{"oi_roc": oiRoC.Score}, now)
	}
	if cvdSig.Label != models.LabelInsufficientData {
		e.recordComponent(coin, constants.ProjectionTypeCVD2Hr, price, cvdSig.Score,
			map[string]float64{"cvd_persistence": cvdSig.Score}, now)
	}
}

func (e *Engine) record(coin, projectionType string, price float64, projection *models.Projection, contributed map[string]float64, now time.Time) {
	prediction := &models.Prediction{
		Coin:               coin,
		Type:               projectionType,
		Time:               now.UnixMilli(),
		InitialPrice:       price,
		PredictedBias:      projection.Prediction.Bias,
		PredictedDirection: projection.Prediction.Direction,
		Score:              projection.Prediction.Score,
		Strength:           projection.Prediction.Strength,
		Grade:              projection.Prediction.Grade,
		ConfidenceLevel:    projection.Confidence.Level,
		Signals:            contributed,
	}

	if !e.tracker.Record(prediction) {
		e.logger.Debug("[Projection] record skipped by cooldown",
			zap.String("coin", coin), zap.String("type", projectionType))
	}
}

func (e *Engine) recordComponent(coin, projectionType string, price, score float64, contributed map[string]float64, now time.Time) {
	prediction := &models.Prediction{
		Coin:               coin,
		Type:               projectionType,
		Time:               now.UnixMilli(),
		InitialPrice:       price,
		PredictedBias:      direction(score),
		PredictedDirection: direction(score),
		Score:              score,
		Strength:           direction(score),
		ConfidenceLevel:    "LOW",
		Signals:            contributed,
	}

	e.tracker.Record(prediction)
}
