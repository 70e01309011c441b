package projection

import (
	"time"

	projcache "github.com/anvh2/market-bias/internal/cache/projection"
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
)

// MarketData is the read surface the engine needs from the store. Every
// method returns copies; factor computation never touches shared state.
type MarketData interface {
	PriceSeries(exchange, coin string) []*models.Point
	OISeries(exchange, coin string) []*models.Point
	FundingSeries(exchange, coin string) []*models.Point
	GetAggregatedPerpCVDHistory(coin string) []*models.CVDPoint
	AggregatedCVDDeltaSince(coin string, since time.Time) float64
	AggregatedSpotCVDDeltaSince(coin string, since time.Time) float64
	GetWhaleConsensus(coin string) *models.WhaleConsensus
	GetLiquidations(coin string) []*models.LiquidationEvent
}

// Recorder is the tracker surface the engine feeds.
type Recorder interface {
	Record(prediction *models.Prediction) bool
	Performance(coin string) interface{}
}

// primaryExchanges is the preference order for single-venue series reads.
var primaryExchanges = []string{"binance", "hyperliquid", "bybit"}

type Engine struct {
	logger  *logger.Logger
	market  MarketData
	cache   *projcache.Cache
	tracker Recorder
}

func NewEngine(logger *logger.Logger, market MarketData, cache *projcache.Cache, tracker Recorder) *Engine {
	return &Engine{
		logger:  logger,
		market:  market,
		cache:   cache,
		tracker: tracker,
	}
}

// primarySeries picks the first exchange holding price data for the coin.
func (e *Engine) primarySeries(coin string) (exchange string, prices, oi, funding []*models.Point) {
	for _, ex := range primaryExchanges {
		p := e.market.PriceSeries(ex, coin)
		if len(p) > 0 {
			return ex, p, e.market.OISeries(ex, coin), e.market.FundingSeries(ex, coin)
		}
	}
	return "", nil, nil, nil
}

func (e *Engine) crossExchangePrices(coin string) map[string][]*models.Point {
	out := make(map[string][]*models.Point, len(constants.ConfluenceExchanges))
	for _, ex := range constants.ConfluenceExchanges {
		out[ex] = e.market.PriceSeries(ex, coin)
	}
	return out
}

// weighted composes present factor scores by the sum-of-present-weights
// rule: factors with no data drop out of numerator and denominator.
func weighted(entries map[string]float64, components map[string]*models.Signal) (score float64, contributed map[string]float64) {
	contributed = make(map[string]float64, len(entries))

	sum, weightSum := 0.0, 0.0
	for name, weight := range entries {
		signal, ok := components[name]
		if !ok || signal == nil || signal.Label == models.LabelInsufficientData {
			continue
		}
		sum += weight * signal.Score
		weightSum += weight
		contributed[name] = signal.Score
	}

	if weightSum == 0 {
		return 0, contributed
	}

	return sum / weightSum, contributed
}

func direction(score float64) string {
	switch {
	case score > 0.1:
		return models.DirectionBullish
	case score < -0.1:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

func confidenceLevel(score float64) string {
	switch {
	case score >= 0.7:
		return "HIGH"
	case score >= 0.5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// fade applies freshness decay to a cached projection's confidence and
// refreshes the historical-performance block.
func (e *Engine) fade(cached *models.Projection, now time.Time) *models.Projection {
	out := *cached
	out.Performance = e.tracker.Performance(cached.Coin)

	if cached.Confidence != nil {
		age := now.Sub(time.UnixMilli(cached.GeneratedAt)).Hours()
		fresh := signals.SignalFreshness(age)
		confidence := *cached.Confidence
		confidence.Score = confidence.Score * fresh.Factor
		confidence.Level = confidenceLevel(confidence.Score)
		out.Confidence = &confidence
	}

	return &out
}

func keyFactors(components map[string]*models.Signal, limit int) []string {
	type scored struct {
		name string
		abs  float64
	}

	ranked := make([]scored, 0, len(components))
	for name, s := range components {
		if s == nil || s.Label == models.LabelInsufficientData || s.Score == 0 {
			continue
		}
		abs := s.Score
		if abs < 0 {
			abs = -abs
		}
		ranked = append(ranked, scored{name: name, abs: abs})
	}

	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].abs > ranked[i].abs {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.name
	}
	return out
}
