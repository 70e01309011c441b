package tracker

import (
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
	"go.uber.org/zap"
)

const evaluationBandPct = 0.5

// PriceSource reads a current price for evaluation.
type PriceSource interface {
	CurrentPrice(exchange, coin string) (float64, error)
}

// evaluationExchanges is the price preference order at evaluation time.
var evaluationExchanges = []string{"binance", "hyperliquid", "bybit"}

func actualDirection(changePct float64) string {
	switch {
	case changePct > evaluationBandPct:
		return models.DirectionBullish
	case changePct < -evaluationBandPct:
		return models.DirectionBearish
	default:
		return models.DirectionNeutral
	}
}

// Evaluate closes every prediction older than its type's delay against the
// realised price change. Unavailable prices mark the record inconclusive.
func (t *Tracker) Evaluate(source PriceSource, now time.Time) int {
	t.mutex.Lock()
	due := make([]*models.Prediction, 0)
	for _, p := range t.predictions {
		if p.Evaluated {
			continue
		}
		delay, ok := constants.EvaluationDelay[p.Type]
		if !ok {
			continue
		}
		if now.UnixMilli()-p.Time >= delay.Milliseconds() {
			due = append(due, p)
		}
	}
	t.mutex.Unlock()

	if len(due) == 0 {
		return 0
	}

	// one price read per coin, outside the tracker lock
	prices := make(map[string]*float64)
	for _, p := range due {
		if _, ok := prices[p.Coin]; ok {
			continue
		}
		prices[p.Coin] = t.readPrice(source, p.Coin)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	evaluated := 0
	ts := now.UnixMilli()
	for _, p := range due {
		price := prices[p.Coin]

		p.Evaluated = true
		p.EvaluatedAt = &ts
		evaluated++

		if price == nil || p.InitialPrice == 0 {
			p.Outcome = models.OutcomeInconclusive
			continue
		}

		changePct := (*price - p.InitialPrice) / p.InitialPrice * 100
		actual := actualDirection(changePct)

		p.FinalPrice = price
		p.ActualChangePct = &changePct
		if actual == p.PredictedDirection {
			p.Outcome = models.OutcomeCorrect
		} else {
			p.Outcome = models.OutcomeIncorrect
		}

		t.logger.Info("[Tracker] prediction evaluated",
			zap.String("coin", p.Coin),
			zap.String("type", p.Type),
			zap.String("outcome", p.Outcome),
			zap.Float64("change_pct", changePct))
	}

	t.dirty = true
	return evaluated
}

func (t *Tracker) readPrice(source PriceSource, coin string) *float64 {
	for _, exchange := range evaluationExchanges {
		price, err := source.CurrentPrice(exchange, coin)
		if err == nil && price > 0 {
			return &price
		}
	}
	return nil
}
