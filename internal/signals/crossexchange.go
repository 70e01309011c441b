package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

const crossExchangeBiasPct = 0.3

// CrossExchangeAgreementVeto is the Daily-bias gate threshold.
const CrossExchangeAgreementVeto = 0.70

// CrossExchangeConfluence measures 1h direction agreement across the fixed
// exchange set. Meta carries the agreement ratio for the Daily veto gate.
func CrossExchangeConfluence(prices map[string][]*models.Point, now time.Time) *models.Signal {
	bullish, bearish, total := 0, 0, 0

	for _, series := range prices {
		change, ok := changeOver(series, now, time.Hour)
		if !ok {
			continue
		}

		total++
		if change > crossExchangeBiasPct {
			bullish++
		} else if change < -crossExchangeBiasPct {
			bearish++
		}
	}

	if total == 0 {
		return insufficient("cross_exchange")
	}

	majority := bullish
	sign := 1.0
	if bearish > bullish {
		majority = bearish
		sign = -1.0
	}

	agreement := float64(majority) / float64(total)

	score := 0.0
	label := "SPLIT"
	switch {
	case agreement >= 0.9:
		score = sign * 0.70
		label = "FULL_AGREEMENT"
	case agreement >= CrossExchangeAgreementVeto:
		score = sign * 0.40
		label = "MAJORITY_AGREEMENT"
	}

	return &models.Signal{
		Name:  "cross_exchange",
		Score: score,
		Label: label,
		Meta: map[string]float64{
			"agreement": agreement,
			"bullish":   float64(bullish),
			"bearish":   float64(bearish),
			"total":     float64(total),
		},
	}
}
