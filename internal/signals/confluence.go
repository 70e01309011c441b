package signals

import (
	"math"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// Flow confluence labels.
const (
	ConfluenceStrongBull = "STRONG_BULLISH_CONFLUENCE"
	ConfluenceBull       = "BULLISH_CONFLUENCE"
	ConfluenceLeanBull   = "LEAN_BULLISH"
	ConfluenceStrongBear = "STRONG_BEARISH_CONFLUENCE"
	ConfluenceBear       = "BEARISH_CONFLUENCE"
	ConfluenceLeanBear   = "LEAN_BEARISH"
	ConfluenceMixed      = "MIXED"
	ConfluenceFading     = "_FADING"
)

type flowComponent struct {
	direction int // -1, 0, +1
	strong    bool
}

func classify(value, weak, strong float64) flowComponent {
	c := flowComponent{}
	if value >= weak {
		c.direction = 1
	} else if value <= -weak {
		c.direction = -1
	}
	c.strong = math.Abs(value) >= strong
	return c
}

func flowComponents(prices, oi []*models.Point, cvd []*models.CVDPoint, coin string, now time.Time, window time.Duration) (components [3]flowComponent, ok bool) {
	priceChange, okP := changeOver(prices, now, window)
	oiChange, okOI := changeOver(oi, now, window)
	cvdDelta, n := sumDeltasSince(cvd, now, window)

	if !okP || !okOI || n == 0 {
		return components, false
	}

	cvdWeak := constants.CVDThresholdFor(coin).Weak

	components[0] = classify(priceChange, 0.3, 0.5)
	components[1] = classify(oiChange, 0.5, 1.0)
	components[2] = classify(cvdDelta/cvdWeak, 1.0, 2.0)
	return components, true
}

func compositeDirection(components [3]flowComponent) (direction, votes, strongCount int) {
	bull, bear := 0, 0
	for _, c := range components {
		switch c.direction {
		case 1:
			bull++
		case -1:
			bear++
		}
		if c.strong && c.direction != 0 {
			strongCount++
		}
	}

	if bull >= 2 && bull > bear {
		return 1, bull, strongCount
	}
	if bear >= 2 && bear > bull {
		return -1, bear, strongCount
	}
	return 0, 0, strongCount
}

// FlowConfluence grades the 1h alignment of price, OI and CVD, faded by a
// disagreeing 2h composite.
func FlowConfluence(prices, oi []*models.Point, cvd []*models.CVDPoint, coin string, now time.Time) *models.Signal {
	oneHour, ok := flowComponents(prices, oi, cvd, coin, now, time.Hour)
	if !ok {
		return insufficient("flow_confluence")
	}

	direction, votes, strongCount := compositeDirection(oneHour)

	magnitude := 0.0
	label := ConfluenceMixed

	switch {
	case direction != 0 && votes == 3:
		switch {
		case strongCount == 3:
			magnitude = 1.0
		case strongCount >= 1:
			magnitude = 0.75
		default:
			magnitude = 0.5
		}
		if direction > 0 {
			label = ConfluenceBull
			if magnitude == 1.0 {
				label = ConfluenceStrongBull
			}
		} else {
			label = ConfluenceBear
			if magnitude == 1.0 {
				label = ConfluenceStrongBear
			}
		}
	case direction != 0 && votes == 2:
		magnitude = 0.35
		if strongCount >= 1 {
			magnitude = 0.5
		}
		if direction > 0 {
			label = ConfluenceLeanBull
		} else {
			label = ConfluenceLeanBear
		}
	}

	score := magnitude * float64(direction)

	vetoed := false
	if twoHour, ok2 := flowComponents(prices, oi, cvd, coin, now, 2*time.Hour); ok2 && direction != 0 {
		direction2h, votes2h, _ := compositeDirection(twoHour)
		if direction2h != 0 && direction2h != direction && votes2h >= 2 {
			score *= 0.5
			label += ConfluenceFading
			vetoed = true
		}
	}

	signal := &models.Signal{
		Name:  "flow_confluence",
		Score: score,
		Label: label,
		Meta: map[string]float64{
			"direction":    float64(direction),
			"votes":        float64(votes),
			"strong_count": float64(strongCount),
		},
	}
	if vetoed {
		signal.Meta["vetoed"] = 1
	}

	return signal
}
