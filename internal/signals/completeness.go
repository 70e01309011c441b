package signals

import "math"

// Completeness bands for the Daily projection.
const (
	CompletenessWarmingUp = "WARMING_UP"
	CompletenessLow       = "LOW"
	CompletenessMedium    = "MEDIUM"
	CompletenessFull      = "FULL"
)

const (
	completenessSeriesTarget  = 288 // 24h at 5min
	completenessFundingTarget = 720 // 30d at hourly granularity
)

// Completeness summarises how much of the Daily projection's inputs exist.
type Completeness struct {
	Price   float64 `json:"price"`
	OI      float64 `json:"oi"`
	CVD     float64 `json:"cvd"`
	Funding float64 `json:"funding"`
	Overall float64 `json:"overall"`
	Band    string  `json:"band"`
}

func ratio(count, target int) float64 {
	return math.Min(float64(count)/float64(target), 1)
}

func DataCompleteness(priceCount, oiCount, cvdCount, fundingCount int) *Completeness {
	c := &Completeness{
		Price:   ratio(priceCount, completenessSeriesTarget),
		OI:      ratio(oiCount, completenessSeriesTarget),
		CVD:     ratio(cvdCount, completenessSeriesTarget),
		Funding: ratio(fundingCount, completenessFundingTarget),
	}

	c.Overall = (c.Price + c.OI + c.CVD + c.Funding) / 4

	switch {
	case c.Overall < 0.25:
		c.Band = CompletenessWarmingUp
	case c.Overall < 0.5:
		c.Band = CompletenessLow
	case c.Overall < 0.75:
		c.Band = CompletenessMedium
	default:
		c.Band = CompletenessFull
	}

	return c
}

// ConfidenceCap bounds projection confidence by data completeness.
func (c *Completeness) ConfidenceCap() float64 {
	switch c.Band {
	case CompletenessLow:
		return 0.40
	case CompletenessMedium:
		return 0.60
	default:
		return 1.0
	}
}
