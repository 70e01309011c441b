package signals

import "math"

// Freshness is the time decay applied to a cached projection's confidence.
type Freshness struct {
	Factor        float64 `json:"factor"`
	AgeHours      float64 `json:"age_hours"`
	ShouldRefresh bool    `json:"should_refresh"`
	IsStale       bool    `json:"is_stale"`
}

func SignalFreshness(ageHours float64) *Freshness {
	factor := math.Exp(-0.025 * ageHours)
	if factor < 0.60 {
		factor = 0.60
	}

	return &Freshness{
		Factor:        factor,
		AgeHours:      ageHours,
		ShouldRefresh: ageHours >= 4,
		IsStale:       ageHours >= 8,
	}
}
