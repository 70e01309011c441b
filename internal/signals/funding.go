package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

const fundingBucketMs = 8 * 60 * 60 * 1000

// Funding z-score labels.
const (
	FundingExtremeLong   = "extreme_long_bias"
	FundingHighLong      = "high_long_bias"
	FundingModerateLong  = "moderate_long_bias"
	FundingExtremeShort  = "extreme_short_bias"
	FundingHighShort     = "high_short_bias"
	FundingModerateShort = "moderate_short_bias"
	FundingNormal        = "normal"
)

// FundingZScore compares the current rate against the settlement-period
// baseline. Thresholds tighten as the baseline shrinks; the score is
// contrarian, so a crowded long side reads bearish.
func FundingZScore(funding []*models.Point, now time.Time) *models.Signal {
	if len(funding) == 0 {
		return insufficient("funding_z")
	}

	// collapse the sampled series into one value per settlement period
	baseline := make([]float64, 0, len(funding))
	lastBucket := int64(-1)
	for _, p := range funding {
		bucket := p.Time / fundingBucketMs
		if bucket == lastBucket {
			baseline[len(baseline)-1] = p.Value
			continue
		}
		baseline = append(baseline, p.Value)
		lastBucket = bucket
	}

	if len(baseline) < 3 {
		return insufficient("funding_z")
	}

	current := funding[len(funding)-1].Value
	mean := helpers.Mean(baseline)
	std := helpers.Std(baseline)
	if std == 0 {
		return insufficient("funding_z")
	}

	z := (current - mean) / std

	// 3 periods per day: 90d of history = 270 buckets, 30d = 90
	extreme, high, moderate := 3.5, 3.0, 2.5
	switch {
	case len(baseline) >= 270:
		extreme, high, moderate = 2.5, 2.0, 1.5
	case len(baseline) >= 90:
		extreme, high, moderate = 3.0, 2.5, 2.0
	}

	signal := &models.Signal{
		Name:  "funding_z",
		Label: FundingNormal,
		Meta: map[string]float64{
			"z":       z,
			"mean":    mean,
			"std":     std,
			"current": current,
			"periods": float64(len(baseline)),
		},
	}

	switch {
	case z >= extreme:
		signal.Label = FundingExtremeLong
		signal.Score = -0.9
	case z >= high:
		signal.Label = FundingHighLong
		signal.Score = -0.65
	case z >= moderate:
		signal.Label = FundingModerateLong
		signal.Score = -0.35
	case z <= -extreme:
		signal.Label = FundingExtremeShort
		signal.Score = 0.9
	case z <= -high:
		signal.Label = FundingHighShort
		signal.Score = 0.65
	case z <= -moderate:
		signal.Label = FundingModerateShort
		signal.Score = 0.35
	}

	return signal
}
