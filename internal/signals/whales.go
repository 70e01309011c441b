package signals

import (
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// WhaleAlignment scores tracked large-position consensus. Needs at least
// three positions to mean anything.
func WhaleAlignment(consensus *models.WhaleConsensus) *models.Signal {
	if consensus == nil || consensus.TotalPositions < 3 {
		return insufficient("whales")
	}

	score := 2*(consensus.LongPct-0.5) + 0.1*float64(consensus.ConsistentLongs-consensus.ConsistentShorts)
	score = helpers.Clamp(score, -1, 1)

	label := models.DirectionNeutral
	switch {
	case score > 0.2:
		label = models.DirectionBullish
	case score < -0.2:
		label = models.DirectionBearish
	}

	return &models.Signal{
		Name:  "whales",
		Score: score,
		Label: label,
		Meta: map[string]float64{
			"long_pct":          consensus.LongPct,
			"total_positions":   float64(consensus.TotalPositions),
			"consistent_longs":  float64(consensus.ConsistentLongs),
			"consistent_shorts": float64(consensus.ConsistentShorts),
		},
	}
}
