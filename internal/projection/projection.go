package projection

import (
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// Get12Hr serves the cached 12h projection, computing on expiry. Only
// ACTIVE results populate the cache or reach the tracker.
func (e *Engine) Get12Hr(coin string) *models.Projection {
	return e.cached(coin, constants.ProjectionType12Hr, e.TwelveHour)
}

// Get4Hr serves the cached 4h projection.
func (e *Engine) Get4Hr(coin string) *models.Projection {
	return e.cached(coin, constants.ProjectionType4Hr, e.FourHour)
}

// GetDaily serves the cached daily projection.
func (e *Engine) GetDaily(coin string) *models.Projection {
	return e.cached(coin, constants.ProjectionTypeDaily, e.Daily)
}

func (e *Engine) cached(coin, horizon string, compute func(string, time.Time) *models.Projection) *models.Projection {
	now := time.Now()

	if hit := e.cache.Get(coin, horizon, now); hit != nil {
		return e.fade(hit, now)
	}

	out := compute(coin, now)
	out.Performance = e.tracker.Performance(coin)

	if out.Status == models.StatusActive {
		e.cache.Set(coin, horizon, out, now)
	}

	return out
}
