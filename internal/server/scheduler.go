package server

import (
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/services/notify"
	"github.com/anvh2/market-bias/internal/signals"
)

const (
	cleanupInterval    = 10 * time.Minute
	snapshotInterval   = time.Minute
	trackerInterval    = 5 * time.Minute
	evaluationInterval = time.Hour
	vwapInterval       = 10 * time.Minute
	projectionInterval = 30 * time.Minute
)

// startScheduler runs every periodic maintenance loop until shutdown.
func (s *Server) startScheduler() {
	s.every(cleanupInterval, "cleanup", func(now time.Time) {
		s.store.Cleanup(now)
	})

	s.every(snapshotInterval, "snapshot", func(now time.Time) {
		s.store.Save(s.storeDB, now)
	})

	s.every(trackerInterval, "tracker-save", func(now time.Time) {
		s.tracker.Save(s.trackerDB, now)
	})

	s.every(evaluationInterval, "evaluation", func(now time.Time) {
		if evaluated := s.tracker.Evaluate(s.store, now); evaluated > 0 {
			s.logger.Info("[Scheduler] predictions evaluated", zap.Int("count", evaluated))
		}
	})

	s.every(vwapInterval, "vwap", func(now time.Time) {
		s.refreshVWAP(now)
	})

	s.every(projectionInterval, "projection-refresh", func(now time.Time) {
		s.refreshProjections()
	})
}

// every runs fn on each tick of its interval until shutdown; there is no
// run at start, so the first call comes one interval in.
func (s *Server) every(interval time.Duration, name string, fn func(now time.Time)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("[Scheduler] loop crashed, recovered",
					zap.String("loop", name),
					zap.Any("error", r),
					zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn(time.Now())
			case <-s.quitChannel:
				return
			}
		}
	}()
}

func (s *Server) refreshVWAP(now time.Time) {
	for _, coin := range s.coins {
		prices := s.primaryPrices(coin)
		if len(prices) == 0 {
			continue
		}

		cvd := s.store.GetAggregatedPerpCVDHistory(coin)
		vwap := signals.ComputeVWAP(coin, prices, cvd, now, 24*time.Hour)
		if vwap != nil {
			s.store.UpdateVWAP(coin, vwap)
		}
	}
}

func (s *Server) primaryPrices(coin string) []*models.Point {
	for _, exchange := range []string{"binance", "hyperliquid", "bybit"} {
		if prices := s.store.PriceSeries(exchange, coin); len(prices) > 0 {
			return prices
		}
	}
	return nil
}

// refreshProjections keeps the caches warm and feeds the notifier.
func (s *Server) refreshProjections() {
	projections := make([]*models.Projection, 0, len(s.coins)+2)

	projections = append(projections, s.engine.Get12Hr("BTC"), s.engine.Get4Hr("BTC"))
	for _, coin := range s.coins {
		projections = append(projections, s.engine.GetDaily(coin))
	}

	for _, projection := range projections {
		if notify.Eligible(projection) {
			s.channel.Get(constants.NotifyChannelId) <- projection
		}
	}
}
