package store

import (
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// AddLiquidation enqueues a forced-order event under its coin key. Retention
// is two hours, capped at 1000 events per coin with most-recent wins.
func (s *Store) AddLiquidation(coin string, event *models.LiquidationEvent) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	events := s.liquidations[coin]
	if n := len(events); n > 0 && event.Time < events[n-1].Time {
		event.Time = events[n-1].Time
	}

	events = append(events, event)
	if len(events) > constants.LiquidationCap {
		events = events[len(events)-constants.LiquidationCap:]
	}

	s.liquidations[coin] = events
	s.touch(event.Time)
}

// GetLiquidations returns a copy of the coin's recent liquidation events.
func (s *Store) GetLiquidations(coin string) []*models.LiquidationEvent {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.liquidations[coin]
	out := make([]*models.LiquidationEvent, len(events))
	for i, e := range events {
		event := *e
		out[i] = &event
	}

	return out
}
