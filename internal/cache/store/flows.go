package store

import (
	"github.com/anvh2/market-bias/internal/models"
)

// Flow windows the drivers publish, in minutes.
var FlowWindows = []string{"5", "15", "60"}

// UpdateExchangeFlow replaces the per (coin, exchange, venue, window)
// buy/sell record. Drivers refresh every ~5s.
func (s *Store) UpdateExchangeFlow(coin, exchange, venue, window string, buyVol, sellVol float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	exchanges, ok := s.flows[coin]
	if !ok {
		exchanges = make(map[string]map[string]*models.FlowBucket)
		s.flows[coin] = exchanges
	}

	key := exchange + ":" + venue
	venues, ok := exchanges[key]
	if !ok {
		venues = make(map[string]*models.FlowBucket)
		exchanges[key] = venues
	}

	venues[window] = &models.FlowBucket{BuyVolume: buyVol, SellVolume: sellVol, Time: ts}
	s.touch(ts)
}

// GetExchangeFlows returns a copy of every (exchange:venue) flow record
// for the coin at the requested window.
func (s *Store) GetExchangeFlows(coin, window string) map[string]*models.FlowBucket {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	exchanges, ok := s.flows[coin]
	if !ok {
		return nil
	}

	out := make(map[string]*models.FlowBucket, len(exchanges))
	for key, venues := range exchanges {
		bucket, ok := venues[window]
		if !ok {
			continue
		}
		b := *bucket
		out[key] = &b
	}

	return out
}

func (s *Store) UpdateETFFlows(state *models.ETFState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// history is bounded to seven daily entries, newest last
	if len(state.History) > 7 {
		state.History = state.History[len(state.History)-7:]
	}

	s.etf = state
	s.touch(state.LastUpdated)
}

func (s *Store) GetETFFlows() *models.ETFState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.etf == nil {
		return nil
	}

	state := *s.etf
	state.History = append([]models.ETFDaily(nil), s.etf.History...)
	return &state
}

func (s *Store) UpdateLongShort(coin string, record *models.LongShort) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.longShort[coin] = record
	s.touch(record.Time)
}

func (s *Store) GetLongShort(coin string) *models.LongShort {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	record, ok := s.longShort[coin]
	if !ok {
		return nil
	}

	r := *record
	return &r
}

func (s *Store) UpdateVWAP(coin string, vwap *models.VWAP) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.vwap[coin] = vwap
	s.touch(vwap.UpdatedAt)
}

func (s *Store) GetVWAP(coin string) *models.VWAP {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	vwap, ok := s.vwap[coin]
	if !ok {
		return nil
	}

	v := *vwap
	return &v
}

func (s *Store) UpdateWhaleConsensus(coin string, consensus *models.WhaleConsensus) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.whaleConsensus[coin] = consensus
	s.touch(consensus.UpdatedAt)
}

func (s *Store) GetWhaleConsensus(coin string) *models.WhaleConsensus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	consensus, ok := s.whaleConsensus[coin]
	if !ok {
		return nil
	}

	c := *consensus
	return &c
}
