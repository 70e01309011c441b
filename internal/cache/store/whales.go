package store

import (
	"fmt"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

// AddLargeTrade pushes one entry into the whale-trade ring buffer. Entries
// are deduped by (exchange, trade_id, symbol); the seen set is bounded the
// same way the stream dedup sets are.
func (s *Store) AddLargeTrade(trade *models.LargeTrade) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := fmt.Sprintf("%s:%s:%s", trade.Exchange, trade.TradeID, trade.Symbol)
	if _, ok := s.whaleSeen[key]; ok {
		return false
	}

	s.whaleSeen[key] = struct{}{}
	s.whaleSeenQueue = append(s.whaleSeenQueue, key)

	if len(s.whaleSeenQueue) > constants.DedupCap {
		drop := s.whaleSeenQueue[:len(s.whaleSeenQueue)-constants.DedupRetain]
		for _, k := range drop {
			delete(s.whaleSeen, k)
		}
		s.whaleSeenQueue = append([]string(nil), s.whaleSeenQueue[len(s.whaleSeenQueue)-constants.DedupRetain:]...)
	}

	s.whaleTrades.Insert(trade)
	s.touch(trade.Time)
	return true
}

// GetLargeTrades returns up to limit whale trades, newest first.
func (s *Store) GetLargeTrades(limit int) []*models.LargeTrade {
	latest := s.whaleTrades.Latest(int32(limit))

	out := make([]*models.LargeTrade, 0, len(latest))
	for _, item := range latest {
		if trade, ok := item.(*models.LargeTrade); ok {
			out = append(out, trade)
		}
	}

	return out
}
