package store

import (
	"github.com/anvh2/market-bias/internal/cache/errors"
	"github.com/anvh2/market-bias/internal/models"
)

// appendPoint keeps timestamps monotone non-decreasing: a sample arriving
// with a clock behind the series tail is stamped at the tail.
func appendPoint(points []*models.Point, ts int64, value float64) []*models.Point {
	if n := len(points); n > 0 && ts < points[n-1].Time {
		ts = points[n-1].Time
	}
	return append(points, &models.Point{Time: ts, Value: value})
}

func appendCVDPoint(points []*models.CVDPoint, ts int64, delta float64) []*models.CVDPoint {
	if n := len(points); n > 0 && ts < points[n-1].Time {
		ts = points[n-1].Time
	}
	return append(points, &models.CVDPoint{Time: ts, Delta: delta})
}

func (s *Store) AddPrice(exchange, coin string, price float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cs := s.coinSeries(exchange, coin)
	cs.Price = appendPoint(cs.Price, ts, price)
	cs.Current.Price = price
	cs.Current.UpdatedAt = ts
	s.touch(ts)
}

func (s *Store) AddOpenInterest(exchange, coin string, oiUSD float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cs := s.coinSeries(exchange, coin)
	cs.OI = appendPoint(cs.OI, ts, oiUSD)
	cs.Current.OpenInterest = oiUSD
	cs.Current.UpdatedAt = ts
	s.touch(ts)
}

func (s *Store) AddFunding(exchange, coin string, rate float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cs := s.coinSeries(exchange, coin)
	cs.Funding = appendPoint(cs.Funding, ts, rate)
	cs.Current.Funding = rate
	cs.Current.UpdatedAt = ts
	s.touch(ts)
}

func (s *Store) AddOrderBook(exchange, coin string, bid, ask float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	imbalance := 0.0
	if bid+ask > 0 {
		imbalance = (bid - ask) / (bid + ask) * 100
	}

	cs := s.coinSeries(exchange, coin)
	if n := len(cs.Book); n > 0 && ts < cs.Book[n-1].Time {
		ts = cs.Book[n-1].Time
	}
	cs.Book = append(cs.Book, &models.BookPoint{Time: ts, Imbalance: imbalance, Bid: bid, Ask: ask})
	cs.Current.BookImbalance = imbalance
	cs.Current.BidDepth = bid
	cs.Current.AskDepth = ask
	cs.Current.UpdatedAt = ts
	s.touch(ts)
}

func (s *Store) AddCVD(exchange, coin string, delta float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cs := s.coinSeries(exchange, coin)
	cs.CVD = appendCVDPoint(cs.CVD, ts, delta)
	cs.Current.CVD5m = delta
	cs.Current.UpdatedAt = ts
	s.touch(ts)
}

// GetExchangeData returns a deep copy of every coin series for the exchange.
func (s *Store) GetExchangeData(exchange string) (map[string]*models.CoinSeries, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	coins, ok := s.exchanges[exchange]
	if !ok {
		return nil, errors.ErrorExchangeNotFound
	}

	out := make(map[string]*models.CoinSeries, len(coins))
	for coin, cs := range coins {
		out[coin] = copyCoinSeries(cs)
	}

	return out, nil
}

func (s *Store) Exchanges() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]string, 0, len(s.exchanges))
	for exchange := range s.exchanges {
		out = append(out, exchange)
	}

	return out
}

// GetCurrentSnapshot returns the cached last values per coin for the exchange.
func (s *Store) GetCurrentSnapshot(exchange string) (map[string]*models.Current, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	coins, ok := s.exchanges[exchange]
	if !ok {
		return nil, errors.ErrorExchangeNotFound
	}

	out := make(map[string]*models.Current, len(coins))
	for coin, cs := range coins {
		current := *cs.Current
		out[coin] = &current
	}

	return out, nil
}

// CurrentPrice reads the latest price for (exchange, coin).
func (s *Store) CurrentPrice(exchange, coin string) (float64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	coins, ok := s.exchanges[exchange]
	if !ok {
		return 0, errors.ErrorExchangeNotFound
	}

	cs, ok := coins[coin]
	if !ok || cs.Current.Price == 0 {
		return 0, errors.ErrorCoinNotFound
	}

	return cs.Current.Price, nil
}

func (s *Store) PriceSeries(exchange, coin string) []*models.Point {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyPoints(s.series(exchange, coin, func(cs *models.CoinSeries) []*models.Point { return cs.Price }))
}

func (s *Store) OISeries(exchange, coin string) []*models.Point {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyPoints(s.series(exchange, coin, func(cs *models.CoinSeries) []*models.Point { return cs.OI }))
}

func (s *Store) FundingSeries(exchange, coin string) []*models.Point {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return copyPoints(s.series(exchange, coin, func(cs *models.CoinSeries) []*models.Point { return cs.Funding }))
}

func (s *Store) CVDSeries(exchange, coin string) []*models.CVDPoint {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	coins, ok := s.exchanges[exchange]
	if !ok {
		return nil
	}
	cs, ok := coins[coin]
	if !ok {
		return nil
	}

	return copyCVDPoints(cs.CVD)
}

func (s *Store) series(exchange, coin string, pick func(*models.CoinSeries) []*models.Point) []*models.Point {
	coins, ok := s.exchanges[exchange]
	if !ok {
		return nil
	}
	cs, ok := coins[coin]
	if !ok {
		return nil
	}
	return pick(cs)
}

func copyPoints(points []*models.Point) []*models.Point {
	if points == nil {
		return nil
	}
	out := make([]*models.Point, len(points))
	for i, p := range points {
		point := *p
		out[i] = &point
	}
	return out
}

func copyCVDPoints(points []*models.CVDPoint) []*models.CVDPoint {
	if points == nil {
		return nil
	}
	out := make([]*models.CVDPoint, len(points))
	for i, p := range points {
		point := *p
		out[i] = &point
	}
	return out
}

func copyBookPoints(points []*models.BookPoint) []*models.BookPoint {
	if points == nil {
		return nil
	}
	out := make([]*models.BookPoint, len(points))
	for i, p := range points {
		point := *p
		out[i] = &point
	}
	return out
}

func copyCoinSeries(cs *models.CoinSeries) *models.CoinSeries {
	current := *cs.Current
	return &models.CoinSeries{
		Price:   copyPoints(cs.Price),
		OI:      copyPoints(cs.OI),
		Funding: copyPoints(cs.Funding),
		Book:    copyBookPoints(cs.Book),
		CVD:     copyCVDPoints(cs.CVD),
		Current: &current,
	}
}
