package store

import (
	"sync"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/cache/circular"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
	"go.uber.org/zap"
)

// Store owns every in-memory series and stateful record. All mutation paths
// go through the single mutex; reads hand out copies so factor computation
// never holds the lock.
type Store struct {
	logger *logger.Logger
	mutex  sync.RWMutex

	exchanges      map[string]map[string]*models.CoinSeries // exchange -> coin
	spotCVD        map[string]map[string]*models.SpotCVD    // exchange -> coin
	flows          map[string]map[string]map[string]*models.FlowBucket
	liquidations   map[string][]*models.LiquidationEvent
	whaleTrades    *circular.Cache
	whaleSeen      map[string]struct{}
	whaleSeenQueue []string
	etf            *models.ETFState
	vwap           map[string]*models.VWAP
	longShort      map[string]*models.LongShort
	whaleConsensus map[string]*models.WhaleConsensus

	dirty      bool
	lastUpdate int64
}

func New(logger *logger.Logger) *Store {
	return &Store{
		logger:         logger,
		exchanges:      make(map[string]map[string]*models.CoinSeries),
		spotCVD:        make(map[string]map[string]*models.SpotCVD),
		flows:          make(map[string]map[string]map[string]*models.FlowBucket),
		liquidations:   make(map[string][]*models.LiquidationEvent),
		whaleTrades:    circular.New(constants.WhaleTradeCap),
		whaleSeen:      make(map[string]struct{}),
		whaleSeenQueue: make([]string, 0, constants.WhaleTradeCap),
		vwap:           make(map[string]*models.VWAP),
		longShort:      make(map[string]*models.LongShort),
		whaleConsensus: make(map[string]*models.WhaleConsensus),
	}
}

func (s *Store) coinSeries(exchange, coin string) *models.CoinSeries {
	coins, ok := s.exchanges[exchange]
	if !ok {
		coins = make(map[string]*models.CoinSeries)
		s.exchanges[exchange] = coins
	}

	series, ok := coins[coin]
	if !ok {
		series = &models.CoinSeries{Current: &models.Current{}}
		coins[coin] = series
	}

	return series
}

func (s *Store) touch(ts int64) {
	s.dirty = true
	if ts > s.lastUpdate {
		s.lastUpdate = ts
	}
}

func (s *Store) Dirty() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.dirty
}

// Cleanup drops series points past retention. Safe on an empty store.
func (s *Store) Cleanup(now time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	seriesCutoff := now.Add(-constants.SeriesRetention).UnixMilli()
	fundingCutoff := now.Add(-constants.FundingRetention).UnixMilli()
	liqCutoff := now.Add(-constants.LiquidationRetention).UnixMilli()

	for _, coins := range s.exchanges {
		for _, cs := range coins {
			cs.Price = trimPoints(cs.Price, seriesCutoff)
			cs.OI = trimPoints(cs.OI, seriesCutoff)
			// the funding baseline feeds the z-score, keep it far longer
			cs.Funding = trimPoints(cs.Funding, fundingCutoff)
			cs.Book = trimBookPoints(cs.Book, seriesCutoff)
			cs.CVD = trimCVDPoints(cs.CVD, seriesCutoff)
		}
	}

	for _, coins := range s.spotCVD {
		for _, sc := range coins {
			sc.Series = trimCVDPoints(sc.Series, seriesCutoff)
		}
	}

	for coin, events := range s.liquidations {
		s.liquidations[coin] = trimLiquidations(events, liqCutoff)
	}

	s.logger.Debug("[Store] cleanup done", zap.Int64("series_cutoff", seriesCutoff))
}

func trimPoints(points []*models.Point, cutoff int64) []*models.Point {
	idx := 0
	for idx < len(points) && points[idx].Time < cutoff {
		idx++
	}
	return points[idx:]
}

func trimBookPoints(points []*models.BookPoint, cutoff int64) []*models.BookPoint {
	idx := 0
	for idx < len(points) && points[idx].Time < cutoff {
		idx++
	}
	return points[idx:]
}

func trimCVDPoints(points []*models.CVDPoint, cutoff int64) []*models.CVDPoint {
	idx := 0
	for idx < len(points) && points[idx].Time < cutoff {
		idx++
	}
	return points[idx:]
}

func trimLiquidations(events []*models.LiquidationEvent, cutoff int64) []*models.LiquidationEvent {
	idx := 0
	for idx < len(events) && events[idx].Time < cutoff {
		idx++
	}
	return events[idx:]
}

// Stats reports store totals for the health endpoints.
func (s *Store) Stats() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	points := 0
	coins := 0
	for _, cs := range s.exchanges {
		for _, c := range cs {
			coins++
			points += len(c.Price) + len(c.OI) + len(c.Funding) + len(c.Book) + len(c.CVD)
		}
	}

	liquidations := 0
	for _, events := range s.liquidations {
		liquidations += len(events)
	}

	spotPoints := 0
	for _, cs := range s.spotCVD {
		for _, sc := range cs {
			spotPoints += len(sc.Series)
		}
	}

	return map[string]interface{}{
		"exchanges":     len(s.exchanges),
		"series":        coins,
		"series_points": points,
		"spot_points":   spotPoints,
		"liquidations":  liquidations,
		"whale_trades":  int(s.whaleTrades.Len()),
		"dirty":         s.dirty,
		"last_update":   s.lastUpdate,
	}
}
