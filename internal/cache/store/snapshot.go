package store

import (
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/storage/simpledb"
	"github.com/anvh2/market-bias/internal/models"
	"go.uber.org/zap"
)

// snapshotData mirrors the in-memory model for JSON persistence.
type snapshotData struct {
	Exchanges      map[string]map[string]*models.CoinSeries            `json:"exchanges"`
	SpotCVD        map[string]map[string]*models.SpotCVD               `json:"spot_cvd"`
	Flows          map[string]map[string]map[string]*models.FlowBucket `json:"flows"`
	Liquidations   map[string][]*models.LiquidationEvent               `json:"liquidations"`
	WhaleTrades    []*models.LargeTrade                                `json:"whale_trades"`
	ETF            *models.ETFState                                    `json:"etf"`
	VWAP           map[string]*models.VWAP                             `json:"vwap"`
	LongShort      map[string]*models.LongShort                        `json:"long_short"`
	WhaleConsensus map[string]*models.WhaleConsensus                   `json:"whale_consensus"`
}

type snapshotFile struct {
	SavedAt    int64        `json:"savedAt"`
	Data       snapshotData `json:"data"`
	LastUpdate int64        `json:"lastUpdate"`
}

// Save serialises the whole store to the snapshot file when dirty. I/O
// failure is logged and swallowed; memory state is untouched.
func (s *Store) Save(db simpledb.DB, now time.Time) {
	s.mutex.Lock()

	if !s.dirty {
		s.mutex.Unlock()
		return
	}

	whales := make([]*models.LargeTrade, 0)
	for _, item := range s.whaleTrades.Sorted() {
		if trade, ok := item.(*models.LargeTrade); ok {
			whales = append(whales, trade)
		}
	}

	exchanges := make(map[string]map[string]*models.CoinSeries, len(s.exchanges))
	for exchange, coins := range s.exchanges {
		exchanges[exchange] = make(map[string]*models.CoinSeries, len(coins))
		for coin, cs := range coins {
			exchanges[exchange][coin] = copyCoinSeries(cs)
		}
	}

	spotCVD := make(map[string]map[string]*models.SpotCVD, len(s.spotCVD))
	for exchange, coins := range s.spotCVD {
		spotCVD[exchange] = make(map[string]*models.SpotCVD, len(coins))
		for coin, sc := range coins {
			spotCVD[exchange][coin] = &models.SpotCVD{
				Series:     copyCVDPoints(sc.Series),
				Cumulative: sc.Cumulative,
				Sum5m:      sc.Sum5m,
				Sum15m:     sc.Sum15m,
				Sum1h:      sc.Sum1h,
			}
		}
	}

	flows := make(map[string]map[string]map[string]*models.FlowBucket, len(s.flows))
	for coin, keys := range s.flows {
		flows[coin] = make(map[string]map[string]*models.FlowBucket, len(keys))
		for key, windows := range keys {
			flows[coin][key] = make(map[string]*models.FlowBucket, len(windows))
			for window, bucket := range windows {
				b := *bucket
				flows[coin][key][window] = &b
			}
		}
	}

	liquidations := make(map[string][]*models.LiquidationEvent, len(s.liquidations))
	for coin, events := range s.liquidations {
		copied := make([]*models.LiquidationEvent, len(events))
		for i, e := range events {
			event := *e
			copied[i] = &event
		}
		liquidations[coin] = copied
	}

	file := &snapshotFile{
		SavedAt: now.UnixMilli(),
		Data: snapshotData{
			Exchanges:      exchanges,
			SpotCVD:        spotCVD,
			Flows:          flows,
			Liquidations:   liquidations,
			WhaleTrades:    whales,
			ETF:            s.etf,
			VWAP:           s.vwap,
			LongShort:      s.longShort,
			WhaleConsensus: s.whaleConsensus,
		},
		LastUpdate: s.lastUpdate,
	}
	s.mutex.Unlock()

	// marshal+write happens on the copy, outside the lock
	if err := db.Save(file); err != nil {
		s.logger.Warn("[Store] snapshot save failed", zap.Error(err))
		return
	}

	s.mutex.Lock()
	s.dirty = false
	s.mutex.Unlock()
}

// Restore reads the snapshot back and drops points past retention.
func (s *Store) Restore(db simpledb.DB, now time.Time) {
	file := &snapshotFile{}
	if err := db.Load(file); err != nil {
		s.logger.Warn("[Store] no snapshot restored", zap.Error(err))
		return
	}

	seriesCutoff := now.Add(-constants.SeriesRetention).UnixMilli()
	fundingCutoff := now.Add(-constants.FundingRetention).UnixMilli()
	liqCutoff := now.Add(-constants.LiquidationRetention).UnixMilli()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if file.Data.Exchanges != nil {
		for _, coins := range file.Data.Exchanges {
			for _, cs := range coins {
				cs.Price = trimPoints(cs.Price, seriesCutoff)
				cs.OI = trimPoints(cs.OI, seriesCutoff)
				cs.Funding = trimPoints(cs.Funding, fundingCutoff)
				cs.Book = trimBookPoints(cs.Book, seriesCutoff)
				cs.CVD = trimCVDPoints(cs.CVD, seriesCutoff)
				if cs.Current == nil {
					cs.Current = &models.Current{}
				}
			}
		}
		s.exchanges = file.Data.Exchanges
	}

	if file.Data.SpotCVD != nil {
		for _, coins := range file.Data.SpotCVD {
			for _, sc := range coins {
				sc.Series = trimCVDPoints(sc.Series, seriesCutoff)
			}
		}
		s.spotCVD = file.Data.SpotCVD
	}

	if file.Data.Flows != nil {
		s.flows = file.Data.Flows
	}

	if file.Data.Liquidations != nil {
		for coin, events := range file.Data.Liquidations {
			file.Data.Liquidations[coin] = trimLiquidations(events, liqCutoff)
		}
		s.liquidations = file.Data.Liquidations
	}

	for _, trade := range file.Data.WhaleTrades {
		s.whaleTrades.Insert(trade)
	}

	if file.Data.ETF != nil {
		s.etf = file.Data.ETF
	}
	if file.Data.VWAP != nil {
		s.vwap = file.Data.VWAP
	}
	if file.Data.LongShort != nil {
		s.longShort = file.Data.LongShort
	}
	if file.Data.WhaleConsensus != nil {
		s.whaleConsensus = file.Data.WhaleConsensus
	}

	s.lastUpdate = file.LastUpdate
	s.dirty = false

	s.logger.Info("[Store] snapshot restored", zap.Int64("saved_at", file.SavedAt))
}
