package streams

import (
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/metrics"
	"github.com/anvh2/market-bias/internal/models"
)

const flushInterval = 5 * time.Second

// Pipeline is the shared per-(exchange, venue) trade path: dedup, rolling
// windows, whale detection, and the 5s publication into the store.
type Pipeline struct {
	exchange string
	venue    string // spot | perp
	store    *store.Store

	mutex   sync.Mutex
	dedup   map[string]*dedupSet    // coin
	windows map[string]*tradeWindow // coin

	whaleMin float64

	quit chan struct{}
	once sync.Once
}

func NewPipeline(exchange, venue string, store *store.Store) *Pipeline {
	return &Pipeline{
		exchange: exchange,
		venue:    venue,
		store:    store,
		dedup:    make(map[string]*dedupSet),
		windows:  make(map[string]*tradeWindow),
		whaleMin: viper.GetFloat64("market.whale_trade_min_notional"),
		quit:     make(chan struct{}),
	}
}

// OnTrade runs one parsed trade through the pipeline.
func (p *Pipeline) OnTrade(coin string, trade *models.Trade) {
	if trade.Notional() <= 0 {
		metrics.TradesDropped.WithLabelValues(p.exchange, "notional").Inc()
		return
	}

	p.mutex.Lock()

	dedup, ok := p.dedup[coin]
	if !ok {
		dedup = newDedupSet()
		p.dedup[coin] = dedup
	}
	if dedup.Check(trade.TradeID) {
		p.mutex.Unlock()
		metrics.TradesDropped.WithLabelValues(p.exchange, "duplicate").Inc()
		return
	}

	window, ok := p.windows[coin]
	if !ok {
		window = &tradeWindow{}
		p.windows[coin] = window
	}

	buy, sell := 0.0, 0.0
	if trade.Side == models.SideBuy {
		buy = trade.Notional()
	} else {
		sell = trade.Notional()
	}
	window.Add(trade.Time, buy, sell)

	p.mutex.Unlock()

	metrics.TradesIngested.WithLabelValues(p.exchange, p.venue).Inc()

	if p.venue == "spot" {
		p.store.UpdateSpotCVD(p.exchange, coin, trade.Delta(), trade.Time)
	}

	if p.whaleMin > 0 && trade.Notional() >= p.whaleMin {
		p.store.AddLargeTrade(&models.LargeTrade{
			Exchange:   p.exchange,
			Venue:      p.venue,
			Symbol:     trade.Symbol,
			Price:      trade.Price,
			Size:       trade.Size,
			Notional:   trade.Notional(),
			Side:       trade.Side,
			TradeID:    trade.TradeID,
			Time:       trade.Time,
			ReceivedAt: time.Now().UnixMilli(),
		})
	}
}

// Start runs the 5s flusher publishing rolling deltas and flow buckets.
func (p *Pipeline) Start() {
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.flush(time.Now())
			case <-p.quit:
				return
			}
		}
	}()
}

func (p *Pipeline) Stop() {
	p.once.Do(func() { close(p.quit) })
}

func (p *Pipeline) flush(now time.Time) {
	p.mutex.Lock()
	coins := make([]string, 0, len(p.windows))
	for coin := range p.windows {
		coins = append(coins, coin)
	}
	p.mutex.Unlock()

	windows := map[string]time.Duration{
		"5":  5 * time.Minute,
		"15": 15 * time.Minute,
		"60": time.Hour,
	}

	for _, coin := range coins {
		p.mutex.Lock()
		window := p.windows[coin]
		delta5m := window.Delta(now, 5*time.Minute)
		sums := make(map[string][2]float64, len(windows))
		for name, span := range windows {
			buy, sell := window.Sums(now, span)
			sums[name] = [2]float64{buy, sell}
		}
		p.mutex.Unlock()

		if p.venue == "perp" {
			p.store.AddCVD(p.exchange, coin, delta5m, now.UnixMilli())
		}
		for name, sum := range sums {
			p.store.UpdateExchangeFlow(coin, p.exchange, p.venue, name, sum[0], sum[1], now.UnixMilli())
		}
	}
}
