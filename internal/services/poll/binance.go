package poll

import (
	"context"
	"time"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/services/binance"
)

// Binance polls fapi for price, funding, OI, depth, a recent-trades CVD
// sample and the global long/short ratio.
type Binance struct {
	store   *store.Store
	binance *binance.Binance
	coins   []string
}

func NewBinance(store *store.Store, client *binance.Binance, coins []string) *Binance {
	return &Binance{
		store:   store,
		binance: client,
		coins:   coins,
	}
}

func (b *Binance) Name() string            { return "binance" }
func (b *Binance) Interval() time.Duration { return 10 * time.Second }

func (b *Binance) Poll(ctx context.Context) error {
	var lastErr error

	for _, coin := range b.coins {
		symbol := coin + "USDT"
		now := time.Now().UnixMilli()

		index, err := b.binance.GetPremiumIndex(ctx, symbol)
		if err != nil {
			lastErr = err
			continue
		}

		price := helpers.StringToFloat(index.MarkPrice)
		if price <= 0 {
			continue
		}

		b.store.AddPrice("binance", coin, price, now)
		b.store.AddFunding("binance", coin, helpers.StringToFloat(index.LastFundingRate), now)

		if baseOI, err := b.binance.GetOpenInterest(ctx, symbol); err == nil {
			b.store.AddOpenInterest("binance", coin, baseOI*price, now)
		} else {
			lastErr = err
		}

		if bid, ask, err := b.binance.GetDepth(ctx, symbol, 50); err == nil {
			b.store.AddOrderBook("binance", coin, bid, ask, now)
		} else {
			lastErr = err
		}

		if ratio, err := b.binance.GetLongShortRatio(ctx, symbol); err == nil {
			ratio.Coin = coin
			b.store.UpdateLongShort(coin, ratio)
		}

		// bootstrap the CVD series from recent trades until the stream warms up
		if len(b.store.CVDSeries("binance", coin)) == 0 {
			if sample, err := b.binance.GetRecentCVD(ctx, symbol, 100); err == nil {
				b.store.AddCVD("binance", coin, sample, now)
			}
		}
	}

	return lastErr
}
