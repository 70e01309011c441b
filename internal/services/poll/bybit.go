package poll

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bitly/go-simplejson"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/client"
	"github.com/anvh2/market-bias/internal/helpers"
)

const bybitAPIURL = "https://api.bybit.com"

// Bybit polls v5 market tickers and orderbook for the linear contracts.
type Bybit struct {
	store  *store.Store
	client *http.Client
	coins  []string
}

func NewBybit(store *store.Store, coins []string) *Bybit {
	return &Bybit{
		store:  store,
		client: client.New(),
		coins:  coins,
	}
}

func (b *Bybit) Name() string            { return "bybit" }
func (b *Bybit) Interval() time.Duration { return 10 * time.Second }

func (b *Bybit) get(ctx context.Context, url string) (*simplejson.Json, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req = req.WithContext(ctx)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("bybit: request failed with code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return simplejson.NewJson(data)
}

func (b *Bybit) Poll(ctx context.Context) error {
	var lastErr error

	for _, coin := range b.coins {
		symbol := coin + "USDT"
		now := time.Now().UnixMilli()

		js, err := b.get(ctx, fmt.Sprintf("%s/v5/market/tickers?category=linear&symbol=%s", bybitAPIURL, symbol))
		if err != nil {
			lastErr = err
			continue
		}

		list := js.GetPath("result", "list")
		if len(list.MustArray()) == 0 {
			continue
		}

		ticker := list.GetIndex(0)
		price := helpers.StringToFloat(ticker.Get("lastPrice").MustString())
		if price <= 0 {
			continue
		}

		b.store.AddPrice("bybit", coin, price, now)
		b.store.AddFunding("bybit", coin, helpers.StringToFloat(ticker.Get("fundingRate").MustString()), now)

		// openInterestValue is already USD notional
		if oiValue := helpers.StringToFloat(ticker.Get("openInterestValue").MustString()); oiValue > 0 {
			b.store.AddOpenInterest("bybit", coin, oiValue, now)
		} else if baseOI := helpers.StringToFloat(ticker.Get("openInterest").MustString()); baseOI > 0 {
			b.store.AddOpenInterest("bybit", coin, baseOI*price, now)
		}

		if err := b.pollBook(ctx, coin, symbol); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

func (b *Bybit) pollBook(ctx context.Context, coin, symbol string) error {
	js, err := b.get(ctx, fmt.Sprintf("%s/v5/market/orderbook?category=linear&symbol=%s&limit=50", bybitAPIURL, symbol))
	if err != nil {
		return err
	}

	sum := func(side *simplejson.Json) float64 {
		total := 0.0
		for i := 0; i < len(side.MustArray()); i++ {
			level := side.GetIndex(i)
			price := helpers.StringToFloat(level.GetIndex(0).MustString())
			qty := helpers.StringToFloat(level.GetIndex(1).MustString())
			total += price * qty
		}
		return total
	}

	result := js.Get("result")
	bid := sum(result.Get("b"))
	ask := sum(result.Get("a"))
	if bid+ask > 0 {
		b.store.AddOrderBook("bybit", coin, bid, ask, time.Now().UnixMilli())
	}

	return nil
}
