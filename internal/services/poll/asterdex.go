package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/client"
	"github.com/anvh2/market-bias/internal/helpers"
)

const asterdexAPIURL = "https://fapi.asterdex.com"

// AsterDex mirrors the Binance fapi surface.
type AsterDex struct {
	store  *store.Store
	client *http.Client
	coins  []string
}

func NewAsterDex(store *store.Store, coins []string) *AsterDex {
	return &AsterDex{
		store:  store,
		client: client.New(),
		coins:  coins,
	}
}

func (a *AsterDex) Name() string            { return "asterdex" }
func (a *AsterDex) Interval() time.Duration { return 10 * time.Second }

func (a *AsterDex) get(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req = req.WithContext(ctx)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("asterdex: request failed with code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, target)
}

func (a *AsterDex) Poll(ctx context.Context) error {
	var lastErr error

	for _, coin := range a.coins {
		symbol := coin + "USDT"
		now := time.Now().UnixMilli()

		index := &struct {
			MarkPrice       string `json:"markPrice"`
			LastFundingRate string `json:"lastFundingRate"`
		}{}
		if err := a.get(ctx, fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", asterdexAPIURL, symbol), index); err != nil {
			lastErr = err
			continue
		}

		price := helpers.StringToFloat(index.MarkPrice)
		if price <= 0 {
			continue
		}

		a.store.AddPrice("asterdex", coin, price, now)
		a.store.AddFunding("asterdex", coin, helpers.StringToFloat(index.LastFundingRate), now)

		oi := &struct {
			OpenInterest string `json:"openInterest"`
		}{}
		if err := a.get(ctx, fmt.Sprintf("%s/fapi/v1/openInterest?symbol=%s", asterdexAPIURL, symbol), oi); err == nil {
			a.store.AddOpenInterest("asterdex", coin, helpers.StringToFloat(oi.OpenInterest)*price, now)
		} else {
			lastErr = err
		}
	}

	return lastErr
}
