package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bitly/go-simplejson"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// PremiumIndex carries mark price and current funding for one symbol.
type PremiumIndex struct {
	Symbol          string `json:"symbol"`
	MarkPrice       string `json:"markPrice"`
	LastFundingRate string `json:"lastFundingRate"`
	NextFundingTime int64  `json:"nextFundingTime"`
	Time            int64  `json:"time"`
}

func (b *Binance) get(ctx context.Context, url string) ([]byte, error) {
	b.limiter.Wait(ctx)

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
		return nil, fmt.Errorf("binance: request failed with code %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (b *Binance) GetPremiumIndex(ctx context.Context, symbol string) (*PremiumIndex, error) {
	data, err := b.get(ctx, fmt.Sprintf("%s/fapi/v1/premiumIndex?symbol=%s", _APIURL, symbol))
	if err != nil {
		return nil, err
	}

	index := &PremiumIndex{}
	if err := json.Unmarshal(data, index); err != nil {
		return nil, err
	}

	return index, nil
}

// GetOpenInterest returns the base open interest for the symbol.
func (b *Binance) GetOpenInterest(ctx context.Context, symbol string) (float64, error) {
	data, err := b.get(ctx, fmt.Sprintf("%s/fapi/v1/openInterest?symbol=%s", _APIURL, symbol))
	if err != nil {
		return 0, err
	}

	resp := &struct {
		OpenInterest string `json:"openInterest"`
		Symbol       string `json:"symbol"`
	}{}
	if err := json.Unmarshal(data, resp); err != nil {
		return 0, err
	}

	return helpers.StringToFloat(resp.OpenInterest), nil
}

// GetDepth returns summed bid and ask depth over the top levels.
func (b *Binance) GetDepth(ctx context.Context, symbol string, limit int) (bid, ask float64, err error) {
	data, err := b.get(ctx, fmt.Sprintf("%s/fapi/v1/depth?symbol=%s&limit=%d", _APIURL, symbol, limit))
	if err != nil {
		return 0, 0, err
	}

	js, err := simplejson.NewJson(data)
	if err != nil {
		return 0, 0, err
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

	return sum(js.Get("bids")), sum(js.Get("asks")), nil
}

// GetRecentCVD samples the latest agg trades into one signed delta.
func (b *Binance) GetRecentCVD(ctx context.Context, symbol string, limit int) (float64, error) {
	data, err := b.get(ctx, fmt.Sprintf("%s/fapi/v1/aggTrades?symbol=%s&limit=%d", _APIURL, symbol, limit))
	if err != nil {
		return 0, err
	}

	js, err := simplejson.NewJson(data)
	if err != nil {
		return 0, err
	}

	delta := 0.0
	for i := 0; i < len(js.MustArray()); i++ {
		trade := js.GetIndex(i)
		price := helpers.StringToFloat(trade.Get("p").MustString())
		qty := helpers.StringToFloat(trade.Get("q").MustString())

		// m=true means the buyer was the maker, so the taker sold
		if trade.Get("m").MustBool() {
			delta -= price * qty
		} else {
			delta += price * qty
		}
	}

	return delta, nil
}

// GetLongShortRatio reads the latest global long/short account ratio.
func (b *Binance) GetLongShortRatio(ctx context.Context, symbol string) (*models.LongShort, error) {
	data, err := b.get(ctx, fmt.Sprintf("%s/futures/data/globalLongShortAccountRatio?symbol=%s&period=5m&limit=1", _APIURL, symbol))
	if err != nil {
		return nil, err
	}

	js, err := simplejson.NewJson(data)
	if err != nil {
		return nil, err
	}

	if len(js.MustArray()) == 0 {
		return nil, fmt.Errorf("binance: empty long/short response")
	}

	entry := js.GetIndex(0)
	return &models.LongShort{
		LongPct:  helpers.StringToFloat(entry.Get("longAccount").MustString()),
		ShortPct: helpers.StringToFloat(entry.Get("shortAccount").MustString()),
		Ratio:    helpers.StringToFloat(entry.Get("longShortRatio").MustString()),
		Time:     entry.Get("timestamp").MustInt64(),
	}, nil
}
