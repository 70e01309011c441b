package poll

import (
	"bytes"
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

const hyperliquidInfoURL = "https://api.hyperliquid.xyz/info"

// Hyperliquid polls the info endpoint: one call covers price, OI and
// funding for every listed coin, plus an l2Book call per coin for depth.
type Hyperliquid struct {
	store  *store.Store
	client *http.Client
	coins  []string
}

func NewHyperliquid(store *store.Store, coins []string) *Hyperliquid {
	return &Hyperliquid{
		store:  store,
		client: client.New(),
		coins:  coins,
	}
}

func (h *Hyperliquid) Name() string            { return "hyperliquid" }
func (h *Hyperliquid) Interval() time.Duration { return 10 * time.Second }

func (h *Hyperliquid) post(ctx context.Context, body string) (*simplejson.Json, error) {
	req, err := http.NewRequest(http.MethodPost, hyperliquidInfoURL, bytes.NewBufferString(body))
	if err != nil {
		return nil, err
	}

	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("hyperliquid: request failed with code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return simplejson.NewJson(data)
}

func (h *Hyperliquid) Poll(ctx context.Context) error {
	js, err := h.post(ctx, `{"type":"metaAndAssetCtxs"}`)
	if err != nil {
		return err
	}

	// response is [meta, assetCtxs]; meta.universe aligns with assetCtxs
	universe := js.GetIndex(0).Get("universe")
	ctxs := js.GetIndex(1)

	watched := make(map[string]bool, len(h.coins))
	for _, coin := range h.coins {
		watched[coin] = true
	}

	now := time.Now().UnixMilli()
	for i := 0; i < len(universe.MustArray()); i++ {
		coin := universe.GetIndex(i).Get("name").MustString()
		if !watched[coin] {
			continue
		}

		assetCtx := ctxs.GetIndex(i)
		price := helpers.StringToFloat(assetCtx.Get("markPx").MustString())
		baseOI := helpers.StringToFloat(assetCtx.Get("openInterest").MustString())
		funding := helpers.StringToFloat(assetCtx.Get("funding").MustString())

		if price <= 0 {
			continue
		}

		h.store.AddPrice("hyperliquid", coin, price, now)
		h.store.AddOpenInterest("hyperliquid", coin, baseOI*price, now)
		h.store.AddFunding("hyperliquid", coin, funding, now)
	}

	for _, coin := range h.coins {
		if err := h.pollBook(ctx, coin); err != nil {
			// depth is best-effort; the next cycle retries
			continue
		}
	}

	return nil
}

func (h *Hyperliquid) pollBook(ctx context.Context, coin string) error {
	js, err := h.post(ctx, fmt.Sprintf(`{"type":"l2Book","coin":"%s"}`, coin))
	if err != nil {
		return err
	}

	levels := js.Get("levels")

	sum := func(side *simplejson.Json) float64 {
		total := 0.0
		for i := 0; i < len(side.MustArray()); i++ {
			level := side.GetIndex(i)
			px := helpers.StringToFloat(level.Get("px").MustString())
			sz := helpers.StringToFloat(level.Get("sz").MustString())
			total += px * sz
		}
		return total
	}

	bid := sum(levels.GetIndex(0))
	ask := sum(levels.GetIndex(1))
	if bid+ask > 0 {
		h.store.AddOrderBook("hyperliquid", coin, bid, ask, time.Now().UnixMilli())
	}

	return nil
}
