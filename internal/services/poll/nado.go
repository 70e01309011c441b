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
)

const nadoAPIURL = "https://archive.prod.nado.xyz"

// Nado polls the archive market snapshot on a slow cadence.
type Nado struct {
	store  *store.Store
	client *http.Client
	coins  []string
}

func NewNado(store *store.Store, coins []string) *Nado {
	return &Nado{
		store:  store,
		client: client.New(),
		coins:  coins,
	}
}

func (n *Nado) Name() string            { return "nado" }
func (n *Nado) Interval() time.Duration { return 60 * time.Second }

type nadoMarket struct {
	Symbol       string  `json:"symbol"`
	MarkPrice    float64 `json:"mark_price"`
	OpenInterest float64 `json:"open_interest"` // base units
	FundingRate  float64 `json:"funding_rate"`
}

func (n *Nado) Poll(ctx context.Context) error {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/v1/markets", nadoAPIURL), nil)
	if err != nil {
		return err
	}

	req = req.WithContext(ctx)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("nado: request failed with code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	markets := make([]*nadoMarket, 0)
	if err := json.Unmarshal(data, &markets); err != nil {
		return err
	}

	watched := make(map[string]bool, len(n.coins))
	for _, coin := range n.coins {
		watched[coin] = true
	}

	now := time.Now().UnixMilli()
	for _, market := range markets {
		coin := market.Symbol
		if !watched[coin] || market.MarkPrice <= 0 {
			continue
		}

		n.store.AddPrice("nado", coin, market.MarkPrice, now)
		n.store.AddOpenInterest("nado", coin, market.OpenInterest*market.MarkPrice, now)
		n.store.AddFunding("nado", coin, market.FundingRate, now)
	}

	return nil
}
