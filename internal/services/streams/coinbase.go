package streams

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// CoinbaseDriver consumes the exchange matches channel. Coinbase sends
// server heartbeats; no client ping is needed.
type CoinbaseDriver struct{}

func NewCoinbase() *CoinbaseDriver { return &CoinbaseDriver{} }

func (d *CoinbaseDriver) Name() string  { return "coinbase" }
func (d *CoinbaseDriver) Venue() string { return "spot" }
func (d *CoinbaseDriver) URL() string   { return "wss://ws-feed.exchange.coinbase.com" }

func (d *CoinbaseDriver) SubscribePayloads(coins []string) [][]byte {
	products := make([]string, 0, len(coins))
	for _, coin := range coins {
		products = append(products, coin+"-USD")
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"type":        "subscribe",
		"product_ids": products,
		"channels":    []string{"matches", "heartbeat"},
	})
	return [][]byte{payload}
}

func (d *CoinbaseDriver) PingPayload() ([]byte, bool) { return nil, false }
func (d *CoinbaseDriver) PingInterval() time.Duration { return 0 }

type coinbaseMatch struct {
	Type      string `json:"type"`
	TradeID   int64  `json:"trade_id"`
	Side      string `json:"side"` // maker side
	Size      string `json:"size"`
	Price     string `json:"price"`
	ProductID string `json:"product_id"`
	Time      string `json:"time"`
}

func (d *CoinbaseDriver) Parse(raw []byte) (*Message, error) {
	match := &coinbaseMatch{}
	if err := json.Unmarshal(raw, match); err != nil {
		return nil, err
	}

	if match.Type != "match" && match.Type != "last_match" {
		return nil, nil
	}

	// the side field is the maker's; the taker took the other side
	side := models.SideBuy
	if match.Side == "buy" {
		side = models.SideSell
	}

	ts := time.Now().UnixMilli()
	if parsed, err := time.Parse(time.RFC3339Nano, match.Time); err == nil {
		ts = parsed.UnixMilli()
	}

	return &Message{Trades: []*models.Trade{{
		Symbol:  match.ProductID,
		Price:   helpers.StringToFloat(match.Price),
		Size:    helpers.StringToFloat(match.Size),
		Side:    side,
		Time:    ts,
		TradeID: strconv.FormatInt(match.TradeID, 10),
	}}}, nil
}

var _ Driver = (*CoinbaseDriver)(nil)
