package streams

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// HyperliquidDriver consumes the trades subscription per coin.
type HyperliquidDriver struct{}

func NewHyperliquid() *HyperliquidDriver { return &HyperliquidDriver{} }

func (d *HyperliquidDriver) Name() string  { return "hyperliquid" }
func (d *HyperliquidDriver) Venue() string { return "perp" }
func (d *HyperliquidDriver) URL() string   { return "wss://api.hyperliquid.xyz/ws" }

func (d *HyperliquidDriver) SubscribePayloads(coins []string) [][]byte {
	payloads := make([][]byte, 0, len(coins))
	for _, coin := range coins {
		payload, _ := json.Marshal(map[string]interface{}{
			"method": "subscribe",
			"subscription": map[string]string{
				"type": "trades",
				"coin": coin,
			},
		})
		payloads = append(payloads, payload)
	}
	return payloads
}

func (d *HyperliquidDriver) PingPayload() ([]byte, bool) {
	return []byte(`{"method":"ping"}`), true
}

func (d *HyperliquidDriver) PingInterval() time.Duration { return 30 * time.Second }

type hyperliquidFrame struct {
	Channel string `json:"channel"`
	Data    []struct {
		Coin  string `json:"coin"`
		Side  string `json:"side"` // B aggressive buy, A aggressive sell
		Price string `json:"px"`
		Size  string `json:"sz"`
		Time  int64  `json:"time"`
		TID   int64  `json:"tid"`
	} `json:"data"`
}

func (d *HyperliquidDriver) Parse(raw []byte) (*Message, error) {
	frame := &hyperliquidFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, err
	}

	if frame.Channel != "trades" {
		return nil, nil
	}

	out := &Message{}
	for _, t := range frame.Data {
		side := models.SideSell
		if t.Side == "B" {
			side = models.SideBuy
		}

		out.Trades = append(out.Trades, &models.Trade{
			Symbol:  t.Coin,
			Price:   helpers.StringToFloat(t.Price),
			Size:    helpers.StringToFloat(t.Size),
			Side:    side,
			Time:    t.Time,
			TradeID: strconv.FormatInt(t.TID, 10),
		})
	}

	return out, nil
}

var _ Driver = (*HyperliquidDriver)(nil)
