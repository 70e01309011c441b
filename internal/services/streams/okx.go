package streams

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// OKXDriver consumes the v5 public trades channel for USDT swaps.
type OKXDriver struct{}

func NewOKX() *OKXDriver { return &OKXDriver{} }

func (d *OKXDriver) Name() string  { return "okx" }
func (d *OKXDriver) Venue() string { return "perp" }
func (d *OKXDriver) URL() string   { return "wss://ws.okx.com:8443/ws/v5/public" }

func (d *OKXDriver) SubscribePayloads(coins []string) [][]byte {
	args := make([]map[string]string, 0, len(coins))
	for _, coin := range coins {
		args = append(args, map[string]string{
			"channel": "trades",
			"instId":  coin + "-USDT-SWAP",
		})
	}

	payload, _ := json.Marshal(map[string]interface{}{"op": "subscribe", "args": args})
	return [][]byte{payload}
}

// OKX expects a literal "ping" text frame.
func (d *OKXDriver) PingPayload() ([]byte, bool) { return []byte("ping"), true }

func (d *OKXDriver) PingInterval() time.Duration { return 25 * time.Second }

type okxFrame struct {
	Arg struct {
		Channel string `json:"channel"`
	} `json:"arg"`
	Data []struct {
		InstID  string `json:"instId"`
		TradeID string `json:"tradeId"`
		Price   string `json:"px"`
		Size    string `json:"sz"`
		Side    string `json:"side"`
		Time    string `json:"ts"`
	} `json:"data"`
}

func (d *OKXDriver) Parse(raw []byte) (*Message, error) {
	if bytes.Equal(raw, []byte("pong")) {
		return nil, nil
	}

	frame := &okxFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, err
	}

	if frame.Arg.Channel != "trades" {
		return nil, nil
	}

	out := &Message{}
	for _, t := range frame.Data {
		side := models.SideSell
		if t.Side == "buy" {
			side = models.SideBuy
		}

		out.Trades = append(out.Trades, &models.Trade{
			Symbol:  t.InstID,
			Price:   helpers.StringToFloat(t.Price),
			Size:    helpers.StringToFloat(t.Size),
			Side:    side,
			Time:    int64(helpers.StringToFloat(t.Time)),
			TradeID: t.TradeID,
		})
	}

	return out, nil
}

var _ Driver = (*OKXDriver)(nil)
