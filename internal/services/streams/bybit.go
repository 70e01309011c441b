package streams

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// BybitDriver consumes v5 public trade streams. The linear stream also
// carries the per-symbol liquidation topic.
type BybitDriver struct {
	venue string // spot | perp
}

func NewBybitLinear() *BybitDriver { return &BybitDriver{venue: "perp"} }
func NewBybitSpot() *BybitDriver   { return &BybitDriver{venue: "spot"} }

func (d *BybitDriver) Name() string  { return "bybit" }
func (d *BybitDriver) Venue() string { return d.venue }

func (d *BybitDriver) URL() string {
	if d.venue == "spot" {
		return "wss://stream.bybit.com/v5/public/spot"
	}
	return "wss://stream.bybit.com/v5/public/linear"
}

func (d *BybitDriver) SubscribePayloads(coins []string) [][]byte {
	args := make([]string, 0, len(coins)*2)
	for _, coin := range coins {
		args = append(args, "publicTrade."+coin+"USDT")
		if d.venue == "perp" {
			args = append(args, "liquidation."+coin+"USDT")
		}
	}

	payload, _ := json.Marshal(map[string]interface{}{"op": "subscribe", "args": args})
	return [][]byte{payload}
}

func (d *BybitDriver) PingPayload() ([]byte, bool) {
	return []byte(`{"op":"ping"}`), true
}

func (d *BybitDriver) PingInterval() time.Duration { return 20 * time.Second }

type bybitFrame struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

type bybitTrade struct {
	Time    int64  `json:"T"`
	Symbol  string `json:"s"`
	Side    string `json:"S"`
	Size    string `json:"v"`
	Price   string `json:"p"`
	TradeID string `json:"i"`
}

type bybitLiquidation struct {
	UpdatedTime int64  `json:"updatedTime"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	Size        string `json:"size"`
	Price       string `json:"price"`
}

func (d *BybitDriver) Parse(raw []byte) (*Message, error) {
	frame := &bybitFrame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(frame.Topic, "publicTrade."):
		trades := make([]*bybitTrade, 0, 4)
		if err := json.Unmarshal(frame.Data, &trades); err != nil {
			return nil, err
		}

		out := &Message{}
		for _, t := range trades {
			side := models.SideSell
			if t.Side == "Buy" {
				side = models.SideBuy
			}
			out.Trades = append(out.Trades, &models.Trade{
				Symbol:  t.Symbol,
				Price:   helpers.StringToFloat(t.Price),
				Size:    helpers.StringToFloat(t.Size),
				Side:    side,
				Time:    t.Time,
				TradeID: t.TradeID,
			})
		}
		return out, nil

	case strings.HasPrefix(frame.Topic, "liquidation."):
		liq := &bybitLiquidation{}
		if err := json.Unmarshal(frame.Data, liq); err != nil {
			return nil, err
		}

		price := helpers.StringToFloat(liq.Price)
		quantity := helpers.StringToFloat(liq.Size)
		side := models.SideSell
		if liq.Side == "Buy" {
			side = models.SideBuy
		}

		return &Message{Liquidations: []*models.LiquidationEvent{{
			Symbol:   CoinFromSymbol(liq.Symbol),
			Side:     side,
			Price:    price,
			Quantity: quantity,
			Notional: price * quantity,
			Time:     liq.UpdatedTime,
			Exchange: "bybit",
		}}}, nil
	}

	// subscription acks, pong frames
	return nil, nil
}

var _ Driver = (*BybitDriver)(nil)
