package streams

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitly/go-simplejson"

	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/models"
)

// KrakenDriver consumes the v1 public trade channel. Kraken frames are
// positional arrays, parsed with simplejson.
type KrakenDriver struct{}

func NewKraken() *KrakenDriver { return &KrakenDriver{} }

func (d *KrakenDriver) Name() string  { return "kraken" }
func (d *KrakenDriver) Venue() string { return "perp" }
func (d *KrakenDriver) URL() string   { return "wss://ws.kraken.com" }

func krakenPair(coin string) string {
	if coin == "BTC" {
		return "XBT/USD"
	}
	return coin + "/USD"
}

func (d *KrakenDriver) SubscribePayloads(coins []string) [][]byte {
	pairs := make([]string, 0, len(coins))
	for _, coin := range coins {
		pairs = append(pairs, krakenPair(coin))
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"event":        "subscribe",
		"pair":         pairs,
		"subscription": map[string]string{"name": "trade"},
	})
	return [][]byte{payload}
}

func (d *KrakenDriver) PingPayload() ([]byte, bool) {
	return []byte(`{"event":"ping"}`), true
}

func (d *KrakenDriver) PingInterval() time.Duration { return 30 * time.Second }

func (d *KrakenDriver) Parse(raw []byte) (*Message, error) {
	js, err := simplejson.NewJson(raw)
	if err != nil {
		return nil, err
	}

	// object frames are status events (heartbeat, subscriptionStatus, pong)
	if _, err := js.Map(); err == nil {
		return nil, nil
	}

	frame, err := js.Array()
	if err != nil || len(frame) < 4 {
		return nil, nil
	}

	channel, _ := js.GetIndex(2).String()
	if channel != "trade" {
		return nil, nil
	}

	pair, _ := js.GetIndex(3).String()

	entries := js.GetIndex(1)
	out := &Message{}
	for i := 0; i < len(entries.MustArray()); i++ {
		entry := entries.GetIndex(i)
		if len(entry.MustArray()) < 4 {
			continue
		}

		price := helpers.StringToFloat(entry.GetIndex(0).MustString())
		volume := helpers.StringToFloat(entry.GetIndex(1).MustString())
		ts := helpers.StringToFloat(entry.GetIndex(2).MustString())

		side := models.SideSell
		if entry.GetIndex(3).MustString() == "b" {
			side = models.SideBuy
		}

		out.Trades = append(out.Trades, &models.Trade{
			Symbol:  pair,
			Price:   price,
			Size:    volume,
			Side:    side,
			Time:    int64(ts * 1000),
			TradeID: fmt.Sprintf("%s-%.6f-%d", pair, ts, i),
		})
	}

	return out, nil
}

var _ Driver = (*KrakenDriver)(nil)
