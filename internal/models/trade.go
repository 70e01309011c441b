package models

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// Trade is the neutral per-exchange trade format every stream driver parses into.
type Trade struct {
	Symbol  string  `json:"symbol"`
	Price   float64 `json:"price"`
	Size    float64 `json:"size"`
	Side    string  `json:"side"`
	Time    int64   `json:"time"`
	TradeID string  `json:"trade_id"`
}

func (t *Trade) Notional() float64 {
	return t.Price * t.Size
}

// Delta is the trade's signed CVD contribution in USD.
func (t *Trade) Delta() float64 {
	if t.Side == SideBuy {
		return t.Notional()
	}
	return -t.Notional()
}

// LargeTrade is one entry of the whale-trade ring buffer.
type LargeTrade struct {
	Exchange   string  `json:"exchange"`
	Venue      string  `json:"venue"` // spot | perp
	Symbol     string  `json:"symbol"`
	Price      float64 `json:"price"`
	Size       float64 `json:"size"`
	Notional   float64 `json:"notional"`
	Side       string  `json:"side"`
	TradeID    string  `json:"trade_id"`
	Time       int64   `json:"time"`
	ReceivedAt int64   `json:"received_at"`
}

// FlowBucket is the per (coin, exchange, venue) buy/sell volume record,
// refreshed roughly every five seconds by the stream drivers.
type FlowBucket struct {
	BuyVolume  float64 `json:"buy_vol_usd"`
	SellVolume float64 `json:"sell_vol_usd"`
	Time       int64   `json:"timestamp"`
}
