package models

import (
	"encoding/json"
)

// Point is a single sample in an append-ordered time series.
type Point struct {
	Time  int64   `json:"t"`
	Value float64 `json:"v"`
}

// CVDPoint carries a signed volume delta instead of an absolute value.
type CVDPoint struct {
	Time  int64   `json:"t"`
	Delta float64 `json:"d"`
}

// BookPoint holds the order-book imbalance sample plus raw depth.
type BookPoint struct {
	Time      int64   `json:"t"`
	Imbalance float64 `json:"imb"` // (bid-ask)/(bid+ask) in percent
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
}

// Current caches the latest value of every attribute for O(1) snapshot reads.
type Current struct {
	Price         float64 `json:"price"`
	OpenInterest  float64 `json:"open_interest"` // USD notional
	Funding       float64 `json:"funding"`
	BookImbalance float64 `json:"book_imbalance"`
	BidDepth      float64 `json:"bid_depth"`
	AskDepth      float64 `json:"ask_depth"`
	CVD5m         float64 `json:"cvd_5m"`
	UpdatedAt     int64   `json:"updated_at"`
}

// CoinSeries groups the five series the store keeps per (exchange, coin).
type CoinSeries struct {
	Price   []*Point     `json:"price"`
	OI      []*Point     `json:"oi"`
	Funding []*Point     `json:"funding"`
	Book    []*BookPoint `json:"book"`
	CVD     []*CVDPoint  `json:"cvd"`
	Current *Current     `json:"current"`
}

func (c *CoinSeries) String() string {
	if c == nil {
		return ""
	}

	b, _ := json.Marshal(c)
	return string(b)
}

// Candle is a bucketed OHLC sample derived from the price series. Used for
// ATR and swing-level computation, never persisted.
type Candle struct {
	OpenTime  int64   `json:"s,omitempty"`
	CloseTime int64   `json:"e,omitempty"`
	Open      float64 `json:"o,omitempty"`
	High      float64 `json:"h,omitempty"`
	Low       float64 `json:"l,omitempty"`
	Close     float64 `json:"c,omitempty"`
	Volume    float64 `json:"v,omitempty"`
}
