package models

import "encoding/json"

// Projection status values.
const (
	StatusCollecting = "COLLECTING"
	StatusWarmingUp  = "WARMING_UP"
	StatusVeto       = "VETO"
	StatusActive     = "ACTIVE"
)

// Directional labels.
const (
	DirectionBullish = "BULLISH"
	DirectionBearish = "BEARISH"
	DirectionNeutral = "NEUTRAL"
)

// Signal is a single factor output. Score is normalised to [-1, 1],
// negative is bearish. Meta carries the factor's raw numbers.
type Signal struct {
	Name  string             `json:"name"`
	Score float64            `json:"score"`
	Label string             `json:"label"`
	Meta  map[string]float64 `json:"meta,omitempty"`
}

const LabelInsufficientData = "INSUFFICIENT_DATA"

// BiasCall is the directional verdict of a projection.
type BiasCall struct {
	Bias      string  `json:"bias"`
	Strength  string  `json:"strength"`
	Score     float64 `json:"score"`
	Grade     string  `json:"grade,omitempty"`
	Direction string  `json:"direction"`
}

// Confidence pairs a level label with its [0,1] score.
type Confidence struct {
	Level string  `json:"level"`
	Score float64 `json:"score"`
}

// Invalidation describes where the projection is wrong. For directional
// calls Level is a stop; for neutral ones the breakout range applies.
type Invalidation struct {
	Level     float64 `json:"level,omitempty"`
	RangeLow  float64 `json:"range_low,omitempty"`
	RangeHigh float64 `json:"range_high,omitempty"`
	Basis     string  `json:"basis"`
}

// Projection is the composite result for one (coin, horizon).
type Projection struct {
	Coin         string             `json:"coin"`
	Horizon      string             `json:"horizon"`
	Status       string             `json:"status"`
	Reason       string             `json:"reason,omitempty"`
	CurrentPrice float64            `json:"current_price,omitempty"`
	Prediction   *BiasCall          `json:"prediction,omitempty"`
	Confidence   *Confidence        `json:"confidence,omitempty"`
	Invalidation *Invalidation      `json:"invalidation,omitempty"`
	KeyFactors   []string           `json:"key_factors,omitempty"`
	Warnings     []string           `json:"warnings,omitempty"`
	Components   map[string]*Signal `json:"components,omitempty"`
	Performance  interface{}        `json:"historical_performance,omitempty"`
	GeneratedAt  int64              `json:"generated_at"`
	ValidUntil   int64              `json:"valid_until,omitempty"`
	NextRefresh  int64              `json:"next_refresh,omitempty"`
}

func (p *Projection) String() string {
	if p == nil {
		return ""
	}

	b, _ := json.Marshal(p)
	return string(b)
}
