package constants

import "time"

const (
	LiquidationChannelId = "liquidation.events"
	NotifyChannelId      = "notify.signals"
)

const (
	SeriesRetention      = 24 * time.Hour
	FundingRetention     = 90 * 24 * time.Hour
	LiquidationRetention = 2 * time.Hour
	LiquidationCap       = 1000
	WhaleTradeCap        = 500
	DedupCap             = 10000
	DedupRetain          = 5000
)

// Projection types recorded by the win-rate tracker.
const (
	ProjectionType12Hr         = "12hr"
	ProjectionTypeDaily        = "daily"
	ProjectionType4Hr          = "4hr"
	ProjectionType4HrComposite = "4hr-composite"
	ProjectionTypeOI4Hr        = "oi-4hr"
	ProjectionTypeCVD2Hr       = "cvd-2hr"
)

// RecordCooldown is the minimum spacing between two recorded predictions
// of the same (coin, type).
var RecordCooldown = map[string]time.Duration{
	ProjectionType12Hr:         4 * time.Hour,
	ProjectionTypeDaily:        4 * time.Hour,
	ProjectionType4Hr:          2 * time.Hour,
	ProjectionType4HrComposite: 2 * time.Hour,
	ProjectionTypeOI4Hr:        2 * time.Hour,
	ProjectionTypeCVD2Hr:       1 * time.Hour,
}

// EvaluationDelay is how long after recording a prediction becomes evaluable.
var EvaluationDelay = map[string]time.Duration{
	ProjectionType12Hr:         8 * time.Hour,
	ProjectionTypeDaily:        16 * time.Hour,
	ProjectionType4Hr:          3 * time.Hour,
	ProjectionType4HrComposite: 3 * time.Hour,
	ProjectionTypeOI4Hr:        3 * time.Hour,
	ProjectionTypeCVD2Hr:       90 * time.Minute,
}

// ProjectionTTL is the single-slot cache lifetime per horizon.
var ProjectionTTL = map[string]time.Duration{
	ProjectionType12Hr:  1 * time.Hour,
	ProjectionTypeDaily: 4 * time.Hour,
	ProjectionType4Hr:   30 * time.Minute,
}

// CVDThreshold holds the per-coin CVD notional scale in USD. A 30m+2h
// weighted delta at Strong saturates the persistence score.
type CVDThreshold struct {
	Weak     float64
	Moderate float64
	Strong   float64
}

var cvdThresholds = map[string]CVDThreshold{
	"BTC": {Weak: 2_000_000, Moderate: 5_000_000, Strong: 10_000_000},
	"ETH": {Weak: 1_000_000, Moderate: 2_500_000, Strong: 5_000_000},
	"SOL": {Weak: 500_000, Moderate: 1_000_000, Strong: 2_000_000},
}

var defaultCVDThreshold = CVDThreshold{Weak: 250_000, Moderate: 500_000, Strong: 1_000_000}

func CVDThresholdFor(coin string) CVDThreshold {
	if th, ok := cvdThresholds[coin]; ok {
		return th
	}
	return defaultCVDThreshold
}

// FundingPeriodsPerDay captures each venue's settlement cadence for
// annualisation. Most perps settle every 8 hours; Hyperliquid hourly.
var FundingPeriodsPerDay = map[string]float64{
	"binance":     3,
	"bybit":       3,
	"okx":         3,
	"nado":        3,
	"asterdex":    3,
	"hyperliquid": 24,
}

func FundingPeriods(exchange string) float64 {
	if p, ok := FundingPeriodsPerDay[exchange]; ok {
		return p
	}
	return 3
}

// PerpExchanges are venues contributing perp series to the store.
var PerpExchanges = []string{"binance", "bybit", "okx", "hyperliquid", "kraken", "nado", "asterdex"}

// SpotCVDExchanges are venues contributing spot CVD.
var SpotCVDExchanges = []string{"binance", "bybit", "coinbase"}

// ConfluenceExchanges is the fixed set used for cross-exchange agreement.
var ConfluenceExchanges = []string{"hyperliquid", "binance", "bybit"}
