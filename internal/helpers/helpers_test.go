package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(4.2, -1, 1))
	assert.Equal(t, -1.0, Clamp(-7, -1, 1))
	assert.Equal(t, 0.3, Clamp(0.3, -1, 1))
}

func TestPctChange(t *testing.T) {
	assert.InDelta(t, 2.0, PctChange(50000, 51000), 1e-9)
	assert.InDelta(t, -1.0, PctChange(100, 99), 1e-9)
	assert.Equal(t, 0.0, PctChange(0, 10))
}

func TestMeanStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 2.0, Std(values), 1e-9)

	assert.Equal(t, 0.0, Std([]float64{1}))
}

func TestTradingSession(t *testing.T) {
	assert.Equal(t, SessionAsia, TradingSession(time.Date(2025, 1, 6, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, SessionLondon, TradingSession(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, SessionOverlap, TradingSession(time.Date(2025, 1, 6, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, SessionNY, TradingSession(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC)))
	assert.Equal(t, SessionLateNY, TradingSession(time.Date(2025, 1, 6, 22, 0, 0, 0, time.UTC)))
}

func TestMarketStatus(t *testing.T) {
	// 2025-01-06 is a Monday. 15:00 UTC == 10:00 ET.
	assert.Equal(t, MarketOpen, MarketStatus(time.Date(2025, 1, 6, 15, 0, 0, 0, time.UTC)))
	// 10:00 UTC == 05:00 ET
	assert.Equal(t, MarketPreMarket, MarketStatus(time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)))
	// 22:00 UTC == 17:00 ET
	assert.Equal(t, MarketAfterHours, MarketStatus(time.Date(2025, 1, 6, 22, 0, 0, 0, time.UTC)))
	// 07:00 UTC == 02:00 ET
	assert.Equal(t, MarketClosed, MarketStatus(time.Date(2025, 1, 6, 7, 0, 0, 0, time.UTC)))
	// Saturday
	assert.Equal(t, MarketWeekend, MarketStatus(time.Date(2025, 1, 4, 15, 0, 0, 0, time.UTC)))
}
