package etf

import (
	"testing"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/libs/logger"
)

func testIngest() *Ingest {
	return &Ingest{
		logger:  logger.NewDev(),
		store:   store.New(logger.NewDev()),
		tickers: map[string]bool{"IBIT": true, "FBTC": true, "ARKB": true},
	}
}

func TestNormalize(t *testing.T) {
	today := time.Now().UTC().Format("2006-01-02")

	raw := `{"data":{"list":[
		{"ticker":"IBIT","netFlow":120000000,"date":"` + today + `"},
		{"ticker":"FBTC","netFlow":-20000000,"date":"` + today + `"},
		{"ticker":"GBTC","netFlow":-90000000,"date":"` + today + `"},
		{"ticker":"ARKB","netFlow":5000000,"date":"2025-01-02"}
	]}}`

	js, err := simplejson.NewJson([]byte(raw))
	require.NoError(t, err)

	state, err := testIngest().normalize(js)
	require.NoError(t, err)

	// GBTC is outside the curated set
	assert.InDelta(t, 100000000, state.Today.NetFlow, 1e-6)
	assert.Len(t, state.Today.Breakdown, 2)
	assert.NotContains(t, state.Today.Breakdown, "GBTC")

	require.Len(t, state.History, 1)
	assert.Equal(t, "2025-01-02", state.History[0].Date)
	assert.NotEmpty(t, state.MarketStatus)
}

func TestNormalizeEmpty(t *testing.T) {
	js, err := simplejson.NewJson([]byte(`{"data":{"list":[]}}`))
	require.NoError(t, err)

	_, err = testIngest().normalize(js)
	assert.Error(t, err)
}

func TestNormalizeHistoryCap(t *testing.T) {
	items := `{"ticker":"IBIT","netFlow":1000000,"date":"2025-01-01"}`
	for day := 2; day <= 10; day++ {
		items += `,{"ticker":"IBIT","netFlow":1000000,"date":"2025-01-` + pad(day) + `"}`
	}

	js, err := simplejson.NewJson([]byte(`{"data":{"list":[` + items + `]}}`))
	require.NoError(t, err)

	state, err := testIngest().normalize(js)
	require.NoError(t, err)
	assert.Len(t, state.History, 7)
	assert.Equal(t, "2025-01-10", state.History[6].Date)
}

func pad(day int) string {
	if day < 10 {
		return "0" + string(rune('0'+day))
	}
	return "1" + string(rune('0'+day-10))
}
