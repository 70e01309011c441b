package etf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/client"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
)

// candidate endpoints, tried in order until one answers with 2xx JSON
var endpoints = []string{
	"https://api.sosovalue.xyz/openapi/v2/etf/currentEtfDataMetrics",
	"https://api.sosovalue.com/openapi/v2/etf/currentEtfDataMetrics",
	"https://api.sosovalue.xyz/openapi/v1/etf/currentEtfDataMetrics",
}

// Ingest polls the ETF-flow provider every half hour and normalises the
// response into the store's daily netflow record.
type Ingest struct {
	logger  *logger.Logger
	store   *store.Store
	client  *http.Client
	apiKey  string
	tickers map[string]bool
	quit    chan struct{}
}

func New(logger *logger.Logger, store *store.Store) *Ingest {
	tickers := make(map[string]bool)
	for _, ticker := range viper.GetStringSlice("etf.tickers") {
		tickers[ticker] = true
	}

	return &Ingest{
		logger:  logger,
		store:   store,
		client:  client.New(),
		apiKey:  viper.GetString("SOSOVALUE_API_KEY"),
		tickers: tickers,
		quit:    make(chan struct{}),
	}
}

// Start runs the poll loop. Without an API key the ingest is skipped with
// a warning and the rest of the system is unaffected.
func (e *Ingest) Start() {
	if e.apiKey == "" {
		e.logger.Warn("[ETF] no SOSOVALUE_API_KEY configured, ETF ingest disabled")
		return
	}

	interval := viper.GetDuration("etf.interval")
	if interval == 0 {
		interval = 30 * time.Minute
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("[ETF] ingest crashed, recovered",
					zap.Any("error", r), zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		e.cycle()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.cycle()
			case <-e.quit:
				return
			}
		}
	}()
}

func (e *Ingest) Stop() {
	close(e.quit)
}

func (e *Ingest) cycle() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	js, err := e.fetch(ctx)
	if err != nil {
		e.logger.Warn("[ETF] poll skipped", zap.Error(err))
		return
	}

	state, err := e.normalize(js)
	if err != nil {
		e.logger.Warn("[ETF] response rejected", zap.Error(err))
		return
	}

	e.store.UpdateETFFlows(state)
	e.logger.Info("[ETF] flows updated",
		zap.Float64("net_flow_usd", state.Today.NetFlow),
		zap.String("market_status", state.MarketStatus))
}

func (e *Ingest) fetch(ctx context.Context) (*simplejson.Json, error) {
	var lastErr error

	for _, endpoint := range endpoints {
		req, err := http.NewRequest(http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			continue
		}

		req = req.WithContext(ctx)
		req.Header.Set("x-soso-api-key", e.apiKey)

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("etf: %s answered %d", endpoint, resp.StatusCode)
			continue
		}

		js, err := simplejson.NewJson(data)
		if err != nil {
			lastErr = err
			continue
		}

		return js, nil
	}

	return nil, lastErr
}

type providerItem struct {
	Ticker  string  `mapstructure:"ticker"`
	NetFlow float64 `mapstructure:"netFlow"`
	Date    string  `mapstructure:"date"`
}

// normalize folds the provider items into today's breakdown for the
// curated ticker set plus the rolling daily history.
func (e *Ingest) normalize(js *simplejson.Json) (*models.ETFState, error) {
	items := js.GetPath("data", "list").MustArray()
	if len(items) == 0 {
		items = js.Get("data").MustArray()
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("etf: no items in response")
	}

	now := time.Now()
	today := now.UTC().Format("2006-01-02")

	state := &models.ETFState{
		LastUpdated:  now.UnixMilli(),
		MarketStatus: helpers.MarketStatus(now),
		Today:        models.ETFToday{Breakdown: make(map[string]float64)},
	}

	history := make(map[string]float64)

	for _, raw := range items {
		item := &providerItem{}
		if err := mapstructure.WeakDecode(raw, item); err != nil {
			continue
		}

		if item.Date == "" || item.Date == today {
			if e.tickers[item.Ticker] {
				state.Today.Breakdown[item.Ticker] += item.NetFlow
				state.Today.NetFlow += item.NetFlow
			}
			continue
		}

		if e.tickers[item.Ticker] {
			history[item.Date] += item.NetFlow
		}
	}

	// previous state carries the rolling history forward
	if prev := e.store.GetETFFlows(); prev != nil {
		for _, day := range prev.History {
			if _, ok := history[day.Date]; !ok && day.Date != today {
				history[day.Date] = day.NetFlow
			}
		}
	}

	for date, netFlow := range history {
		state.History = append(state.History, models.ETFDaily{Date: date, NetFlow: netFlow})
	}
	sortHistory(state.History)
	if len(state.History) > 7 {
		state.History = state.History[len(state.History)-7:]
	}

	return state, nil
}

func sortHistory(history []models.ETFDaily) {
	for i := 0; i < len(history); i++ {
		for j := i + 1; j < len(history); j++ {
			if history[j].Date < history[i].Date {
				history[i], history[j] = history[j], history[i]
			}
		}
	}
}
