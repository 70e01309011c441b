package handler

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/metrics"
	"github.com/anvh2/market-bias/internal/projection"
	"github.com/anvh2/market-bias/internal/tracker"
)

// Handler owns the read-only JSON API over the store, the projection
// engine and the win-rate tracker.
type Handler struct {
	logger    *logger.Logger
	store     *store.Store
	engine    *projection.Engine
	tracker   *tracker.Tracker
	coins     []string
	coinSet   map[string]bool
	startedAt time.Time
}

func New(logger *logger.Logger, store *store.Store, engine *projection.Engine, tracker *tracker.Tracker) *Handler {
	coins := viper.GetStringSlice("market.coins")
	coinSet := make(map[string]bool, len(coins))
	for _, coin := range coins {
		coinSet[coin] = true
	}

	return &Handler{
		logger:    logger,
		store:     store,
		engine:    engine,
		tracker:   tracker,
		coins:     coins,
		coinSet:   coinSet,
		startedAt: time.Now(),
	}
}

// Register wires every route. Static paths go first so they win over the
// {coin} patterns.
func (h *Handler) Register(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.Stats).Methods(http.MethodGet)
	api.HandleFunc("/data/all", h.AllData).Methods(http.MethodGet)
	api.HandleFunc("/data/{exchange}", h.ExchangeData).Methods(http.MethodGet)
	api.HandleFunc("/snapshot/{exchange}", h.Snapshot).Methods(http.MethodGet)
	api.HandleFunc("/whale-trades", h.WhaleTrades).Methods(http.MethodGet)
	api.HandleFunc("/vwap/{coin}", h.VWAP).Methods(http.MethodGet)
	api.HandleFunc("/spot-cvd", h.SpotCVD).Methods(http.MethodGet)
	api.HandleFunc("/spot-cvd/{coin}", h.SpotCVD).Methods(http.MethodGet)
	api.HandleFunc("/exchange-flow/{coin}", h.ExchangeFlow).Methods(http.MethodGet)
	api.HandleFunc("/etf-flows", h.ETFFlows).Methods(http.MethodGet)
	api.HandleFunc("/liquidations", h.Liquidations).Methods(http.MethodGet)
	api.HandleFunc("/liquidations/{coin}", h.Liquidations).Methods(http.MethodGet)
	api.HandleFunc("/win-rates", h.WinRates).Methods(http.MethodGet)
	api.HandleFunc("/win-rates/{coin}", h.WinRates).Methods(http.MethodGet)
	api.HandleFunc("/predictions/{coin}", h.Predictions).Methods(http.MethodGet)
	api.HandleFunc("/backtest/predictions", h.BacktestPredictions).Methods(http.MethodGet)
	api.HandleFunc("/backtest/stats", h.BacktestStats).Methods(http.MethodGet)
	api.HandleFunc("/backtest/equity-curve", h.BacktestEquityCurve).Methods(http.MethodGet)
	api.HandleFunc("/backtest/streaks", h.BacktestStreaks).Methods(http.MethodGet)

	api.HandleFunc("/{coin}/projection", h.Projection12Hr).Methods(http.MethodGet)
	api.HandleFunc("/{coin}/4hr-bias", h.Projection4Hr).Methods(http.MethodGet)
	api.HandleFunc("/{coin}/daily-bias", h.ProjectionDaily).Methods(http.MethodGet)
	api.HandleFunc("/{coin}/liquidation-zones", h.LiquidationZones).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	route := r.URL.Path
	if current := mux.CurrentRoute(r); current != nil {
		if tmpl, err := current.GetPathTemplate(); err == nil {
			route = tmpl
		}
	}
	metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Warn("[Handler] failed to encode response", zap.Error(err))
	}
}

func (h *Handler) badCoin(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
		"error":      "unknown coin",
		"validCoins": h.coins,
	})
}

func (h *Handler) badExchange(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
		"error":          "unknown exchange",
		"validExchanges": h.store.Exchanges(),
	})
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("[Handler] request failed", zap.String("path", r.URL.Path), zap.Error(err))
	h.respond(w, r, http.StatusInternalServerError, map[string]interface{}{
		"error":   "internal error",
		"message": err.Error(),
	})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusNotFound, map[string]interface{}{
		"error": "Not Found",
		"path":  r.URL.Path,
	})
}

// coin resolves the {coin} path variable, defaulting to BTC.
func (h *Handler) coin(r *http.Request) (string, bool) {
	coin, ok := muxCoin(r)
	if !ok {
		return "BTC", true
	}
	return coin, h.coinSet[coin]
}

func muxCoin(r *http.Request) (string, bool) {
	coin, ok := mux.Vars(r)["coin"]
	return coin, ok && coin != ""
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	mem := &runtime.MemStats{}
	runtime.ReadMemStats(mem)

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"heap_alloc":     mem.HeapAlloc,
		"heap_objects":   mem.HeapObjects,
		"goroutines":     runtime.NumGoroutine(),
		"store":          h.store.Stats(),
	})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	mem := &runtime.MemStats{}
	runtime.ReadMemStats(mem)

	longShort := make(map[string]interface{}, len(h.coins))
	vwap := make(map[string]interface{}, len(h.coins))
	for _, coin := range h.coins {
		if ls := h.store.GetLongShort(coin); ls != nil {
			longShort[coin] = ls
		}
		if v := h.store.GetVWAP(coin); v != nil {
			vwap[coin] = v
		}
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"heap_alloc":     mem.HeapAlloc,
		"heap_sys":       mem.HeapSys,
		"heap_objects":   mem.HeapObjects,
		"num_gc":         mem.NumGC,
		"goroutines":     runtime.NumGoroutine(),
		"store":          h.store.Stats(),
		"exchanges":      h.store.Exchanges(),
		"long_short":     longShort,
		"vwap":           vwap,
		"coins":          h.coins,
	})
}
