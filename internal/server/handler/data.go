package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/signals"
)

func (h *Handler) AllData(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]interface{})
	for _, exchange := range h.store.Exchanges() {
		data, err := h.store.GetExchangeData(exchange)
		if err != nil {
			continue
		}
		out[exchange] = data
	}

	h.respond(w, r, http.StatusOK, out)
}

func (h *Handler) ExchangeData(w http.ResponseWriter, r *http.Request) {
	exchange := mux.Vars(r)["exchange"]

	data, err := h.store.GetExchangeData(exchange)
	if err != nil {
		h.badExchange(w, r)
		return
	}

	h.respond(w, r, http.StatusOK, data)
}

func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	exchange := mux.Vars(r)["exchange"]

	snapshot, err := h.store.GetCurrentSnapshot(exchange)
	if err != nil {
		h.badExchange(w, r)
		return
	}

	h.respond(w, r, http.StatusOK, snapshot)
}

func (h *Handler) WhaleTrades(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
				"error": "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"trades": h.store.GetLargeTrades(limit),
	})
}

func (h *Handler) VWAP(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	vwap := h.store.GetVWAP(coin)
	if vwap == nil {
		h.respond(w, r, http.StatusOK, map[string]interface{}{
			"coin":   coin,
			"status": "COLLECTING",
		})
		return
	}

	h.respond(w, r, http.StatusOK, vwap)
}

func (h *Handler) SpotCVD(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	now := time.Now()
	since := now.Add(-6 * time.Hour)
	spotDelta := h.store.AggregatedSpotCVDDeltaSince(coin, since)
	perpDelta := h.store.AggregatedCVDDeltaSince(coin, since)
	perpHistory := h.store.GetAggregatedPerpCVDHistory(coin)

	divergence := signals.SpotPerpDivergence(spotDelta, perpDelta, coin, len(perpHistory) > 0)

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"coin":          coin,
		"spot_history":  h.store.GetAggregatedSpotCVDHistory(coin),
		"perp_history":  perpHistory,
		"spot_delta_6h": spotDelta,
		"perp_delta_6h": perpDelta,
		"divergence":    divergence,
	})
}

func (h *Handler) ExchangeFlow(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	window := r.URL.Query().Get("window")
	if window == "" {
		window = "5"
	}

	valid := false
	for _, candidate := range store.FlowWindows {
		if window == candidate {
			valid = true
			break
		}
	}
	if !valid {
		h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
			"error":        "window must be one of 5, 15, 60",
			"validWindows": store.FlowWindows,
		})
		return
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"coin":   coin,
		"window": window,
		"flows":  h.store.GetExchangeFlows(coin, window),
	})
}

func (h *Handler) ETFFlows(w http.ResponseWriter, r *http.Request) {
	state := h.store.GetETFFlows()
	if state == nil {
		state = &models.ETFState{MarketStatus: "unknown"}
	}

	h.respond(w, r, http.StatusOK, state)
}
