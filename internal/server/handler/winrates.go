package handler

import (
	"net/http"
	"strconv"

	"github.com/anvh2/market-bias/internal/tracker"
)

func (h *Handler) WinRates(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	// the bare /win-rates path aggregates every coin
	if _, hasVar := muxCoin(r); !hasVar {
		h.respond(w, r, http.StatusOK, h.tracker.Aggregates(""))
		return
	}

	h.respond(w, r, http.StatusOK, h.tracker.Aggregates(coin))
}

func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	limit := 50
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
		"coin":        coin,
		"predictions": h.tracker.Predictions(coin, limit),
	})
}

// filterFromQuery builds a backtest filter from query parameters.
func (h *Handler) filterFromQuery(r *http.Request) *tracker.Filter {
	query := r.URL.Query()

	filter := &tracker.Filter{
		Coin:       query.Get("coin"),
		Type:       query.Get("type"),
		Strength:   query.Get("strength"),
		Confidence: query.Get("confidence"),
	}

	if from := query.Get("from"); from != "" {
		if parsed, err := strconv.ParseInt(from, 10, 64); err == nil {
			filter.From = parsed
		}
	}
	if to := query.Get("to"); to != "" {
		if parsed, err := strconv.ParseInt(to, 10, 64); err == nil {
			filter.To = parsed
		}
	}

	return filter
}

func (h *Handler) BacktestPredictions(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"predictions": h.tracker.Query(h.filterFromQuery(r)),
	})
}

func (h *Handler) BacktestStats(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.tracker.QueryStats(h.filterFromQuery(r)))
}

func (h *Handler) BacktestEquityCurve(w http.ResponseWriter, r *http.Request) {
	capital := 10000.0
	if raw := r.URL.Query().Get("capital"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			capital = parsed
		}
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"initial_capital": capital,
		"curve":           h.tracker.EquityCurve(h.filterFromQuery(r), capital),
	})
}

func (h *Handler) BacktestStreaks(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, http.StatusOK, h.tracker.StreakStats(h.filterFromQuery(r)))
}
