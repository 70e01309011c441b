package handler

import (
	"net/http"
	"time"

	"github.com/anvh2/market-bias/internal/signals"
)

// Liquidations serves the cascade signal plus the recent event feed.
func (h *Handler) Liquidations(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	events := h.store.GetLiquidations(coin)
	cascade := signals.LiquidationCascade(events, time.Now())

	// newest first for the feed
	reversed := make([]interface{}, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		reversed = append(reversed, events[i])
	}

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"coin":   coin,
		"signal": cascade,
		"events": reversed,
	})
}
