package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/signals"
)

// Projection12Hr serves the cached 12h projection. BTC only.
func (h *Handler) Projection12Hr(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok || coin != "BTC" {
		h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
			"error":      "12h projection is BTC only",
			"validCoins": []string{"BTC"},
		})
		return
	}

	h.respond(w, r, http.StatusOK, h.engine.Get12Hr(coin))
}

// Projection4Hr serves the cached 4h projection. BTC only.
func (h *Handler) Projection4Hr(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok || coin != "BTC" {
		h.respond(w, r, http.StatusBadRequest, map[string]interface{}{
			"error":      "4h bias is BTC only",
			"validCoins": []string{"BTC"},
		})
		return
	}

	h.respond(w, r, http.StatusOK, h.engine.Get4Hr(coin))
}

func (h *Handler) ProjectionDaily(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	h.respond(w, r, http.StatusOK, h.engine.GetDaily(coin))
}

// LiquidationZones reports the estimated liquidation bands plus the
// realtime cascade signal.
func (h *Handler) LiquidationZones(w http.ResponseWriter, r *http.Request) {
	coin, ok := h.coin(r)
	if !ok {
		h.badCoin(w, r)
		return
	}

	now := time.Now()

	price, aggregatedOI, fundingAPR := h.aggregates(coin)
	oiVelocity := h.oiVelocity24h(coin, now)

	zones := signals.LiquidationZones(price, fundingAPR, aggregatedOI, oiVelocity)
	cascade := signals.LiquidationCascade(h.store.GetLiquidations(coin), now)

	h.respond(w, r, http.StatusOK, map[string]interface{}{
		"coin":    coin,
		"zones":   zones,
		"cascade": cascade,
	})
}

// aggregates sums OI and averages funding APR across the perp venues,
// preferring the first venue with a price for the reference price.
func (h *Handler) aggregates(coin string) (price, aggregatedOI, fundingAPR float64) {
	aprSum, aprCount := 0.0, 0

	for _, exchange := range constants.PerpExchanges {
		snapshot, err := h.store.GetCurrentSnapshot(exchange)
		if err != nil {
			continue
		}

		current, ok := snapshot[coin]
		if !ok {
			continue
		}

		if price == 0 && current.Price > 0 {
			price = current.Price
		}
		aggregatedOI += current.OpenInterest

		if current.Funding != 0 {
			aprSum += current.Funding * constants.FundingPeriods(exchange) * 365 * 100
			aprCount++
		}
	}

	if aprCount > 0 {
		fundingAPR = aprSum / float64(aprCount)
	}

	return price, aggregatedOI, fundingAPR
}

func (h *Handler) oiVelocity24h(coin string, now time.Time) float64 {
	for _, exchange := range constants.PerpExchanges {
		series := h.store.OISeries(exchange, coin)
		if len(series) < 2 {
			continue
		}

		first := series[0]
		last := series[len(series)-1]
		if first.Value == 0 {
			continue
		}

		change := (last.Value - first.Value) / first.Value * 100
		if !math.IsNaN(change) && !math.IsInf(change, 0) {
			return change
		}
	}

	return 0
}
