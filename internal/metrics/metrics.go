package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TradesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_trades_ingested_total",
		Help: "Accepted trades per exchange and venue",
	}, []string{"exchange", "venue"})

	TradesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_trades_dropped_total",
		Help: "Trades dropped by dedup or validation",
	}, []string{"exchange", "reason"})

	StreamReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_stream_reconnects_total",
		Help: "WebSocket reconnect attempts per exchange",
	}, []string{"exchange"})

	PollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_poll_errors_total",
		Help: "REST poll cycles skipped on error",
	}, []string{"source"})

	LiquidationsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_liquidations_ingested_total",
		Help: "Forced-order events ingested per exchange",
	}, []string{"exchange"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "market_bias_http_requests_total",
		Help: "API requests by route and status",
	}, []string{"route", "status"})
)
