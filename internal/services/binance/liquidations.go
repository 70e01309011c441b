package binance

import (
	"context"
	"runtime/debug"

	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/libs/channel"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/metrics"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/services/streams"
)

// Liquidations subscribes to the futures forced-order stream and enqueues
// normalised events for the store consumer.
type Liquidations struct {
	logger  *logger.Logger
	channel *channel.Channel
	coins   map[string]bool
	quit    chan struct{}
}

func NewLiquidations(logger *logger.Logger, channel *channel.Channel, coins []string) *Liquidations {
	watched := make(map[string]bool, len(coins))
	for _, coin := range coins {
		watched[coin] = true
	}

	return &Liquidations{
		logger:  logger,
		channel: channel,
		coins:   watched,
		quit:    make(chan struct{}),
	}
}

func (l *Liquidations) Watch() {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("[BinanceLiquidations] stream crashed, recovered",
					zap.Any("error", r), zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		l.consume(context.Background())
	}()
}

func (l *Liquidations) Stop() {
	close(l.quit)
}

func (l *Liquidations) consume(ctx context.Context) {
	done, _, err := futures.WsAllLiquidationOrderServe(l.handleEvent, l.handleError)
	if err != nil {
		l.logger.Error("[BinanceLiquidations] failed to connect forced-order stream", zap.Error(err))
		return
	}

	l.logger.Info("[BinanceLiquidations] forced-order stream connected")

	select {
	case <-done:
		l.logger.Error("[BinanceLiquidations] stream dropped, resuming")
	case <-l.quit:
		return
	case <-ctx.Done():
		return
	}

	l.consume(ctx)
}

func (l *Liquidations) handleEvent(event *futures.WsLiquidationOrderEvent) {
	order := event.LiquidationOrder

	coin := streams.CoinFromSymbol(order.Symbol)
	if !l.coins[coin] {
		return
	}

	price := helpers.StringToFloat(order.AvgPrice)
	if price == 0 {
		price = helpers.StringToFloat(order.Price)
	}
	quantity := helpers.StringToFloat(order.OrigQuantity)

	metrics.LiquidationsIngested.WithLabelValues("binance").Inc()

	l.channel.Get(constants.LiquidationChannelId) <- &models.LiquidationEvent{
		Symbol:   coin,
		Side:     string(order.Side),
		Price:    price,
		Quantity: quantity,
		Notional: price * quantity,
		Time:     order.TradeTime,
		Exchange: "binance",
	}
}

func (l *Liquidations) handleError(err error) {
	l.logger.Warn("[BinanceLiquidations] stream error", zap.Error(err))
}
