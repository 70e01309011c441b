package binance

import (
	"context"
	"runtime/debug"
	"strconv"

	spot "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/helpers"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/services/streams"
)

// Streams consumes Binance spot and futures agg-trade feeds through the
// shared trade pipeline.
type Streams struct {
	logger   *logger.Logger
	perpPipe *streams.Pipeline
	spotPipe *streams.Pipeline
	quit     chan struct{}
}

func NewStreams(logger *logger.Logger, store *store.Store) *Streams {
	return &Streams{
		logger:   logger,
		perpPipe: streams.NewPipeline("binance", "perp", store),
		spotPipe: streams.NewPipeline("binance", "spot", store),
		quit:     make(chan struct{}),
	}
}

// Watch starts both streams, each resuming itself on disconnect.
func (s *Streams) Watch(coins []string) {
	s.perpPipe.Start()
	s.spotPipe.Start()

	symbols := make([]string, 0, len(coins))
	for _, coin := range coins {
		symbols = append(symbols, coin+"USDT")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("[BinanceStreams] futures stream crashed, recovered",
					zap.Any("error", r), zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		s.consumeFutures(context.Background(), symbols)
	}()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("[BinanceStreams] spot stream crashed, recovered",
					zap.Any("error", r), zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		s.consumeSpot(context.Background(), symbols)
	}()
}

func (s *Streams) Stop() {
	close(s.quit)
	s.perpPipe.Stop()
	s.spotPipe.Stop()
}

func (s *Streams) consumeFutures(ctx context.Context, symbols []string) {
	done, _, err := futures.WsCombinedAggTradeServe(symbols, s.handleFuturesTrade, s.handleStreamError)
	if err != nil {
		s.logger.Error("[BinanceStreams] failed to connect futures stream", zap.Error(err))
		return
	}

	s.logger.Info("[BinanceStreams] futures agg-trade stream connected")

	select {
	case <-done:
		s.logger.Error("[BinanceStreams] futures stream dropped, resuming")
	case <-s.quit:
		return
	case <-ctx.Done():
		return
	}

	s.consumeFutures(ctx, symbols)
}

func (s *Streams) consumeSpot(ctx context.Context, symbols []string) {
	done, _, err := spot.WsCombinedAggTradeServe(symbols, s.handleSpotTrade, s.handleStreamError)
	if err != nil {
		s.logger.Error("[BinanceStreams] failed to connect spot stream", zap.Error(err))
		return
	}

	s.logger.Info("[BinanceStreams] spot agg-trade stream connected")

	select {
	case <-done:
		s.logger.Error("[BinanceStreams] spot stream dropped, resuming")
	case <-s.quit:
		return
	case <-ctx.Done():
		return
	}

	s.consumeSpot(ctx, symbols)
}

func (s *Streams) handleFuturesTrade(event *futures.WsAggTradeEvent) {
	trade := &models.Trade{
		Symbol:  event.Symbol,
		Price:   helpers.StringToFloat(event.Price),
		Size:    helpers.StringToFloat(event.Quantity),
		Side:    takerSide(event.Maker),
		Time:    event.TradeTime,
		TradeID: strconv.FormatInt(event.AggregateTradeID, 10),
	}

	s.perpPipe.OnTrade(streams.CoinFromSymbol(event.Symbol), trade)
}

func (s *Streams) handleSpotTrade(event *spot.WsAggTradeEvent) {
	trade := &models.Trade{
		Symbol:  event.Symbol,
		Price:   helpers.StringToFloat(event.Price),
		Size:    helpers.StringToFloat(event.Quantity),
		Side:    takerSide(event.IsBuyerMaker),
		Time:    event.TradeTime,
		TradeID: strconv.FormatInt(event.AggTradeID, 10),
	}

	s.spotPipe.OnTrade(streams.CoinFromSymbol(event.Symbol), trade)
}

// takerSide: buyer-is-maker means the taker sold.
func takerSide(buyerIsMaker bool) string {
	if buyerIsMaker {
		return models.SideSell
	}
	return models.SideBuy
}

func (s *Streams) handleStreamError(err error) {
	s.logger.Warn("[BinanceStreams] stream error", zap.Error(err))
}
