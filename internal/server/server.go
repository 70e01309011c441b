package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	projcache "github.com/anvh2/market-bias/internal/cache/projection"
	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/channel"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/libs/storage/simpledb"
	"github.com/anvh2/market-bias/internal/libs/worker"
	"github.com/anvh2/market-bias/internal/models"
	"github.com/anvh2/market-bias/internal/projection"
	"github.com/anvh2/market-bias/internal/server/handler"
	"github.com/anvh2/market-bias/internal/services/binance"
	"github.com/anvh2/market-bias/internal/services/etf"
	"github.com/anvh2/market-bias/internal/services/notify"
	"github.com/anvh2/market-bias/internal/services/poll"
	"github.com/anvh2/market-bias/internal/services/streams"
	"github.com/anvh2/market-bias/internal/tracker"
)

type Server struct {
	logger *logger.Logger
	coins  []string

	store   *store.Store
	storeDB *simpledb.Storage

	tracker   *tracker.Tracker
	trackerDB *simpledb.Storage

	engine  *projection.Engine
	channel *channel.Channel

	binance      *binance.Binance
	binanceWS    *binance.Streams
	liquidations *binance.Liquidations
	runtimes     []*streams.Runtime
	poller       *poll.Poller
	etf          *etf.Ingest
	notifier     *notify.Notifier
	liqWorker    *worker.Worker

	handler *handler.Handler
	http    *http.Server

	quitChannel chan struct{}
}

func New() *Server {
	logger, err := logger.New(viper.GetString("bias.log_path"))
	if err != nil {
		log.Fatal("failed to init logger", err)
	}

	coins := viper.GetStringSlice("market.coins")
	if len(coins) == 0 {
		coins = []string{"BTC"}
	}

	dataDir := viper.GetString("bias.data_dir")
	if dataDir == "" {
		dataDir = "data"
	}

	storeDB, err := simpledb.NewStorage(logger, filepath.Join(dataDir, "datastore.json"))
	if err != nil {
		log.Fatal("failed to init store persistence", err)
	}

	trackerDB, err := simpledb.NewStorage(logger, filepath.Join(dataDir, "winrates.json"))
	if err != nil {
		log.Fatal("failed to init tracker persistence", err)
	}

	marketStore := store.New(logger)
	marketStore.Restore(storeDB, time.Now())

	winTracker := tracker.New(logger)
	winTracker.Restore(trackerDB)

	engine := projection.NewEngine(logger, marketStore, projcache.NewCache(), winTracker)

	eventChannel := channel.New()

	binanceClient := binance.New(logger)

	notifier, err := notify.New(logger, eventChannel)
	if err != nil {
		log.Fatal("failed to init notifier", err)
	}

	server := &Server{
		logger:       logger,
		coins:        coins,
		store:        marketStore,
		storeDB:      storeDB,
		tracker:      winTracker,
		trackerDB:    trackerDB,
		engine:       engine,
		channel:      eventChannel,
		binance:      binanceClient,
		binanceWS:    binance.NewStreams(logger, marketStore),
		liquidations: binance.NewLiquidations(logger, eventChannel, coins),
		etf:          etf.New(logger, marketStore),
		notifier:     notifier,
		quitChannel:  make(chan struct{}),
	}

	for _, driver := range []streams.Driver{
		streams.NewBybitLinear(),
		streams.NewBybitSpot(),
		streams.NewOKX(),
		streams.NewCoinbase(),
		streams.NewKraken(),
		streams.NewHyperliquid(),
	} {
		server.runtimes = append(server.runtimes,
			streams.NewRuntime(logger, driver, coins, marketStore, eventChannel))
	}

	server.poller = poll.New(logger,
		poll.NewHyperliquid(marketStore, coins),
		poll.NewBinance(marketStore, binanceClient, coins),
		poll.NewBybit(marketStore, coins),
		poll.NewAsterDex(marketStore, coins),
		poll.NewNado(marketStore, coins),
	)

	server.handler = handler.New(logger, marketStore, engine, winTracker)

	liqWorker, err := worker.New(logger, &worker.PoolConfig{NumProcess: 2})
	if err != nil {
		log.Fatal("failed to init liquidation worker", err)
	}
	server.liqWorker = liqWorker.WithProcess(server.consumeLiquidation)

	return server
}

func (s *Server) Start() error {
	s.logger.Info("[Server] starting", zap.Strings("coins", s.coins))

	// ingest
	s.binanceWS.Watch(s.coins)
	s.liquidations.Watch()
	for _, runtime := range s.runtimes {
		runtime.Start()
	}
	s.poller.Start()
	s.etf.Start()

	// fan-in consumers
	s.liqWorker.Start()
	go s.drainLiquidations()
	if err := s.notifier.Start(); err != nil {
		return err
	}

	// maintenance
	s.startScheduler()

	// http
	router := mux.NewRouter()
	s.handler.Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	port := viper.GetInt("server.port")
	if raw := os.Getenv("PORT"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			port = parsed
		}
	}
	if port == 0 {
		port = 3001
	}

	s.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group := &errgroup.Group{}
	group.Go(func() error {
		s.logger.Info("[Server] http listening", zap.Int("port", port))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)

	group.Go(func() error {
		<-sigint
		s.logger.Info("[Server] shutdown signal received")
		s.Stop()
		return nil
	})

	return group.Wait()
}

// Stop flushes state and brings every task down.
func (s *Server) Stop() {
	close(s.quitChannel)

	for _, runtime := range s.runtimes {
		runtime.Stop()
	}
	s.binanceWS.Stop()
	s.liquidations.Stop()
	s.poller.Stop()
	s.etf.Stop()
	s.notifier.Stop()

	// forced snapshots on the way out
	now := time.Now()
	s.store.Save(s.storeDB, now)
	s.tracker.Save(s.trackerDB, now)

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.http.Shutdown(ctx)
	}

	s.logger.Info("[Server] stopped")
}

func (s *Server) drainLiquidations() {
	for {
		select {
		case message := <-s.channel.Get(constants.LiquidationChannelId):
			s.liqWorker.SendJob(context.Background(), message)
		case <-s.quitChannel:
			return
		}
	}
}

func (s *Server) consumeLiquidation(ctx context.Context, message interface{}) error {
	event, ok := message.(*models.LiquidationEvent)
	if !ok {
		return nil
	}

	s.store.AddLiquidation(event.Symbol, event)
	return nil
}
