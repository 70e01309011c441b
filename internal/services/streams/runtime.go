package streams

import (
	"runtime/debug"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/cache/store"
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/channel"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/metrics"
	"github.com/anvh2/market-bias/internal/models"
)

const (
	reconnectBase = 5 * time.Second
	reconnectCap  = 10
	dialTimeout   = 30 * time.Second
)

// Message is the neutral parse result of one inbound frame.
type Message struct {
	Trades       []*models.Trade
	Liquidations []*models.LiquidationEvent
}

// Driver is one exchange's wire dialect. The Runtime owns everything else:
// the socket, reconnection, dedup, windows and publication.
type Driver interface {
	Name() string
	Venue() string // spot | perp
	URL() string
	SubscribePayloads(coins []string) [][]byte
	PingPayload() ([]byte, bool)
	PingInterval() time.Duration
	Parse(raw []byte) (*Message, error)
}

// Runtime drives a single WebSocket connection for one Driver.
type Runtime struct {
	logger   *logger.Logger
	driver   Driver
	coins    []string
	pipeline *Pipeline
	channel  *channel.Channel

	conn *websocket.Conn
	quit chan struct{}
}

func NewRuntime(logger *logger.Logger, driver Driver, coins []string, store *store.Store, channel *channel.Channel) *Runtime {
	return &Runtime{
		logger:   logger,
		driver:   driver,
		coins:    coins,
		pipeline: NewPipeline(driver.Name(), driver.Venue(), store),
		channel:  channel,
		quit:     make(chan struct{}),
	}
}

// Start connects in its own goroutine and keeps the stream alive with
// exponential backoff, abandoning after the attempt budget.
func (r *Runtime) Start() {
	r.pipeline.Start()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("[Stream] driver crashed, recovered",
					zap.String("exchange", r.driver.Name()),
					zap.Any("error", rec),
					zap.String("stacktrace", string(debug.Stack())))
			}
		}()

		attempts := 0
		backoff := reconnectBase

		reset := func() {
			attempts = 0
			backoff = reconnectBase
		}

		for {
			select {
			case <-r.quit:
				return
			default:
			}

			if err := r.run(reset); err != nil {
				attempts++
				metrics.StreamReconnects.WithLabelValues(r.driver.Name()).Inc()

				if attempts >= reconnectCap {
					r.logger.Error("[Stream] reconnect budget exhausted, driver stopped",
						zap.String("exchange", r.driver.Name()),
						zap.Int("attempts", attempts))
					return
				}

				r.logger.Warn("[Stream] disconnected, reconnecting",
					zap.String("exchange", r.driver.Name()),
					zap.Int("attempt", attempts),
					zap.Duration("backoff", backoff),
					zap.Error(err))

				select {
				case <-time.After(backoff):
				case <-r.quit:
					return
				}
				backoff *= 2
				continue
			}

			// run returned nil: clean shutdown
			return
		}
	}()
}

func (r *Runtime) Stop() {
	close(r.quit)
	if r.conn != nil {
		r.conn.Close()
	}
	r.pipeline.Stop()
}

// run dials, subscribes and reads until the connection drops. A nil return
// means the runtime was asked to stop. onConnected resets the caller's
// backoff after a successful subscribe.
func (r *Runtime) run(onConnected func()) error {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(r.driver.URL(), nil)
	if err != nil {
		return err
	}
	r.conn = conn

	for _, payload := range r.driver.SubscribePayloads(r.coins) {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			return err
		}
	}

	r.logger.Info("[Stream] connected",
		zap.String("exchange", r.driver.Name()),
		zap.String("venue", r.driver.Venue()))
	onConnected()

	pingQuit := make(chan struct{})
	defer close(pingQuit)

	if payload, ok := r.driver.PingPayload(); ok {
		go func() {
			ticker := time.NewTicker(r.driver.PingInterval())
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				case <-pingQuit:
					return
				}
			}
		}()
	}

	for {
		select {
		case <-r.quit:
			conn.Close()
			return nil
		default:
		}

		_, raw, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			select {
			case <-r.quit:
				return nil
			default:
				return err
			}
		}

		message, err := r.driver.Parse(raw)
		if err != nil || message == nil {
			// bad frames are dropped without log spam
			continue
		}

		for _, trade := range message.Trades {
			r.pipeline.OnTrade(CoinFromSymbol(trade.Symbol), trade)
		}

		for _, event := range message.Liquidations {
			metrics.LiquidationsIngested.WithLabelValues(r.driver.Name()).Inc()
			r.channel.Get(constants.LiquidationChannelId) <- event
		}
	}
}
