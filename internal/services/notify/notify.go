package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	tb "gopkg.in/telebot.v3"

	"github.com/anvh2/market-bias/internal/cache/basic"
	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/channel"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/libs/worker"
	"github.com/anvh2/market-bias/internal/models"
)

// Notifier pushes strong ACTIVE projections to the configured Telegram
// channel, with a per (coin, horizon) cooldown.
type Notifier struct {
	logger   *logger.Logger
	bot      *tb.Bot
	channel  *channel.Channel
	sent     *basic.Cache
	worker   *worker.Worker
	cooldown time.Duration
	chatID   int64
}

func New(logger *logger.Logger, channel *channel.Channel) (*Notifier, error) {
	token := viper.GetString("telegram.token")

	var bot *tb.Bot
	if token != "" {
		var err error
		bot, err = tb.NewBot(tb.Settings{
			Token:  token,
			Poller: &tb.LongPoller{Timeout: 10 * time.Second},
		})
		if err != nil {
			logger.Error("[Notify] failed to create telegram bot", zap.Error(err))
			return nil, err
		}
		go bot.Start()
	} else {
		logger.Warn("[Notify] no telegram token configured, notifications disabled")
	}

	cooldown := viper.GetDuration("notify.cooldown")
	if cooldown == 0 {
		cooldown = 2 * time.Hour
	}

	n := &Notifier{
		logger:   logger,
		bot:      bot,
		channel:  channel,
		sent:     basic.NewCache(),
		cooldown: cooldown,
		chatID:   viper.GetInt64("notify.channels.bias_announcement"),
	}

	pool, err := worker.New(logger, &worker.PoolConfig{NumProcess: 2})
	if err != nil {
		return nil, err
	}
	n.worker = pool.WithProcess(n.process)

	return n, nil
}

// Start drains the notify channel through the worker pool.
func (n *Notifier) Start() error {
	if err := n.worker.Start(); err != nil {
		return err
	}

	go func() {
		for message := range n.channel.Get(constants.NotifyChannelId) {
			n.worker.SendJob(context.Background(), message)
		}
	}()

	return nil
}

func (n *Notifier) Stop() {
	if n.bot != nil {
		n.bot.Stop()
	}
}

// Eligible reports whether the projection is worth announcing.
func Eligible(projection *models.Projection) bool {
	if projection == nil || projection.Status != models.StatusActive || projection.Prediction == nil {
		return false
	}

	p := projection.Prediction
	if p.Grade == "A+" || p.Grade == "A" {
		return true
	}
	return p.Score >= 0.6 || p.Score <= -0.6
}

func (n *Notifier) process(ctx context.Context, message interface{}) error {
	projection, ok := message.(*models.Projection)
	if !ok || !Eligible(projection) {
		return nil
	}

	key := fmt.Sprintf("notify.sent.%s-%s", projection.Coin, projection.Horizon)
	last, existed := n.sent.SetEX(key, time.Now().UnixMilli())
	if existed && time.Now().Before(time.UnixMilli(last.(int64)).Add(n.cooldown)) {
		return nil
	}

	text := format(projection)

	if n.bot == nil {
		n.logger.Info("[Notify] signal (telegram disabled)", zap.String("message", text))
		return nil
	}

	if _, err := n.bot.Send(&tb.User{ID: n.chatID}, text); err != nil {
		n.logger.Error("[Notify] failed to send message", zap.Error(err))
		return err
	}

	n.logger.Info("[Notify] pushed signal",
		zap.String("coin", projection.Coin), zap.String("horizon", projection.Horizon))
	return nil
}

func format(p *models.Projection) string {
	text := fmt.Sprintf("#%s %s bias\n\t%s (score %.2f)", p.Coin, p.Horizon, p.Prediction.Bias, p.Prediction.Score)
	if p.Prediction.Grade != "" {
		text += fmt.Sprintf(" grade %s", p.Prediction.Grade)
	}
	if p.Confidence != nil {
		text += fmt.Sprintf("\n\tconfidence %s (%.2f)", p.Confidence.Level, p.Confidence.Score)
	}
	if p.Invalidation != nil && p.Invalidation.Level > 0 {
		text += fmt.Sprintf("\n\tinvalidation %.2f", p.Invalidation.Level)
	}
	return text
}
