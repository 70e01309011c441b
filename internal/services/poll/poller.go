package poll

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/metrics"
)

const cycleTimeout = 15 * time.Second

// Source is one REST venue polled on its own cadence. A failed cycle is
// logged and skipped; pollers never abandon.
type Source interface {
	Name() string
	Interval() time.Duration
	Poll(ctx context.Context) error
}

type Poller struct {
	logger  *logger.Logger
	sources []Source
	quit    chan struct{}
}

func New(logger *logger.Logger, sources ...Source) *Poller {
	return &Poller{
		logger:  logger,
		sources: sources,
		quit:    make(chan struct{}),
	}
}

// Start launches every source staggered to avoid a thundering herd.
func (p *Poller) Start() {
	stagger := viper.GetDuration("poll.stagger")
	if stagger < 2*time.Second {
		stagger = 2 * time.Second
	}

	for idx, source := range p.sources {
		go func(idx int, source Source) {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("[Poll] source crashed, recovered",
						zap.String("source", source.Name()),
						zap.Any("error", r),
						zap.String("stacktrace", string(debug.Stack())))
				}
			}()

			select {
			case <-time.After(time.Duration(idx) * stagger):
			case <-p.quit:
				return
			}

			p.cycle(source)

			ticker := time.NewTicker(source.Interval())
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					p.cycle(source)
				case <-p.quit:
					return
				}
			}
		}(idx, source)
	}
}

func (p *Poller) Stop() {
	close(p.quit)
}

func (p *Poller) cycle(source Source) {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	if err := source.Poll(ctx); err != nil {
		metrics.PollErrors.WithLabelValues(source.Name()).Inc()
		p.logger.Warn("[Poll] cycle skipped",
			zap.String("source", source.Name()), zap.Error(err))
	}
}
