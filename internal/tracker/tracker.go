package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/libs/logger"
	"github.com/anvh2/market-bias/internal/libs/storage/simpledb"
	"github.com/anvh2/market-bias/internal/models"
	"go.uber.org/zap"
)

const predictionRetention = 365 * 24 * time.Hour

// Tracker owns the prediction log: record with cooldowns, evaluate after
// the horizon delay, aggregate accuracy, persist as JSON.
type Tracker struct {
	logger *logger.Logger
	mutex  sync.RWMutex

	predictions []*models.Prediction
	lastRecord  map[string]int64 // coin:type -> last record ms

	dirty bool
}

func New(logger *logger.Logger) *Tracker {
	return &Tracker{
		logger:      logger,
		predictions: make([]*models.Prediction, 0),
		lastRecord:  make(map[string]int64),
	}
}

func recordKey(coin, projectionType string) string {
	return coin + ":" + projectionType
}

// Record appends a prediction unless another of the same (coin, type)
// exists within the type's cooldown window.
func (t *Tracker) Record(prediction *models.Prediction) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	cooldown, ok := constants.RecordCooldown[prediction.Type]
	if !ok {
		t.logger.Warn("[Tracker] unknown projection type", zap.String("type", prediction.Type))
		return false
	}

	key := recordKey(prediction.Coin, prediction.Type)
	if last, ok := t.lastRecord[key]; ok {
		if prediction.Time-last < cooldown.Milliseconds() {
			return false
		}
	}

	if prediction.ID == "" {
		prediction.ID = uuid.NewString()
	}
	prediction.Outcome = models.OutcomePending

	t.predictions = append(t.predictions, prediction)
	t.lastRecord[key] = prediction.Time
	t.dirty = true

	t.logger.Info("[Tracker] prediction recorded",
		zap.String("coin", prediction.Coin),
		zap.String("type", prediction.Type),
		zap.String("direction", prediction.PredictedDirection),
		zap.Float64("score", prediction.Score))

	return true
}

// Predictions returns up to limit records for the coin, newest first. An
// empty coin matches everything.
func (t *Tracker) Predictions(coin string, limit int) []*models.Prediction {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]*models.Prediction, 0, limit)
	for i := len(t.predictions) - 1; i >= 0; i-- {
		p := t.predictions[i]
		if coin != "" && p.Coin != coin {
			continue
		}

		copied := *p
		out = append(out, &copied)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	return out
}

type trackerFile struct {
	Predictions []*models.Prediction  `json:"predictions"`
	Stats       map[string]*Aggregate `json:"stats"`
	SavedAt     int64                 `json:"savedAt"`
}

// Save persists the log, pruning records past a year. I/O failure is
// logged and swallowed.
func (t *Tracker) Save(db simpledb.DB, now time.Time) {
	t.mutex.Lock()

	if !t.dirty {
		t.mutex.Unlock()
		return
	}

	cutoff := now.Add(-predictionRetention).UnixMilli()
	kept := make([]*models.Prediction, 0, len(t.predictions))
	for _, p := range t.predictions {
		if p.Time >= cutoff {
			kept = append(kept, p)
		}
	}
	t.predictions = kept

	file := &trackerFile{
		Predictions: t.predictions,
		Stats:       t.aggregateLocked(""),
		SavedAt:     now.UnixMilli(),
	}
	t.mutex.Unlock()

	if err := db.Save(file); err != nil {
		t.logger.Warn("[Tracker] save failed", zap.Error(err))
		return
	}

	t.mutex.Lock()
	t.dirty = false
	t.mutex.Unlock()
}

// Restore loads the persisted log and rebuilds the cooldown index.
func (t *Tracker) Restore(db simpledb.DB) {
	file := &trackerFile{}
	if err := db.Load(file); err != nil {
		t.logger.Warn("[Tracker] no state restored", zap.Error(err))
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.predictions = file.Predictions
	if t.predictions == nil {
		t.predictions = make([]*models.Prediction, 0)
	}

	t.lastRecord = make(map[string]int64)
	for _, p := range t.predictions {
		key := recordKey(p.Coin, p.Type)
		if p.Time > t.lastRecord[key] {
			t.lastRecord[key] = p.Time
		}
	}

	t.dirty = false
	t.logger.Info("[Tracker] state restored", zap.Int("predictions", len(t.predictions)))
}
