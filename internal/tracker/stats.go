package tracker

import (
	"strings"

	"github.com/anvh2/market-bias/internal/models"
)

// Aggregate is the per-coin accuracy summary.
type Aggregate struct {
	Coin          string  `json:"coin"`
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
	Incorrect     int     `json:"incorrect"`
	Inconclusive  int     `json:"inconclusive"`
	Pending       int     `json:"pending"`
	WinRate       float64 `json:"win_rate"`
	StrongTotal   int     `json:"strong_total"`
	StrongCorrect int     `json:"strong_correct"`
	StrongWinRate float64 `json:"strong_win_rate"`
}

// Filter narrows backtest queries.
type Filter struct {
	Coin       string
	Type       string
	Strength   string
	Confidence string
	From       int64
	To         int64
}

func (f *Filter) matches(p *models.Prediction) bool {
	if f.Coin != "" && p.Coin != f.Coin {
		return false
	}
	if f.Type != "" && p.Type != f.Type {
		return false
	}
	if f.Strength != "" && p.Strength != f.Strength {
		return false
	}
	if f.Confidence != "" && p.ConfidenceLevel != f.Confidence {
		return false
	}
	if f.From != 0 && p.Time < f.From {
		return false
	}
	if f.To != 0 && p.Time > f.To {
		return false
	}
	return true
}

func isStrong(p *models.Prediction) bool {
	return strings.HasPrefix(p.Strength, "STRONG")
}

// Aggregates summarises accuracy per coin; empty coin returns every coin.
func (t *Tracker) Aggregates(coin string) map[string]*Aggregate {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.aggregateLocked(coin)
}

func (t *Tracker) aggregateLocked(coin string) map[string]*Aggregate {
	out := make(map[string]*Aggregate)

	for _, p := range t.predictions {
		if coin != "" && p.Coin != coin {
			continue
		}

		agg, ok := out[p.Coin]
		if !ok {
			agg = &Aggregate{Coin: p.Coin}
			out[p.Coin] = agg
		}

		agg.Total++
		switch p.Outcome {
		case models.OutcomeCorrect:
			agg.Correct++
			if isStrong(p) {
				agg.StrongCorrect++
			}
		case models.OutcomeIncorrect:
			agg.Incorrect++
		case models.OutcomeInconclusive:
			agg.Inconclusive++
		default:
			agg.Pending++
		}
		if isStrong(p) {
			agg.StrongTotal++
		}
	}

	for _, agg := range out {
		if decided := agg.Correct + agg.Incorrect; decided > 0 {
			agg.WinRate = float64(agg.Correct) / float64(decided) * 100
		}

		strongIncorrect := 0
		for _, p := range t.predictions {
			if p.Coin == agg.Coin && isStrong(p) && p.Outcome == models.OutcomeIncorrect {
				strongIncorrect++
			}
		}
		if decided := agg.StrongCorrect + strongIncorrect; decided > 0 {
			agg.StrongWinRate = float64(agg.StrongCorrect) / float64(decided) * 100
		}
	}

	return out
}

// Performance is the compact block attached to projection responses.
func (t *Tracker) Performance(coin string) interface{} {
	aggregates := t.Aggregates(coin)
	if agg, ok := aggregates[coin]; ok {
		return agg
	}
	return &Aggregate{Coin: coin}
}

// Query returns evaluated-or-not predictions matching the filter, oldest first.
func (t *Tracker) Query(filter *Filter) []*models.Prediction {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]*models.Prediction, 0)
	for _, p := range t.predictions {
		if filter == nil || filter.matches(p) {
			copied := *p
			out = append(out, &copied)
		}
	}

	return out
}

// QueryStats aggregates accuracy over a filtered subset.
func (t *Tracker) QueryStats(filter *Filter) *Aggregate {
	agg := &Aggregate{Coin: filter.Coin}
	strongIncorrect := 0

	for _, p := range t.Query(filter) {
		agg.Total++
		switch p.Outcome {
		case models.OutcomeCorrect:
			agg.Correct++
			if isStrong(p) {
				agg.StrongCorrect++
			}
		case models.OutcomeIncorrect:
			agg.Incorrect++
			if isStrong(p) {
				strongIncorrect++
			}
		case models.OutcomeInconclusive:
			agg.Inconclusive++
		default:
			agg.Pending++
		}
		if isStrong(p) {
			agg.StrongTotal++
		}
	}

	if decided := agg.Correct + agg.Incorrect; decided > 0 {
		agg.WinRate = float64(agg.Correct) / float64(decided) * 100
	}
	if decided := agg.StrongCorrect + strongIncorrect; decided > 0 {
		agg.StrongWinRate = float64(agg.StrongCorrect) / float64(decided) * 100
	}

	return agg
}

// EquityPoint is one step of the backtest equity curve.
type EquityPoint struct {
	Time    int64   `json:"time"`
	Equity  float64 `json:"equity"`
	Outcome string  `json:"outcome"`
}

const (
	equityWinPct  = 2.0
	equityLossPct = 1.5
)

// EquityCurve applies +2%/-1.5% per decided prediction from initialCapital.
func (t *Tracker) EquityCurve(filter *Filter, initialCapital float64) []*EquityPoint {
	equity := initialCapital
	out := make([]*EquityPoint, 0)

	for _, p := range t.Query(filter) {
		switch p.Outcome {
		case models.OutcomeCorrect:
			equity *= 1 + equityWinPct/100
		case models.OutcomeIncorrect:
			equity *= 1 - equityLossPct/100
		default:
			continue
		}

		out = append(out, &EquityPoint{Time: p.Time, Equity: equity, Outcome: p.Outcome})
	}

	return out
}

// Streaks summarises consecutive outcomes.
type Streaks struct {
	Current     int `json:"current"` // positive wins, negative losses
	LongestWin  int `json:"longest_win"`
	LongestLoss int `json:"longest_loss"`
}

func (t *Tracker) StreakStats(filter *Filter) *Streaks {
	s := &Streaks{}

	for _, p := range t.Query(filter) {
		switch p.Outcome {
		case models.OutcomeCorrect:
			if s.Current > 0 {
				s.Current++
			} else {
				s.Current = 1
			}
			if s.Current > s.LongestWin {
				s.LongestWin = s.Current
			}
		case models.OutcomeIncorrect:
			if s.Current < 0 {
				s.Current--
			} else {
				s.Current = -1
			}
			if -s.Current > s.LongestLoss {
				s.LongestLoss = -s.Current
			}
		}
	}

	return s
}
