// Package signals holds the factor library: pure functions over copies of
// store slices. No factor performs I/O or keeps state; every score is
// normalised to [-1, +1] with negative meaning bearish.
package signals

import (
	"time"

	"github.com/anvh2/market-bias/internal/models"
)

func insufficient(name string) *models.Signal {
	return &models.Signal{Name: name, Score: 0, Label: models.LabelInsufficientData}
}

// latest returns the newest point value, ok=false on an empty series.
func latest(points []*models.Point) (float64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// changeOver computes the percent change across the window ending at now.
// The base is the oldest point at or after the window start; ok is false
// when the window holds fewer than two points.
func changeOver(points []*models.Point, now time.Time, window time.Duration) (float64, bool) {
	start := now.Add(-window).UnixMilli()

	first := -1
	for i, p := range points {
		if p.Time >= start {
			first = i
			break
		}
	}

	if first < 0 || first == len(points)-1 {
		return 0, false
	}

	base := points[first].Value
	last := points[len(points)-1].Value
	if base == 0 {
		return 0, false
	}

	return (last - base) / base * 100, true
}

// sumDeltasSince sums CVD deltas newer than the window start.
func sumDeltasSince(points []*models.CVDPoint, now time.Time, window time.Duration) (float64, int) {
	start := now.Add(-window).UnixMilli()

	sum := 0.0
	count := 0
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Time < start {
			break
		}
		sum += points[i].Delta
		count++
	}

	return sum, count
}
