package store

import (
	"sort"
	"time"

	"github.com/anvh2/market-bias/internal/constants"
	"github.com/anvh2/market-bias/internal/models"
)

const aggregationBucketMs = 5000

// UpdateSpotCVD appends one spot delta and refreshes the rolling sums.
func (s *Store) UpdateSpotCVD(exchange, coin string, delta float64, ts int64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	coins, ok := s.spotCVD[exchange]
	if !ok {
		coins = make(map[string]*models.SpotCVD)
		s.spotCVD[exchange] = coins
	}

	sc, ok := coins[coin]
	if !ok {
		sc = &models.SpotCVD{}
		coins[coin] = sc
	}

	sc.Series = appendCVDPoint(sc.Series, ts, delta)
	sc.Cumulative += delta
	sc.Sum5m = sumSince(sc.Series, ts-5*60*1000)
	sc.Sum15m = sumSince(sc.Series, ts-15*60*1000)
	sc.Sum1h = sumSince(sc.Series, ts-60*60*1000)
	s.touch(ts)
}

func sumSince(points []*models.CVDPoint, since int64) float64 {
	sum := 0.0
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Time < since {
			break
		}
		sum += points[i].Delta
	}
	return sum
}

// GetSpotCVD returns a copy of the spot CVD record for (exchange, coin).
func (s *Store) GetSpotCVD(exchange, coin string) *models.SpotCVD {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	coins, ok := s.spotCVD[exchange]
	if !ok {
		return nil
	}
	sc, ok := coins[coin]
	if !ok {
		return nil
	}

	return &models.SpotCVD{
		Series:     copyCVDPoints(sc.Series),
		Cumulative: sc.Cumulative,
		Sum5m:      sc.Sum5m,
		Sum15m:     sc.Sum15m,
		Sum1h:      sc.Sum1h,
	}
}

// GetAggregatedSpotCVDHistory buckets spot deltas across the enumerated spot
// exchanges into 5s bins. The reduction is a per-bucket sum, commutative
// across exchanges.
func (s *Store) GetAggregatedSpotCVDHistory(coin string) []*models.CVDPoint {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	buckets := make(map[int64]float64)
	for _, exchange := range constants.SpotCVDExchanges {
		coins, ok := s.spotCVD[exchange]
		if !ok {
			continue
		}
		sc, ok := coins[coin]
		if !ok {
			continue
		}
		for _, p := range sc.Series {
			bucket := p.Time / aggregationBucketMs * aggregationBucketMs
			buckets[bucket] += p.Delta
		}
	}

	return sortedBuckets(buckets)
}

// GetAggregatedPerpCVDHistory buckets perp deltas across the perp exchanges.
func (s *Store) GetAggregatedPerpCVDHistory(coin string) []*models.CVDPoint {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	buckets := make(map[int64]float64)
	for _, exchange := range constants.PerpExchanges {
		coins, ok := s.exchanges[exchange]
		if !ok {
			continue
		}
		cs, ok := coins[coin]
		if !ok {
			continue
		}
		for _, p := range cs.CVD {
			bucket := p.Time / aggregationBucketMs * aggregationBucketMs
			buckets[bucket] += p.Delta
		}
	}

	return sortedBuckets(buckets)
}

func sortedBuckets(buckets map[int64]float64) []*models.CVDPoint {
	out := make([]*models.CVDPoint, 0, len(buckets))
	for ts, delta := range buckets {
		out = append(out, &models.CVDPoint{Time: ts, Delta: delta})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// AggregatedCVDDeltaSince sums perp deltas across exchanges newer than since.
func (s *Store) AggregatedCVDDeltaSince(coin string, since time.Time) float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := since.UnixMilli()
	sum := 0.0
	for _, exchange := range constants.PerpExchanges {
		coins, ok := s.exchanges[exchange]
		if !ok {
			continue
		}
		cs, ok := coins[coin]
		if !ok {
			continue
		}
		sum += sumSince(cs.CVD, cutoff)
	}

	return sum
}

// AggregatedSpotCVDDeltaSince sums spot deltas across exchanges newer than since.
func (s *Store) AggregatedSpotCVDDeltaSince(coin string, since time.Time) float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	cutoff := since.UnixMilli()
	sum := 0.0
	for _, exchange := range constants.SpotCVDExchanges {
		coins, ok := s.spotCVD[exchange]
		if !ok {
			continue
		}
		sc, ok := coins[coin]
		if !ok {
			continue
		}
		sum += sumSince(sc.Series, cutoff)
	}

	return sum
}
