package helpers

import "time"

// Trading sessions by UTC hour.
const (
	SessionAsia    = "ASIA"
	SessionLondon  = "LONDON"
	SessionOverlap = "LONDON_NY_OVERLAP"
	SessionNY      = "NEW_YORK"
	SessionLateNY  = "LATE_NY"
)

func TradingSession(t time.Time) string {
	hour := t.UTC().Hour()

	switch {
	case hour < 7:
		return SessionAsia
	case hour < 13:
		return SessionLondon
	case hour < 16:
		return SessionOverlap
	case hour < 21:
		return SessionNY
	default:
		return SessionLateNY
	}
}

// US equity market status values.
const (
	MarketOpen       = "open"
	MarketPreMarket  = "pre-market"
	MarketAfterHours = "after-hours"
	MarketClosed     = "closed"
	MarketWeekend    = "weekend"
)

var eastern *time.Location

func init() {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*3600)
	}
	eastern = loc
}

// MarketStatus derives the US equity market phase from the Eastern wall clock.
func MarketStatus(t time.Time) string {
	et := t.In(eastern)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return MarketWeekend
	}

	minutes := et.Hour()*60 + et.Minute()

	switch {
	case minutes < 4*60:
		return MarketClosed
	case minutes < 9*60+30:
		return MarketPreMarket
	case minutes < 16*60:
		return MarketOpen
	default:
		return MarketAfterHours
	}
}
