// Package calendar resolves exchange trading days.
package calendar

import (
	"log/slog"
	"time"
)

// IST is the exchange timezone (UTC+5:30). Trading-day arithmetic is done in
// IST regardless of the host timezone.
var IST = time.FixedZone("IST", 5*3600+30*60)

// DefaultLookbackDays bounds the backward search for a trading day. No NSE
// holiday run (weekends included) has exceeded ten consecutive days.
const DefaultLookbackDays = 10

// Resolver computes the most recent trading day before a reference date.
type Resolver struct {
	// LookbackDays bounds the backward search. Zero means DefaultLookbackDays.
	LookbackDays int
	Logger       *slog.Logger
}

// NewResolver returns a Resolver with the default lookback bound.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{LookbackDays: DefaultLookbackDays, Logger: logger}
}

// LastTradingDay returns the most recent weekday strictly before ref that is
// not present in holidays (ISO "2006-01-02" strings). An empty holiday list is
// treated as "no known holidays", not as an error.
//
// If the lookback window is exhausted without finding a valid day, the
// resolver falls back to ref minus one day and returns fellBack=true. The
// fallback trades correctness for availability; it can be a weekend or a
// holiday, and callers must surface it rather than treat the result as
// verified.
func (r *Resolver) LastTradingDay(ref time.Time, holidays []string) (day time.Time, fellBack bool) {
	lookback := r.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}

	holidaySet := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		holidaySet[h] = struct{}{}
	}

	ref = midnight(ref.In(IST))
	candidate := ref.AddDate(0, 0, -1)
	for i := 0; i < lookback; i++ {
		if isWeekday(candidate) {
			if _, holiday := holidaySet[candidate.Format("2006-01-02")]; !holiday {
				return candidate, false
			}
		}
		candidate = candidate.AddDate(0, 0, -1)
	}

	fallback := ref.AddDate(0, 0, -1)
	if r.Logger != nil {
		r.Logger.Warn("trading-day lookback exhausted, falling back to previous calendar day",
			"reference", ref.Format("2006-01-02"),
			"fallback", fallback.Format("2006-01-02"),
			"lookback_days", lookback)
	}
	return fallback, true
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
