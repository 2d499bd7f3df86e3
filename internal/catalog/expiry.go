package catalog

import (
	"strings"
	"time"
)

// NearestExpiry returns the earliest option expiry on or after today for the
// given canonical symbol, scanning CE and PE records. The boolean is false
// when the catalog holds no usable expiry, in which case callers typically
// fall back to NextWeeklyExpiry.
func NearestExpiry(records []Instrument, symbol string, today time.Time) (string, bool) {
	todayStr := today.In(expiryLocation).Format("2006-01-02")

	best := ""
	for _, rec := range records {
		if rec.Canonical != symbol || rec.Expiry == "" {
			continue
		}
		side := strings.ToUpper(rec.InstrumentType)
		if side != "CE" && side != "PE" {
			continue
		}
		// Civil dates in "2006-01-02" order lexicographically.
		if rec.Expiry < todayStr {
			continue
		}
		if best == "" || rec.Expiry < best {
			best = rec.Expiry
		}
	}
	return best, best != ""
}

// NextWeeklyExpiry returns the upcoming Thursday, the NIFTY weekly expiry
// convention. A Thursday maps to itself; a Friday or weekend rolls over to
// next week's Thursday.
func NextWeeklyExpiry(today time.Time) string {
	today = today.In(expiryLocation)
	daysAhead := (int(time.Thursday) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, daysAhead).Format("2006-01-02")
}
