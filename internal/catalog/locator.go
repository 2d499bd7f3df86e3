package catalog

import (
	"fmt"
	"log/slog"
	"strings"
)

// FindContract scans records for the option contract matching all four of
// canonical symbol, expiry (civil date "2006-01-02"), strike price and side
// (CE or PE). Zero matches return ErrNotFound, never a parse failure. When a
// catalog carries duplicate contracts the first match wins; the duplicate
// count is logged because silent selection among duplicates is a data-quality
// condition, not a guarantee.
func FindContract(records []Instrument, logger *slog.Logger, symbol, expiry string, strikePrice float64, side string) (Instrument, error) {
	side = strings.ToUpper(side)

	var match Instrument
	matches := 0
	for _, rec := range records {
		if rec.Canonical != symbol || rec.Expiry != expiry {
			continue
		}
		if rec.StrikePrice != strikePrice || !strings.EqualFold(rec.InstrumentType, side) {
			continue
		}
		if matches == 0 {
			match = rec
		}
		matches++
	}

	if matches == 0 {
		return Instrument{}, fmt.Errorf("%w: %s %s %g %s", ErrNotFound, symbol, expiry, strikePrice, side)
	}
	if matches > 1 && logger != nil {
		logger.Warn("catalog contains duplicate contracts, using first match",
			"symbol", symbol, "expiry", expiry, "strike", strikePrice, "side", side,
			"matches", matches)
	}
	if match.InstrumentKey == "" {
		return Instrument{}, &FormatError{
			Provider: "catalog",
			Reason:   fmt.Sprintf("matched %s %s %g %s but the record has no instrument key", symbol, expiry, strikePrice, side),
		}
	}
	return match, nil
}

// Reconcile derives a new record slice with canonical symbols filled in from
// the normalizer. The input snapshot is left untouched. Unmapped names keep an
// empty Canonical; mapped and unmapped counts are returned so the caller can
// report reconciliation coverage.
func Reconcile(records []Instrument, normalize func(string) (string, bool)) (out []Instrument, mapped, unmapped int) {
	out = make([]Instrument, len(records))
	for i, rec := range records {
		if canonical, ok := normalize(rec.Name); ok {
			rec.Canonical = canonical
			mapped++
		} else {
			unmapped++
		}
		out[i] = rec
	}
	return out, mapped, unmapped
}
