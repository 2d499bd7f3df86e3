// Package catalog loads provider instrument catalogs into a common record
// shape and resolves option contracts against them. One catalog snapshot is a
// point-in-time, read-only sequence of records; the two provider catalogs are
// never merged, and cross-provider lookups go through canonical symbols only.
package catalog

// Instrument is one row of a provider catalog snapshot. Records are immutable
// once loaded; reconciliation derives new slices instead of mutating a loaded
// snapshot in place.
type Instrument struct {
	// Name is the display name exactly as the provider publishes it
	// ("NIFTY 50", "NIFTY BANK"). Casing is preserved by the loaders.
	Name string `json:"name"`
	// Canonical is the normalized underlying symbol ("NIFTY", "BANKNIFTY").
	// Empty until reconciliation has run; empty afterwards means the name had
	// no entry in the symbol table.
	Canonical string `json:"canonical_symbol,omitempty"`
	// InstrumentType is CE, PE, FUT, EQ, INDEX and friends, provider casing
	// preserved.
	InstrumentType string `json:"instrument_type"`
	// StrikePrice is zero for non-option instruments.
	StrikePrice float64 `json:"strike_price,omitempty"`
	// Expiry is the normalized civil date "2006-01-02" in IST, empty for
	// instruments without one. Providers encode expiry as an ISO string or
	// epoch millis; loaders normalize both.
	Expiry string `json:"expiry,omitempty"`
	// InstrumentKey is the provider's trading identifier, the handle the
	// historical-candle API accepts.
	InstrumentKey string `json:"instrument_key"`
	// TradingSymbol is the exchange ticker, where the provider supplies one.
	TradingSymbol string  `json:"trading_symbol,omitempty"`
	Exchange      string  `json:"exchange,omitempty"`
	Segment       string  `json:"segment,omitempty"`
	LotSize       int64   `json:"lot_size,omitempty"`
	TickSize      float64 `json:"tick_size,omitempty"`
}
