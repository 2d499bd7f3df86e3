package historical

import (
	"github.com/sabarim/atmdata/internal/catalog"
	"github.com/sabarim/atmdata/internal/upstox"
)

// PersistStatus classifies the outcome of one fetch-and-persist call so the
// driver can count completed legs.
type PersistStatus int

const (
	// StatusNoCandles means the API returned no data (or the fetch failed);
	// nothing was written.
	StatusNoCandles PersistStatus = iota
	// StatusWritten means the artifact was written successfully.
	StatusWritten
	// StatusWriteFailed means candles were fetched but writing the artifact
	// failed.
	StatusWriteFailed
)

func (s PersistStatus) String() string {
	switch s {
	case StatusNoCandles:
		return "no-candles"
	case StatusWritten:
		return "written"
	case StatusWriteFailed:
		return "write-failed"
	default:
		return "unknown"
	}
}

// PersistResult reports one leg's outcome.
type PersistResult struct {
	Status  PersistStatus
	Path    string
	Candles int
	Err     error
}

// LegArtifact is the durable record for one option leg on one trading day:
// contract metadata, the trading date and the full candle sequence,
// timestamp-ascending. Written once, never appended to.
type LegArtifact struct {
	RunID       string             `json:"run_id,omitempty"`
	Contract    catalog.Instrument `json:"contract"`
	TradingDate string             `json:"trading_date"`
	Candles     []upstox.Candle    `json:"candles"`
}

// CandleRow is the parquet row shape for the optional parquet mirror.
type CandleRow struct {
	Symbol    string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Timestamp int64   `parquet:"name=timestamp, type=INT64, encoding=DELTA_BINARY_PACKED"`
	Date      string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Open      float64 `parquet:"name=open, type=DOUBLE, encoding=PLAIN"`
	High      float64 `parquet:"name=high, type=DOUBLE, encoding=PLAIN"`
	Low       float64 `parquet:"name=low, type=DOUBLE, encoding=PLAIN"`
	Close     float64 `parquet:"name=close, type=DOUBLE, encoding=PLAIN"`
	Volume    int64   `parquet:"name=volume, type=INT64, encoding=DELTA_BINARY_PACKED"`
}
