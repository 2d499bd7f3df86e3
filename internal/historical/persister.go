// Package historical fetches one-minute candles for resolved option contracts
// and persists them, one artifact per strike, trading day and option side.
package historical

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sabarim/atmdata/internal/catalog"
	"github.com/sabarim/atmdata/internal/upstox"
)

// CandleSource supplies one trading day of minute candles for an instrument.
// *upstox.Client satisfies it.
type CandleSource interface {
	MinuteCandles(ctx context.Context, instrumentKey, date string) ([]upstox.Candle, error)
}

// Persister writes per-leg candle artifacts. OutputDir must exist or be
// creatable; ParquetDir empty disables the parquet mirror.
type Persister struct {
	OutputDir  string
	ParquetDir string
	RunID      string
	Logger     *slog.Logger
}

// NewPersister creates a Persister and ensures its directories exist.
func NewPersister(outputDir, parquetDir, runID string, logger *slog.Logger) (*Persister, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if parquetDir != "" {
		if err := os.MkdirAll(parquetDir, 0755); err != nil {
			return nil, fmt.Errorf("creating parquet directory: %w", err)
		}
	}
	return &Persister{OutputDir: outputDir, ParquetDir: parquetDir, RunID: runID, Logger: logger}, nil
}

// FetchAndPersist fetches the contract's minute candles for the trading day
// and writes the leg artifact. Fetch failures degrade to StatusNoCandles; the
// error is carried in the result for the caller to report, never raised as a
// pipeline abort.
func (p *Persister) FetchAndPersist(ctx context.Context, src CandleSource, contract catalog.Instrument, day time.Time) PersistResult {
	date := day.Format("2006-01-02")

	candles, err := src.MinuteCandles(ctx, contract.InstrumentKey, date)
	if err != nil {
		if p.Logger != nil {
			p.Logger.Warn("candle fetch failed, treating as no data",
				"instrument_key", contract.InstrumentKey, "date", date, "error", err)
		}
		return PersistResult{Status: StatusNoCandles, Err: err}
	}
	if len(candles) == 0 {
		return PersistResult{Status: StatusNoCandles}
	}

	path := filepath.Join(p.OutputDir, LegFilename(contract.StrikePrice, day, contract.InstrumentType))
	artifact := LegArtifact{
		RunID:       p.RunID,
		Contract:    contract,
		TradingDate: date,
		Candles:     candles,
	}
	if err := writeArtifact(path, artifact); err != nil {
		return PersistResult{Status: StatusWriteFailed, Path: path, Candles: len(candles), Err: err}
	}

	if p.ParquetDir != "" {
		parquetPath := filepath.Join(p.ParquetDir, LegFilename(contract.StrikePrice, day, contract.InstrumentType))
		parquetPath = strings.TrimSuffix(parquetPath, ".json") + ".parquet"
		if err := writeParquet(parquetPath, contract.TradingSymbol, date, candles); err != nil {
			// The JSON artifact is the system of record; a parquet failure is
			// reported but does not fail the leg.
			if p.Logger != nil {
				p.Logger.Warn("parquet mirror failed", "path", parquetPath, "error", err)
			}
		}
	}

	if p.Logger != nil {
		p.Logger.Info("leg persisted", "path", path, "candles", len(candles))
	}
	return PersistResult{Status: StatusWritten, Path: path, Candles: len(candles)}
}

// LegFilename is the artifact naming convention: {strike}_{MMDD}_{ce|pe}.json.
func LegFilename(strikePrice float64, day time.Time, side string) string {
	return fmt.Sprintf("%d_%s_%s.json", int64(strikePrice), day.Format("0102"), strings.ToLower(side))
}

// writeArtifact fully overwrites any existing file at path; artifacts are
// never merged or appended to.
func writeArtifact(path string, artifact LegArtifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing artifact: %w", err)
	}
	return nil
}

// LoadArtifact reads a previously persisted leg artifact.
func LoadArtifact(path string) (LegArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LegArtifact{}, fmt.Errorf("reading artifact: %w", err)
	}
	var artifact LegArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return LegArtifact{}, fmt.Errorf("decoding artifact %s: %w", path, err)
	}
	return artifact, nil
}
