package historical

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sabarim/atmdata/internal/catalog"
	"github.com/sabarim/atmdata/internal/upstox"
)

type stubSource struct {
	candles []upstox.Candle
	err     error
	calls   int
}

func (s *stubSource) MinuteCandles(_ context.Context, _, _ string) ([]upstox.Candle, error) {
	s.calls++
	return s.candles, s.err
}

func testContract() catalog.Instrument {
	return catalog.Instrument{
		Name:           "NIFTY",
		Canonical:      "NIFTY",
		InstrumentType: "CE",
		Expiry:         "2025-01-30",
		StrikePrice:    22000,
		InstrumentKey:  "NSE_FO|49543",
		TradingSymbol:  "NIFTY2513022000CE",
	}
}

func testCandles() []upstox.Candle {
	return []upstox.Candle{
		{Timestamp: 1737689100000, Open: 101.05, High: 102.4, Low: 100.95, Close: 101.5, Volume: 150},
		{Timestamp: 1737689160000, Open: 101.5, High: 103, Low: 101.2, Close: 102.85, Volume: 275},
	}
}

func TestFetchAndPersist_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersister(dir, "", "run-1", nil)
	require.NoError(t, err)

	src := &stubSource{candles: testCandles()}
	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)

	res := p.FetchAndPersist(context.Background(), src, testContract(), day)
	require.Equal(t, StatusWritten, res.Status)
	assert.Equal(t, 2, res.Candles)
	assert.Equal(t, filepath.Join(dir, "22000_0124_ce.json"), res.Path)

	artifact, err := LoadArtifact(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", artifact.RunID)
	assert.Equal(t, "2025-01-24", artifact.TradingDate)
	assert.Equal(t, "NSE_FO|49543", artifact.Contract.InstrumentKey)
}

func TestFetchAndPersist_RoundTripPreservesValues(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersister(dir, "", "", nil)
	require.NoError(t, err)

	candles := testCandles()
	src := &stubSource{candles: candles}
	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)

	res := p.FetchAndPersist(context.Background(), src, testContract(), day)
	require.Equal(t, StatusWritten, res.Status)

	artifact, err := LoadArtifact(res.Path)
	require.NoError(t, err)
	require.Len(t, artifact.Candles, len(candles))
	for i, c := range candles {
		assert.Equal(t, c.Timestamp, artifact.Candles[i].Timestamp, "timestamp %d", i)
		assert.Equal(t, c.Open, artifact.Candles[i].Open, "open %d", i)
		assert.Equal(t, c.High, artifact.Candles[i].High, "high %d", i)
		assert.Equal(t, c.Low, artifact.Candles[i].Low, "low %d", i)
		assert.Equal(t, c.Close, artifact.Candles[i].Close, "close %d", i)
		assert.Equal(t, c.Volume, artifact.Candles[i].Volume, "volume %d", i)
	}
}

func TestFetchAndPersist_NoCandles(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersister(dir, "", "", nil)
	require.NoError(t, err)

	src := &stubSource{}
	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	res := p.FetchAndPersist(context.Background(), src, testContract(), day)

	assert.Equal(t, StatusNoCandles, res.Status)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no artifact should be written without candles")
}

func TestFetchAndPersist_FetchFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersister(dir, "", "", nil)
	require.NoError(t, err)

	src := &stubSource{err: errors.New("connection reset")}
	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	res := p.FetchAndPersist(context.Background(), src, testContract(), day)

	assert.Equal(t, StatusNoCandles, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchAndPersist_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	p, err := NewPersister(dir, "", "", nil)
	require.NoError(t, err)

	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(dir, LegFilename(22000, day, "CE"))
	require.NoError(t, os.WriteFile(path, []byte(`{"stale": true}`), 0644))

	src := &stubSource{candles: testCandles()}
	res := p.FetchAndPersist(context.Background(), src, testContract(), day)
	require.Equal(t, StatusWritten, res.Status)

	artifact, err := LoadArtifact(path)
	require.NoError(t, err)
	assert.Len(t, artifact.Candles, 2, "persist must fully replace the previous file")
}

func TestLegFilename(t *testing.T) {
	day := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "22000_0124_ce.json", LegFilename(22000, day, "CE"))
	assert.Equal(t, "48500_1203_pe.json", LegFilename(48500, time.Date(2025, time.December, 3, 0, 0, 0, 0, time.UTC), "PE"))
}

func TestPersistStatus_String(t *testing.T) {
	assert.Equal(t, "no-candles", StatusNoCandles.String())
	assert.Equal(t, "written", StatusWritten.String())
	assert.Equal(t, "write-failed", StatusWriteFailed.String())
}
