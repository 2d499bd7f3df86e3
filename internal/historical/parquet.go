package historical

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/sabarim/atmdata/internal/upstox"
)

// writeParquet mirrors one leg's candles to a parquet file.
func writeParquet(filename, symbol, date string, candles []upstox.Candle) error {
	fw, err := local.NewLocalFileWriter(filename)
	if err != nil {
		return fmt.Errorf("creating parquet file: %w", err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(CandleRow), 4)
	if err != nil {
		return fmt.Errorf("creating parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_GZIP

	for _, c := range candles {
		row := CandleRow{
			Symbol:    symbol,
			Timestamp: c.Timestamp,
			Date:      date,
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.Volume,
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("writing parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalizing parquet file: %w", err)
	}
	return nil
}
