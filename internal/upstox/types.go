package upstox

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Candle is one OHLCV aggregate. Timestamp is epoch milliseconds; the API
// serves candles as positional arrays with the timestamp as either an RFC3339
// string or a number, and UnmarshalJSON accepts both.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// UnmarshalJSON decodes the wire shape [ts, open, high, low, close, volume, ...].
// Trailing fields (open interest) are ignored.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var row []json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		// Also accept the object form, which is what this package itself
		// writes when candles round-trip through persisted artifacts.
		type plain Candle
		var p plain
		if objErr := json.Unmarshal(data, &p); objErr == nil {
			*c = Candle(p)
			return nil
		}
		return err
	}
	if len(row) < 6 {
		return fmt.Errorf("candle row has %d fields, want at least 6", len(row))
	}

	ts, err := parseTimestampMillis(row[0])
	if err != nil {
		return fmt.Errorf("candle timestamp: %w", err)
	}
	c.Timestamp = ts

	prices := []*float64{&c.Open, &c.High, &c.Low, &c.Close}
	for i, dst := range prices {
		v, err := parseNumber(row[i+1])
		if err != nil {
			return fmt.Errorf("candle field %d: %w", i+1, err)
		}
		*dst = v
	}

	vol, err := parseNumber(row[5])
	if err != nil {
		return fmt.Errorf("candle volume: %w", err)
	}
	c.Volume = int64(vol)
	return nil
}

// Time returns the candle timestamp as a time.Time.
func (c Candle) Time() time.Time { return time.UnixMilli(c.Timestamp) }

func parseTimestampMillis(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return 0, err
		}
		return t.UnixMilli(), nil
	}
	millis, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return millis, nil
}

func parseNumber(raw json.RawMessage) (float64, error) {
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		// The API occasionally quotes numbers.
		var s string
		if jerr := json.Unmarshal(raw, &s); jerr == nil {
			return strconv.ParseFloat(s, 64)
		}
		return 0, err
	}
	return v, nil
}

type holidaysResponse struct {
	Data []struct {
		Date string `json:"date"`
	} `json:"data"`
}

type candlesResponse struct {
	Data struct {
		Candles []Candle `json:"candles"`
	} `json:"data"`
}
