package catalog

import (
	"bytes"
	"compress/gzip"
	"errors"
	"testing"
)

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const upstoxPayload = `[
  {"name": "NIFTY", "instrument_type": "CE", "expiry": "2025-01-30", "strike_price": 22000, "instrument_key": "NSE_FO|49543", "lot_size": 25},
  {"name": "NIFTY", "instrument_type": "PE", "expiry": 1738261799000, "strike_price": 22000, "instrument_key": "NSE_FO|49544"},
  {"name": "Nifty 50", "instrument_type": "INDEX", "instrument_key": "NSE_INDEX|Nifty 50"}
]`

func TestParseUpstoxJSON(t *testing.T) {
	records, err := ParseUpstoxJSON([]byte(upstoxPayload))
	if err != nil {
		t.Fatalf("ParseUpstoxJSON error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}

	ce := records[0]
	if ce.Expiry != "2025-01-30" {
		t.Errorf("ISO expiry normalized to %q, want 2025-01-30", ce.Expiry)
	}
	if ce.StrikePrice != 22000 || ce.InstrumentKey != "NSE_FO|49543" || ce.LotSize != 25 {
		t.Errorf("unexpected CE record: %+v", ce)
	}

	// 1738261799000 ms is 2025-01-30 23:59:59 IST.
	pe := records[1]
	if pe.Expiry != "2025-01-30" {
		t.Errorf("epoch-millis expiry normalized to %q, want 2025-01-30", pe.Expiry)
	}

	idx := records[2]
	if idx.Name != "Nifty 50" {
		t.Errorf("display-name casing changed: %q", idx.Name)
	}
	if idx.Expiry != "" {
		t.Errorf("index record has expiry %q, want empty", idx.Expiry)
	}
}

func TestParseUpstoxJSON_Gzip(t *testing.T) {
	records, err := ParseUpstoxJSON(gzipBytes(t, []byte(upstoxPayload)))
	if err != nil {
		t.Fatalf("ParseUpstoxJSON(gzip) error: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records from gzip payload, want 3", len(records))
	}
}

func TestParseUpstoxJSON_Empty(t *testing.T) {
	records, err := ParseUpstoxJSON([]byte(`[]`))
	if err != nil {
		t.Fatalf("empty catalog should be valid, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestParseUpstoxJSON_Malformed(t *testing.T) {
	for _, payload := range []string{`{"not": "an array"}`, `[{`, `nonsense`} {
		_, err := ParseUpstoxJSON([]byte(payload))
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("payload %q: error = %v, want *FormatError", payload, err)
		}
	}
}

func TestParseUpstoxJSON_ExpiryWithTimeSuffix(t *testing.T) {
	records, err := ParseUpstoxJSON([]byte(`[{"name": "NIFTY", "instrument_type": "CE", "expiry": "2025-01-30T14:30:00+05:30", "strike_price": 21000, "instrument_key": "NSE_FO|1"}]`))
	if err != nil {
		t.Fatalf("ParseUpstoxJSON error: %v", err)
	}
	if records[0].Expiry != "2025-01-30" {
		t.Errorf("expiry = %q, want 2025-01-30", records[0].Expiry)
	}
}

const growwPayload = `exchange,exchange_token,trading_symbol,name,instrument_type,segment,expiry_date,strike_price,lot_size,tick_size
NSE,49543,NIFTY2513022000CE,NIFTY,CE,FNO,2025-01-30,22000,25,0.05
NSE,26000,NIFTY,NIFTY 50,IDX,CASH,,,,
`

func TestParseGrowwCSV(t *testing.T) {
	records, err := ParseGrowwCSV([]byte(growwPayload))
	if err != nil {
		t.Fatalf("ParseGrowwCSV error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	ce := records[0]
	if ce.Name != "NIFTY" || ce.InstrumentType != "CE" || ce.Expiry != "2025-01-30" {
		t.Errorf("unexpected CE record: %+v", ce)
	}
	if ce.StrikePrice != 22000 || ce.LotSize != 25 || ce.TickSize != 0.05 {
		t.Errorf("numeric fields not parsed: %+v", ce)
	}

	idx := records[1]
	if idx.Name != "NIFTY 50" || idx.Expiry != "" || idx.StrikePrice != 0 {
		t.Errorf("unexpected index record: %+v", idx)
	}
}

func TestParseGrowwCSV_HeaderOnly(t *testing.T) {
	records, err := ParseGrowwCSV([]byte("exchange,exchange_token,trading_symbol,name,instrument_type,segment,expiry_date,strike_price,lot_size,tick_size\n"))
	if err != nil {
		t.Fatalf("header-only catalog should be valid, got: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestParseGrowwCSV_MissingColumn(t *testing.T) {
	_, err := ParseGrowwCSV([]byte("exchange,trading_symbol,segment\nNSE,NIFTY,CASH\n"))
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormatError for missing columns", err)
	}
}

func TestParseGrowwCSV_EmptyPayload(t *testing.T) {
	_, err := ParseGrowwCSV(nil)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want *FormatError for missing header", err)
	}
}
