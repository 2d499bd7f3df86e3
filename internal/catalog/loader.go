package catalog

import (
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// expiryLocation pins expiry normalization to the exchange timezone so an
// epoch-millis expiry resolves to the same civil date everywhere.
var expiryLocation = time.FixedZone("IST", 5*3600+30*60)

// upstoxInstrument mirrors the provider's native JSON shape. Expiry is kept
// raw because the feed interchangeably uses ISO date strings and epoch millis.
type upstoxInstrument struct {
	Name           string          `json:"name"`
	InstrumentType string          `json:"instrument_type"`
	StrikePrice    float64         `json:"strike_price"`
	InstrumentKey  string          `json:"instrument_key"`
	TradingSymbol  string          `json:"trading_symbol"`
	Exchange       string          `json:"exchange"`
	Segment        string          `json:"segment"`
	LotSize        int64           `json:"lot_size"`
	TickSize       float64         `json:"tick_size"`
	Expiry         json.RawMessage `json:"expiry"`
}

// ParseUpstoxJSON parses a provider-A payload, gzip-compressed or plain, into
// instrument records. An empty array is a valid catalog; a payload that is not
// a JSON array of objects is a *FormatError.
func ParseUpstoxJSON(raw []byte) ([]Instrument, error) {
	raw, err := maybeGunzip(raw)
	if err != nil {
		return nil, &FormatError{Provider: "upstox", Reason: "decompressing payload", Err: err}
	}

	var rows []upstoxInstrument
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, &FormatError{Provider: "upstox", Reason: "payload is not a JSON instrument array", Err: err}
	}

	records := make([]Instrument, 0, len(rows))
	for i, row := range rows {
		expiry, err := normalizeExpiry(row.Expiry)
		if err != nil {
			return nil, &FormatError{
				Provider: "upstox",
				Reason:   fmt.Sprintf("record %d has unparseable expiry %s", i, string(row.Expiry)),
				Err:      err,
			}
		}
		records = append(records, Instrument{
			Name:           row.Name,
			InstrumentType: row.InstrumentType,
			StrikePrice:    row.StrikePrice,
			InstrumentKey:  row.InstrumentKey,
			TradingSymbol:  row.TradingSymbol,
			Exchange:       row.Exchange,
			Segment:        row.Segment,
			LotSize:        row.LotSize,
			TickSize:       row.TickSize,
			Expiry:         expiry,
		})
	}
	return records, nil
}

// growwRequiredColumns are the CSV columns the loader cannot work without.
var growwRequiredColumns = []string{"name", "instrument_type", "trading_symbol"}

// ParseGrowwCSV parses a provider-B payload (CSV with a header row) into
// instrument records. Zero data rows is a valid, empty catalog.
func ParseGrowwCSV(raw []byte) ([]Instrument, error) {
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &FormatError{Provider: "groww", Reason: "reading CSV header", Err: err}
	}

	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[strings.TrimSpace(col)] = i
	}
	for _, col := range growwRequiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, &FormatError{Provider: "groww", Reason: fmt.Sprintf("missing required column %q", col)}
		}
	}

	var records []Instrument
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Provider: "groww", Reason: "reading CSV record", Err: err}
		}

		expiry := field(row, columns, "expiry_date")
		if expiry != "" {
			normalized, err := normalizeExpiryString(expiry)
			if err != nil {
				return nil, &FormatError{
					Provider: "groww",
					Reason:   fmt.Sprintf("row has unparseable expiry_date %q", expiry),
					Err:      err,
				}
			}
			expiry = normalized
		}

		records = append(records, Instrument{
			Name:           field(row, columns, "name"),
			InstrumentType: field(row, columns, "instrument_type"),
			StrikePrice:    parseFloatOrZero(field(row, columns, "strike_price")),
			InstrumentKey:  field(row, columns, "exchange_token"),
			TradingSymbol:  field(row, columns, "trading_symbol"),
			Exchange:       field(row, columns, "exchange"),
			Segment:        field(row, columns, "segment"),
			LotSize:        parseIntOrZero(field(row, columns, "lot_size")),
			TickSize:       parseFloatOrZero(field(row, columns, "tick_size")),
			Expiry:         expiry,
		})
	}
	if records == nil {
		records = []Instrument{}
	}
	return records, nil
}

// maybeGunzip decompresses raw when it carries the gzip magic bytes and
// returns it untouched otherwise.
func maybeGunzip(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// normalizeExpiry converts a raw provider expiry (JSON string or epoch-millis
// number) to a civil date "2006-01-02" in IST. Absent expiry yields "".
func normalizeExpiry(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		if s == "" {
			return "", nil
		}
		return normalizeExpiryString(s)
	}
	millis, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return "", err
	}
	return time.UnixMilli(millis).In(expiryLocation).Format("2006-01-02"), nil
}

// normalizeExpiryString handles ISO dates with an optional time suffix
// ("2025-01-30" or "2025-01-30T14:30:00+05:30").
func normalizeExpiryString(s string) (string, error) {
	datePart := s
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		datePart = s[:i]
	}
	if _, err := time.ParseInLocation("2006-01-02", datePart, expiryLocation); err != nil {
		return "", err
	}
	return datePart, nil
}

func field(row []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntOrZero(s string) int64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
