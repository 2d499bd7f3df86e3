package catalog

import (
	"testing"
	"time"
)

func TestNearestExpiry(t *testing.T) {
	records := []Instrument{
		{Canonical: "NIFTY", InstrumentType: "CE", Expiry: "2025-01-23"},
		{Canonical: "NIFTY", InstrumentType: "PE", Expiry: "2025-01-30"},
		{Canonical: "NIFTY", InstrumentType: "CE", Expiry: "2025-02-27"},
		{Canonical: "NIFTY", InstrumentType: "FUT", Expiry: "2025-01-15"}, // not an option
		{Canonical: "BANKNIFTY", InstrumentType: "CE", Expiry: "2025-01-16"},
	}

	today := time.Date(2025, time.January, 24, 10, 0, 0, 0, time.UTC)
	got, ok := NearestExpiry(records, "NIFTY", today)
	if !ok {
		t.Fatal("NearestExpiry found nothing")
	}
	if got != "2025-01-30" {
		t.Errorf("NearestExpiry = %s, want 2025-01-30 (the 23rd is already past)", got)
	}
}

func TestNearestExpiry_TodayCounts(t *testing.T) {
	records := []Instrument{
		{Canonical: "NIFTY", InstrumentType: "CE", Expiry: "2025-01-30"},
	}
	today := time.Date(2025, time.January, 30, 9, 0, 0, 0, expiryLocation)
	got, ok := NearestExpiry(records, "NIFTY", today)
	if !ok || got != "2025-01-30" {
		t.Errorf("NearestExpiry = %s, %v; expiry day itself should qualify", got, ok)
	}
}

func TestNearestExpiry_NothingUsable(t *testing.T) {
	records := []Instrument{
		{Canonical: "NIFTY", InstrumentType: "CE", Expiry: "2024-12-26"}, // past
		{Canonical: "NIFTY", InstrumentType: "EQ"},                      // no expiry
	}
	today := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	if got, ok := NearestExpiry(records, "NIFTY", today); ok {
		t.Errorf("NearestExpiry = %s, want none", got)
	}
}

func TestNextWeeklyExpiry(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-01-20", "2025-01-23"}, // Monday → this Thursday
		{"2025-01-22", "2025-01-23"}, // Wednesday → next day
		{"2025-01-23", "2025-01-23"}, // Thursday maps to itself
		{"2025-01-24", "2025-01-30"}, // Friday rolls to next week
		{"2025-01-25", "2025-01-30"}, // Saturday
		{"2025-01-26", "2025-01-30"}, // Sunday
	}
	for _, tt := range tests {
		day, err := time.ParseInLocation("2006-01-02", tt.day, expiryLocation)
		if err != nil {
			t.Fatal(err)
		}
		if got := NextWeeklyExpiry(day); got != tt.want {
			t.Errorf("NextWeeklyExpiry(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}
