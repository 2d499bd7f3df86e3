package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, IST)
}

func TestLastTradingDay_PlainWeekday(t *testing.T) {
	r := NewResolver(nil)

	// 2025-01-08 is a Wednesday; the prior day is a plain Tuesday.
	day, fellBack := r.LastTradingDay(date(2025, time.January, 8), nil)
	if fellBack {
		t.Fatal("unexpected fallback")
	}
	if got := day.Format("2006-01-02"); got != "2025-01-07" {
		t.Errorf("LastTradingDay = %s, want 2025-01-07", got)
	}
}

func TestLastTradingDay_SkipsWeekend(t *testing.T) {
	r := NewResolver(nil)

	// 2025-01-06 is a Monday; stepping back crosses the weekend to Friday.
	day, fellBack := r.LastTradingDay(date(2025, time.January, 6), nil)
	if fellBack {
		t.Fatal("unexpected fallback")
	}
	if got := day.Format("2006-01-02"); got != "2025-01-03" {
		t.Errorf("LastTradingDay = %s, want 2025-01-03", got)
	}
}

func TestLastTradingDay_SkipsHoliday(t *testing.T) {
	r := NewResolver(nil)

	// 2025-01-02 is a Thursday; 2025-01-01 is a holiday, so the resolver
	// lands on Tuesday 2024-12-31.
	day, fellBack := r.LastTradingDay(date(2025, time.January, 2), []string{"2025-01-01"})
	if fellBack {
		t.Fatal("unexpected fallback")
	}
	if got := day.Format("2006-01-02"); got != "2024-12-31" {
		t.Errorf("LastTradingDay = %s, want 2024-12-31", got)
	}
}

func TestLastTradingDay_HolidayThenWeekend(t *testing.T) {
	r := NewResolver(nil)

	// Monday reference with Friday a holiday: resolver must continue through
	// the weekend to Thursday.
	day, fellBack := r.LastTradingDay(date(2025, time.January, 13), []string{"2025-01-10"})
	if fellBack {
		t.Fatal("unexpected fallback")
	}
	if got := day.Format("2006-01-02"); got != "2025-01-09" {
		t.Errorf("LastTradingDay = %s, want 2025-01-09", got)
	}
}

func TestLastTradingDay_EmptyHolidayListIsNotAnError(t *testing.T) {
	r := NewResolver(nil)

	day, fellBack := r.LastTradingDay(date(2025, time.June, 11), []string{})
	if fellBack {
		t.Fatal("unexpected fallback")
	}
	if got := day.Weekday(); got == time.Saturday || got == time.Sunday {
		t.Errorf("LastTradingDay landed on %s", got)
	}
}

func TestLastTradingDay_NeverReturnsWeekendWithinWindow(t *testing.T) {
	r := NewResolver(nil)

	for d := 1; d <= 28; d++ {
		day, fellBack := r.LastTradingDay(date(2025, time.March, d), nil)
		if fellBack {
			t.Fatalf("unexpected fallback for 2025-03-%02d", d)
		}
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Errorf("reference 2025-03-%02d resolved to a %s", d, wd)
		}
	}
}

func TestLastTradingDay_ExhaustedWindowFallsBack(t *testing.T) {
	// Mark every weekday in the window as a holiday so nothing qualifies.
	ref := date(2025, time.January, 20)
	var holidays []string
	for i := 1; i <= 12; i++ {
		holidays = append(holidays, ref.AddDate(0, 0, -i).Format("2006-01-02"))
	}

	r := &Resolver{LookbackDays: 10}
	day, fellBack := r.LastTradingDay(ref, holidays)
	if !fellBack {
		t.Fatal("expected fallback when the whole window is holidays")
	}
	if got := day.Format("2006-01-02"); got != "2025-01-19" {
		t.Errorf("fallback day = %s, want 2025-01-19 (reference minus one day)", got)
	}
}

func TestLastTradingDay_ConfigurableLookback(t *testing.T) {
	// A two-day window starting on a Monday only sees the weekend, so even
	// with no holidays the resolver must fall back.
	r := &Resolver{LookbackDays: 2}
	day, fellBack := r.LastTradingDay(date(2025, time.January, 6), nil)
	if !fellBack {
		t.Fatal("expected fallback with a two-day window ending inside the weekend")
	}
	if got := day.Format("2006-01-02"); got != "2025-01-05" {
		t.Errorf("fallback day = %s, want 2025-01-05", got)
	}
}
