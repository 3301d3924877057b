package calendar

import (
	"testing"
	"time"
)

func TestDateOfNormalizesAcrossZones(t *testing.T) {
	dubai, err := LoadLocation("Asia/Dubai")
	if err != nil {
		t.Fatal(err)
	}

	// 22:30 UTC is already the next day in Dubai (UTC+4).
	instant := time.Date(2024, 3, 5, 22, 30, 0, 0, time.UTC)
	if got := DateOf(instant, dubai); got != "2024-03-06" {
		t.Errorf("DateOf in Dubai = %s, want 2024-03-06", got)
	}
	if got := DateOf(instant, time.UTC); got != "2024-03-05" {
		t.Errorf("DateOf in UTC = %s, want 2024-03-05", got)
	}
}

func TestHourIn(t *testing.T) {
	dubai, _ := LoadLocation("Asia/Dubai")
	instant := time.Date(2024, 3, 5, 15, 30, 0, 0, time.UTC)
	if got := HourIn(instant, dubai); got != 19 {
		t.Errorf("HourIn = %d, want 19", got)
	}
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		date Date
		n    int
		want Date
	}{
		{"2024-03-05", 2, "2024-03-07"},
		{"2024-03-29", 10, "2024-04-08"},
		{"2024-02-28", 1, "2024-02-29"}, // leap year
		{"2024-03-01", -1, "2024-02-29"},
		{"2024-12-31", 1, "2025-01-01"},
	}
	for _, tt := range tests {
		if got := tt.date.AddDays(tt.n); got != tt.want {
			t.Errorf("%s.AddDays(%d) = %s, want %s", tt.date, tt.n, got, tt.want)
		}
	}
}

func TestWeekday(t *testing.T) {
	if got := Date("2024-03-05").Weekday(); got != "Tuesday" {
		t.Errorf("Weekday = %s, want Tuesday", got)
	}
	if got := Date("2024-03-10").Weekday(); got != "Sunday" {
		t.Errorf("Weekday = %s, want Sunday", got)
	}
}

func TestDateOrdering(t *testing.T) {
	if !Date("2024-03-05").Before("2024-03-06") {
		t.Error("2024-03-05 should be before 2024-03-06")
	}
	if !Date("2024-04-01").After("2024-03-31") {
		t.Error("2024-04-01 should be after 2024-03-31")
	}
	if got := MaxDate("2024-03-05", "2024-03-07"); got != "2024-03-07" {
		t.Errorf("MaxDate = %s", got)
	}
	if got := MinDate("2024-03-05", "2024-03-07"); got != "2024-03-05" {
		t.Errorf("MinDate = %s", got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"2024-3-5", "05-03-2024", "2024-13-01", "not-a-date"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) should fail", s)
		}
	}
}

func TestLoadLocationRejectsUnknownZone(t *testing.T) {
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
