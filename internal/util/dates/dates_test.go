package dates

import (
	"testing"
	"time"
)

func TestIsDate(t *testing.T) {
	valid := []string{"2024-01-01", "1999-12-31", "2024-02-29"}
	for _, s := range valid {
		if !IsDate(s) {
			t.Errorf("expected %q to be a date", s)
		}
	}
	invalid := []string{"", "2024-1-1", "2024-13-01", "2023-02-29", "2024-01-01T10:00", "abcd-ef-gh"}
	for _, s := range invalid {
		if IsDate(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	a, _ := Parse("2024-01-05")
	b, _ := Parse("2024-01-08")
	if got := DaysBetween(a, b); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

func TestAddDaysCrossesMonth(t *testing.T) {
	a, _ := Parse("2024-01-30")
	if got := Format(AddDays(a, 3)); got != "2024-02-02" {
		t.Fatalf("expected 2024-02-02, got %s", got)
	}
}

func TestSplitDateTime(t *testing.T) {
	d, clock := SplitDateTime("2024-01-02T15:04")
	if d != "2024-01-02" || clock != "15:04" {
		t.Fatalf("unexpected split: %q %q", d, clock)
	}
	d, clock = SplitDateTime("2024-01-02")
	if d != "2024-01-02" || clock != "" {
		t.Fatalf("unexpected split: %q %q", d, clock)
	}
}

func TestParseIsUTCMidnight(t *testing.T) {
	d, err := Parse("2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %v", d)
	}
}
