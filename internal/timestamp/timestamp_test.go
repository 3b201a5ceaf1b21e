package timestamp

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"iso", "2024-01-05 22:15:00", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"iso T", "2024-01-05T22:15:00", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"12 hour", "1/5/24 10:15 PM", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"lowercase meridiem", "1/5/24 10:15 pm", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"dotted meridiem", "1/5/24 9:03 a.m.", time.Date(2024, 1, 5, 9, 3, 0, 0, time.UTC)},
		{"glued meridiem", "1/5/24, 10:15PM", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"narrow space", "1/5/24 10:15\u202fPM", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"zero padded", "01/05/24 07:05 AM", time.Date(2024, 1, 5, 7, 5, 0, 0, time.UTC)},
		{"day first fallback", "25/12/23 9:00 AM", time.Date(2023, 12, 25, 9, 0, 0, 0, time.UTC)},
		{"four digit year", "1/5/2024 10:15 PM", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"seconds", "1/5/24 10:15:30 PM", time.Date(2024, 1, 5, 22, 15, 30, 0, time.UTC)},
		{"24 hour", "1/5/24 22:15", time.Date(2024, 1, 5, 22, 15, 0, 0, time.UTC)},
		{"bracketed", "[1/5/24, 10:15:30 PM]", time.Date(2024, 1, 5, 22, 15, 30, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseUnparseable(t *testing.T) {
	for _, in := range []string{"not-a-time", "", "13/13/24 10:00 AM", "1/5/24"} {
		_, err := Parse(in)
		if !errors.Is(err, ErrUnparseable) {
			t.Errorf("Parse(%q): expected ErrUnparseable, got %v", in, err)
		}
	}
}

func TestAmbiguousDatePrefersMonthFirst(t *testing.T) {
	got, err := Parse("03/04/23 10:00 AM")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Month() != time.March || got.Day() != 4 {
		t.Errorf("expected March 4, got %v", got)
	}
}

func TestParseWithHint(t *testing.T) {
	got, err := ParseWithHint("03/04/23 10:00 AM", DayMonthYear2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Month() != time.April || got.Day() != 3 {
		t.Errorf("expected April 3, got %v", got)
	}

	// A hint for the other year width still resolves.
	got, err = ParseWithHint("03/04/2023 10:00 AM", DayMonthYear2)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Year() != 2023 || got.Month() != time.April {
		t.Errorf("expected April 2023, got %v", got)
	}

	// Month-first hints never fall back to day-first.
	if _, err := ParseWithHint("25/12/23 9:00 AM", MonthDayYear2); !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable with month-first hint, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize("1/5/24 10:15 PM", Auto)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "2024-01-05 22:15:00" {
		t.Errorf("expected 2024-01-05 22:15:00, got %q", got)
	}

	if _, err := Normalize("garbage", Auto); !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", err)
	}
}

func TestParseDateFormat(t *testing.T) {
	if f, err := ParseDateFormat(""); err != nil || f != Auto {
		t.Errorf("expected auto for empty hint, got %q (%v)", f, err)
	}
	if f, err := ParseDateFormat("DD/MM/YY"); err != nil || f != DayMonthYear2 {
		t.Errorf("expected dd/mm/yy, got %q (%v)", f, err)
	}
	if _, err := ParseDateFormat("yyyy/dd/mm"); err == nil {
		t.Error("expected error for unknown hint")
	}
}
