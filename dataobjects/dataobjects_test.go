package dataobjects

import (
	"testing"
	"time"
)

func TestISOWeekOf(t *testing.T) {
	cases := []struct {
		instant time.Time
		want    string
	}{
		{time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC), "2026-W10"},
		// early January can belong to the previous ISO year
		{time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
		{time.Date(2027, time.January, 4, 0, 0, 0, 0, time.UTC), "2027-W01"},
	}
	for _, c := range cases {
		if got := ISOWeekOf(c.instant); got != c.want {
			t.Errorf("ISOWeekOf(%v) = %s, want %s", c.instant, got, c.want)
		}
	}
}

func TestParseISOWeek(t *testing.T) {
	year, week, err := ParseISOWeek("2026-W10")
	if err != nil || year != 2026 || week != 10 {
		t.Errorf("ParseISOWeek(2026-W10) = %d, %d, %v", year, week, err)
	}

	for _, invalid := range []string{"2026-10", "2026-W1", "26-W10", "2026-W99", "garbage"} {
		if _, _, err := ParseISOWeek(invalid); err != ErrInvalidISOWeek {
			t.Errorf("ParseISOWeek(%q) should fail, got %v", invalid, err)
		}
	}
}

func TestISOWeekStart(t *testing.T) {
	cases := []struct {
		week string
		want string
	}{
		{"2026-W10", "2026-03-02"},
		{"2026-W01", "2025-12-29"},
		{"2027-W01", "2027-01-04"},
	}
	for _, c := range cases {
		start, err := ISOWeekStart(c.week)
		if err != nil {
			t.Fatal(err)
		}
		if start.String() != c.want {
			t.Errorf("ISOWeekStart(%s) = %s, want %s", c.week, start, c.want)
		}
		if start.Weekday() != time.Monday {
			t.Errorf("ISOWeekStart(%s) is not a Monday", c.week)
		}
		// the start of a week must round-trip to that week's identifier
		if got := ISOWeekOf(start.UTC()); got != c.week {
			t.Errorf("ISOWeekOf(ISOWeekStart(%s)) = %s", c.week, got)
		}
	}
}

func TestISOWeekStartRejectsPhantomWeek53(t *testing.T) {
	// 2025 has 52 ISO weeks, 2026 has 53
	if _, err := ISOWeekStart("2025-W53"); err != ErrInvalidISOWeek {
		t.Errorf("ISOWeekStart(2025-W53) should fail, got %v", err)
	}
	start, err := ISOWeekStart("2026-W53")
	if err != nil {
		t.Fatalf("ISOWeekStart(2026-W53) should exist: %v", err)
	}
	if start.String() != "2026-12-28" {
		t.Errorf("ISOWeekStart(2026-W53) = %s, want 2026-12-28", start)
	}
}
