package cronexpr

import (
	"testing"
	"time"
)

func TestParseStep(t *testing.T) {
	s, err := Parse("*/15 * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := map[int]struct{}{0: {}, 15: {}, 30: {}, 45: {}}
	if len(s.Minutes) != len(want) {
		t.Fatalf("minutes = %v, want %v", s.Minutes, want)
	}
	for m := range want {
		if _, ok := s.Minutes[m]; !ok {
			t.Errorf("minute %d missing", m)
		}
	}
}

func TestParseRange(t *testing.T) {
	s, err := Parse("0 9-17 * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for h := 9; h <= 17; h++ {
		if _, ok := s.Hours[h]; !ok {
			t.Errorf("hour %d missing", h)
		}
	}
	if len(s.Hours) != 9 {
		t.Errorf("len(Hours) = %d, want 9", len(s.Hours))
	}
}

func TestParseList(t *testing.T) {
	s, err := Parse("0 8,12,18 * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, h := range []int{8, 12, 18} {
		if _, ok := s.Hours[h]; !ok {
			t.Errorf("hour %d missing", h)
		}
	}
	if len(s.Hours) != 3 {
		t.Errorf("len(Hours) = %d, want 3", len(s.Hours))
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"* * * *",          // only 4 fields
		"60 * * * *",       // minute out of range
		"* 24 * * *",       // hour out of range
		"* * 5-2 * *",      // reversed range
		"* * * * 0-8",      // weekday out of range
		"*/0 * * * *",      // step must be >= 1
		"abc * * * *",      // non-numeric
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", c)
		}
	}
}

func TestMatchesAndsDayOfMonthAndWeekday(t *testing.T) {
	// day 15 AND weekday Monday: only matches if the 15th actually falls on
	// a Monday, never via the OR convention some cron dialects use.
	s, err := Parse("0 0 15 * 1")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// 2024-01-15 is a Monday.
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !s.Matches(monday) {
		t.Errorf("expected match on 2024-01-15 (Monday the 15th)")
	}
	// 2024-01-16 is a Tuesday: day matches, weekday doesn't -> no match.
	tuesday := time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)
	if s.Matches(tuesday) {
		t.Errorf("expected no match on the 16th (not a Monday)")
	}
	// 2024-01-22 is a Monday, but not the 15th -> no match.
	otherMonday := time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)
	if s.Matches(otherMonday) {
		t.Errorf("expected no match on the 22nd (not the 15th)")
	}
}

func TestNextFireAfterHourly(t *testing.T) {
	s, err := Parse("0 * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 30, 0, 0, time.UTC)
	next, ok := s.NextFireAfter(now)
	if !ok {
		t.Fatal("expected a next-fire time")
	}
	want := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
	if !next.After(now) {
		t.Errorf("next-fire must be strictly after now")
	}
	if !s.Matches(next) {
		t.Errorf("next-fire time must match the schedule")
	}
}

func TestNextFireAfterImpossibleSchedule(t *testing.T) {
	s, err := Parse("0 * 31 2 *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, ok := s.NextFireAfter(now); ok {
		t.Error("expected no next-fire time for Feb 31")
	}
}

func TestRoundTripSortedFields(t *testing.T) {
	s, err := Parse("30,0,15,45 * * * *")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reparsed, err := Parse(s.String())
	if err != nil {
		t.Fatalf("Parse(String()): %v", err)
	}
	if len(reparsed.Minutes) != len(s.Minutes) {
		t.Fatalf("round-trip changed minute set size")
	}
	for m := range s.Minutes {
		if _, ok := reparsed.Minutes[m]; !ok {
			t.Errorf("round-trip lost minute %d", m)
		}
	}
}

func TestExpandShorthand(t *testing.T) {
	cases := []struct {
		in       string
		wantCron string
		wantEvery string
	}{
		{"@hourly", "0 * * * *", ""},
		{"@daily", "0 0 * * *", ""},
		{"@weekly", "0 0 * * 0", ""},
		{"@every 5m", "", "5m"},
		{"0 * * * *", "0 * * * *", ""},
	}
	for _, c := range cases {
		cronExpr, every, err := ExpandShorthand(c.in)
		if err != nil {
			t.Fatalf("ExpandShorthand(%q): %v", c.in, err)
		}
		if cronExpr != c.wantCron || every != c.wantEvery {
			t.Errorf("ExpandShorthand(%q) = (%q, %q), want (%q, %q)", c.in, cronExpr, every, c.wantCron, c.wantEvery)
		}
	}
}

func TestExpandShorthandUnknownDescriptor(t *testing.T) {
	if _, _, err := ExpandShorthand("@fortnightly"); err == nil {
		t.Error("expected error for unknown descriptor")
	}
}
