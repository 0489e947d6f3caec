package domain_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/jorgyvanlima/pdvc1/internal/domain"
)

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		from string
		n    int
		want string
	}{
		{"2025-01-31", 1, "2025-02-28"},
		{"2024-01-31", 1, "2024-02-29"},
		{"2025-01-31", 2, "2025-03-31"},
		{"2025-08-31", 1, "2025-09-30"},
		{"2025-11-15", 3, "2026-02-15"},
		{"2025-03-10", 0, "2025-03-10"},
	}
	for _, tt := range tests {
		from, _ := domain.ParseDate(tt.from, time.UTC)
		if got := domain.CivilDate(domain.AddMonths(from, tt.n)); got != tt.want {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.from, tt.n, got, tt.want)
		}
	}
}

func TestDaysBetween_IgnoresDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	before := time.Date(2025, time.March, 8, 0, 0, 0, 0, loc)
	after := time.Date(2025, time.March, 10, 0, 0, 0, 0, loc)

	if d := domain.DaysBetween(before, after); d != 2 {
		t.Errorf("expected 2 days across DST, got %d", d)
	}
	if d := domain.DaysBetween(after, before); d != -2 {
		t.Errorf("expected -2 days, got %d", d)
	}
}

func TestStartOfDay_UsesLedgerZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 01:00 UTC on the 11th is still the 10th in Sao Paulo.
	instant := time.Date(2025, time.March, 11, 1, 0, 0, 0, time.UTC)
	if got := domain.CivilDate(domain.StartOfDay(instant, loc)); got != "2025-03-10" {
		t.Errorf("expected 2025-03-10, got %s", got)
	}
}

func TestMonthRange(t *testing.T) {
	rng := domain.MonthRange(time.Date(2024, time.February, 17, 9, 0, 0, 0, time.UTC), time.UTC)
	if domain.CivilDate(rng.Start) != "2024-02-01" || domain.CivilDate(rng.End) != "2024-02-29" {
		t.Errorf("unexpected range %s..%s", domain.CivilDate(rng.Start), domain.CivilDate(rng.End))
	}
	if domain.CivilDate(rng.EndExclusive()) != "2024-03-01" {
		t.Errorf("unexpected exclusive end %s", domain.CivilDate(rng.EndExclusive()))
	}
}
