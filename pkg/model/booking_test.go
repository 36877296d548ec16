package model

import (
	"testing"
	"time"
)

func TestMidnight(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// 00:30 local on July 2nd is still July 1st in UTC.
	local := time.Date(2026, 7, 2, 0, 30, 0, 0, madrid)
	got := Midnight(local)
	want := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Midnight(%v) = %v, want %v", local, got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	start := time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 3, 9, 0, 0, 0, time.UTC)

	days := DaysBetween(start, end)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	for i, day := range days {
		want := time.Date(2026, 7, 1+i, 0, 0, 0, 0, time.UTC)
		if !day.Equal(want) {
			t.Errorf("day %d = %v, want %v", i, day, want)
		}
	}

	// Same-day range is one day.
	if got := DaysBetween(start, start); len(got) != 1 {
		t.Errorf("expected 1 day for a same-day range, got %d", len(got))
	}
}

func TestStockCellID(t *testing.T) {
	day := time.Date(2026, 7, 1, 23, 59, 0, 0, time.UTC)
	if got := StockCellID(day, "seabob-f5"); got != "2026-07-01_seabob-f5" {
		t.Errorf("unexpected cell ID %q", got)
	}
}
