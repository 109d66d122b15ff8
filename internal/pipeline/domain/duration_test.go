package domain

import (
	"testing"
	"time"
)

func TestDurationDays_FloorsPartialDays(t *testing.T) {
	entered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := entered.Add(3*24*time.Hour + time.Hour)

	if got := DurationDays(entered, now); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
}

func TestDurationDays_SameInstantIsZero(t *testing.T) {
	entered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if got := DurationDays(entered, entered); got != 0 {
		t.Fatalf("expected 0 days, got %d", got)
	}
}

func TestDurationDays_ClockBehindEntryIsZero(t *testing.T) {
	entered := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := entered.Add(-2 * time.Hour)

	if got := DurationDays(entered, now); got != 0 {
		t.Fatalf("expected 0 days for clock skew, got %d", got)
	}
}

func TestDurationDays_WholeDays(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{23 * time.Hour, 0},
		{24 * time.Hour, 1},
		{47 * time.Hour, 1},
		{10 * 24 * time.Hour, 10},
	}

	entered := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		if got := DurationDays(entered, entered.Add(tt.elapsed)); got != tt.want {
			t.Fatalf("elapsed %v: expected %d days, got %d", tt.elapsed, tt.want, got)
		}
	}
}
