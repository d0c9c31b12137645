package core

import (
	"errors"
	"testing"
	"time"
)

func TestCountWeeksStartingInMonth(t *testing.T) {
	tests := []struct {
		name string
		p    Period
		want int
	}{
		{"january 2024 starts on monday", Period{2024, 1}, 5},
		{"february 2024 leap, starts thursday", Period{2024, 2}, 4},
		{"february 2021 starts on monday", Period{2021, 2}, 4},
		{"march 2025 starts saturday", Period{2025, 3}, 5},
		{"september 2025", Period{2025, 9}, 5},
		{"june 2025 starts sunday", Period{2025, 6}, 5},
		{"april 2025", Period{2025, 4}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWeeksStartingInMonth(tt.p); got != tt.want {
				t.Errorf("CountWeeksStartingInMonth(%s) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestCountWeeksAlwaysFourOrFive(t *testing.T) {
	for y := 1990; y <= 2040; y++ {
		for m := 1; m <= 12; m++ {
			n := CountWeeksStartingInMonth(Period{y, m})
			if n != 4 && n != 5 {
				t.Fatalf("CountWeeksStartingInMonth(%04d-%02d) = %d", y, m, n)
			}
		}
	}
}

func TestWeekDateRange(t *testing.T) {
	p := Period{2024, 1}
	start, end, err := WeekDateRange(p, 5)
	if err != nil {
		t.Fatalf("WeekDateRange() error = %v", err)
	}
	if want := time.Date(2024, 1, 29, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
	if want := time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC); !end.Equal(want) {
		t.Errorf("end = %v, want %v", end, want)
	}
	if got := WeekLabel(start, end); got != "29/01 - 04/02" {
		t.Errorf("WeekLabel() = %q", got)
	}

	start, _, err = WeekDateRange(Period{2024, 2}, 1)
	if err != nil {
		t.Fatalf("WeekDateRange() error = %v", err)
	}
	if start.Day() != 5 || start.Weekday() != time.Monday {
		t.Errorf("first week of Feb 2024 starts %v, want Monday 5th", start)
	}

	for _, week := range []int{0, 6, -1} {
		if _, _, err := WeekDateRange(p, week); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("WeekDateRange(week=%d) error = %v, want invalid argument", week, err)
		}
	}
}
