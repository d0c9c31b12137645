package services

import (
	"errors"
	"testing"

	"casaconti/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthlyTotal(t *testing.T) {
	jan2024 := core.Period{Year: 2024, Month: 1}
	feb2024 := core.Period{Year: 2024, Month: 2}

	tests := []struct {
		name string
		base string
		freq core.Frequency
		p    core.Period
		want string
	}{
		{"monthly unchanged", "123.45", core.Monthly, jan2024, "123.45"},
		{"biweekly doubles", "50", core.Biweekly, jan2024, "100"},
		{"yearly divides by twelve", "120", core.Yearly, jan2024, "10"},
		{"weekly five weeks", "20", core.Weekly, jan2024, "100"},
		{"weekly four weeks", "20", core.Weekly, feb2024, "80"},
		{"zero base", "0", core.Weekly, jan2024, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MonthlyTotal(dec(tt.base), tt.freq, tt.p)
			if err != nil {
				t.Fatalf("MonthlyTotal() error = %v", err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("MonthlyTotal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthlyTotal_NonNegative(t *testing.T) {
	bases := []string{"0", "0.01", "19.99", "1000"}
	for _, f := range []core.Frequency{core.Monthly, core.Weekly, core.Biweekly, core.Yearly} {
		for m := 1; m <= 12; m++ {
			for _, b := range bases {
				got, err := MonthlyTotal(dec(b), f, core.Period{Year: 2025, Month: m})
				if err != nil || got.IsNegative() {
					t.Fatalf("MonthlyTotal(%s, %s, %d) = %s, %v", b, f, m, got, err)
				}
				if f == core.Monthly && !got.Equal(dec(b)) {
					t.Fatalf("monthly total %s != base %s", got, b)
				}
			}
		}
	}
}

func TestMonthlyTotal_Errors(t *testing.T) {
	p := core.Period{Year: 2025, Month: 1}
	if _, err := MonthlyTotal(dec("10"), "daily", p); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("unknown frequency error = %v", err)
	}
	if _, err := MonthlyTotal(dec("-1"), core.Monthly, p); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("negative base error = %v", err)
	}
}

func TestGetFrequencyStrategy(t *testing.T) {
	tests := []struct {
		freq core.Frequency
		want FrequencyStrategy
	}{
		{core.Monthly, MonthlyStrategy{}},
		{core.Weekly, WeeklyStrategy{}},
		{core.Biweekly, BiweeklyStrategy{}},
		{core.Yearly, YearlyStrategy{}},
	}
	for _, tt := range tests {
		got, err := GetFrequencyStrategy(tt.freq)
		if err != nil || got != tt.want {
			t.Errorf("GetFrequencyStrategy(%s) = %T, %v", tt.freq, got, err)
		}
	}
}
