package services

import (
	"errors"
	"testing"

	"casaconti/internal/core"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		dist  core.Distribution
		total string
		wantA string
		wantB string
	}{
		{"equal", core.EqualSplit{}, "100.00", "50", "50"},
		{"equal odd cent", core.EqualSplit{}, "0.01", "0.005", "0.005"},
		{"fixed a within total", core.FixedSplit{Payer: core.PayerA, Amount: dec("30")}, "80", "30", "50"},
		{"fixed a above total is clamped", core.FixedSplit{Payer: core.PayerA, Amount: dec("100")}, "80", "80", "0"},
		{"fixed b", core.FixedSplit{Payer: core.PayerB, Amount: dec("25")}, "100", "75", "25"},
		{"fixed b zero", core.FixedSplit{Payer: core.PayerB, Amount: dec("0")}, "60", "60", "0"},
		{"percentage", core.PercentageSplit{PercentA: dec("33.33")}, "90.00", "29.997", "60.003"},
		{"percentage default", core.PercentageSplit{PercentA: core.DefaultPercentA}, "10", "5", "5"},
		{"percentage hundred", core.PercentageSplit{PercentA: dec("100")}, "42", "42", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.dist, dec(tt.total))
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if !got.A.Equal(dec(tt.wantA)) || !got.B.Equal(dec(tt.wantB)) {
				t.Errorf("Split() = (%s, %s), want (%s, %s)", got.A, got.B, tt.wantA, tt.wantB)
			}
		})
	}
}

func TestSplit_SumInvariant(t *testing.T) {
	dists := []core.Distribution{
		core.EqualSplit{},
		core.FixedSplit{Payer: core.PayerA, Amount: dec("70")},
		core.FixedSplit{Payer: core.PayerB, Amount: dec("0.015")},
		core.PercentageSplit{PercentA: dec("33.33")},
		core.PercentageSplit{PercentA: dec("66.6666")},
	}
	totals := []string{"0", "0.01", "1", "33.33", "69.99", "70", "1234.567"}
	for _, d := range dists {
		for _, total := range totals {
			s, err := Split(d, dec(total))
			if err != nil {
				t.Fatalf("Split(%s, %s) error = %v", d.Kind(), total, err)
			}
			if !s.Total().Equal(dec(total)) {
				t.Errorf("Split(%s, %s) sums to %s", d.Kind(), total, s.Total())
			}
			if s.A.IsNegative() || s.B.IsNegative() {
				t.Errorf("Split(%s, %s) = (%s, %s) has negative share", d.Kind(), total, s.A, s.B)
			}
		}
	}
}

func TestSplit_Rejects(t *testing.T) {
	if _, err := Split(core.GroupedSplit{GroupID: 1}, dec("10")); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("grouped split error = %v", err)
	}
	if _, err := Split(nil, dec("10")); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("nil distribution error = %v", err)
	}
	if _, err := Split(core.EqualSplit{}, dec("-1")); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("negative total error = %v", err)
	}
}
