package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestDistributionFieldsRoundTrip(t *testing.T) {
	rules := []Distribution{
		EqualSplit{},
		FixedSplit{Payer: PayerA, Amount: decimal.NewFromInt(100)},
		FixedSplit{Payer: PayerB, Amount: decimal.RequireFromString("12.5")},
		PercentageSplit{PercentA: decimal.RequireFromString("33.33")},
		GroupedSplit{GroupID: 7},
	}
	for _, d := range rules {
		got, err := FieldsOf(d).Distribution()
		if err != nil {
			t.Fatalf("%T: %v", d, err)
		}
		if got.Kind() != d.Kind() || Tag(got) != Tag(d) {
			t.Errorf("round trip of %#v gave %#v", d, got)
		}
	}
}

func TestDistributionFieldsMissingParameter(t *testing.T) {
	tests := []struct {
		name   string
		fields DistributionFields
	}{
		{"fixed a without amount", DistributionFields{Kind: KindFixedA}},
		{"fixed b without amount", DistributionFields{Kind: KindFixedB, FixedA: ptr(decimal.NewFromInt(3))}},
		{"percentage without pct", DistributionFields{Kind: KindPercentage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fields.Distribution(); !errors.Is(err, ErrMissingSplitParameter) {
				t.Errorf("Distribution() error = %v, want ErrMissingSplitParameter", err)
			}
			d, defaulted, err := tt.fields.DistributionOrDefault()
			if err != nil || !defaulted {
				t.Fatalf("DistributionOrDefault() = %v, %v, %v", d, defaulted, err)
			}
			if p, ok := d.(PercentageSplit); ok && !p.PercentA.Equal(DefaultPercentA) {
				t.Errorf("default percentage = %s, want 50", p.PercentA)
			}
			if f, ok := d.(FixedSplit); ok && !f.Amount.IsZero() {
				t.Errorf("default fixed amount = %s, want 0", f.Amount)
			}
		})
	}
}

func TestDistributionFieldsUnknownKind(t *testing.T) {
	if _, _, err := (DistributionFields{Kind: "thirds"}).DistributionOrDefault(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown kind error = %v", err)
	}
}

func TestBalanceDebtor(t *testing.T) {
	tests := []struct {
		name      string
		pending   Shares
		wantPayer Payer
		wantOK    bool
	}{
		{"a owes", Shares{A: decimal.NewFromInt(20), B: decimal.Zero}, PayerA, true},
		{"b owes", Shares{A: decimal.NewFromInt(-5), B: decimal.NewFromInt(5)}, PayerB, true},
		{"settled within a cent", Shares{A: decimal.RequireFromString("0.004"), B: decimal.Zero}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, ok := Balance{Pending: tt.pending}.Debtor()
			if p != tt.wantPayer || ok != tt.wantOK {
				t.Errorf("Debtor() = %q, %v, want %q, %v", p, ok, tt.wantPayer, tt.wantOK)
			}
		})
	}
}

func TestBalanceSettlement(t *testing.T) {
	h := Household{A: Person{Name: "Anna"}, B: Person{Name: "Bruno"}}
	owing := Balance{Pending: Shares{A: decimal.Zero, B: decimal.RequireFromString("30")}}
	if got := owing.Settlement(h); got != "Bruno owes 30.00" {
		t.Errorf("Settlement() = %q", got)
	}
	if got := (Balance{}).Settlement(h); got != "Settled" {
		t.Errorf("Settlement() = %q, want Settled", got)
	}
}
