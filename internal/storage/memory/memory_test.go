package memory

import (
	"context"
	"errors"
	"testing"

	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
)

func seed(t *testing.T, s *Store, label string) int64 {
	t.Helper()
	id, err := s.CreateExpense(context.Background(), core.RecurringExpense{
		Label:        label,
		BaseAmount:   decimal.NewFromInt(10),
		Frequency:    core.Monthly,
		AmountKind:   core.FixedAmount,
		Distribution: core.EqualSplit{},
		Active:       true,
	})
	if err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
	return id
}

func TestStore_OverrideUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seed(t, s, "Phone")
	p := core.Period{Year: 2025, Month: 3}

	for _, v := range []int64{1, 2} {
		if err := s.UpsertOverride(ctx, core.MonthlyAmountOverride{ExpenseID: id, Period: p, Amount: decimal.NewFromInt(v)}); err != nil {
			t.Fatalf("UpsertOverride() error = %v", err)
		}
	}
	all, _ := s.ListOverrides(ctx, p)
	if len(all) != 1 || !all[id].Equal(decimal.NewFromInt(2)) {
		t.Fatalf("ListOverrides() = %v, want single override of 2", all)
	}
	if err := s.UpsertOverride(ctx, core.MonthlyAmountOverride{ExpenseID: 99, Period: p}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("UpsertOverride(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestStore_PaymentsFilter(t *testing.T) {
	s := New()
	ctx := context.Background()
	id := seed(t, s, "Food")
	p := core.Period{Year: 2025, Month: 3}
	w1, w2 := 1, 2

	for _, pay := range []core.Payment{
		{ExpenseID: id, Period: p, Payer: core.PayerA, Amount: decimal.NewFromInt(5), Week: &w1},
		{ExpenseID: id, Period: p, Payer: core.PayerA, Amount: decimal.NewFromInt(5), Week: &w2},
		{ExpenseID: id, Period: p, Payer: core.PayerB, Amount: decimal.NewFromInt(5)},
		{ExpenseID: id, Period: core.Period{Year: 2025, Month: 4}, Payer: core.PayerB, Amount: decimal.NewFromInt(5)},
	} {
		if _, err := s.CreatePayment(ctx, pay); err != nil {
			t.Fatalf("CreatePayment() error = %v", err)
		}
	}

	tests := []struct {
		name   string
		filter storage.PaymentFilter
		want   int
	}{
		{"whole month", storage.PaymentFilter{Period: p}, 3},
		{"payer a", storage.PaymentFilter{Period: p, Payer: core.PayerA}, 2},
		{"week 2", storage.PaymentFilter{Period: p, Week: &w2}, 1},
		{"other expense", storage.PaymentFilter{Period: p, ExpenseID: id + 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := s.CountPayments(ctx, tt.filter); got != tt.want {
				t.Errorf("CountPayments() = %d, want %d", got, tt.want)
			}
		})
	}

	totals, _ := s.PaymentTotals(ctx)
	if len(totals) != 2 || totals[0].Period.Month != 3 {
		t.Fatalf("PaymentTotals() = %+v", totals)
	}
	if n, _ := s.DeletePayments(ctx, storage.PaymentFilter{Period: p}); n != 3 {
		t.Errorf("DeletePayments() = %d, want 3", n)
	}
}

func TestStore_GroupMembership(t *testing.T) {
	s := New()
	ctx := context.Background()
	a, b := seed(t, s, "A"), seed(t, s, "B")

	gid, err := s.CreateGroup(ctx, core.ExpenseGroup{Name: "G", FixedPayer: core.PayerA, MemberIDs: []int64{a, b}})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if _, err := s.CreateGroup(ctx, core.ExpenseGroup{Name: "H", FixedPayer: core.PayerA, MemberIDs: []int64{a}}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("second CreateGroup() error = %v, want ErrConflict", err)
	}

	if err := s.SetExpenseActive(ctx, b, false); err != nil {
		t.Fatal(err)
	}
	g, _ := s.GetGroup(ctx, gid)
	if len(g.MemberIDs) != 1 || g.MemberIDs[0] != a {
		t.Errorf("members = %v, want only active %d", g.MemberIDs, a)
	}

	if err := s.DeactivateGroup(ctx, gid); err != nil {
		t.Fatalf("DeactivateGroup() error = %v", err)
	}
	e, _ := s.GetExpense(ctx, a)
	if e.IsGrouped() {
		t.Error("member still grouped after group deactivation")
	}
	if _, err := s.CreateGroup(ctx, core.ExpenseGroup{Name: "H", FixedPayer: core.PayerB, MemberIDs: []int64{a}}); err != nil {
		t.Errorf("regrouping after deactivation error = %v", err)
	}
}
