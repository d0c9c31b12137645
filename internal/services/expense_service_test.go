package services

import (
	"context"
	"errors"
	"testing"

	"casaconti/internal/core"
)

func TestExpenseService_Create(t *testing.T) {
	tests := []struct {
		name    string
		expense core.RecurringExpense
		wantErr error
	}{
		{
			name:    "valid",
			expense: core.RecurringExpense{Label: "  Rent ", BaseAmount: dec("800"), Frequency: core.Monthly, AmountKind: core.FixedAmount, Distribution: core.EqualSplit{}},
		},
		{
			name:    "empty label",
			expense: core.RecurringExpense{Label: " ", BaseAmount: dec("800"), Frequency: core.Monthly, AmountKind: core.FixedAmount, Distribution: core.EqualSplit{}},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name:    "grouped distribution",
			expense: core.RecurringExpense{Label: "Gas", BaseAmount: dec("60"), Frequency: core.Monthly, AmountKind: core.FixedAmount, Distribution: core.GroupedSplit{GroupID: 1}},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name:    "unknown frequency",
			expense: core.RecurringExpense{Label: "Gas", BaseAmount: dec("60"), Frequency: "daily", AmountKind: core.FixedAmount, Distribution: core.EqualSplit{}},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name:    "negative base",
			expense: core.RecurringExpense{Label: "Gas", BaseAmount: dec("-60"), Frequency: core.Monthly, AmountKind: core.FixedAmount, Distribution: core.EqualSplit{}},
			wantErr: core.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			got, err := f.expenses.Create(context.Background(), tt.expense)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
				}
				if f.pub.count() != 0 {
					t.Error("export requested for a rejected expense")
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			if got.ID == 0 || got.Label != "Rent" || !got.Active {
				t.Errorf("Create() = %+v", got)
			}
			if f.pub.count() != 1 {
				t.Errorf("exports requested = %d, want 1", f.pub.count())
			}
		})
	}
}

func TestExpenseService_UpdateAndDeactivate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rent := f.expense(t, "Rent", "800", core.Monthly, core.FixedAmount, core.EqualSplit{})

	rent.BaseAmount = dec("850")
	rent.Distribution = core.PercentageSplit{PercentA: dec("60")}
	if _, err := f.expenses.Update(ctx, rent); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, err := f.expenses.Get(ctx, rent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.BaseAmount.Equal(dec("850")) || got.Distribution.Kind() != core.KindPercentage {
		t.Errorf("Get() after update = %+v", got)
	}

	if err := f.expenses.Deactivate(ctx, rent.ID); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if err := f.expenses.Deactivate(ctx, rent.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Deactivate() error = %v, want ErrNotFound", err)
	}
	if _, err := f.expenses.Update(ctx, rent); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update() of inactive expense error = %v", err)
	}

	active, _ := f.expenses.List(ctx, true)
	all, _ := f.expenses.List(ctx, false)
	if len(active) != 0 || len(all) != 1 {
		t.Errorf("List() active=%d all=%d, want 0 and 1", len(active), len(all))
	}
}

func TestExpenseService_UpdateGroupedKeepsGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gas := f.expense(t, "Gas", "60", core.Monthly, core.FixedAmount, core.EqualSplit{})
	g, err := f.groups.Create(ctx, core.ExpenseGroup{Name: "Utilities", FixedPayer: core.PayerA, FixedAmount: dec("10"), MemberIDs: []int64{gas.ID}})
	if err != nil {
		t.Fatal(err)
	}

	gas.Label = "Gas bill"
	gas.Distribution = nil
	updated, err := f.expenses.Update(ctx, gas)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if gs, ok := updated.Distribution.(core.GroupedSplit); !ok || gs.GroupID != g.ID {
		t.Errorf("distribution = %#v, want grouped in %d", updated.Distribution, g.ID)
	}

	gas.Distribution = core.EqualSplit{}
	if _, err := f.expenses.Update(ctx, gas); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Update() leaving the group error = %v, want ErrInvalidArgument", err)
	}
}
