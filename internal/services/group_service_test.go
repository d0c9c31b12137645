package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"casaconti/internal/core"
)

func TestGroupService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	water := f.expense(t, "Water", "40", core.Monthly, core.FixedAmount, core.EqualSplit{})
	gas := f.expense(t, "Gas", "60", core.Monthly, core.FixedAmount, core.EqualSplit{})
	net := f.expense(t, "Internet", "30", core.Monthly, core.FixedAmount, core.EqualSplit{})

	g, err := f.groups.Create(ctx, core.ExpenseGroup{
		Name:        " Utilities ",
		FixedPayer:  core.PayerA,
		FixedAmount: dec("70"),
		MemberIDs:   []int64{water.ID, gas.ID, water.ID},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if g.Name != "Utilities" || !reflect.DeepEqual(g.MemberIDs, []int64{water.ID, gas.ID}) {
		t.Errorf("Create() = %+v", g)
	}

	e, _ := f.expenses.Get(ctx, water.ID)
	if !e.IsGrouped() {
		t.Errorf("member distribution = %#v, want grouped", e.Distribution)
	}

	if err := f.groups.AddMember(ctx, g.ID, net.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if err := f.groups.AddMember(ctx, g.ID, net.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("AddMember() twice error = %v, want ErrConflict", err)
	}

	other, err := f.groups.Create(ctx, core.ExpenseGroup{Name: "Other", FixedPayer: core.PayerB, FixedAmount: dec("1")})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.groups.AddMember(ctx, other.ID, gas.ID); !errors.Is(err, core.ErrConflict) {
		t.Errorf("AddMember() to second group error = %v, want ErrConflict", err)
	}
	if err := f.groups.AddMember(ctx, other.ID, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("AddMember() unknown expense error = %v, want ErrNotFound", err)
	}

	g.FixedAmount = dec("80")
	g.FixedPayer = core.PayerB
	updated, err := f.groups.Update(ctx, g)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.FixedAmount.Equal(dec("80")) || updated.FixedPayer != core.PayerB || len(updated.MemberIDs) != 3 {
		t.Errorf("Update() = %+v", updated)
	}

	if err := f.groups.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, id := range []int64{water.ID, gas.ID, net.ID} {
		e, _ := f.expenses.Get(ctx, id)
		if e.Distribution.Kind() != core.KindEqual {
			t.Errorf("expense %d distribution = %s after group delete, want equal", id, e.Distribution.Kind())
		}
	}
	if err := f.groups.AddMember(ctx, other.ID, gas.ID); err != nil {
		t.Errorf("AddMember() after group delete error = %v", err)
	}

	groups, _ := f.groups.List(ctx)
	if len(groups) != 1 || groups[0].ID != other.ID {
		t.Errorf("List() = %+v, want only the second group", groups)
	}
}

func TestGroupService_CreateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gone := f.expense(t, "Gym", "30", core.Monthly, core.FixedAmount, core.EqualSplit{})
	if err := f.expenses.Deactivate(ctx, gone.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		group core.ExpenseGroup
		want  error
	}{
		{"empty name", core.ExpenseGroup{Name: " ", FixedPayer: core.PayerA}, core.ErrInvalidArgument},
		{"bad payer", core.ExpenseGroup{Name: "G", FixedPayer: "Z"}, core.ErrInvalidArgument},
		{"negative amount", core.ExpenseGroup{Name: "G", FixedPayer: core.PayerA, FixedAmount: dec("-5")}, core.ErrInvalidArgument},
		{"inactive member", core.ExpenseGroup{Name: "G", FixedPayer: core.PayerA, MemberIDs: []int64{gone.ID}}, core.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.groups.Create(ctx, tt.group); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
	if groups, _ := f.groups.List(ctx); len(groups) != 0 {
		t.Errorf("rejected groups were stored: %+v", groups)
	}
}

func TestGroupService_RemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gas := f.expense(t, "Gas", "60", core.Monthly, core.FixedAmount, core.EqualSplit{})
	g, err := f.groups.Create(ctx, core.ExpenseGroup{Name: "U", FixedPayer: core.PayerA, MemberIDs: []int64{gas.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.groups.RemoveMember(ctx, g.ID, gas.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if err := f.groups.RemoveMember(ctx, g.ID, gas.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second RemoveMember() error = %v, want ErrNotFound", err)
	}
	if err := f.groups.Delete(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() unknown group error = %v", err)
	}
}
