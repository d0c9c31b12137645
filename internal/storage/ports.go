// Package storage defines the persistence ports of the household ledger.
// Implementations live in the sqlite and memory subpackages.
package storage

import (
	"context"

	"casaconti/internal/core"

	"github.com/shopspring/decimal"
)

// ExpenseStore persists recurring expense definitions.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.RecurringExpense) (int64, error)
	// GetExpense returns core.ErrNotFound when no row has the id, active or not.
	GetExpense(ctx context.Context, id int64) (core.RecurringExpense, error)
	ListExpenses(ctx context.Context, activeOnly bool) ([]core.RecurringExpense, error)
	UpdateExpense(ctx context.Context, e core.RecurringExpense) error
	SetExpenseActive(ctx context.Context, id int64, active bool) error
}

// OverrideStore keeps month specific amounts keyed by (expense, year, month).
type OverrideStore interface {
	GetOverride(ctx context.Context, expenseID int64, p core.Period) (decimal.Decimal, bool, error)
	// UpsertOverride never creates a second row for the same key.
	UpsertOverride(ctx context.Context, o core.MonthlyAmountOverride) error
	ListOverrides(ctx context.Context, p core.Period) (map[int64]decimal.Decimal, error)
}

// PaymentFilter selects payments of one period. Zero fields match anything.
type PaymentFilter struct {
	Period    core.Period
	ExpenseID int64
	Payer     core.Payer
	Week      *int
}

// PaymentStore is the append-only payment ledger.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p core.Payment) (int64, error)
	// ListPayments returns matches with ExpenseLabel set, newest first.
	ListPayments(ctx context.Context, f PaymentFilter) ([]core.Payment, error)
	CountPayments(ctx context.Context, f PaymentFilter) (int, error)
	// DeletePayment returns the removed payment.
	DeletePayment(ctx context.Context, id int64) (core.Payment, error)
	DeletePayments(ctx context.Context, f PaymentFilter) (int, error)
	// PaymentTotals sums payments per payer for every period with payments,
	// oldest first.
	PaymentTotals(ctx context.Context) ([]core.MonthlyTotal, error)
}

// GroupStore persists expense groups and their membership. Membership
// changes also rewrite the member's distribution so both stay consistent.
type GroupStore interface {
	// CreateGroup inserts the group, links MemberIDs and marks them grouped
	// in one transaction.
	CreateGroup(ctx context.Context, g core.ExpenseGroup) (int64, error)
	GetGroup(ctx context.Context, id int64) (core.ExpenseGroup, error)
	// ListGroups returns active groups with their active members.
	ListGroups(ctx context.Context) ([]core.ExpenseGroup, error)
	UpdateGroup(ctx context.Context, g core.ExpenseGroup) error
	AddGroupMember(ctx context.Context, groupID, expenseID int64) error
	// RemoveGroupMember reverts the expense to an equal split.
	RemoveGroupMember(ctx context.Context, groupID, expenseID int64) error
	// DeactivateGroup soft deletes the group and reverts members to equal.
	DeactivateGroup(ctx context.Context, id int64) error
}

// Store is everything the services need from a backend.
type Store interface {
	ExpenseStore
	OverrideStore
	PaymentStore
	GroupStore
	Ping(ctx context.Context) error
	Close() error
}
