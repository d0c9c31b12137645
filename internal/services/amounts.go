package services

import (
	"context"
	"fmt"
	"log/slog"

	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
)

// MonthlyAmount is the resolved amount of one expense for a period.
type MonthlyAmount struct {
	ExpenseID  int64           `json:"expense_id"`
	Label      string          `json:"label"`
	AmountKind core.AmountKind `json:"amount_kind"`
	Frequency  core.Frequency  `json:"frequency"`
	Base       decimal.Decimal `json:"base"`
	Amount     decimal.Decimal `json:"amount"`
	Total      decimal.Decimal `json:"total"`
	Edited     bool            `json:"edited"`
}

// AmountService manages month specific amounts of variable expenses.
type AmountService struct {
	expenses  storage.ExpenseStore
	overrides storage.OverrideStore
	events    ExportPublisher
}

func NewAmountService(expenses storage.ExpenseStore, overrides storage.OverrideStore, events ExportPublisher) *AmountService {
	return &AmountService{expenses: expenses, overrides: overrides, events: events}
}

// Get returns the override for the exact period, else the base amount.
func (s *AmountService) Get(ctx context.Context, expenseID int64, p core.Period) (decimal.Decimal, error) {
	if err := p.Validate(); err != nil {
		return decimal.Zero, err
	}
	e, err := s.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return decimal.Zero, err
	}
	amount, ok, err := s.overrides.GetOverride(ctx, expenseID, p)
	if err != nil {
		return decimal.Zero, err
	}
	if ok {
		return amount, nil
	}
	return e.BaseAmount, nil
}

// Set upserts the amount of an expense for a period.
func (s *AmountService) Set(ctx context.Context, expenseID int64, p core.Period, amount decimal.Decimal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", core.ErrInvalidAmount, amount)
	}
	e, err := activeExpense(ctx, s.expenses, expenseID)
	if err != nil {
		return err
	}
	if e.AmountKind == core.FixedAmount {
		slog.WarnContext(ctx, "Override stored for a fixed expense, it will be ignored",
			"expense_id", expenseID,
			"period", p.String())
	}
	if err := s.overrides.UpsertOverride(ctx, core.MonthlyAmountOverride{ExpenseID: expenseID, Period: p, Amount: amount}); err != nil {
		return fmt.Errorf("set monthly amount: %w", err)
	}
	requestExport(ctx, s.events, p, "amount")
	return nil
}

// List returns every active expense with the amount that applies in p.
func (s *AmountService) List(ctx context.Context, p core.Period) ([]MonthlyAmount, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListExpenses(ctx, true)
	if err != nil {
		return nil, err
	}
	overrides, err := s.overrides.ListOverrides(ctx, p)
	if err != nil {
		return nil, err
	}

	out := make([]MonthlyAmount, 0, len(expenses))
	for _, e := range expenses {
		amount, edited := effectiveBase(e, overrides)
		total, err := MonthlyTotal(amount, e.Frequency, p)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		out = append(out, MonthlyAmount{
			ExpenseID:  e.ID,
			Label:      e.Label,
			AmountKind: e.AmountKind,
			Frequency:  e.Frequency,
			Base:       e.BaseAmount,
			Amount:     amount,
			Total:      total,
			Edited:     edited,
		})
	}
	return out, nil
}

// effectiveBase applies an override only to variable expenses.
func effectiveBase(e core.RecurringExpense, overrides map[int64]decimal.Decimal) (decimal.Decimal, bool) {
	if e.AmountKind != core.VariableAmount {
		return e.BaseAmount, false
	}
	if amount, ok := overrides[e.ID]; ok {
		return amount, true
	}
	return e.BaseAmount, false
}

// activeExpense loads an expense, treating inactive ones as missing.
func activeExpense(ctx context.Context, store storage.ExpenseStore, id int64) (core.RecurringExpense, error) {
	e, err := store.GetExpense(ctx, id)
	if err != nil {
		return e, err
	}
	if !e.Active {
		return e, fmt.Errorf("expense %d is inactive: %w", id, core.ErrNotFound)
	}
	return e, nil
}
