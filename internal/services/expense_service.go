package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage"
)

// ExpenseService manages recurring expense definitions.
type ExpenseService struct {
	storage storage.ExpenseStore
	events  ExportPublisher
	now     func() time.Time
}

func NewExpenseService(store storage.ExpenseStore, events ExportPublisher) *ExpenseService {
	return &ExpenseService{storage: store, events: events, now: time.Now}
}

// Create stores a new active expense. Expenses join groups through the
// group service, never by declaring a grouped distribution.
func (s *ExpenseService) Create(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	e.Label = strings.TrimSpace(e.Label)
	e.Active = true
	if e.IsGrouped() {
		return e, fmt.Errorf("%w: add the expense to a group instead", core.ErrInvalidArgument)
	}
	if err := e.Validate(); err != nil {
		return e, err
	}

	id, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return e, fmt.Errorf("save expense: %w", err)
	}
	e.ID = id

	requestExport(ctx, s.events, core.NewPeriod(s.now()), "expense_created")
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.RecurringExpense, error) {
	return s.storage.GetExpense(ctx, id)
}

func (s *ExpenseService) List(ctx context.Context, activeOnly bool) ([]core.RecurringExpense, error) {
	return s.storage.ListExpenses(ctx, activeOnly)
}

// Update replaces the editable fields of an active expense. The split of a
// grouped expense belongs to its group and cannot be changed here.
func (s *ExpenseService) Update(ctx context.Context, e core.RecurringExpense) (core.RecurringExpense, error) {
	current, err := activeExpense(ctx, s.storage, e.ID)
	if err != nil {
		return e, err
	}

	switch {
	case current.IsGrouped() && e.Distribution != nil && !e.IsGrouped():
		return e, fmt.Errorf("%w: expense %d belongs to a group, remove it first", core.ErrInvalidArgument, e.ID)
	case current.IsGrouped():
		e.Distribution = current.Distribution
	case e.IsGrouped():
		return e, fmt.Errorf("%w: add the expense to a group instead", core.ErrInvalidArgument)
	}

	e.Label = strings.TrimSpace(e.Label)
	e.Active = true
	e.CreatedAt = current.CreatedAt
	if err := e.Validate(); err != nil {
		return e, err
	}
	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return e, fmt.Errorf("update expense: %w", err)
	}

	requestExport(ctx, s.events, core.NewPeriod(s.now()), "expense_updated")
	return e, nil
}

// Deactivate soft deletes an expense so historical payments keep their
// reference.
func (s *ExpenseService) Deactivate(ctx context.Context, id int64) error {
	if _, err := activeExpense(ctx, s.storage, id); err != nil {
		return err
	}
	if err := s.storage.SetExpenseActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate expense: %w", err)
	}
	requestExport(ctx, s.events, core.NewPeriod(s.now()), "expense_deactivated")
	return nil
}
