package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage/memory"
)

type recordingPublisher struct {
	mu      sync.Mutex
	periods []core.Period
	reasons []string
}

func (r *recordingPublisher) PublishStatementExport(_ context.Context, p core.Period, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periods = append(r.periods, p)
	r.reasons = append(r.reasons, reason)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons)
}

type fixture struct {
	store      *memory.Store
	pub        *recordingPublisher
	expenses   *ExpenseService
	amounts    *AmountService
	ledger     *PaymentLedger
	groups     *GroupService
	statements *StatementBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	ledger := NewPaymentLedger(store, store, pub, time.Minute)
	return &fixture{
		store:      store,
		pub:        pub,
		expenses:   NewExpenseService(store, pub),
		amounts:    NewAmountService(store, store, pub),
		ledger:     ledger,
		groups:     NewGroupService(store, pub),
		statements: NewStatementBuilder(store, store, store, ledger),
	}
}

func (f *fixture) expense(t *testing.T, label, base string, freq core.Frequency, kind core.AmountKind, d core.Distribution) core.RecurringExpense {
	t.Helper()
	e, err := f.expenses.Create(context.Background(), core.RecurringExpense{
		Label:        label,
		BaseAmount:   dec(base),
		Frequency:    freq,
		AmountKind:   kind,
		Distribution: d,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", label, err)
	}
	return e
}

func (f *fixture) pay(t *testing.T, expenseID int64, p core.Period, payer core.Payer, amount string, week *int) core.Payment {
	t.Helper()
	pay, err := f.ledger.Record(context.Background(), core.Payment{
		ExpenseID: expenseID,
		Period:    p,
		Payer:     payer,
		Amount:    dec(amount),
		Week:      week,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return pay
}

func week(n int) *int { return &n }
