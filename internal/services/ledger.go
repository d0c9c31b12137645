package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"casaconti/internal/cache"
	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurgeConfirmation arms a bulk delete of a month's payments.
type PurgeConfirmation struct {
	Token     string      `json:"token"`
	Period    core.Period `json:"period"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// WeekRange is one Monday to Sunday week of a month.
type WeekRange struct {
	Week  int       `json:"week"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// WeekStatus reports weekly payment progress of one expense.
type WeekStatus struct {
	ExpenseID int64       `json:"expense_id"`
	Period    core.Period `json:"period"`
	Ranges    []WeekRange `json:"ranges"`
	PaidA     []int       `json:"paid_a"`
	PaidB     []int       `json:"paid_b"`
	PendingA  int         `json:"pending_a"`
	PendingB  int         `json:"pending_b"`
}

// PaymentLedger records payments and answers who paid what.
type PaymentLedger struct {
	payments storage.PaymentStore
	expenses storage.ExpenseStore
	events   ExportPublisher
	pending  *cache.LRUCache[core.Period]
	now      func() time.Time
}

// NewPaymentLedger keeps purge confirmations alive for confirmTTL.
func NewPaymentLedger(payments storage.PaymentStore, expenses storage.ExpenseStore, events ExportPublisher, confirmTTL time.Duration) *PaymentLedger {
	return &PaymentLedger{
		payments: payments,
		expenses: expenses,
		events:   events,
		pending:  cache.NewLRUCache[core.Period](64, confirmTTL),
		now:      time.Now,
	}
}

// Confirmations exposes the pending purge tokens for periodic cleanup.
func (l *PaymentLedger) Confirmations() cache.Cleaner {
	return l.pending
}

// Record appends a payment. Duplicates are allowed.
func (l *PaymentLedger) Record(ctx context.Context, p core.Payment) (core.Payment, error) {
	if err := p.Validate(); err != nil {
		return p, err
	}
	e, err := activeExpense(ctx, l.expenses, p.ExpenseID)
	if err != nil {
		return p, err
	}
	if p.Week != nil {
		if e.Frequency != core.Weekly {
			return p, fmt.Errorf("%w: week given for %s expense %d", core.ErrInvalidArgument, e.Frequency, e.ID)
		}
		if n := core.CountWeeksStartingInMonth(p.Period); *p.Week > n {
			return p, fmt.Errorf("%w: week %d of %s has %d weeks", core.ErrInvalidWeek, *p.Week, p.Period, n)
		}
	}
	if p.PaidOn.IsZero() {
		p.PaidOn = l.now()
	}

	id, err := l.payments.CreatePayment(ctx, p)
	if err != nil {
		return p, fmt.Errorf("record payment: %w", err)
	}
	p.ID = id
	p.ExpenseLabel = e.Label

	requestExport(ctx, l.events, p.Period, "payment")
	return p, nil
}

// HasPaid reports whether at least one matching payment exists. A nil week
// matches payments of any week.
func (l *PaymentLedger) HasPaid(ctx context.Context, expenseID int64, p core.Period, payer core.Payer, week *int) (bool, error) {
	if err := payer.Validate(); err != nil {
		return false, err
	}
	n, err := l.payments.CountPayments(ctx, storage.PaymentFilter{Period: p, ExpenseID: expenseID, Payer: payer, Week: week})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PaidWeeks returns the sorted distinct weeks payer paid for.
func (l *PaymentLedger) PaidWeeks(ctx context.Context, expenseID int64, p core.Period, payer core.Payer) ([]int, error) {
	if err := payer.Validate(); err != nil {
		return nil, err
	}
	payments, err := l.payments.ListPayments(ctx, storage.PaymentFilter{Period: p, ExpenseID: expenseID, Payer: payer})
	if err != nil {
		return nil, err
	}
	seen := make(map[int]struct{})
	weeks := []int{}
	for _, pay := range payments {
		if pay.Week == nil {
			continue
		}
		if _, ok := seen[*pay.Week]; !ok {
			seen[*pay.Week] = struct{}{}
			weeks = append(weeks, *pay.Week)
		}
	}
	sort.Ints(weeks)
	return weeks, nil
}

// FullyPaid reports whether every week 1..n appears in paid.
func FullyPaid(paid []int, n int) bool {
	if n == 0 {
		return false
	}
	set := make(map[int]struct{}, len(paid))
	for _, w := range paid {
		set[w] = struct{}{}
	}
	for w := 1; w <= n; w++ {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// Weeks describes the weeks of a weekly expense and who paid which.
func (l *PaymentLedger) Weeks(ctx context.Context, expenseID int64, p core.Period) (WeekStatus, error) {
	if err := p.Validate(); err != nil {
		return WeekStatus{}, err
	}
	e, err := l.expenses.GetExpense(ctx, expenseID)
	if err != nil {
		return WeekStatus{}, err
	}
	if e.Frequency != core.Weekly {
		return WeekStatus{}, fmt.Errorf("%w: expense %d is %s", core.ErrInvalidArgument, expenseID, e.Frequency)
	}

	n := core.CountWeeksStartingInMonth(p)
	status := WeekStatus{ExpenseID: expenseID, Period: p}
	for w := 1; w <= n; w++ {
		start, end, err := core.WeekDateRange(p, w)
		if err != nil {
			return WeekStatus{}, err
		}
		status.Ranges = append(status.Ranges, WeekRange{Week: w, Start: start, End: end, Label: core.WeekLabel(start, end)})
	}
	if status.PaidA, err = l.PaidWeeks(ctx, expenseID, p, core.PayerA); err != nil {
		return WeekStatus{}, err
	}
	if status.PaidB, err = l.PaidWeeks(ctx, expenseID, p, core.PayerB); err != nil {
		return WeekStatus{}, err
	}
	status.PendingA = n - len(status.PaidA)
	status.PendingB = n - len(status.PaidB)
	return status, nil
}

// List returns the payments of a period, newest first.
func (l *PaymentLedger) List(ctx context.Context, p core.Period) ([]core.Payment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return l.payments.ListPayments(ctx, storage.PaymentFilter{Period: p})
}

// TotalPaid sums every payment payer made in the period.
func (l *PaymentLedger) TotalPaid(ctx context.Context, p core.Period, payer core.Payer) (decimal.Decimal, error) {
	payments, err := l.payments.ListPayments(ctx, storage.PaymentFilter{Period: p, Payer: payer})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, pay := range payments {
		total = total.Add(pay.Amount)
	}
	return total, nil
}

// History returns per person monthly totals across all periods.
func (l *PaymentLedger) History(ctx context.Context) ([]core.MonthlyTotal, error) {
	return l.payments.PaymentTotals(ctx)
}

// Delete removes a single payment.
func (l *PaymentLedger) Delete(ctx context.Context, paymentID int64) error {
	removed, err := l.payments.DeletePayment(ctx, paymentID)
	if err != nil {
		return err
	}
	requestExport(ctx, l.events, removed.Period, "payment_deleted")
	return nil
}

// DeleteByKey removes every payment payer made for the expense in p.
func (l *PaymentLedger) DeleteByKey(ctx context.Context, expenseID int64, p core.Period, payer core.Payer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if err := payer.Validate(); err != nil {
		return 0, err
	}
	if expenseID <= 0 {
		return 0, fmt.Errorf("%w: expense id %d", core.ErrInvalidArgument, expenseID)
	}
	n, err := l.payments.DeletePayments(ctx, storage.PaymentFilter{Period: p, ExpenseID: expenseID, Payer: payer})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		requestExport(ctx, l.events, p, "payment_deleted")
	}
	return n, nil
}

// RequestDeleteAll arms deletion of every payment in p. Nothing is deleted
// until ConfirmDeleteAll is called with the returned token before it expires.
func (l *PaymentLedger) RequestDeleteAll(ctx context.Context, p core.Period) (PurgeConfirmation, error) {
	if err := p.Validate(); err != nil {
		return PurgeConfirmation{}, err
	}
	token := uuid.NewString()
	expires := l.pending.Set(token, p)

	slog.InfoContext(ctx, "Payment purge armed", "period", p.String(), "expires_at", expires)
	return PurgeConfirmation{Token: token, Period: p, ExpiresAt: expires}, nil
}

// ConfirmDeleteAll consumes the token and deletes the payments of p.
func (l *PaymentLedger) ConfirmDeleteAll(ctx context.Context, p core.Period, token string) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	armed, ok := l.pending.Take(token)
	if !ok {
		return 0, fmt.Errorf("%w: unknown or expired confirmation token", core.ErrInvalidArgument)
	}
	if armed != p {
		return 0, fmt.Errorf("%w: token was issued for %s, not %s", core.ErrInvalidArgument, armed, p)
	}

	n, err := l.payments.DeletePayments(ctx, storage.PaymentFilter{Period: p})
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	slog.WarnContext(ctx, "All payments of the month deleted", "period", p.String(), "count", n)

	requestExport(ctx, l.events, p, "payments_purged")
	return n, nil
}
