package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/metrics"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
)

// StatementBuilder composes the monthly table: one row per active group,
// then one row per active expense outside any group, plus the balance.
type StatementBuilder struct {
	expenses  storage.ExpenseStore
	overrides storage.OverrideStore
	groups    storage.GroupStore
	ledger    *PaymentLedger
}

func NewStatementBuilder(expenses storage.ExpenseStore, overrides storage.OverrideStore, groups storage.GroupStore, ledger *PaymentLedger) *StatementBuilder {
	return &StatementBuilder{expenses: expenses, overrides: overrides, groups: groups, ledger: ledger}
}

func (b *StatementBuilder) Build(ctx context.Context, p core.Period) (core.Statement, error) {
	if err := p.Validate(); err != nil {
		return core.Statement{}, err
	}
	start := time.Now()
	defer func() { metrics.StatementBuildDuration.Observe(time.Since(start).Seconds()) }()

	expenses, err := b.expenses.ListExpenses(ctx, true)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list expenses: %w", err)
	}
	overrides, err := b.overrides.ListOverrides(ctx, p)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list overrides: %w", err)
	}
	groups, err := b.groups.ListGroups(ctx)
	if err != nil {
		return core.Statement{}, fmt.Errorf("list groups: %w", err)
	}

	byID := make(map[int64]core.RecurringExpense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	stmt := core.Statement{Period: p}
	grouped := make(map[int64]struct{})

	for _, g := range groups {
		row, err := b.groupRow(ctx, g, byID, overrides, p)
		if err != nil {
			return core.Statement{}, fmt.Errorf("group %d: %w", g.ID, err)
		}
		for _, id := range row.MemberIDs {
			grouped[id] = struct{}{}
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	for _, e := range expenses {
		if _, ok := grouped[e.ID]; ok {
			continue
		}
		row, err := b.individualRow(ctx, e, overrides, p)
		if err != nil {
			return core.Statement{}, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		stmt.Rows = append(stmt.Rows, row)
	}

	if stmt.Balance, err = b.balance(ctx, stmt.Rows, p); err != nil {
		return core.Statement{}, err
	}

	slog.DebugContext(ctx, "Statement built", "period", p.String(), "rows", len(stmt.Rows))
	return stmt, nil
}

func (b *StatementBuilder) groupRow(ctx context.Context, g core.ExpenseGroup, byID map[int64]core.RecurringExpense,
	overrides map[int64]decimal.Decimal, p core.Period) (core.GroupRow, error) {
	row := core.GroupRow{
		GroupID:     g.ID,
		Name:        g.Name,
		FixedPayer:  g.FixedPayer,
		FixedAmount: g.FixedAmount,
		Total:       decimal.Zero,
	}

	for _, id := range g.MemberIDs {
		e, ok := byID[id]
		if !ok {
			continue
		}
		base, _ := effectiveBase(e, overrides)
		total, err := MonthlyTotal(base, e.Frequency, p)
		if err != nil {
			return row, err
		}
		row.Total = row.Total.Add(total)
		row.MemberIDs = append(row.MemberIDs, e.ID)
		row.MemberLabels = append(row.MemberLabels, e.Label)
	}
	row.Label = fmt.Sprintf("%s (%s)", g.Name, strings.Join(row.MemberLabels, " + "))

	shares, err := Split(g.Split(), row.Total)
	if err != nil {
		return row, err
	}
	row.Shares = shares

	if len(row.MemberIDs) == 0 {
		return row, nil
	}
	if row.Paid.A, err = b.paidAll(ctx, row.MemberIDs, p, core.PayerA); err != nil {
		return row, err
	}
	if row.Paid.B, err = b.paidAll(ctx, row.MemberIDs, p, core.PayerB); err != nil {
		return row, err
	}
	return row, nil
}

// paidAll reports whether payer has a payment for every member expense.
func (b *StatementBuilder) paidAll(ctx context.Context, ids []int64, p core.Period, payer core.Payer) (bool, error) {
	for _, id := range ids {
		paid, err := b.ledger.HasPaid(ctx, id, p, payer, nil)
		if err != nil || !paid {
			return false, err
		}
	}
	return true, nil
}

func (b *StatementBuilder) individualRow(ctx context.Context, e core.RecurringExpense,
	overrides map[int64]decimal.Decimal, p core.Period) (core.IndividualRow, error) {
	base, edited := effectiveBase(e, overrides)
	row := core.IndividualRow{
		ExpenseID:    e.ID,
		Label:        e.Label,
		Frequency:    e.Frequency,
		AmountKind:   e.AmountKind,
		Distribution: e.Distribution,
		Edited:       edited,
	}

	total, err := MonthlyTotal(base, e.Frequency, p)
	if err != nil {
		return row, err
	}
	row.Total = total

	dist := e.Distribution
	if e.IsGrouped() {
		slog.WarnContext(ctx, "Grouped expense outside any active group, splitting equally", "expense_id", e.ID)
		dist = core.EqualSplit{}
		row.Distribution = dist
	}
	if row.Shares, err = Split(dist, total); err != nil {
		return row, err
	}

	if e.Frequency == core.Weekly {
		weeks := &core.WeekProgress{Weeks: core.CountWeeksStartingInMonth(p)}
		if weeks.PaidA, err = b.ledger.PaidWeeks(ctx, e.ID, p, core.PayerA); err != nil {
			return row, err
		}
		if weeks.PaidB, err = b.ledger.PaidWeeks(ctx, e.ID, p, core.PayerB); err != nil {
			return row, err
		}
		row.Weeks = weeks
		row.Paid = core.PaidStatus{
			A: FullyPaid(weeks.PaidA, weeks.Weeks),
			B: FullyPaid(weeks.PaidB, weeks.Weeks),
		}
		return row, nil
	}

	if row.Paid.A, err = b.ledger.HasPaid(ctx, e.ID, p, core.PayerA, nil); err != nil {
		return row, err
	}
	if row.Paid.B, err = b.ledger.HasPaid(ctx, e.ID, p, core.PayerB, nil); err != nil {
		return row, err
	}
	return row, nil
}

// balance sums the shares of every row and compares them with everything
// each person paid in the period, regardless of expense.
func (b *StatementBuilder) balance(ctx context.Context, rows []core.StatementRow, p core.Period) (core.Balance, error) {
	var bal core.Balance
	for _, r := range rows {
		s := r.RowShares()
		bal.Owed.A = bal.Owed.A.Add(s.A)
		bal.Owed.B = bal.Owed.B.Add(s.B)
	}

	var err error
	if bal.Paid.A, err = b.ledger.TotalPaid(ctx, p, core.PayerA); err != nil {
		return bal, fmt.Errorf("total paid by A: %w", err)
	}
	if bal.Paid.B, err = b.ledger.TotalPaid(ctx, p, core.PayerB); err != nil {
		return bal, fmt.Errorf("total paid by B: %w", err)
	}
	bal.Pending = core.Shares{A: bal.Owed.A.Sub(bal.Paid.A), B: bal.Owed.B.Sub(bal.Paid.B)}
	return bal, nil
}
