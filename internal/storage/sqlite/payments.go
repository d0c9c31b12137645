package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func paymentWhere(f storage.PaymentFilter) (string, []any) {
	clauses := []string{"year = ?", "month = ?"}
	args := []any{f.Period.Year, f.Period.Month}
	if f.ExpenseID != 0 {
		clauses = append(clauses, "expense_id = ?")
		args = append(args, f.ExpenseID)
	}
	if f.Payer != "" {
		clauses = append(clauses, "payer = ?")
		args = append(args, string(f.Payer))
	}
	if f.Week != nil {
		clauses = append(clauses, "week = ?")
		args = append(args, *f.Week)
	}
	return strings.Join(clauses, " AND "), args
}

func (r *Repository) CreatePayment(ctx context.Context, p core.Payment) (int64, error) {
	if p.PaidOn.IsZero() {
		p.PaidOn = time.Now()
	}
	var week sql.NullInt64
	if p.Week != nil {
		week = sql.NullInt64{Int64: int64(*p.Week), Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (expense_id, year, month, payer, amount, paid_on, week)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ExpenseID, p.Period.Year, p.Period.Month, string(p.Payer), p.Amount,
		p.PaidOn.Format(dateLayout), week)
	if err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"id", id,
		"expense_id", p.ExpenseID,
		"payer", p.Payer,
		"period", p.Period.String(),
		"amount", p.Amount.String())

	return id, nil
}

func (r *Repository) ListPayments(ctx context.Context, f storage.PaymentFilter) ([]core.Payment, error) {
	where, args := paymentWhere(f)
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.expense_id, p.year, p.month, p.payer, p.amount, p.paid_on, p.week, e.label
		  FROM payments p
		  JOIN recurring_expenses e ON e.id = p.expense_id
		 WHERE `+where+`
		 ORDER BY p.paid_on DESC, p.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p      core.Payment
			payer  string
			paidOn string
			week   sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.ExpenseID, &p.Period.Year, &p.Period.Month, &payer,
			&p.Amount, &paidOn, &week, &p.ExpenseLabel); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Payer = core.Payer(payer)
		p.PaidOn, _ = time.Parse(dateLayout, paidOn)
		if week.Valid {
			w := int(week.Int64)
			p.Week = &w
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) CountPayments(ctx context.Context, f storage.PaymentFilter) (int, error) {
	where, args := paymentWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payments WHERE `+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

func (r *Repository) DeletePayment(ctx context.Context, id int64) (core.Payment, error) {
	p := core.Payment{ID: id}
	var payer string
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM payments WHERE id = ? RETURNING expense_id, year, month, payer, amount`, id).
		Scan(&p.ExpenseID, &p.Period.Year, &p.Period.Month, &payer, &p.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("payment %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("delete payment: %w", err)
	}
	p.Payer = core.Payer(payer)
	slog.InfoContext(ctx, "Payment deleted", "id", id, "period", p.Period.String())
	return p, nil
}

func (r *Repository) DeletePayments(ctx context.Context, f storage.PaymentFilter) (int, error) {
	where, args := paymentWhere(f)
	res, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete payments: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	slog.InfoContext(ctx, "Payments deleted", "period", f.Period.String(), "count", n)
	return int(n), nil
}

func (r *Repository) PaymentTotals(ctx context.Context) ([]core.MonthlyTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT year, month, payer, amount FROM payments ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("payment totals: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyTotal
	for rows.Next() {
		var (
			p      core.Period
			payer  string
			amount decimal.Decimal
		)
		if err := rows.Scan(&p.Year, &p.Month, &payer, &amount); err != nil {
			return nil, fmt.Errorf("scan payment total: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Period != p {
			out = append(out, core.MonthlyTotal{Period: p})
		}
		last := &out[len(out)-1]
		if core.Payer(payer) == core.PayerB {
			last.Paid.B = last.Paid.B.Add(amount)
		} else {
			last.Paid.A = last.Paid.A.Add(amount)
		}
	}
	return out, rows.Err()
}
