// Package sqlite implements the storage ports on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"casaconti/internal/core"
	"casaconti/internal/storage"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var _ storage.Store = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

// NewRepository opens (creating if needed) the database at dbPath and runs
// pending migrations.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer: one connection serialises every read-modify-write.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Ping checks that the database still answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const expenseColumns = `e.id, e.label, e.base_amount, e.frequency, e.amount_kind,
	e.distribution_kind, e.fixed_amount_a, e.fixed_amount_b, e.percent_a,
	e.active, e.created_at,
	(SELECT m.group_id FROM expense_group_members m
	   JOIN expense_groups g ON g.id = m.group_id
	  WHERE m.expense_id = e.id AND g.active = 1 LIMIT 1)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(ctx context.Context, row rowScanner) (core.RecurringExpense, error) {
	var (
		e              core.RecurringExpense
		freq, kind     string
		distKind       string
		fixedA, fixedB decimal.NullDecimal
		pct            decimal.NullDecimal
		createdAt      string
		groupID        sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.Label, &e.BaseAmount, &freq, &kind, &distKind,
		&fixedA, &fixedB, &pct, &e.Active, &createdAt, &groupID); err != nil {
		return e, err
	}
	e.Frequency = core.Frequency(freq)
	e.AmountKind = core.AmountKind(kind)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	fields := core.DistributionFields{
		Kind:     core.DistributionKind(distKind),
		FixedA:   nullToPtr(fixedA),
		FixedB:   nullToPtr(fixedB),
		PercentA: nullToPtr(pct),
		GroupID:  groupID.Int64,
	}
	if fields.Kind == core.KindGrouped && !groupID.Valid {
		slog.WarnContext(ctx, "Grouped expense has no active group, using equal split", "expense_id", e.ID)
		e.Distribution = core.EqualSplit{}
		return e, nil
	}
	d, defaulted, err := fields.DistributionOrDefault()
	if err != nil {
		return e, fmt.Errorf("decode distribution of expense %d: %w", e.ID, err)
	}
	if defaulted {
		slog.WarnContext(ctx, "Stored split is missing its parameter, using default",
			"expense_id", e.ID,
			"distribution", distKind)
	}
	e.Distribution = d
	return e, nil
}

func nullToPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}

func ptrToNull(p *decimal.Decimal) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *p, Valid: true}
}

func (r *Repository) CreateExpense(ctx context.Context, e core.RecurringExpense) (int64, error) {
	f := core.FieldsOf(e.Distribution)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_expenses
			(label, base_amount, frequency, amount_kind, distribution_kind,
			 fixed_amount_a, fixed_amount_b, percent_a, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Label, e.BaseAmount, string(e.Frequency), string(e.AmountKind), string(f.Kind),
		ptrToNull(f.FixedA), ptrToNull(f.FixedB), ptrToNull(f.PercentA), e.Active,
		e.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"label", e.Label,
		"base_amount", e.BaseAmount.String(),
		"frequency", e.Frequency)

	return id, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.RecurringExpense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM recurring_expenses e WHERE e.id = ?`, id)
	e, err := scanExpense(ctx, row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return e, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, activeOnly bool) ([]core.RecurringExpense, error) {
	query := `SELECT ` + expenseColumns + ` FROM recurring_expenses e`
	if activeOnly {
		query += ` WHERE e.active = 1`
	}
	query += ` ORDER BY e.label, e.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringExpense
	for rows.Next() {
		e, err := scanExpense(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.RecurringExpense) error {
	f := core.FieldsOf(e.Distribution)
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_expenses
		   SET label = ?, base_amount = ?, frequency = ?, amount_kind = ?,
		       distribution_kind = ?, fixed_amount_a = ?, fixed_amount_b = ?, percent_a = ?
		 WHERE id = ?`,
		e.Label, e.BaseAmount, string(e.Frequency), string(e.AmountKind), string(f.Kind),
		ptrToNull(f.FixedA), ptrToNull(f.FixedB), ptrToNull(f.PercentA), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if err := expectAffected(res, "expense", e.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "distribution", f.Kind)
	return nil
}

func (r *Repository) SetExpenseActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_expenses SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("set expense active: %w", err)
	}
	if err := expectAffected(res, "expense", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense active flag changed", "id", id, "active", active)
	return nil
}

func expectAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) GetOverride(ctx context.Context, expenseID int64, p core.Period) (decimal.Decimal, bool, error) {
	var amount decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM monthly_amounts WHERE expense_id = ? AND year = ? AND month = ?`,
		expenseID, p.Year, p.Month).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("get override: %w", err)
	}
	return amount, true, nil
}

func (r *Repository) UpsertOverride(ctx context.Context, o core.MonthlyAmountOverride) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monthly_amounts (expense_id, year, month, amount)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (expense_id, year, month) DO UPDATE SET amount = excluded.amount`,
		o.ExpenseID, o.Period.Year, o.Period.Month, o.Amount)
	if err != nil {
		return fmt.Errorf("upsert override: %w", err)
	}
	slog.InfoContext(ctx, "Monthly amount stored",
		"expense_id", o.ExpenseID,
		"period", o.Period.String(),
		"amount", o.Amount.String())
	return nil
}

func (r *Repository) ListOverrides(ctx context.Context, p core.Period) (map[int64]decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT expense_id, amount FROM monthly_amounts WHERE year = ? AND month = ?`, p.Year, p.Month)
	if err != nil {
		return nil, fmt.Errorf("list overrides: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			id     int64
			amount decimal.Decimal
		)
		if err := rows.Scan(&id, &amount); err != nil {
			return nil, fmt.Errorf("scan override: %w", err)
		}
		out[id] = amount
	}
	return out, rows.Err()
}
