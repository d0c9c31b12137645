package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"casaconti/internal/core"
)

// inTx runs fn in a transaction, rolling back on any error.
func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// checkJoinable verifies the expense exists, is active and sits in no
// active group.
func checkJoinable(ctx context.Context, tx *sql.Tx, expenseID int64) error {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT active FROM recurring_expenses WHERE id = ?`, expenseID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return fmt.Errorf("expense %d: %w", expenseID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	var groupID int64
	err = tx.QueryRowContext(ctx, `
		SELECT m.group_id FROM expense_group_members m
		  JOIN expense_groups g ON g.id = m.group_id
		 WHERE m.expense_id = ? AND g.active = 1 LIMIT 1`, expenseID).Scan(&groupID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("get expense group: %w", err)
	}
	return fmt.Errorf("expense %d already belongs to group %d: %w", expenseID, groupID, core.ErrConflict)
}

func linkMember(ctx context.Context, tx *sql.Tx, groupID, expenseID int64) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO expense_group_members (group_id, expense_id) VALUES (?, ?)`,
		groupID, expenseID); err != nil {
		return fmt.Errorf("link member %d: %w", expenseID, err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE recurring_expenses
		   SET distribution_kind = 'grouped', fixed_amount_a = NULL, fixed_amount_b = NULL, percent_a = NULL
		 WHERE id = ?`, expenseID); err != nil {
		return fmt.Errorf("mark expense %d grouped: %w", expenseID, err)
	}
	return nil
}

const revertToEqual = `
	UPDATE recurring_expenses
	   SET distribution_kind = 'equal', fixed_amount_a = NULL, fixed_amount_b = NULL, percent_a = NULL`

func (r *Repository) CreateGroup(ctx context.Context, g core.ExpenseGroup) (int64, error) {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		for _, expenseID := range g.MemberIDs {
			if err := checkJoinable(ctx, tx, expenseID); err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO expense_groups (name, description, fixed_payer, fixed_amount, active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)`,
			g.Name, g.Description, string(g.FixedPayer), g.FixedAmount, g.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("create group: %w", err)
		}

		for _, expenseID := range g.MemberIDs {
			if err := linkMember(ctx, tx, id, expenseID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense group created",
		"group_id", id,
		"name", g.Name,
		"members", len(g.MemberIDs))

	return id, nil
}

func (r *Repository) groupMembers(ctx context.Context, groupID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.expense_id FROM expense_group_members m
		  JOIN recurring_expenses e ON e.id = m.expense_id
		 WHERE m.group_id = ? AND e.active = 1
		 ORDER BY m.expense_id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group member: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const groupColumns = `id, name, description, fixed_payer, fixed_amount, active, created_at`

func scanGroup(row rowScanner) (core.ExpenseGroup, error) {
	var (
		g         core.ExpenseGroup
		payer     string
		createdAt string
	)
	if err := row.Scan(&g.ID, &g.Name, &g.Description, &payer, &g.FixedAmount, &g.Active, &createdAt); err != nil {
		return g, err
	}
	g.FixedPayer = core.Payer(payer)
	g.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return g, nil
}

func (r *Repository) GetGroup(ctx context.Context, id int64) (core.ExpenseGroup, error) {
	g, err := scanGroup(r.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM expense_groups WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, fmt.Errorf("group %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return g, fmt.Errorf("get group: %w", err)
	}
	if g.MemberIDs, err = r.groupMembers(ctx, id); err != nil {
		return g, err
	}
	return g, nil
}

func (r *Repository) ListGroups(ctx context.Context) ([]core.ExpenseGroup, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM expense_groups WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	var groups []core.ExpenseGroup
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	// Close before issuing member queries on the single connection.
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	for i := range groups {
		if groups[i].MemberIDs, err = r.groupMembers(ctx, groups[i].ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (r *Repository) UpdateGroup(ctx context.Context, g core.ExpenseGroup) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expense_groups
		   SET name = ?, description = ?, fixed_payer = ?, fixed_amount = ?
		 WHERE id = ? AND active = 1`,
		g.Name, g.Description, string(g.FixedPayer), g.FixedAmount, g.ID)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	if err := expectAffected(res, "group", g.ID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense group updated", "group_id", g.ID)
	return nil
}

func requireActiveGroup(ctx context.Context, tx *sql.Tx, groupID int64) error {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT active FROM expense_groups WHERE id = ?`, groupID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return fmt.Errorf("group %d: %w", groupID, core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	return nil
}

func (r *Repository) AddGroupMember(ctx context.Context, groupID, expenseID int64) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireActiveGroup(ctx, tx, groupID); err != nil {
			return err
		}
		if err := checkJoinable(ctx, tx, expenseID); err != nil {
			return err
		}
		return linkMember(ctx, tx, groupID, expenseID)
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense added to group", "group_id", groupID, "expense_id", expenseID)
	return nil
}

func (r *Repository) RemoveGroupMember(ctx context.Context, groupID, expenseID int64) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireActiveGroup(ctx, tx, groupID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM expense_group_members WHERE group_id = ? AND expense_id = ?`, groupID, expenseID)
		if err != nil {
			return fmt.Errorf("unlink member: %w", err)
		}
		if err := expectAffected(res, "group member", expenseID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, revertToEqual+` WHERE id = ?`, expenseID); err != nil {
			return fmt.Errorf("revert expense %d: %w", expenseID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense removed from group", "group_id", groupID, "expense_id", expenseID)
	return nil
}

func (r *Repository) DeactivateGroup(ctx context.Context, id int64) error {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE expense_groups SET active = 0 WHERE id = ? AND active = 1`, id)
		if err != nil {
			return fmt.Errorf("deactivate group: %w", err)
		}
		if err := expectAffected(res, "group", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, revertToEqual+`
			 WHERE distribution_kind = 'grouped'
			   AND id IN (SELECT expense_id FROM expense_group_members WHERE group_id = ?)`, id); err != nil {
			return fmt.Errorf("revert group members: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense group deactivated", "group_id", id)
	return nil
}
