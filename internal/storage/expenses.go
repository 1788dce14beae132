package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finanzas/internal/core"
)

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (account_id, category_id, amount_cents, place, date, user_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.AccountID, e.CategoryID, e.Amount.Cents, e.Place, e.Date.String(), e.UserID, nullableText(e.Notes),
	)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, account_id, category_id, amount_cents, place, date, user_id, notes, created_at
		FROM expenses WHERE id = ?`,
		id,
	)
	var (
		e       core.Expense
		dateStr string
		notes   sql.NullString
	)
	if err := row.Scan(&e.ID, &e.AccountID, &e.CategoryID, &e.Amount.Cents, &e.Place, &dateStr, &e.UserID, &notes, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("expense %d has malformed date %q", id, dateStr)
	}
	e.Date = d
	e.Notes = notes.String
	return &e, nil
}

// UpdateExpense mutates amount, place, date and notes. Category and account
// bindings are fixed at creation; there is no rebinding operation.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, amountCents int64, place string, date core.Date, notes string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE expenses SET amount_cents = ?, place = ?, date = ?, notes = ? WHERE id = ?",
		amountCents, place, date.String(), nullableText(notes), id,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRowAffected(res, "update expense")
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRowAffected(res, "delete expense")
}

// ExpenseFilter narrows ListExpenses. Month is only applied together with
// Year. CategoryName matches the joined category's name exactly.
type ExpenseFilter struct {
	Month        int
	Year         int
	CategoryName string
	Limit        int
}

// ListExpenses returns expense rows joined with category and user names,
// ordered by date descending then id descending, so same-day entries show
// most recently inserted first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, accountID int64, f ExpenseFilter) ([]core.ExpenseRow, error) {
	var (
		sb     strings.Builder
		params []any
	)
	sb.WriteString(`
		SELECT g.id, g.date, g.place, g.amount_cents, c.name, g.notes, u.name
		FROM expenses g
		JOIN categories c ON g.category_id = c.id
		JOIN users u ON g.user_id = u.id
		WHERE g.account_id = ?`)
	params = append(params, accountID)

	if f.Month != 0 && f.Year != 0 {
		sb.WriteString(" AND strftime('%m-%Y', g.date) = ?")
		params = append(params, fmt.Sprintf("%02d-%04d", f.Month, f.Year))
	} else if f.Year != 0 {
		sb.WriteString(" AND strftime('%Y', g.date) = ?")
		params = append(params, fmt.Sprintf("%04d", f.Year))
	}
	if f.CategoryName != "" {
		sb.WriteString(" AND c.name = ?")
		params = append(params, f.CategoryName)
	}
	sb.WriteString(" ORDER BY g.date DESC, g.id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), params...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()
	return scanExpenseRows(rows)
}

// DedupeKey identifies an expense for import reconciliation: same calendar
// date, same place ignoring case, same exact amount.
type DedupeKey struct {
	Date        string
	PlaceLower  string
	AmountCents int64
}

// DedupeKeys loads the dedupe key of every expense in the account.
func (r *SQLiteRepository) DedupeKeys(ctx context.Context, accountID int64) (map[DedupeKey]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT date, lower(place), amount_cents FROM expenses WHERE account_id = ?",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("load dedupe keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[DedupeKey]struct{})
	for rows.Next() {
		var k DedupeKey
		if err := rows.Scan(&k.Date, &k.PlaceLower, &k.AmountCents); err != nil {
			return nil, fmt.Errorf("scan dedupe key: %w", err)
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func scanExpenseRows(rows *sql.Rows) ([]core.ExpenseRow, error) {
	var out []core.ExpenseRow
	for rows.Next() {
		var (
			row     core.ExpenseRow
			dateStr string
			notes   sql.NullString
		)
		if err := rows.Scan(&row.ID, &dateStr, &row.Place, &row.Amount.Cents, &row.Category, &notes, &row.User); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		d, err := core.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("expense %d has malformed date %q", row.ID, dateStr)
		}
		row.Date = d
		row.Notes = notes.String
		out = append(out, row)
	}
	return out, rows.Err()
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
