package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finanzas/internal/core"
)

func (r *SQLiteRepository) CreateCategory(ctx context.Context, accountID int64, name string, budgetCents int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (account_id, name, monthly_budget_cents) VALUES (?, ?, ?)",
		accountID, name, budgetCents,
	)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, account_id, name, monthly_budget_cents, created_at FROM categories WHERE id = ?",
		id,
	)
	var c core.Category
	if err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.MonthlyBudget.Cents, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, id int64, name string, budgetCents int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, monthly_budget_cents = ? WHERE id = ?",
		name, budgetCents, id,
	)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRowAffected(res, "update category")
}

// DeleteCategory refuses to delete a category that still has expenses;
// it never cascades into the ledger.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.CountCategoryExpenses(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.ErrCategoryHasExpenses
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRowAffected(res, "delete category")
}

func (r *SQLiteRepository) CountCategoryExpenses(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE category_id = ?",
		categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category expenses: %w", err)
	}
	return n, nil
}

// FindCategoryByName matches case-insensitively within the account.
func (r *SQLiteRepository) FindCategoryByName(ctx context.Context, accountID int64, name string) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, account_id, name, monthly_budget_cents, created_at FROM categories WHERE account_id = ? AND lower(name) = lower(?)",
		accountID, name,
	)
	var c core.Category
	if err := row.Scan(&c.ID, &c.AccountID, &c.Name, &c.MonthlyBudget.Cents, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("find category by name: %w", err)
	}
	return &c, nil
}

// ListCategories returns the account's categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, accountID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, account_id, name, monthly_budget_cents, created_at FROM categories WHERE account_id = ? ORDER BY name",
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Name, &c.MonthlyBudget.Cents, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCategoriesWithSpend returns every category of the account with its
// spend for the given month (key YYYY-MM). Categories with no expenses that
// month report zero. Ordered by name.
func (r *SQLiteRepository) ListCategoriesWithSpend(ctx context.Context, accountID int64, monthKey string) ([]core.CategorySpend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.account_id, c.name, c.monthly_budget_cents, c.created_at,
		       COALESCE(SUM(g.amount_cents), 0) AS spent_cents
		FROM categories c
		LEFT JOIN expenses g ON c.id = g.category_id
		    AND strftime('%Y-%m', g.date) = ?
		WHERE c.account_id = ?
		GROUP BY c.id, c.account_id, c.name, c.monthly_budget_cents, c.created_at
		ORDER BY c.name`,
		monthKey, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories with spend: %w", err)
	}
	defer rows.Close()

	var out []core.CategorySpend
	for rows.Next() {
		var cs core.CategorySpend
		if err := rows.Scan(&cs.ID, &cs.AccountID, &cs.Name, &cs.MonthlyBudget.Cents, &cs.CreatedAt, &cs.SpentThisMonth.Cents); err != nil {
			return nil, fmt.Errorf("scan category spend: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
