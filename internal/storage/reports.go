package storage

import (
	"context"
	"fmt"

	"finanzas/internal/core"
)

// MonthlySummary aggregates the account's expenses for one month grouped by
// category. Every category appears, including those with no spend. The key
// is MM-YYYY. Rows come back ordered by total spent descending, ties broken
// by category insertion order.
func (r *SQLiteRepository) MonthlySummary(ctx context.Context, accountID int64, month, year int) ([]core.CategorySummary, error) {
	monthKey := fmt.Sprintf("%02d-%04d", month, year)
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.name, c.monthly_budget_cents,
		       COALESCE(SUM(g.amount_cents), 0) AS total_cents,
		       COUNT(g.id) AS expense_count
		FROM categories c
		LEFT JOIN expenses g ON c.id = g.category_id
		    AND strftime('%m-%Y', g.date) = ?
		WHERE c.account_id = ?
		GROUP BY c.id, c.name, c.monthly_budget_cents
		ORDER BY total_cents DESC, c.id`,
		monthKey, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []core.CategorySummary
	for rows.Next() {
		var s core.CategorySummary
		if err := rows.Scan(&s.Category, &s.MonthlyBudget.Cents, &s.TotalSpent.Cents, &s.ExpenseCount); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MonthTotal sums the account's expenses for the calendar month given as a
// YYYY-MM key.
func (r *SQLiteRepository) MonthTotal(ctx context.Context, accountID int64, monthKey string) (core.Money, error) {
	var total core.Money
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE account_id = ? AND strftime('%Y-%m', date) = ?",
		accountID, monthKey,
	).Scan(&total.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("month total: %w", err)
	}
	return total, nil
}

// TotalBudget sums every category budget of the account.
func (r *SQLiteRepository) TotalBudget(ctx context.Context, accountID int64) (core.Money, error) {
	var total core.Money
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(monthly_budget_cents), 0) FROM categories WHERE account_id = ?",
		accountID,
	).Scan(&total.Cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("total budget: %w", err)
	}
	return total, nil
}

// Trend groups expenses by (month, category) from the cutoff date onwards.
// The month key is YYYY-MM so the series sorts chronologically. An account
// with no data in the window yields an empty slice, not an error.
func (r *SQLiteRepository) Trend(ctx context.Context, accountID int64, cutoff core.Date) ([]core.TrendPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', g.date) AS month, c.name, SUM(g.amount_cents)
		FROM expenses g
		JOIN categories c ON g.category_id = c.id
		WHERE g.account_id = ? AND g.date >= ?
		GROUP BY month, c.name
		ORDER BY month, c.name`,
		accountID, cutoff.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	defer rows.Close()

	var out []core.TrendPoint
	for rows.Next() {
		var p core.TrendPoint
		if err := rows.Scan(&p.Month, &p.Category, &p.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
