package core

// CategorySummary is one row of the monthly per-category report.
// Categories with no expenses in the month appear with zero totals.
type CategorySummary struct {
	Category      string
	MonthlyBudget Money
	TotalSpent    Money
	ExpenseCount  int
}

// Percent returns the budget-consumption percentage, false when the
// category has no budget defined.
func (s CategorySummary) Percent() (float64, bool) {
	return BudgetPercent(s.TotalSpent, s.MonthlyBudget)
}

// CategorySpend is a category with its accumulated spend for the current
// calendar month, used by the category management listing.
type CategorySpend struct {
	Category
	SpentThisMonth Money
}

// ExpenseRow is an expense joined with its category and recording-user
// names, the shape the listing and export queries return.
type ExpenseRow struct {
	ID       int64
	Date     Date
	Place    string
	Amount   Money
	Category string
	Notes    string
	User     string
}

// DashboardSummary aggregates the headline numbers of an account.
// TotalLastMonth covers the calendar month of today minus 30 days, not the
// true previous month.
type DashboardSummary struct {
	TotalThisMonth Money
	TotalLastMonth Money
	TotalBudget    Money
	RecentExpenses []ExpenseRow
}

// TrendPoint is one (month, category) total of the trailing trend series.
// Month is formatted YYYY-MM so the series sorts chronologically.
type TrendPoint struct {
	Month    string
	Category string
	Total    Money
}
