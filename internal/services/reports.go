package services

import (
	"context"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

const recentExpensesLimit = 10

// ReportService derives all reporting from the ledger and category tables.
// Monetary aggregation happens in integer cents; rounding is left to the
// presentation layer.
type ReportService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage, now: time.Now}
}

// MonthlySummary returns one row per category of the account, including
// categories with zero spend in the month, ordered by total spent
// descending.
func (s *ReportService) MonthlySummary(ctx context.Context, accountID int64, month, year int) ([]core.CategorySummary, error) {
	return s.storage.MonthlySummary(ctx, accountID, month, year)
}

// Dashboard aggregates the account's headline numbers. "Last month" is the
// calendar month of today minus 30 days, a fixed lookback rather than the
// true previous month. The recent list ignores any month filter: always the
// ten newest by (date desc, id desc).
func (s *ReportService) Dashboard(ctx context.Context, accountID int64) (*core.DashboardSummary, error) {
	now := s.now()

	thisMonth, err := s.storage.MonthTotal(ctx, accountID, now.Format("2006-01"))
	if err != nil {
		return nil, err
	}
	lastMonth, err := s.storage.MonthTotal(ctx, accountID, now.AddDate(0, 0, -30).Format("2006-01"))
	if err != nil {
		return nil, err
	}
	budget, err := s.storage.TotalBudget(ctx, accountID)
	if err != nil {
		return nil, err
	}
	recent, err := s.storage.ListExpenses(ctx, accountID, storage.ExpenseFilter{Limit: recentExpensesLimit})
	if err != nil {
		return nil, err
	}

	return &core.DashboardSummary{
		TotalThisMonth: thisMonth,
		TotalLastMonth: lastMonth,
		TotalBudget:    budget,
		RecentExpenses: recent,
	}, nil
}

// Trend returns per-category monthly totals for a trailing window of
// monthsBack*30 days, calendar-naive. Zero data yields an empty series.
func (s *ReportService) Trend(ctx context.Context, accountID int64, monthsBack int) ([]core.TrendPoint, error) {
	if monthsBack <= 0 {
		monthsBack = 6
	}
	cutoff := core.DateOf(s.now().AddDate(0, 0, -monthsBack*30))
	return s.storage.Trend(ctx, accountID, cutoff)
}
