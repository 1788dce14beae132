package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"finanzas/internal/core"
)

type summaryRowResponse struct {
	Category      string  `json:"category"`
	MonthlyBudget string  `json:"monthly_budget"`
	TotalSpent    string  `json:"total_spent"`
	ExpenseCount  int     `json:"expense_count"`
	BudgetPercent float64 `json:"budget_percent,omitempty"`
	BudgetBucket  string  `json:"budget_bucket,omitempty"`
}

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	year, month := parseYearMonth(r)

	key := fmt.Sprintf("summary:%d:%02d-%04d", accountID, month, year)
	rows, ok := s.summaryCache.Get(key)
	if !ok {
		var err error
		rows, err = s.reports.MonthlySummary(r.Context(), accountID, month, year)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.summaryCache.Set(key, rows)
	}

	out := make([]summaryRowResponse, 0, len(rows))
	for _, row := range rows {
		resp := summaryRowResponse{
			Category:      row.Category,
			MonthlyBudget: row.MonthlyBudget.Format(),
			TotalSpent:    row.TotalSpent.Format(),
			ExpenseCount:  row.ExpenseCount,
		}
		if percent, ok := row.Percent(); ok {
			resp.BudgetPercent = percent
			resp.BudgetBucket = string(core.Bucket(percent))
		}
		out = append(out, resp)
	}
	respondJSON(w, http.StatusOK, out)
}

type dashboardResponse struct {
	TotalThisMonth string            `json:"total_this_month"`
	TotalLastMonth string            `json:"total_last_month"`
	TotalBudget    string            `json:"total_budget"`
	RecentExpenses []expenseResponse `json:"recent_expenses"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	key := fmt.Sprintf("dashboard:%d", accountID)
	dash, ok := s.dashboardCache.Get(key)
	if !ok {
		var err error
		dash, err = s.reports.Dashboard(r.Context(), accountID)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.dashboardCache.Set(key, dash)
	}

	recent := make([]expenseResponse, 0, len(dash.RecentExpenses))
	for _, row := range dash.RecentExpenses {
		recent = append(recent, toExpenseResponse(row))
	}
	respondJSON(w, http.StatusOK, dashboardResponse{
		TotalThisMonth: dash.TotalThisMonth.Format(),
		TotalLastMonth: dash.TotalLastMonth.Format(),
		TotalBudget:    dash.TotalBudget.Format(),
		RecentExpenses: recent,
	})
}

type trendPointResponse struct {
	Month    string `json:"month"`
	Category string `json:"category"`
	Total    string `json:"total"`
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	monthsBack := 0
	if v := strings.TrimSpace(r.URL.Query().Get("months_back")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			monthsBack = n
		}
	}

	points, err := s.reports.Trend(r.Context(), accountID, monthsBack)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]trendPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, trendPointResponse{Month: p.Month, Category: p.Category, Total: p.Total.Format()})
	}
	respondJSON(w, http.StatusOK, out)
}
