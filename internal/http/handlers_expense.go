package http

import (
	"net/http"
	"strconv"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type expenseRequest struct {
	CategoryID int64  `json:"category_id,omitempty"`
	Amount     string `json:"amount"`
	Place      string `json:"place"`
	Date       string `json:"date"` // YYYY-MM-DD
	Notes      string `json:"notes"`
}

type expenseResponse struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Place    string `json:"place"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Notes    string `json:"notes,omitempty"`
	User     string `json:"user"`
}

func toExpenseResponse(row core.ExpenseRow) expenseResponse {
	return expenseResponse{
		ID:       row.ID,
		Date:     row.Date.String(),
		Place:    row.Place,
		Amount:   row.Amount.Format(),
		Category: row.Category,
		Notes:    row.Notes,
		User:     row.User,
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, accountID, userID int64) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.expenses.Add(r.Context(), core.Expense{
		AccountID:  accountID,
		CategoryID: req.CategoryID,
		Amount:     core.Money{Cents: cents},
		Place:      req.Place,
		Date:       date,
		UserID:     userID,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	expenseID, err := s.accountExpenseID(r, accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, r, err)
		return
	}
	date, err := core.ParseDate(req.Date)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.expenses.Update(r.Context(), expenseID, core.Money{Cents: cents}, req.Place, date, strings.TrimSpace(req.Notes)); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	expenseID, err := s.accountExpenseID(r, accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.expenses.Delete(r.Context(), expenseID); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	rows, err := s.expenses.List(r.Context(), accountID, expenseFilterFromQuery(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toExpenseResponse(row))
	}
	respondJSON(w, http.StatusOK, out)
}

// expenseFilterFromQuery builds the listing filter from month, year,
// category and limit query parameters. Absent parameters leave the filter
// open.
func expenseFilterFromQuery(r *http.Request) storage.ExpenseFilter {
	q := r.URL.Query()
	var f storage.ExpenseFilter

	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			f.Month = m
		}
	}
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			f.Year = y
		}
	}
	f.CategoryName = strings.TrimSpace(q.Get("category"))
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}

	return f
}

// accountExpenseID resolves the expense path parameter and verifies the
// expense belongs to the requested account.
func (s *Server) accountExpenseID(r *http.Request, accountID int64) (int64, error) {
	expenseID, err := pathID(r, "expenseID")
	if err != nil {
		return 0, core.ErrNotFound
	}
	e, err := s.expenses.Get(r.Context(), expenseID)
	if err != nil {
		return 0, err
	}
	if e.AccountID != accountID {
		return 0, core.ErrNotFound
	}
	return expenseID, nil
}
