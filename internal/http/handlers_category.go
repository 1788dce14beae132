package http

import (
	"net/http"

	"finanzas/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
	// MonthlyBudget is a decimal string; empty or "0" means no budget.
	MonthlyBudget string `json:"monthly_budget"`
}

type categoryResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	MonthlyBudget  string `json:"monthly_budget"`
	SpentThisMonth string `json:"spent_this_month,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	categories, err := s.categories.ListWithCurrentMonthSpend(r.Context(), accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryResponse{
			ID:             c.ID,
			Name:           c.Name,
			MonthlyBudget:  c.MonthlyBudget.Format(),
			SpentThisMonth: c.SpentThisMonth.Format(),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	budgetCents, err := core.ParseBudgetToCents(req.MonthlyBudget)
	if err != nil {
		respondError(w, r, err)
		return
	}

	id, err := s.categories.Create(r.Context(), accountID, req.Name, budgetCents)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	categoryID, err := s.accountCategoryID(r, accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	budgetCents, err := core.ParseBudgetToCents(req.MonthlyBudget)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.categories.Update(r.Context(), categoryID, req.Name, budgetCents); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, accountID, _ int64) {
	categoryID, err := s.accountCategoryID(r, accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.categories.Delete(r.Context(), categoryID); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateReportCaches(accountID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// accountCategoryID resolves the category path parameter and verifies the
// category belongs to the requested account. Categories of other accounts
// are indistinguishable from missing ones.
func (s *Server) accountCategoryID(r *http.Request, accountID int64) (int64, error) {
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		return 0, core.ErrNotFound
	}
	cat, err := s.categories.Get(r.Context(), categoryID)
	if err != nil {
		return 0, err
	}
	if cat.AccountID != accountID {
		return 0, core.ErrNotFound
	}
	return categoryID, nil
}
