package services

import (
	"context"
	"log/slog"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// CategoryService manages account-scoped categories and their monthly
// budget ceilings.
type CategoryService struct {
	storage *storage.SQLiteRepository
	now     func() time.Time
}

func NewCategoryService(storage *storage.SQLiteRepository) *CategoryService {
	return &CategoryService{storage: storage, now: time.Now}
}

func (s *CategoryService) Create(ctx context.Context, accountID int64, name string, budgetCents int64) (int64, error) {
	c := core.Category{AccountID: accountID, Name: name, MonthlyBudget: core.Money{Cents: budgetCents}}
	if err := c.Validate(); err != nil {
		return 0, err
	}
	id, err := s.storage.CreateCategory(ctx, accountID, name, budgetCents)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Category created",
		"category_id", id,
		"account_id", accountID,
		"budget_cents", budgetCents)
	return id, nil
}

// Get returns one category by id.
func (s *CategoryService) Get(ctx context.Context, categoryID int64) (*core.Category, error) {
	return s.storage.GetCategory(ctx, categoryID)
}

func (s *CategoryService) Update(ctx context.Context, categoryID int64, name string, budgetCents int64) error {
	c := core.Category{Name: name, MonthlyBudget: core.Money{Cents: budgetCents}}
	if err := c.Validate(); err != nil {
		return err
	}
	return s.storage.UpdateCategory(ctx, categoryID, name, budgetCents)
}

// Delete refuses with core.ErrCategoryHasExpenses when any expense still
// references the category, so the caller can render the specific reason.
func (s *CategoryService) Delete(ctx context.Context, categoryID int64) error {
	if err := s.storage.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Category deleted", "category_id", categoryID)
	return nil
}

// ListWithCurrentMonthSpend returns every category of the account with its
// accumulated spend for the current calendar month, zero when none.
func (s *CategoryService) ListWithCurrentMonthSpend(ctx context.Context, accountID int64) ([]core.CategorySpend, error) {
	monthKey := s.now().Format("2006-01")
	return s.storage.ListCategoriesWithSpend(ctx, accountID, monthKey)
}
