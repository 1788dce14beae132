package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// EventPublisher emits expense change events to interested consumers.
// A nil publisher disables events without affecting the ledger.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event string, expenseID, accountID int64) error
}

// Expense event names carried on the wire.
const (
	EventExpenseCreated  = "expense.created"
	EventExpenseUpdated  = "expense.updated"
	EventExpenseDeleted  = "expense.deleted"
	EventExpenseImported = "expense.imported"
)

// ExpenseService is the append/update/delete surface of the ledger.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewExpenseService(storage *storage.SQLiteRepository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{storage: storage, publisher: publisher}
}

// Add validates and persists a new expense. The category must belong to the
// same account as the expense; amounts must be strictly positive; the date
// is truncated to calendar-day granularity.
func (s *ExpenseService) Add(ctx context.Context, e core.Expense) (int64, error) {
	e.Place = strings.TrimSpace(e.Place)
	e.Date = core.DateOf(e.Date.Time)
	if err := e.Validate(); err != nil {
		return 0, err
	}

	cat, err := s.storage.GetCategory(ctx, e.CategoryID)
	if err != nil {
		return 0, err
	}
	if cat.AccountID != e.AccountID {
		return 0, fmt.Errorf("category %d belongs to another account: %w", e.CategoryID, core.ErrNotFound)
	}

	id, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Expense saved",
		"expense_id", id,
		"account_id", e.AccountID,
		"category_id", e.CategoryID,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())

	s.publish(ctx, EventExpenseCreated, id, e.AccountID)
	return id, nil
}

// Update mutates amount, place, date and notes of an existing expense.
func (s *ExpenseService) Update(ctx context.Context, expenseID int64, amount core.Money, place string, date core.Date, notes string) error {
	place = strings.TrimSpace(place)
	if err := amount.Validate(); err != nil {
		return err
	}
	if place == "" {
		return core.ErrEmptyPlace
	}
	if err := date.Validate(); err != nil {
		return err
	}

	existing, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := s.storage.UpdateExpense(ctx, expenseID, amount.Cents, place, core.DateOf(date.Time), notes); err != nil {
		return err
	}
	s.publish(ctx, EventExpenseUpdated, expenseID, existing.AccountID)
	return nil
}

func (s *ExpenseService) Delete(ctx context.Context, expenseID int64) error {
	existing, err := s.storage.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteExpense(ctx, expenseID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted", "expense_id", expenseID, "account_id", existing.AccountID)
	s.publish(ctx, EventExpenseDeleted, expenseID, existing.AccountID)
	return nil
}

// Get returns one expense by id.
func (s *ExpenseService) Get(ctx context.Context, expenseID int64) (*core.Expense, error) {
	return s.storage.GetExpense(ctx, expenseID)
}

// List returns the account's expenses joined with category and user names,
// newest first, optionally narrowed by month/year and category name.
func (s *ExpenseService) List(ctx context.Context, accountID int64, f storage.ExpenseFilter) ([]core.ExpenseRow, error) {
	return s.storage.ListExpenses(ctx, accountID, f)
}

// MonthDetail returns the rows of one month, optionally one category, in
// the same shape as List. The reporting layer builds drill-downs on it.
func (s *ExpenseService) MonthDetail(ctx context.Context, accountID int64, month, year int, categoryName string) ([]core.ExpenseRow, error) {
	return s.storage.ListExpenses(ctx, accountID, storage.ExpenseFilter{
		Month:        month,
		Year:         year,
		CategoryName: categoryName,
	})
}

func (s *ExpenseService) publish(ctx context.Context, event string, expenseID, accountID int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event, expenseID, accountID); err != nil {
		// The ledger write already succeeded; losing an event is not worth
		// failing the request over.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"event", event,
			"expense_id", expenseID,
			"error", err)
	}
}
