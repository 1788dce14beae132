// Package worker consumes expense change events and writes an audit trail
// to the structured log.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"finanzas/internal/amqp"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// AuditWorker enriches expense events with the current ledger row and logs
// them. Deleted expenses are logged from the event alone.
type AuditWorker struct {
	storage *storage.SQLiteRepository
}

func NewAuditWorker(storage *storage.SQLiteRepository) *AuditWorker {
	return &AuditWorker{storage: storage}
}

// HandleEvent processes one expense event. It never asks for a redelivery:
// an expense missing from the ledger is expected for delete events and
// races with later deletes.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEventMessage) error {
	expense, err := w.storage.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.InfoContext(ctx, "Expense event audited",
				"event", msg.Event,
				"expense_id", msg.ExpenseID,
				"account_id", msg.AccountID,
				"occurred_at", msg.Timestamp,
				"row", "gone")
			return nil
		}
		return err
	}

	slog.InfoContext(ctx, "Expense event audited",
		"event", msg.Event,
		"expense_id", expense.ID,
		"account_id", expense.AccountID,
		"category_id", expense.CategoryID,
		"amount_cents", expense.Amount.Cents,
		"place", expense.Place,
		"date", expense.Date.String(),
		"user_id", expense.UserID,
		"occurred_at", msg.Timestamp)
	return nil
}
