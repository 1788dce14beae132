package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// exportDateLayout is the date format of exported rows: day/month/full year.
const exportDateLayout = "02/01/2006"

var exportHeader = []string{"date", "place", "amount", "category", "notes", "user"}

// Exporter writes an account's expenses as UTF-8 CSV with plain decimal
// amounts and no currency symbol.
type Exporter struct {
	storage *storage.SQLiteRepository
}

func NewExporter(storage *storage.SQLiteRepository) *Exporter {
	return &Exporter{storage: storage}
}

// ExportCSV streams the filtered expense rows of the account to w,
// newest first, same ordering as the listing.
func (ex *Exporter) ExportCSV(ctx context.Context, w io.Writer, accountID int64, f storage.ExpenseFilter) error {
	rows, err := ex.storage.ListExpenses(ctx, accountID, f)
	if err != nil {
		return err
	}
	return WriteExpenseCSV(w, rows)
}

// WriteExpenseCSV renders expense rows in the export format.
func WriteExpenseCSV(w io.Writer, rows []core.ExpenseRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Date.Format(exportDateLayout),
			row.Place,
			row.Amount.Format(),
			row.Category,
			row.Notes,
			row.User,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
