package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// importDateLayout is the CSV date column format: day/month/two-digit-year.
const importDateLayout = "02/01/06"

// ImportResult tallies one CSV import run. A run succeeds even when every
// row failed; only an unreadable file is a hard error.
type ImportResult struct {
	Imported   int
	Duplicates int
	Errors     int
	RowErrors  []string
}

// Importer reconciles external CSV records against the ledger. Rows that
// exactly match an existing expense on (date, lowercased place, amount) are
// skipped as duplicates; unknown category names are created on the fly with
// no budget set.
type Importer struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewImporter(storage *storage.SQLiteRepository, publisher EventPublisher) *Importer {
	return &Importer{storage: storage, publisher: publisher}
}

// ImportCSV ingests records with columns date (DD/MM/YY), store, amount and
// category, attributing every inserted expense to the importing user. Each
// row is parsed independently: one bad row never aborts the run.
func (im *Importer) ImportCSV(ctx context.Context, accountID, userID int64, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapImportColumns(header)
	if err != nil {
		return nil, err
	}

	existing, err := im.storage.DedupeKeys(ctx, accountID)
	if err != nil {
		return nil, err
	}

	categories, err := im.storage.ListCategories(ctx, accountID)
	if err != nil {
		return nil, err
	}
	categoryIDs := make(map[string]int64, len(categories))
	for _, c := range categories {
		categoryIDs[strings.ToLower(c.Name)] = c.ID
	}

	result := &ImportResult{}
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.fail(rowNum, err)
			continue
		}

		date, err := time.Parse(importDateLayout, strings.TrimSpace(record[cols.date]))
		if err != nil {
			result.fail(rowNum, fmt.Errorf("bad date %q", record[cols.date]))
			continue
		}
		place := strings.TrimSpace(record[cols.store])
		cents, err := core.ParseDecimalToCents(record[cols.amount])
		if err != nil {
			result.fail(rowNum, fmt.Errorf("bad amount %q", record[cols.amount]))
			continue
		}
		categoryName := strings.TrimSpace(record[cols.category])
		if place == "" || categoryName == "" {
			result.fail(rowNum, fmt.Errorf("empty store or category"))
			continue
		}

		expenseDate := core.DateOf(date)
		key := storage.DedupeKey{
			Date:        expenseDate.String(),
			PlaceLower:  strings.ToLower(place),
			AmountCents: cents,
		}
		if _, dup := existing[key]; dup {
			result.Duplicates++
			continue
		}

		categoryID, ok := categoryIDs[strings.ToLower(categoryName)]
		if !ok {
			// Budget stays zero: no budget defined for imported categories.
			categoryID, err = im.storage.CreateCategory(ctx, accountID, categoryName, 0)
			if err != nil {
				result.fail(rowNum, err)
				continue
			}
			categoryIDs[strings.ToLower(categoryName)] = categoryID
		}

		expense := core.Expense{
			AccountID:  accountID,
			CategoryID: categoryID,
			Amount:     core.Money{Cents: cents},
			Place:      place,
			Date:       expenseDate,
			UserID:     userID,
		}
		if err := expense.Validate(); err != nil {
			result.fail(rowNum, err)
			continue
		}
		id, err := im.storage.CreateExpense(ctx, expense)
		if err != nil {
			result.fail(rowNum, err)
			continue
		}
		result.Imported++
		if im.publisher != nil {
			if err := im.publisher.PublishExpenseEvent(ctx, EventExpenseImported, id, accountID); err != nil {
				slog.ErrorContext(ctx, "Failed to publish import event", "expense_id", id, "error", err)
			}
		}
	}

	slog.InfoContext(ctx, "CSV import finished",
		"account_id", accountID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"errors", result.Errors)

	return result, nil
}

func (r *ImportResult) fail(row int, err error) {
	r.Errors++
	r.RowErrors = append(r.RowErrors, fmt.Sprintf("row %d: %v", row, err))
}

type importColumns struct {
	date, store, amount, category int
}

func mapImportColumns(header []string) (importColumns, error) {
	cols := importColumns{date: -1, store: -1, amount: -1, category: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date":
			cols.date = i
		case "store":
			cols.store = i
		case "amount":
			cols.amount = i
		case "category":
			cols.category = i
		}
	}
	if cols.date < 0 || cols.store < 0 || cols.amount < 0 || cols.category < 0 {
		return cols, fmt.Errorf("csv header must contain date, store, amount and category columns")
	}
	return cols, nil
}
