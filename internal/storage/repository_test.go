package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"finanzas/internal/core"
)

type RepositorySuite struct {
	suite.Suite
	repo *SQLiteRepository
	ctx  context.Context

	userID    int64
	accountID int64
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "test.db")
	repo, err := NewSQLiteRepository(dbPath)
	s.Require().NoError(err)
	s.repo = repo
	s.ctx = context.Background()

	s.userID, err = repo.CreateUser(s.ctx, "Ana", "ana@example.com", "hash")
	s.Require().NoError(err)
	s.accountID, err = repo.CreateAccountWithAdmin(s.ctx, "Casa", s.userID)
	s.Require().NoError(err)
}

func (s *RepositorySuite) TearDownTest() {
	s.repo.Close()
}

func (s *RepositorySuite) addExpense(categoryID int64, date string, place string, cents int64) int64 {
	d, err := core.ParseDate(date)
	s.Require().NoError(err)
	id, err := s.repo.CreateExpense(s.ctx, core.Expense{
		AccountID:  s.accountID,
		CategoryID: categoryID,
		Amount:     core.Money{Cents: cents},
		Place:      place,
		Date:       d,
		UserID:     s.userID,
	})
	s.Require().NoError(err)
	return id
}

func (s *RepositorySuite) TestCreateUserDuplicateEmail() {
	_, err := s.repo.CreateUser(s.ctx, "Other", "ana@example.com", "hash2")
	s.ErrorIs(err, core.ErrDuplicateEmail)
}

func (s *RepositorySuite) TestAccountCreationGrantsAdmin() {
	m, err := s.repo.GetMembership(s.ctx, s.userID, s.accountID)
	s.Require().NoError(err)
	s.Equal(core.RoleAdmin, m.Role)

	accounts, err := s.repo.ListUserAccounts(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(accounts, 1)
	s.Equal("Casa", accounts[0].Name)
	s.Equal(s.userID, accounts[0].CreatorID)
}

func (s *RepositorySuite) TestGetMembershipNotMember() {
	otherID, err := s.repo.CreateUser(s.ctx, "Luis", "luis@example.com", "hash")
	s.Require().NoError(err)

	_, err = s.repo.GetMembership(s.ctx, otherID, s.accountID)
	s.ErrorIs(err, core.ErrNotMember)
}

func (s *RepositorySuite) TestDeleteUserRemovesMemberships() {
	otherID, err := s.repo.CreateUser(s.ctx, "Luis", "luis@example.com", "hash")
	s.Require().NoError(err)
	s.Require().NoError(s.repo.AddMembership(s.ctx, otherID, s.accountID, core.RoleEditor))

	s.Require().NoError(s.repo.DeleteUser(s.ctx, otherID))

	_, err = s.repo.GetUser(s.ctx, otherID)
	s.ErrorIs(err, core.ErrNotFound)
	_, err = s.repo.GetMembership(s.ctx, otherID, s.accountID)
	s.ErrorIs(err, core.ErrNotMember)
}

func (s *RepositorySuite) TestDeleteUserMissing() {
	s.ErrorIs(s.repo.DeleteUser(s.ctx, 9999), core.ErrNotFound)
}

func (s *RepositorySuite) TestCategoryDeleteRefusedWithExpenses() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 50000)
	s.Require().NoError(err)
	s.addExpense(catID, "2026-08-10", "Mercado", 1200)

	s.ErrorIs(s.repo.DeleteCategory(s.ctx, catID), core.ErrCategoryHasExpenses)

	// Still there
	cat, err := s.repo.GetCategory(s.ctx, catID)
	s.Require().NoError(err)
	s.Equal("Comida", cat.Name)
}

func (s *RepositorySuite) TestCategoryDeleteEmpty() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Vacia", 0)
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteCategory(s.ctx, catID))
	_, err = s.repo.GetCategory(s.ctx, catID)
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestFindCategoryByNameCaseInsensitive() {
	_, err := s.repo.CreateCategory(s.ctx, s.accountID, "Transporte", 0)
	s.Require().NoError(err)

	cat, err := s.repo.FindCategoryByName(s.ctx, s.accountID, "TRANSPORTE")
	s.Require().NoError(err)
	s.Equal("Transporte", cat.Name)

	_, err = s.repo.FindCategoryByName(s.ctx, s.accountID, "nada")
	s.ErrorIs(err, core.ErrNotFound)
}

func (s *RepositorySuite) TestExpenseNotesRoundTrip() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Ocio", 0)
	s.Require().NoError(err)

	d, _ := core.ParseDate("2026-08-01")
	id, err := s.repo.CreateExpense(s.ctx, core.Expense{
		AccountID:  s.accountID,
		CategoryID: catID,
		Amount:     core.Money{Cents: 999},
		Place:      "Cine",
		Date:       d,
		UserID:     s.userID,
		Notes:      "dos entradas",
	})
	s.Require().NoError(err)

	e, err := s.repo.GetExpense(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("dos entradas", e.Notes)
	s.Equal("2026-08-01", e.Date.String())

	// Empty notes are stored as NULL and read back empty
	id2 := s.addExpense(catID, "2026-08-02", "Bar", 500)
	e2, err := s.repo.GetExpense(s.ctx, id2)
	s.Require().NoError(err)
	s.Empty(e2.Notes)
}

func (s *RepositorySuite) TestUpdateAndDeleteExpense() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 0)
	s.Require().NoError(err)
	id := s.addExpense(catID, "2026-08-10", "Mercado", 1200)

	d, _ := core.ParseDate("2026-08-11")
	s.Require().NoError(s.repo.UpdateExpense(s.ctx, id, 1500, "Supermercado", d, "corregido"))

	e, err := s.repo.GetExpense(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(int64(1500), e.Amount.Cents)
	s.Equal("Supermercado", e.Place)
	s.Equal("2026-08-11", e.Date.String())
	s.Equal("corregido", e.Notes)

	s.Require().NoError(s.repo.DeleteExpense(s.ctx, id))
	_, err = s.repo.GetExpense(s.ctx, id)
	s.ErrorIs(err, core.ErrNotFound)
	s.ErrorIs(s.repo.DeleteExpense(s.ctx, id), core.ErrNotFound)
}

func (s *RepositorySuite) TestListExpensesOrderingAndFilters() {
	comida, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 0)
	s.Require().NoError(err)
	ocio, err := s.repo.CreateCategory(s.ctx, s.accountID, "Ocio", 0)
	s.Require().NoError(err)

	s.addExpense(comida, "2026-08-10", "Mercado", 1000)
	first := s.addExpense(comida, "2026-08-15", "Bar", 2000)
	second := s.addExpense(ocio, "2026-08-15", "Cine", 3000)
	s.addExpense(ocio, "2026-07-20", "Teatro", 4000)

	rows, err := s.repo.ListExpenses(s.ctx, s.accountID, ExpenseFilter{})
	s.Require().NoError(err)
	s.Require().Len(rows, 4)
	// Newest date first; same-day ties resolved by id descending
	s.Equal(second, rows[0].ID)
	s.Equal(first, rows[1].ID)
	s.Equal("Ana", rows[0].User)
	s.Equal("Ocio", rows[0].Category)

	rows, err = s.repo.ListExpenses(s.ctx, s.accountID, ExpenseFilter{Month: 8, Year: 2026})
	s.Require().NoError(err)
	s.Len(rows, 3)

	rows, err = s.repo.ListExpenses(s.ctx, s.accountID, ExpenseFilter{Month: 8, Year: 2026, CategoryName: "Comida"})
	s.Require().NoError(err)
	s.Len(rows, 2)

	rows, err = s.repo.ListExpenses(s.ctx, s.accountID, ExpenseFilter{Limit: 2})
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *RepositorySuite) TestListExpensesScopedToAccount() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 0)
	s.Require().NoError(err)
	s.addExpense(catID, "2026-08-10", "Mercado", 1000)

	otherAccount, err := s.repo.CreateAccountWithAdmin(s.ctx, "Trabajo", s.userID)
	s.Require().NoError(err)

	rows, err := s.repo.ListExpenses(s.ctx, otherAccount, ExpenseFilter{})
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *RepositorySuite) TestDedupeKeys() {
	catID, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 0)
	s.Require().NoError(err)
	s.addExpense(catID, "2026-08-10", "Mercado Central", 1250)

	keys, err := s.repo.DedupeKeys(s.ctx, s.accountID)
	s.Require().NoError(err)
	_, ok := keys[DedupeKey{Date: "2026-08-10", PlaceLower: "mercado central", AmountCents: 1250}]
	s.True(ok, "key should use the lowercased place")
	s.Len(keys, 1)
}

func (s *RepositorySuite) TestMonthlySummary() {
	comida, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 50000)
	s.Require().NoError(err)
	_, err = s.repo.CreateCategory(s.ctx, s.accountID, "Vacia", 10000)
	s.Require().NoError(err)

	s.addExpense(comida, "2026-08-10", "Mercado", 30000)
	s.addExpense(comida, "2026-08-15", "Bar", 11000)
	// Different month, must not count
	s.addExpense(comida, "2026-07-15", "Bar", 99900)

	rows, err := s.repo.MonthlySummary(s.ctx, s.accountID, 8, 2026)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	// Ordered by total spent descending; zero-spend category still listed
	s.Equal("Comida", rows[0].Category)
	s.Equal(int64(41000), rows[0].TotalSpent.Cents)
	s.Equal(int64(50000), rows[0].MonthlyBudget.Cents)
	s.Equal(2, rows[0].ExpenseCount)

	s.Equal("Vacia", rows[1].Category)
	s.Equal(int64(0), rows[1].TotalSpent.Cents)
	s.Equal(0, rows[1].ExpenseCount)

	percent, ok := rows[0].Percent()
	s.Require().True(ok)
	s.InDelta(82.0, percent, 0.001)
	s.Equal(core.BucketWarning, core.Bucket(percent))
}

func (s *RepositorySuite) TestMonthTotalAndBudget() {
	comida, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 50000)
	s.Require().NoError(err)
	_, err = s.repo.CreateCategory(s.ctx, s.accountID, "Ocio", 20000)
	s.Require().NoError(err)

	s.addExpense(comida, "2026-08-10", "Mercado", 30000)
	s.addExpense(comida, "2026-07-10", "Mercado", 5000)

	total, err := s.repo.MonthTotal(s.ctx, s.accountID, "2026-08")
	s.Require().NoError(err)
	s.Equal(int64(30000), total.Cents)

	total, err = s.repo.MonthTotal(s.ctx, s.accountID, "2026-06")
	s.Require().NoError(err)
	s.Equal(int64(0), total.Cents)

	budget, err := s.repo.TotalBudget(s.ctx, s.accountID)
	s.Require().NoError(err)
	s.Equal(int64(70000), budget.Cents)
}

func (s *RepositorySuite) TestTrend() {
	comida, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 0)
	s.Require().NoError(err)
	ocio, err := s.repo.CreateCategory(s.ctx, s.accountID, "Ocio", 0)
	s.Require().NoError(err)

	s.addExpense(comida, "2026-06-10", "Mercado", 1000)
	s.addExpense(comida, "2026-07-10", "Mercado", 2000)
	s.addExpense(ocio, "2026-07-12", "Cine", 500)
	// Before the cutoff, must be excluded
	s.addExpense(comida, "2026-01-10", "Mercado", 9999)

	cutoff, _ := core.ParseDate("2026-06-01")
	points, err := s.repo.Trend(s.ctx, s.accountID, cutoff)
	s.Require().NoError(err)
	s.Require().Len(points, 3)

	// Chronological month keys, categories alphabetical within a month
	s.Equal("2026-06", points[0].Month)
	s.Equal("Comida", points[0].Category)
	s.Equal(int64(1000), points[0].Total.Cents)
	s.Equal("2026-07", points[1].Month)
	s.Equal("Comida", points[1].Category)
	s.Equal("2026-07", points[2].Month)
	s.Equal("Ocio", points[2].Category)
}

func (s *RepositorySuite) TestCategorySpendCurrentMonth() {
	comida, err := s.repo.CreateCategory(s.ctx, s.accountID, "Comida", 50000)
	s.Require().NoError(err)
	_, err = s.repo.CreateCategory(s.ctx, s.accountID, "Vacia", 0)
	s.Require().NoError(err)

	s.addExpense(comida, "2026-08-10", "Mercado", 1234)
	s.addExpense(comida, "2026-07-10", "Mercado", 5000)

	rows, err := s.repo.ListCategoriesWithSpend(s.ctx, s.accountID, "2026-08")
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("Comida", rows[0].Name)
	s.Equal(int64(1234), rows[0].SpentThisMonth.Cents)
	s.Equal("Vacia", rows[1].Name)
	s.Equal(int64(0), rows[1].SpentThisMonth.Cents)
}
