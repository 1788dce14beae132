package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finanzas/internal/config"
	"finanzas/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:                   "8080",
		SQLiteDBPath:           filepath.Join(t.TempDir(), "test.db"),
		SummaryCacheSize:       16,
		SummaryCacheTTL:        time.Minute,
		LoginAttemptsPerMinute: 1000,
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	srv := NewServer(cfg, repo, nil)
	t.Cleanup(func() { srv.loginLimiter.Stop(); srv.cacheManager.Stop() })
	return srv
}

// doJSON performs a request against the server's full middleware chain.
func doJSON(t *testing.T, srv *Server, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID > 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// registerUser creates a user and returns its id.
func registerUser(t *testing.T, srv *Server, name, email string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/users", 0, map[string]string{
		"name": name, "email": email, "password": "secreto123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]int64](t, rec)["id"]
}

func createAccount(t *testing.T, srv *Server, userID int64, name string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/accounts", userID, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]int64](t, rec)["id"]
}

func createCategory(t *testing.T, srv *Server, userID, accountID int64, name, budget string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/accounts/%d/categories", accountID), userID,
		map[string]string{"name": name, "monthly_budget": budget})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]int64](t, rec)["id"]
}

func createExpense(t *testing.T, srv *Server, userID, accountID, categoryID int64, date, place, amount string) int64 {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/accounts/%d/expenses", accountID), userID,
		map[string]any{"category_id": categoryID, "amount": amount, "place": place, "date": date})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[map[string]int64](t, rec)["id"]
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	id := registerUser(t, srv, "Ana", "ana@example.com")
	require.Positive(t, id)

	// Duplicate email conflicts
	rec := doJSON(t, srv, http.MethodPost, "/api/users", 0, map[string]string{
		"name": "Otra", "email": "ana@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/login", 0, map[string]string{
		"email": "ana@example.com", "password": "secreto123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decodeBody[userResponse](t, rec)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Ana", user.Name)

	rec = doJSON(t, srv, http.MethodPost, "/api/login", 0, map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMembershipEnforced(t *testing.T) {
	srv := newTestServer(t)

	ana := registerUser(t, srv, "Ana", "ana@example.com")
	luis := registerUser(t, srv, "Luis", "luis@example.com")
	account := createAccount(t, srv, ana, "Casa")

	// No header at all
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/accounts/%d/categories", account), nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Non-member is forbidden
	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/categories", account), luis, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Adding a membership opens the account up
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/accounts/%d/members", account), ana,
		map[string]any{"user_id": luis, "role": "viewer"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/categories", account), luis, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")

	catID := createCategory(t, srv, ana, account, "Comida", "500.00")
	createExpense(t, srv, ana, account, catID, time.Now().Format("2006-01-02"), "Mercado", "12.50")

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/categories", account), ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	categories := decodeBody[[]categoryResponse](t, rec)
	require.Len(t, categories, 1)
	assert.Equal(t, "Comida", categories[0].Name)
	assert.Equal(t, "500.00", categories[0].MonthlyBudget)
	assert.Equal(t, "12.50", categories[0].SpentThisMonth)

	// Categories with expenses cannot be deleted
	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/accounts/%d/categories/%d", account, catID), ana, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// A bad budget string is a 400
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/accounts/%d/categories", account), ana,
		map[string]string{"name": "Ocio", "monthly_budget": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategoryScopedToAccount(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	casa := createAccount(t, srv, ana, "Casa")
	trabajo := createAccount(t, srv, ana, "Trabajo")

	catID := createCategory(t, srv, ana, casa, "Comida", "")

	// The category is invisible through the other account's path
	rec := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/accounts/%d/categories/%d", trabajo, catID), ana, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")
	catID := createCategory(t, srv, ana, account, "Comida", "")

	expID := createExpense(t, srv, ana, account, catID, "2026-08-10", "Mercado", "12.50")

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/expenses", account), ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decodeBody[[]expenseResponse](t, rec)
	require.Len(t, rows, 1)
	assert.Equal(t, "12.50", rows[0].Amount)
	assert.Equal(t, "Comida", rows[0].Category)
	assert.Equal(t, "Ana", rows[0].User)

	rec = doJSON(t, srv, http.MethodPut, fmt.Sprintf("/api/accounts/%d/expenses/%d", account, expID), ana,
		map[string]any{"amount": "15.00", "place": "Supermercado", "date": "2026-08-11", "notes": "corregido"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/accounts/%d/expenses/%d", account, expID), ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Validation errors map to 400
	rec = doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/accounts/%d/expenses", account), ana,
		map[string]any{"category_id": catID, "amount": "-5.00", "place": "Bar", "date": "2026-08-10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryCacheInvalidatedOnWrite(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")
	catID := createCategory(t, srv, ana, account, "Comida", "500.00")

	createExpense(t, srv, ana, account, catID, "2026-08-10", "Mercado", "100.00")

	url := fmt.Sprintf("/api/accounts/%d/reports/summary?month=8&year=2026", account)
	rec := doJSON(t, srv, http.MethodGet, url, ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody[[]summaryRowResponse](t, rec)
	require.Len(t, first, 1)
	assert.Equal(t, "100.00", first[0].TotalSpent)

	// The write must evict the cached summary
	createExpense(t, srv, ana, account, catID, "2026-08-12", "Bar", "310.00")

	rec = doJSON(t, srv, http.MethodGet, url, ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[[]summaryRowResponse](t, rec)
	require.Len(t, second, 1)
	assert.Equal(t, "410.00", second[0].TotalSpent)
	assert.InDelta(t, 82.0, second[0].BudgetPercent, 0.001)
	assert.Equal(t, "warning", second[0].BudgetBucket)
}

func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")
	catID := createCategory(t, srv, ana, account, "Comida", "500.00")
	createExpense(t, srv, ana, account, catID, time.Now().Format("2006-01-02"), "Mercado", "25.00")

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/reports/dashboard", account), ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[dashboardResponse](t, rec)
	assert.Equal(t, "25.00", dash.TotalThisMonth)
	assert.Equal(t, "500.00", dash.TotalBudget)
	require.Len(t, dash.RecentExpenses, 1)
}

func TestImportAndExportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "gastos.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("date,store,amount,category\n10/08/26,Mercado,12.50,Comida\n10/08/26,Mercado,12.50,Comida\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/accounts/%d/import", account), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-User-ID", fmt.Sprintf("%d", ana))
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[importResponse](t, rec)
	// Both rows import: dedupe compares against rows that existed before
	// the run started, not against rows inserted within it
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Duplicates)

	rec = doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/accounts/%d/export", account), ana, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,place,amount,category,notes,user", lines[0])
	assert.Contains(t, lines[1], "10/08/2026,Mercado,12.50,Comida")

	// A re-import of the same file now skips every row
	var buf2 bytes.Buffer
	mw2 := multipart.NewWriter(&buf2)
	part2, err := mw2.CreateFormFile("file", "gastos.csv")
	require.NoError(t, err)
	_, err = part2.Write([]byte("date,store,amount,category\n10/08/26,Mercado,12.50,Comida\n"))
	require.NoError(t, err)
	require.NoError(t, mw2.Close())

	req2 := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/accounts/%d/import", account), &buf2)
	req2.Header.Set("Content-Type", mw2.FormDataContentType())
	req2.Header.Set("X-User-ID", fmt.Sprintf("%d", ana))
	rec = httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req2)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decodeBody[importResponse](t, rec)
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 1, second.Duplicates)
}

func TestRemoveUserSelfDeletionConflict(t *testing.T) {
	srv := newTestServer(t)
	ana := registerUser(t, srv, "Ana", "ana@example.com")
	account := createAccount(t, srv, ana, "Casa")

	rec := doJSON(t, srv, http.MethodDelete, fmt.Sprintf("/api/accounts/%d/users/%d", account, ana), ana, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/readyz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
