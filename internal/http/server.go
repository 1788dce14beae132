// Package http exposes the finance tracker as a JSON API. Handlers are
// thin: decode, check membership, call a service, map errors to statuses.
// The acting user arrives as an X-User-ID header set by the session layer
// in front of this service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/config"
	"finanzas/internal/core"
	"finanzas/internal/middleware/ratelimit"
	"finanzas/internal/middleware/security"
	"finanzas/internal/middleware/trace"
	"finanzas/internal/services"
	"finanzas/internal/storage"
)

type Server struct {
	http.Server

	repo       *storage.SQLiteRepository
	identity   *services.IdentityService
	categories *services.CategoryService
	expenses   *services.ExpenseService
	reports    *services.ReportService
	importer   *services.Importer
	exporter   *services.Exporter

	// Report caches, invalidated on every write to the account
	summaryCache   *cache.LRU[[]core.CategorySummary]
	dashboardCache *cache.LRU[*core.DashboardSummary]
	cacheManager   *cache.Manager

	loginLimiter *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer wires services, caches and middleware into a ready-to-run
// http.Server listening on the configured port.
func NewServer(cfg *config.Config, repo *storage.SQLiteRepository, publisher services.EventPublisher) *Server {
	mux := http.NewServeMux()

	s := &Server{
		repo:       repo,
		identity:   services.NewIdentityService(repo),
		categories: services.NewCategoryService(repo),
		expenses:   services.NewExpenseService(repo, publisher),
		reports:    services.NewReportService(repo),
		importer:   services.NewImporter(repo, publisher),
		exporter:   services.NewExporter(repo),

		summaryCache:   cache.NewLRU[[]core.CategorySummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		dashboardCache: cache.NewLRU[*core.DashboardSummary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL),
		cacheManager:   cache.NewManager(),

		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.LoginAttemptsPerMinute,
		}),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.dashboardCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/users", s.handleRegister)
	mux.Handle("POST /api/login",
		s.loginLimiter.Middleware(extractClientIP)(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("PUT /api/users/{id}", s.handleUpdateProfile)
	mux.HandleFunc("PUT /api/users/{id}/password", s.handleChangePassword)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}/users", s.withAccount(s.handleAccountUsers))
	mux.HandleFunc("POST /api/accounts/{id}/members", s.withAccount(s.handleAddMembership))
	mux.HandleFunc("DELETE /api/accounts/{id}/users/{userID}", s.withAccount(s.handleRemoveUser))

	mux.HandleFunc("GET /api/accounts/{id}/categories", s.withAccount(s.handleListCategories))
	mux.HandleFunc("POST /api/accounts/{id}/categories", s.withAccount(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/accounts/{id}/categories/{categoryID}", s.withAccount(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/accounts/{id}/categories/{categoryID}", s.withAccount(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/accounts/{id}/expenses", s.withAccount(s.handleListExpenses))
	mux.HandleFunc("POST /api/accounts/{id}/expenses", s.withAccount(s.handleCreateExpense))
	mux.HandleFunc("PUT /api/accounts/{id}/expenses/{expenseID}", s.withAccount(s.handleUpdateExpense))
	mux.HandleFunc("DELETE /api/accounts/{id}/expenses/{expenseID}", s.withAccount(s.handleDeleteExpense))

	mux.HandleFunc("GET /api/accounts/{id}/reports/summary", s.withAccount(s.handleMonthlySummary))
	mux.HandleFunc("GET /api/accounts/{id}/reports/dashboard", s.withAccount(s.handleDashboard))
	mux.HandleFunc("GET /api/accounts/{id}/reports/trend", s.withAccount(s.handleTrend))

	mux.HandleFunc("POST /api/accounts/{id}/import", s.withAccount(s.handleImportCSV))
	mux.HandleFunc("GET /api/accounts/{id}/export", s.withAccount(s.handleExportCSV))

	traceMW := trace.NewMiddleware(extractClientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := traceMW.Middleware(headersMW.Middleware(mux))

	s.Server = http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// accountHandler is an account-scoped handler invoked after the membership
// check passed. accountID comes from the path, userID from the X-User-ID
// header.
type accountHandler func(w http.ResponseWriter, r *http.Request, accountID, userID int64)

// withAccount resolves the account from the path and refuses callers who
// are not members of it.
func (s *Server) withAccount(next accountHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, err := pathID(r, "id")
		if err != nil {
			respondError(w, r, core.ErrNotFound)
			return
		}
		userID, err := actingUserID(r)
		if err != nil {
			respondStatus(w, http.StatusUnauthorized, "missing or malformed X-User-ID header")
			return
		}
		if _, err := s.identity.RequireMembership(r.Context(), userID, accountID); err != nil {
			respondError(w, r, err)
			return
		}
		next(w, r, accountID, userID)
	}
}

// invalidateReportCaches drops every cached report of the account. Called
// after any write that changes what the reports would show.
func (s *Server) invalidateReportCaches(accountID int64) {
	s.summaryCache.DeletePrefix(fmt.Sprintf("summary:%d:", accountID))
	s.dashboardCache.Delete(fmt.Sprintf("dashboard:%d", accountID))
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.loginLimiter.Stop()
		s.cacheManager.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
