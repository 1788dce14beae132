package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

// newTestAccount seeds a user with an account and returns both ids.
func newTestAccount(t *testing.T, repo *storage.SQLiteRepository) (userID, accountID int64) {
	t.Helper()
	ctx := context.Background()
	userID, err := repo.CreateUser(ctx, "Ana", "ana@example.com", "hash")
	require.NoError(t, err)
	accountID, err = repo.CreateAccountWithAdmin(ctx, "Casa", userID)
	require.NoError(t, err)
	return userID, accountID
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishExpenseEvent(_ context.Context, event string, _, _ int64) error {
	p.events = append(p.events, event)
	return nil
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}
