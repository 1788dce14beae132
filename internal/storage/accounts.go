package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finanzas/internal/core"
)

// CreateAccountWithAdmin persists the account and the creator's admin
// membership as one transaction. An account without an admin would be
// unreachable, so a failure on either insert rolls both back.
func (r *SQLiteRepository) CreateAccountWithAdmin(ctx context.Context, name string, creatorID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create account: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO accounts (name, creator_id) VALUES (?, ?)",
		name, creatorID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO memberships (user_id, account_id, role) VALUES (?, ?, ?)",
		creatorID, accountID, core.RoleAdmin,
	); err != nil {
		return 0, fmt.Errorf("insert admin membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create account: %w", err)
	}
	return accountID, nil
}

// ListUserAccounts returns the accounts a user belongs to, ordered by name.
func (r *SQLiteRepository) ListUserAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.creator_id, a.created_at
		FROM accounts a
		JOIN memberships m ON a.id = m.account_id
		WHERE m.user_id = ?
		ORDER BY a.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.CreatorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *SQLiteRepository) AddMembership(ctx context.Context, userID, accountID int64, role core.Role) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO memberships (user_id, account_id, role) VALUES (?, ?, ?)",
		userID, accountID, role,
	)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// GetMembership returns core.ErrNotMember when the user has no role in the
// account.
func (r *SQLiteRepository) GetMembership(ctx context.Context, userID, accountID int64) (*core.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT user_id, account_id, role, created_at FROM memberships WHERE user_id = ? AND account_id = ?",
		userID, accountID,
	)
	var m core.Membership
	if err := row.Scan(&m.UserID, &m.AccountID, &m.Role, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotMember
		}
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}
