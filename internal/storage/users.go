package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"finanzas/internal/core"
)

// CreateUser persists a new user. The UNIQUE constraint on email surfaces
// as core.ErrDuplicateEmail, a recoverable conflict.
func (r *SQLiteRepository) CreateUser(ctx context.Context, name, email, passwordHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)",
		name, email, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return 0, core.ErrDuplicateEmail
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("user id: %w", err)
	}
	return id, nil
}

// UserWithHash carries the stored credential blob next to the user row.
// Only the authenticate path should touch it.
type UserWithHash struct {
	core.User
	PasswordHash string
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*UserWithHash, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?",
		email,
	)
	var u UserWithHash
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (*core.User, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, created_at FROM users WHERE id = ?",
		id,
	)
	var u core.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateUser changes name and email; email collisions surface as
// core.ErrDuplicateEmail.
func (r *SQLiteRepository) UpdateUser(ctx context.Context, id int64, name, email string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET name = ?, email = ? WHERE id = ?",
		name, email, id,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return core.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRowAffected(res, "update user")
}

func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE id = ?",
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRowAffected(res, "update password")
}

// DeleteUser removes the user row and its memberships. Expenses recorded by
// the user are left in place; there is no cascade.
func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM memberships WHERE user_id = ?", id); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireRowAffected(res, "delete user"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}

// ListAccountUsers returns the users holding a membership in the account.
func (r *SQLiteRepository) ListAccountUsers(ctx context.Context, accountID int64) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.created_at
		FROM users u
		JOIN memberships m ON u.id = m.user_id
		WHERE m.account_id = ?
		ORDER BY u.name`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list account users: %w", err)
	}
	defer rows.Close()

	var users []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func isUniqueViolation(err error, constraint string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+constraint)
}

func requireRowAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
