// Package services holds the application services that sit between the
// HTTP surface and storage: identity and membership, category budgets, the
// expense ledger, reporting, and CSV import/export.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"finanzas/internal/auth"
	"finanzas/internal/core"
	"finanzas/internal/storage"
)

// IdentityService manages users, accounts and memberships.
//
// Roles are stored with each membership but are not checked on write
// operations; they are advisory for the presentation layer.
type IdentityService struct {
	storage *storage.SQLiteRepository
}

func NewIdentityService(storage *storage.SQLiteRepository) *IdentityService {
	return &IdentityService{storage: storage}
}

// Register creates a new user with a freshly salted password hash.
// A taken email surfaces as core.ErrDuplicateEmail.
func (s *IdentityService) Register(ctx context.Context, name, email, password string) (int64, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return 0, core.ErrEmptyName
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("register: %w", err)
	}

	id, err := s.storage.CreateUser(ctx, name, email, hash)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "User registered", "user_id", id, "email", email)
	return id, nil
}

// Authenticate verifies credentials against the stored hash. Unknown email
// and wrong password both return core.ErrInvalidCredentials so the caller
// cannot tell registered addresses apart from unregistered ones.
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	u, err := s.storage.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, core.ErrInvalidCredentials
	}
	user := u.User
	return &user, nil
}

// ListAccounts returns the user's accounts ordered by name.
func (s *IdentityService) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	return s.storage.ListUserAccounts(ctx, userID)
}

// CreateAccount persists the account plus the creator's admin membership as
// a single unit.
func (s *IdentityService) CreateAccount(ctx context.Context, name string, creatorID int64) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, core.ErrEmptyName
	}
	id, err := s.storage.CreateAccountWithAdmin(ctx, name, creatorID)
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Account created", "account_id", id, "creator_id", creatorID)
	return id, nil
}

func (s *IdentityService) AddMembership(ctx context.Context, userID, accountID int64, role core.Role) error {
	if !role.Valid() {
		return core.ErrInvalidRole
	}
	return s.storage.AddMembership(ctx, userID, accountID, role)
}

// RequireMembership verifies the acting user holds a membership in the
// account. Every account-scoped call goes through this before touching data.
func (s *IdentityService) RequireMembership(ctx context.Context, userID, accountID int64) (*core.Membership, error) {
	return s.storage.GetMembership(ctx, userID, accountID)
}

// RemoveUser deletes a user. A user may never delete their own identity
// through this path, which would lock out the active session.
func (s *IdentityService) RemoveUser(ctx context.Context, userID, actingUserID int64) error {
	if userID == actingUserID {
		return core.ErrSelfDeletion
	}
	if err := s.storage.DeleteUser(ctx, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User removed", "user_id", userID, "acting_user_id", actingUserID)
	return nil
}

// UpdateProfile changes a user's name and email.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID int64, name, email string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return core.ErrEmptyName
	}
	return s.storage.UpdateUser(ctx, userID, name, email)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *IdentityService) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.storage.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	stored, err := s.storage.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(current, stored.PasswordHash) {
		return core.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return s.storage.UpdateUserPassword(ctx, userID, hash)
}

// AccountUsers lists the users who are members of the account.
func (s *IdentityService) AccountUsers(ctx context.Context, accountID int64) ([]core.User, error) {
	return s.storage.ListAccountUsers(ctx, accountID)
}
