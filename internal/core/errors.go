package core

import "errors"

// Validation failures: bad input shape or range, rejected before persistence.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyPlace        = errors.New("empty place")
	ErrEmptyName         = errors.New("empty name")
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrInvalidRole       = errors.New("invalid role")
)

// Conflicts: the operation contradicts existing state but the caller can recover.
var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrCategoryHasExpenses = errors.New("category has expenses and cannot be deleted")
)

// Auth failures. Unknown email and wrong password collapse into one error so
// callers cannot enumerate registered users.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfDeletion       = errors.New("users cannot delete their own account")
	ErrNotMember          = errors.New("user is not a member of this account")
)

// ErrNotFound signals that a referenced id does not exist.
var ErrNotFound = errors.New("not found")
