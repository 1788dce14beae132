package core

import (
	"strings"
	"time"
)

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

type (
	Role string

	// Date is a calendar date with no time component.
	Date struct {
		time.Time
	}

	// Money is an exact decimal amount stored as cents.
	Money struct {
		Cents int64
	}

	User struct {
		ID        int64
		Name      string
		Email     string
		CreatedAt time.Time
	}

	Account struct {
		ID        int64
		Name      string
		CreatorID int64
		CreatedAt time.Time
	}

	// Membership links a user to an account with a role.
	// A user holds at most one role per account.
	Membership struct {
		UserID    int64
		AccountID int64
		Role      Role
		CreatedAt time.Time
	}

	Category struct {
		ID        int64
		AccountID int64
		Name      string
		// MonthlyBudget of zero means no budget defined.
		MonthlyBudget Money
		CreatedAt     time.Time
	}

	Expense struct {
		ID         int64
		AccountID  int64
		CategoryID int64
		Amount     Money
		Place      string
		Date       Date
		UserID     int64
		Notes      string
		CreatedAt  time.Time
	}
)

// NewDate creates a Date from year, month, day (UTC midnight).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to calendar-date granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses the storage representation YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the storage representation.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Month returns the month as an int (1-12).
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Place) == "" {
		return ErrEmptyPlace
	}
	if e.AccountID <= 0 || e.CategoryID <= 0 {
		return ErrNotFound
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if c.MonthlyBudget.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
