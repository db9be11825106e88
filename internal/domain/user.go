package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned when no user exists for the requested id.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailRegistered is returned when an email is already used by another user.
	ErrEmailRegistered = errors.New("email already registered")
)

// User represents a managed user account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser carries the fields needed to create a user.
type NewUser struct {
	Name     string
	Email    string
	Password string
}

// UserPatch holds a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
	IsActive *bool
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.IsActive == nil
}

// UserFilter narrows a list of users for display.
type UserFilter struct {
	SearchTerm     string
	ShowOnlyActive bool
}
