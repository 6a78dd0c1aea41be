package auth

import (
	"fmt"
	"time"

	"github.com/structura-erp/structura-erp/internal/shared"
)

// User is an account able to log in. Role is one of shared.RoleAdmin,
// shared.RoleApprover, shared.RoleStaff.
type User struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	switch role {
	case shared.RoleAdmin, shared.RoleApprover, shared.RoleStaff:
		return true
	}
	return false
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = fmt.Errorf("auth: %w", shared.ErrNotFound)
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = fmt.Errorf("auth: %w", shared.ErrInvalidCredentials)
	// ErrValidation indicates invalid input.
	ErrValidation = fmt.Errorf("auth: %w", shared.ErrValidation)
	// ErrDuplicateUsername indicates a username collision.
	ErrDuplicateUsername = fmt.Errorf("auth: username: %w", shared.ErrDuplicate)
)
