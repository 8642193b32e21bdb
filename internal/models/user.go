package models

import (
	"fmt"
	"time"
)

// Role is the closed set of workspace roles. Anything outside the two
// values is rejected at the boundary by ParseRole.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// ParseRole validates a raw role string against the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleEmployee:
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Principal is the authenticated actor behind a request, resolved from a
// bearer session token written by the identity service. TenantID scopes
// every lookup this backend performs.
type Principal struct {
	ID       string `json:"user_id"`
	Role     Role   `json:"role"`
	TenantID string `json:"tenant_id"`
}

// User is a directory entry from the tenant user directory (PostgreSQL).
type User struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the best human-readable name for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
