package user

import (
	"context"
	"time"

	"github.com/fieldops/dispatch/engine/core"
)

// Role represents a user's access level.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleDispatcher Role = "dispatcher"
	RoleWorker     Role = "worker"
)

// Valid checks if the role is a known value.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleDispatcher || r == RoleWorker
}

// Privileged reports whether the role may manage other users' tasks.
// Reopen notifications fan out to privileged roles.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RoleDispatcher
}

// User is a field-service operator, dispatcher or administrator.
type User struct {
	ID        core.ID   `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	FullName  string    `json:"full_name" db:"full_name"`
	Role      Role      `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName prefers the full name over the login.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Repository is the persistence collaborator for users.
type Repository interface {
	GetByID(ctx context.Context, id core.ID) (*User, error)
	// ListPrivileged returns all active admins and dispatchers.
	ListPrivileged(ctx context.Context) ([]*User, error)
}
