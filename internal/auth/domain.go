package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role enumerates account roles. Admin is a superset of system_user.
type Role string

// Status enumerates account statuses. Disabled accounts fail all
// authentication regardless of valid credentials.
type Status string

const (
	RoleAdmin      Role = "admin"
	RoleSystemUser Role = "system_user"

	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// MinPasswordLength is enforced centrally by the service for every path that
// sets a password.
const MinPasswordLength = 8

// Reset token validity windows. Self-service resets are short-lived; tokens
// mailed to freshly invited users last a week.
const (
	ResetTokenTTL       = time.Hour
	SetPasswordTokenTTL = 7 * 24 * time.Hour
)

// User represents an admin backend account. Accounts are never hard-deleted,
// only disabled.
type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ResetToken authorizes a single out-of-band password change.
type ResetToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// SessionData is the claim set carried by a signed session token.
type SessionData struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

type userContextKey struct{}

// ContextWithUser stores the authenticated user in context.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}
