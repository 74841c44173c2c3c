// Package identity holds the caller identity and user profile aggregates.
package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Role is the marketplace role of a user
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleSeller   Role = "seller"
)

// IsValid reports whether the role is a known marketplace role
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleSeller:
		return true
	}
	return false
}

// HasBusiness reports whether the role runs a business (provider or seller)
func (r Role) HasBusiness() bool {
	return r == RoleProvider || r == RoleSeller
}

// Identity is the authenticated caller. It travels explicitly through
// context.Context; there is no package-level session.
type Identity struct {
	UserID uuid.UUID
	Role   Role
	Email  string
}

// ErrNoIdentity is returned when an operation requires an authenticated caller
var ErrNoIdentity = shared.NewDomainError("UNAUTHORIZED", "Authentication required")

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.UserID == uuid.Nil {
		return Identity{}, false
	}
	return id, true
}

// Require returns the identity stored in ctx or ErrNoIdentity
func Require(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, ErrNoIdentity
	}
	return id, nil
}
