package auth

import (
	"context"

	"mero-kart/internal/model"

	"github.com/google/uuid"
)

// Identity is the caller's resolved identity, established once per request
// and passed explicitly into gated operations.
type Identity struct {
	ID   uuid.UUID
	Role model.Role
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role model.Role) bool {
	return i.Role == role
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// IsSelf reports whether the identity is the given user.
func (i Identity) IsSelf(userID uuid.UUID) bool {
	return i.ID == userID
}

// Gate resolves caller identities for gated operations.
type Gate interface {
	// Resolve looks up the caller and returns their identity. Fails with
	// model.ErrUserNotFound when the caller does not exist.
	Resolve(ctx context.Context, callerID uuid.UUID) (Identity, error)
}
