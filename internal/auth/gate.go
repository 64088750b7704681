package auth

import (
	"context"
	"fmt"

	"mero-kart/internal/model"
	"mero-kart/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// gate implements Gate on top of the user repository.
type gate struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewGate creates a new repository-backed authorization gate.
func NewGate(users repository.UserRepository, logger zerolog.Logger) Gate {
	return &gate{
		users:  users,
		logger: logger.With().Str("component", "auth-gate").Logger(),
	}
}

// Resolve looks up the caller and returns their identity.
func (g *gate) Resolve(ctx context.Context, callerID uuid.UUID) (Identity, error) {
	user, err := g.users.GetByID(ctx, callerID)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to resolve caller: %w", err)
	}

	if user == nil {
		g.logger.Warn().Str("caller_id", callerID.String()).Msg("unknown caller")
		return Identity{}, model.ErrUserNotFound
	}

	role := user.Role
	if !role.Valid() {
		// Unknown role strings in the store degrade to customer rights.
		g.logger.Warn().
			Str("caller_id", callerID.String()).
			Str("role", string(user.Role)).
			Msg("unknown role, treating caller as customer")
		role = model.RoleCustomer
	}

	return Identity{ID: user.ID, Role: role}, nil
}
