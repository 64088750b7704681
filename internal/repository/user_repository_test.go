package repository

import (
	"context"
	"testing"

	"mero-kart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())
	ctx := context.Background()

	admin := seedUser(t, pool, model.RoleAdmin)

	got, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, admin.Email, got.Email)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool, zerolog.Nop())

	got, err := repo.GetByID(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Nil(t, got)
}
