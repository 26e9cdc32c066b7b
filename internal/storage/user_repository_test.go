package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desk-reserve/backend/internal/storage"
	"github.com/desk-reserve/backend/internal/storage/models"
	"github.com/desk-reserve/backend/internal/storage/storagetest"
)

func Test_UserRepository(t *testing.T) {
	// setup
	ctx := context.Background()
	repo := storage.NewUserRepository(storagetest.NewDB(t))

	// arrange
	alice := &models.User{Name: "Alice", Email: "alice@example.com", Active: true}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, &models.User{Name: "Bob", Email: "bob@example.com", Active: false}))

	// act + assert
	assert.NotEmpty(t, alice.ID)

	got, err := repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Name)

	got, err = repo.GetByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Active)

	got, err = repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := repo.ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, alice.ID, active[0].ID)

	err = repo.Create(ctx, &models.User{Name: "Alice 2", Email: "alice@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}
