package users

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{
		FullName:     "Jess Cloud",
		Email:        "jess@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleUser, user.Role)
	assert.True(t, user.IsActive)

	byEmail, err := repo.FindByEmail(ctx, "jess@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateLastLogin(ctx, user.ID, now))
	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID.LastLoginAt)
	assert.True(t, byID.LastLoginAt.Equal(now))
}

func TestRepositoryUpdates(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	ctx := context.Background()

	user, err := repo.Create(ctx, CreateUserDTO{FullName: "Old", Email: "u@example.com", PasswordHash: "hash"})
	require.NoError(t, err)

	name := "New Name"
	addr := "1 Main St, Austin, TX 78701, USA"
	updated, err := repo.UpdateProfile(ctx, user.ID, ProfileUpdate{FullName: &name, Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)
	require.NotNil(t, updated.Address)
	assert.Equal(t, addr, *updated.Address)
	assert.Nil(t, updated.PhoneNumber)

	role := enums.UserRoleAdmin
	updated, err = repo.UpdateAdminFields(ctx, user.ID, AdminUpdate{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, updated.Role)
	assert.Equal(t, name, updated.FullName)

	_, err = repo.UpdateAdminFields(ctx, uuid.New(), AdminUpdate{Role: &role})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepositoryListAndCount(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		u, err := repo.Create(ctx, CreateUserDTO{
			FullName:     fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: "hash",
		})
		require.NoError(t, err)
		require.NoError(t, db.Exec("UPDATE users SET created_at = ? WHERE id = ?", time.Now().UTC().Add(time.Duration(i)*time.Minute), u.ID).Error)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	page, next, err := repo.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "User 2", page[0].FullName)
	require.NotEmpty(t, next)

	rest, next, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "User 0", rest[0].FullName)
	assert.Empty(t, next)
}
