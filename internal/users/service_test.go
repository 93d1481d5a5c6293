package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/pagination"
	"github.com/aferreira-dev/socialio-backend/pkg/security"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func setupUsersService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	svc, err := NewService(NewRepository(conn), testPasswordConfig())
	require.NoError(t, err)
	return svc, conn
}

func createUser(t *testing.T, conn *gorm.DB, username string) uuid.UUID {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         "user",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user.ID
}

func TestMeReturnsProfileWithoutHash(t *testing.T) {
	svc, conn := setupUsersService(t)
	userID := createUser(t, conn, "casey")

	dto, err := svc.Me(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "casey", dto.Username)
	assert.Equal(t, "casey@example.com", dto.Email)
}

func TestMeUnknownUserNotFound(t *testing.T) {
	svc, _ := setupUsersService(t)

	_, err := svc.Me(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestUpdateProfileAppliesPartialChanges(t *testing.T) {
	svc, conn := setupUsersService(t)
	ctx := context.Background()
	userID := createUser(t, conn, "casey")

	bio := "gopher"
	dto, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, dto.Bio)
	assert.Equal(t, "gopher", *dto.Bio)
	assert.Equal(t, "casey", dto.Username, "untouched fields keep their values")
}

func TestUpdateProfileRehashesPassword(t *testing.T) {
	svc, conn := setupUsersService(t)
	ctx := context.Background()
	userID := createUser(t, conn, "casey")

	password := "new-password"
	_, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{Password: &password})
	require.NoError(t, err)

	var stored models.User
	require.NoError(t, conn.First(&stored, "id = ?", userID).Error)
	assert.NotEqual(t, "x", stored.PasswordHash)
	assert.NotEqual(t, password, stored.PasswordHash)

	ok, err := security.VerifyPassword(password, stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileTakenUsernameConflicts(t *testing.T) {
	svc, conn := setupUsersService(t)
	ctx := context.Background()
	userID := createUser(t, conn, "casey")
	createUser(t, conn, "riley")

	taken := "riley"
	_, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{Username: &taken})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestSearchMatchesUsernameAndEmail(t *testing.T) {
	svc, conn := setupUsersService(t)
	ctx := context.Background()
	createUser(t, conn, "casey")
	createUser(t, conn, "riley")
	createUser(t, conn, "jamie")

	page := pagination.Params{Page: 1, Size: 20}

	items, total, err := svc.Search(ctx, "CASE", page)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "casey", items[0].Username)

	_, total, err = svc.Search(ctx, "example.com", page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "email matches count too")

	_, total, err = svc.Search(ctx, "", page)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "empty query lists everyone")
}
