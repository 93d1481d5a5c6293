package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aferreira-dev/socialio-backend/internal/users"
	pkgauth "github.com/aferreira-dev/socialio-backend/pkg/auth"
	"github.com/aferreira-dev/socialio-backend/pkg/config"
	"github.com/aferreira-dev/socialio-backend/pkg/db"
	"github.com/aferreira-dev/socialio-backend/pkg/db/models"
	pkgerrors "github.com/aferreira-dev/socialio-backend/pkg/errors"
	"github.com/aferreira-dev/socialio-backend/pkg/events"
)

type fakePublisher struct {
	events  []events.Event
	emitErr error
}

func (f *fakePublisher) Emit(_ context.Context, tx *gorm.DB, event events.Event) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	if tx == nil {
		return errors.New("emit outside transaction")
	}
	f.events = append(f.events, event)
	return nil
}

func testConfigs() (config.PasswordConfig, config.JWTConfig) {
	passwordCfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	jwtCfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "socialio",
		ExpirationMinutes: 30,
		RefreshExpMinutes: 60,
	}
	return passwordCfg, jwtCfg
}

func setupAuthService(t *testing.T) (Service, *gorm.DB, *fakePublisher) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))

	publisher := &fakePublisher{}
	passwordCfg, jwtCfg := testConfigs()
	svc, err := NewService(db.NewWithConn(conn), users.NewRepository(conn), publisher, passwordCfg, jwtCfg)
	require.NoError(t, err)
	return svc, conn, publisher
}

func TestRegisterCreatesUserAndQueuesEvent(t *testing.T) {
	svc, conn, publisher := setupAuthService(t)

	pair, user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "casey@example.com",
		Username: "casey",
		Password: "super-secret",
	})
	require.NoError(t, err)
	require.NotNil(t, pair)
	require.NotNil(t, user)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "user", user.Role)

	var stored models.User
	require.NoError(t, conn.First(&stored, "username = ?", "casey").Error)
	assert.NotEqual(t, "super-secret", stored.PasswordHash)

	require.Len(t, publisher.events, 1)
	created, ok := publisher.events[0].(events.UserCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, stored.ID, created.EventID, "event id must be the user id")
	assert.Equal(t, "casey", created.User.Username)
}

func TestRegisterRollsBackWhenEmitFails(t *testing.T) {
	svc, conn, publisher := setupAuthService(t)
	publisher.emitErr = errors.New("outbox unavailable")

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "casey@example.com",
		Username: "casey",
		Password: "super-secret",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "user row must not survive a failed emit")
}

func TestRegisterDuplicateConflicts(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	input := RegisterInput{Email: "casey@example.com", Username: "casey", Password: "super-secret"}
	_, _, err := svc.Register(ctx, input)
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConflict, appErr.Code())
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Email: "not-an-email", Username: "casey", Password: "super-secret"},
		{Email: "casey@example.com", Username: "  ", Password: "super-secret"},
		{Email: "casey@example.com", Username: "casey", Password: "short"},
	}
	for _, input := range cases {
		_, _, err := svc.Register(ctx, input)
		require.Error(t, err)
		appErr := pkgerrors.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestLoginVerifiesCredentials(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "casey@example.com", Username: "casey", Password: "super-secret"})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, LoginInput{Username: "casey", Password: "super-secret"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)

	_, err = svc.Login(ctx, LoginInput{Username: "casey", Password: "wrong-password"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "super-secret"})
	require.Error(t, err)
	appErr = pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code(), "unknown users look like bad credentials")
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	svc, conn, _ := setupAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterInput{Email: "casey@example.com", Username: "casey", Password: "super-secret"})
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.User{}).Where("username = ?", "casey").Update("is_active", false).Error)

	_, err = svc.Login(ctx, LoginInput{Username: "casey", Password: "super-secret"})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeForbidden, appErr.Code())
}

func TestRefreshRotatesPair(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	pair, _, err := svc.Register(ctx, RegisterInput{Email: "casey@example.com", Username: "casey", Password: "super-secret"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, rotated.AccessToken)

	_, jwtCfg := testConfigs()
	claims, err := pkgauth.ParseAccessToken(jwtCfg, rotated.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "casey", claims.Username)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := setupAuthService(t)
	ctx := context.Background()

	pair, _, err := svc.Register(ctx, RegisterInput{Email: "casey@example.com", Username: "casey", Password: "super-secret"})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}
