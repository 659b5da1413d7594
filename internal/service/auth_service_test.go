package service

import (
	"context"
	"testing"
	"time"

	"psms/internal/auth"
	"psms/internal/model"
	"psms/internal/repository"
	"psms/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type authFixture struct {
	db      *gorm.DB
	users   repository.UserRepository
	roles   repository.RoleRepository
	tx      repository.TransactionManager
	hasher  *auth.PasswordHasher
	codec   *auth.TokenCodec
	refresh *auth.RefreshTokenManager
	auth    AuthService
	user    UserService
	role    RoleService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewTestDB(t)

	f := &authFixture{
		db:      db,
		users:   repository.NewUserRepository(db),
		roles:   repository.NewRoleRepository(db),
		tx:      repository.NewTransactionManager(db),
		hasher:  auth.NewPasswordHasher(bcrypt.MinCost),
		codec:   auth.NewTokenCodec([]byte("service-test-secret"), time.Minute),
		refresh: auth.NewRefreshTokenManager(db, time.Hour),
	}
	f.auth = NewAuthService(f.users, f.roles, f.hasher, f.codec, f.refresh)
	f.user = NewUserService(f.users, f.tx, f.hasher, f.refresh)
	f.role = NewRoleService(db, f.roles, f.hasher)

	require.NoError(t, f.role.SeedDefaults(context.Background(), "admin123"))
	return f
}

func (f *authFixture) register(t *testing.T, username, password string) *UserResponse {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterRequest{
		Username: username,
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterAssignsCitizenRole(t *testing.T) {
	f := newAuthFixture(t)

	user := f.register(t, "nguyen", "password123")
	assert.Equal(t, []string{model.RoleCitizen}, user.Roles)
	assert.True(t, user.IsActive)

	_, err := f.auth.Register(context.Background(), RegisterRequest{
		Username: "nguyen",
		Password: "password123",
	})
	assert.EqualError(t, err, "username already exists")
}

func TestLoginReturnsTokenPairWithResolvedClaims(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "nguyen", "password123")

	pair, err := f.auth.Login(context.Background(), LoginRequest{
		Username: "nguyen",
		Password: "password123",
	}, "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(60), pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := f.codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleCitizen}, claims.Roles)
	assert.Equal(t,
		[]string{"complaint.create", "temp_absence.create", "temp_residence.create"},
		claims.Permissions)
}

func TestLoginCollapsesUnknownUserAndWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "nguyen", "password123")

	_, err := f.auth.Login(context.Background(), LoginRequest{
		Username: "nguyen",
		Password: "wrong password",
	}, "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = f.auth.Login(context.Background(), LoginRequest{
		Username: "nobody",
		Password: "password123",
	}, "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginUsernameIsCaseSensitive(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "Nguyen", "password123")

	_, err := f.auth.Login(context.Background(), LoginRequest{
		Username: "nguyen",
		Password: "password123",
	}, "")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	f := newAuthFixture(t)
	created := f.register(t, "nguyen", "password123")

	require.NoError(t, f.user.DeactivateUser(context.Background(), created.ID.String()))

	_, err := f.auth.Login(context.Background(), LoginRequest{
		Username: "nguyen",
		Password: "password123",
	}, "")
	assert.ErrorIs(t, err, auth.ErrAccountDisabled)
}

func TestRefreshRotatesAndInvalidatesOldToken(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "nguyen", "password123")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, LoginRequest{Username: "nguyen", Password: "password123"}, "")
	require.NoError(t, err)

	next, err := f.auth.Refresh(ctx, pair.RefreshToken, "")
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The consumed refresh token is single-use.
	_, err = f.auth.Refresh(ctx, pair.RefreshToken, "")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenInvalid)

	// The replacement still works.
	_, err = f.auth.Refresh(ctx, next.RefreshToken, "")
	assert.NoError(t, err)
}

func TestRefreshRejectsDeactivatedUser(t *testing.T) {
	f := newAuthFixture(t)
	created := f.register(t, "nguyen", "password123")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, LoginRequest{Username: "nguyen", Password: "password123"}, "")
	require.NoError(t, err)

	require.NoError(t, f.user.DeactivateUser(ctx, created.ID.String()))

	// Deactivation revoked the refresh token outright.
	_, err = f.auth.Refresh(ctx, pair.RefreshToken, "")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenInvalid)
}

func TestLogoutRevokesAndIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "nguyen", "password123")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, LoginRequest{Username: "nguyen", Password: "password123"}, "")
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, pair.RefreshToken))

	_, err = f.auth.Refresh(ctx, pair.RefreshToken, "")
	assert.ErrorIs(t, err, auth.ErrRefreshTokenInvalid)

	// Logging out twice, or with a never-issued token, is not an error.
	assert.NoError(t, f.auth.Logout(ctx, pair.RefreshToken))
	assert.NoError(t, f.auth.Logout(ctx, "never-issued"))
}

func TestPermissionsResolveAtIssuanceNotRetroactively(t *testing.T) {
	f := newAuthFixture(t)
	created := f.register(t, "nguyen", "password123")
	ctx := context.Background()

	pair, err := f.auth.Login(ctx, LoginRequest{Username: "nguyen", Password: "password123"}, "")
	require.NoError(t, err)

	before, err := f.codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, before.HasPermission("household.view"))

	// Promote to leader.
	leader, err := f.roles.FindByName(ctx, model.RoleLeader)
	require.NoError(t, err)
	require.NoError(t, f.users.SetRoles(ctx, created.ID, []uuid.UUID{leader.ID}))

	// The outstanding token is unchanged; the grant lands on refresh.
	unchanged, err := f.codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.False(t, unchanged.HasPermission("household.view"))

	next, err := f.auth.Refresh(ctx, pair.RefreshToken, "")
	require.NoError(t, err)

	after, err := f.codec.Parse(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleLeader}, after.Roles)
	assert.True(t, after.HasPermission("household.view"))
	assert.True(t, after.HasPermission("temp_absence.approve"))
	assert.False(t, after.HasPermission("user.manage"))
}

func TestSeededAdminCanLoginWithAllPermissions(t *testing.T) {
	f := newAuthFixture(t)

	pair, err := f.auth.Login(context.Background(), LoginRequest{
		Username: "admin",
		Password: "admin123",
	}, "")
	require.NoError(t, err)

	claims, err := f.codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleAdmin}, claims.Roles)
	assert.True(t, claims.HasPermission("user.manage"))
	assert.True(t, claims.HasPermission("report.statistics"))
	assert.Len(t, claims.Permissions, 15)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.role.SeedDefaults(ctx, "admin123"))

	var permCount, roleCount, adminCount int64
	require.NoError(t, f.db.Model(&model.Permission{}).Count(&permCount).Error)
	require.NoError(t, f.db.Model(&model.Role{}).Count(&roleCount).Error)
	require.NoError(t, f.db.Model(&model.User{}).Where("username = ?", "admin").Count(&adminCount).Error)

	assert.Equal(t, int64(15), permCount)
	assert.Equal(t, int64(3), roleCount)
	assert.Equal(t, int64(1), adminCount)
}
