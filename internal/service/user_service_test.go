package service

import (
	"context"
	"testing"

	"psms/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *authFixture) roleID(t *testing.T, name string) string {
	t.Helper()
	role, err := f.roles.FindByName(context.Background(), name)
	require.NoError(t, err)
	return role.ID.String()
}

func TestCreateUserWithRoles(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.user.CreateUser(context.Background(), CreateUserRequest{
		Username: "leader1",
		Password: "password123",
		FullName: "Tran Van B",
		RoleIDs:  []string{f.roleID(t, model.RoleLeader)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleLeader}, user.Roles)
	assert.True(t, user.IsActive)
}

func TestSetUserRolesIsTotalReplace(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.user.CreateUser(ctx, CreateUserRequest{
		Username: "citizen1",
		Password: "password123",
		RoleIDs:  []string{f.roleID(t, model.RoleCitizen)},
	})
	require.NoError(t, err)

	// Replace, not merge: the citizen role must be gone afterwards.
	updated, err := f.user.SetUserRoles(ctx, user.ID.String(), SetUserRolesRequest{
		RoleIDs: []string{f.roleID(t, model.RoleLeader)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleLeader}, updated.Roles)

	// Empty set clears every role.
	cleared, err := f.user.SetUserRoles(ctx, user.ID.String(), SetUserRolesRequest{RoleIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.Roles)

	perms, err := f.roles.EffectivePermissions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestDeactivateUserKeepsTheRow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.user.CreateUser(ctx, CreateUserRequest{
		Username: "citizen2",
		Password: "password123",
	})
	require.NoError(t, err)

	require.NoError(t, f.user.DeactivateUser(ctx, user.ID.String()))

	// Deactivation is not deletion.
	reloaded, err := f.user.GetUserByID(ctx, user.ID.String())
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)
	assert.Equal(t, "citizen2", reloaded.Username)
}

func TestUpdateUserLeavesBlankFieldsUntouched(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.user.CreateUser(ctx, CreateUserRequest{
		Username: "citizen3",
		Password: "password123",
		FullName: "Original Name",
		Email:    "original@example.com",
	})
	require.NoError(t, err)

	updated, err := f.user.UpdateUser(ctx, user.ID.String(), UpdateUserRequest{
		Phone: "0123456789",
	})
	require.NoError(t, err)
	assert.Equal(t, "0123456789", updated.Phone)
	assert.Equal(t, "Original Name", updated.FullName)
	assert.Equal(t, "original@example.com", updated.Email)
}
