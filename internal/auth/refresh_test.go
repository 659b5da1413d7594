package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"psms/internal/model"
	"psms/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := model.User{
		Username:     "refresh-" + uuid.NewString()[:8],
		PasswordHash: "irrelevant",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func TestRefreshTokenIssueStoresOnlyHash(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)

	plaintext, err := m.Issue(context.Background(), userID, "test-device")
	require.NoError(t, err)
	require.NotEmpty(t, plaintext)

	var record model.RefreshToken
	require.NoError(t, db.First(&record, "user_id = ?", userID).Error)
	assert.NotEqual(t, plaintext, record.TokenHash)
	assert.Len(t, record.TokenHash, 64) // hex-encoded SHA-256
	assert.Equal(t, "test-device", record.DeviceInfo)
	assert.False(t, record.Revoked)

	assert.True(t, m.Verify(context.Background(), plaintext, userID))
}

func TestRefreshTokenFindActive(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)

	plaintext, err := m.Issue(context.Background(), userID, "")
	require.NoError(t, err)

	record, err := m.FindActive(context.Background(), plaintext)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)

	_, err = m.FindActive(context.Background(), "no-such-token")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefreshTokenExpiredIsInvalid(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, -time.Minute)
	userID := newTestUser(t, db)

	plaintext, err := m.Issue(context.Background(), userID, "")
	require.NoError(t, err)

	_, err = m.FindActive(context.Background(), plaintext)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
	assert.False(t, m.Verify(context.Background(), plaintext, userID))

	_, err = m.Rotate(context.Background(), plaintext, userID, "")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
}

func TestRefreshTokenRotateIsSingleUse(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)
	ctx := context.Background()

	first, err := m.Issue(ctx, userID, "")
	require.NoError(t, err)

	second, err := m.Rotate(ctx, first, userID, "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	// The consumed token is dead in every way.
	_, err = m.FindActive(ctx, first)
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
	_, err = m.Rotate(ctx, first, userID, "")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// The replacement works.
	record, err := m.FindActive(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, userID, record.UserID)
}

func TestRefreshTokenRotateWrongUserFails(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	owner := newTestUser(t, db)
	other := newTestUser(t, db)
	ctx := context.Background()

	plaintext, err := m.Issue(ctx, owner, "")
	require.NoError(t, err)

	_, err = m.Rotate(ctx, plaintext, other, "")
	assert.ErrorIs(t, err, ErrRefreshTokenInvalid)

	// The token is still usable by its owner.
	_, err = m.FindActive(ctx, plaintext)
	assert.NoError(t, err)
}

func TestRefreshTokenRevokeIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)
	ctx := context.Background()

	plaintext, err := m.Issue(ctx, userID, "")
	require.NoError(t, err)

	revoked, err := m.Revoke(ctx, plaintext, userID)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = m.Revoke(ctx, plaintext, userID)
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = m.Revoke(ctx, "never-issued", userID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRefreshTokenRevokeAllForUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)
	bystander := newTestUser(t, db)
	ctx := context.Background()

	first, err := m.Issue(ctx, userID, "laptop")
	require.NoError(t, err)
	second, err := m.Issue(ctx, userID, "phone")
	require.NoError(t, err)
	keep, err := m.Issue(ctx, bystander, "")
	require.NoError(t, err)

	require.NoError(t, m.RevokeAllForUser(ctx, userID))

	assert.False(t, m.Verify(ctx, first, userID))
	assert.False(t, m.Verify(ctx, second, userID))
	assert.True(t, m.Verify(ctx, keep, bystander))
}

func TestRefreshTokenConcurrentRotationHasOneWinner(t *testing.T) {
	db := testutil.NewTestDB(t)
	m := NewRefreshTokenManager(db, time.Hour)
	userID := newTestUser(t, db)
	ctx := context.Background()

	plaintext, err := m.Issue(ctx, userID, "")
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Rotate(ctx, plaintext, userID, "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrRefreshTokenInvalid)
		}
	}
	assert.Equal(t, 1, winners)
}
