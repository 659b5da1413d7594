package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"psms/internal/auth"
	"psms/internal/model"
	"psms/internal/repository"
	"psms/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type guardFixture struct {
	db    *gorm.DB
	codec *auth.TokenCodec
	guard *AuthGuard
	r     *gin.Engine
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	codec := auth.NewTokenCodec([]byte("guard-test-secret"), time.Minute)
	guard := NewAuthGuard(codec, repository.NewUserRepository(db))

	r := gin.New()
	r.GET("/any", guard.RequireAuth(), func(c *gin.Context) {
		id, err := CurrentUserID(c)
		require.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"user_id": id.String()})
	})
	r.GET("/guarded", guard.RequirePermission("household.view"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return &guardFixture{db: db, codec: codec, guard: guard, r: r}
}

func (f *guardFixture) createUser(t *testing.T, active bool) uuid.UUID {
	t.Helper()
	user := model.User{
		Username:     "guard-" + uuid.NewString()[:8],
		PasswordHash: "irrelevant",
		IsActive:     active,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user.ID
}

func (f *guardFixture) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)
	return w
}

func TestGuardRejectsMissingToken(t *testing.T) {
	f := newGuardFixture(t)

	w := f.get("/any", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization is missing")
}

func TestGuardRejectsMalformedAndExpiredAlike(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.createUser(t, true)

	expiredCodec := auth.NewTokenCodec([]byte("guard-test-secret"), -time.Minute)
	expired, err := expiredCodec.Issue(userID, nil, nil)
	require.NoError(t, err)

	for _, token := range []string{"garbage", expired} {
		w := f.get("/any", token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	}
}

func TestGuardAdmitsValidTokenAndSetsContext(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.createUser(t, true)

	token, err := f.codec.Issue(userID, []string{"citizen"}, nil)
	require.NoError(t, err)

	w := f.get("/any", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestGuardReChecksActiveFlagPerRequest(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.createUser(t, true)

	token, err := f.codec.Issue(userID, nil, []string{"household.view"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, f.get("/guarded", token).Code)

	// Deactivation kills the unexpired token immediately.
	require.NoError(t, f.db.Model(&model.User{}).
		Where("id = ?", userID).Update("is_active", false).Error)

	w := f.get("/guarded", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestGuardPermissionCheck(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.createUser(t, true)

	without, err := f.codec.Issue(userID, nil, []string{"complaint.create"})
	require.NoError(t, err)
	with, err := f.codec.Issue(userID, nil, []string{"complaint.create", "household.view"})
	require.NoError(t, err)

	w := f.get("/guarded", without)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "missing permission 'household.view'")

	assert.Equal(t, http.StatusOK, f.get("/guarded", with).Code)
}

func TestGuardReadsTokenFromCookie(t *testing.T) {
	f := newGuardFixture(t)
	userID := f.createUser(t, true)

	token, err := f.codec.Issue(userID, nil, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	w := httptest.NewRecorder()
	f.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
