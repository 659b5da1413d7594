package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("unit-test-secret")

func TestTokenCodecRoundtrip(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Minute)
	userID := uuid.New()

	token, err := codec.Issue(userID, []string{"leader"}, []string{"person.view", "household.view"})
	require.NoError(t, err)

	claims, err := codec.Parse(token)
	require.NoError(t, err)

	parsedID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, []string{"leader"}, claims.Roles)
	assert.True(t, claims.HasPermission("person.view"))
	assert.True(t, claims.HasPermission("household.view"))
	assert.False(t, claims.HasPermission("user.manage"))
}

func TestTokenCodecSortsClaims(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Minute)

	token, err := codec.Issue(uuid.New(),
		[]string{"leader", "admin", "citizen"},
		[]string{"z.perm", "a.perm", "m.perm"})
	require.NoError(t, err)

	claims, err := codec.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "citizen", "leader"}, claims.Roles)
	assert.Equal(t, []string{"a.perm", "m.perm", "z.perm"}, claims.Permissions)
}

func TestTokenCodecIssueDoesNotMutateInput(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Minute)
	perms := []string{"z.perm", "a.perm"}

	_, err := codec.Issue(uuid.New(), nil, perms)
	require.NoError(t, err)
	assert.Equal(t, []string{"z.perm", "a.perm"}, perms)
}

func TestTokenCodecRejectsExpired(t *testing.T) {
	codec := NewTokenCodec(testSecret, -time.Minute)

	token, err := codec.Issue(uuid.New(), nil, nil)
	require.NoError(t, err)

	_, err = codec.Parse(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodecRejectsTampered(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Minute)

	token, err := codec.Issue(uuid.New(), nil, nil)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = codec.Parse(tampered)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodecRejectsWrongKey(t *testing.T) {
	issuer := NewTokenCodec(testSecret, time.Minute)
	verifier := NewTokenCodec([]byte("a different key"), time.Minute)

	token, err := issuer.Issue(uuid.New(), nil, nil)
	require.NoError(t, err)

	_, err = verifier.Parse(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodecRejectsGarbage(t *testing.T) {
	codec := NewTokenCodec(testSecret, time.Minute)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := codec.Parse(input)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", input)
	}
}
