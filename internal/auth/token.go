package auth

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessClaims is the fixed-shape claim set embedded in every access token:
// subject id, sorted role names, sorted permission codes and the registered
// expiry. Access tokens are stateless and not individually revocable — the
// TTL is the only compromise-window control.
type AccessClaims struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the principal id.
func (c *AccessClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// HasPermission reports whether the embedded permission set contains code.
func (c *AccessClaims) HasPermission(code string) bool {
	return slices.Contains(c.Permissions, code)
}

// TokenCodec builds and parses HS256-signed access tokens with a server-held
// symmetric key.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: secret, ttl: ttl}
}

// TTL returns the configured access-token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue mints a signed token for userID carrying the given role names and
// permission codes. Both claim slices are sorted before embedding so payloads
// are deterministic for identical inputs.
func (c *TokenCodec) Issue(userID uuid.UUID, roles, permissions []string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		Roles:       sortedCopy(roles),
		Permissions: sortedCopy(permissions),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Parse verifies signature and expiry and returns the claims. On any failure
// — bad signature, malformed structure, wrong algorithm, expired — it returns
// ErrTokenExpired or ErrTokenInvalid and never a partially decoded payload.
func (c *TokenCodec) Parse(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func sortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	slices.Sort(out)
	return out
}
