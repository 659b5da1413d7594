package middleware

import (
	"errors"
	"net/http"
	"strings"

	"psms/internal/auth"
	"psms/internal/repository"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by the guard for downstream handlers
const (
	CtxUserID      = "userID"
	CtxUserRoles   = "userRoles"
	CtxPermissions = "userPerms"
)

// AuthGuard is the request-time gate: it parses the bearer token, re-checks
// that the subject still resolves to an active principal, and compares the
// required permission codes against the token's embedded permission set.
// Authentication failures are 401; a missing permission on an authenticated
// request is 403.
type AuthGuard struct {
	codec *auth.TokenCodec
	users repository.UserRepository
}

func NewAuthGuard(codec *auth.TokenCodec, users repository.UserRepository) *AuthGuard {
	return &AuthGuard{codec: codec, users: users}
}

// extractToken reads the access token from the cookie first, falling back to
// the Authorization header.
func extractToken(c *gin.Context) (string, bool) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, true
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// authenticate runs the shared token + active-principal checks. Expired and
// malformed tokens collapse into one unauthenticated response so the reply
// does not reveal which check failed.
func (g *AuthGuard) authenticate(c *gin.Context) (*auth.AccessClaims, bool) {
	tokenString, ok := extractToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return nil, false
	}

	claims, err := g.codec.Parse(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired token"))
		return nil, false
	}

	userID, err := claims.UserID()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired token"))
		return nil, false
	}

	// Active status is re-checked against the store, never trusted from the
	// token: deactivation takes effect immediately even for unexpired tokens.
	user, err := g.users.GetByID(c.Request.Context(), userID)
	if err != nil || !user.IsActive {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid or expired token"))
		return nil, false
	}

	c.Set(CtxUserID, userID)
	c.Set(CtxUserRoles, claims.Roles)
	c.Set(CtxPermissions, claims.Permissions)

	return claims, true
}

// RequireAuth admits any request carrying a valid token for an active user.
func (g *AuthGuard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := g.authenticate(c); !ok {
			return
		}
		c.Next()
	}
}

// RequirePermission admits only requests whose token carries every listed
// permission code. The embedded permission set was resolved at token
// issuance; grants made since then take effect on the next login/refresh.
func (g *AuthGuard) RequirePermission(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := g.authenticate(c)
		if !ok {
			return
		}

		for _, code := range codes {
			if !claims.HasPermission(code) {
				c.AbortWithStatusJSON(http.StatusForbidden,
					response.Error(http.StatusForbidden, "Access denied: missing permission '"+code+"'"))
				return
			}
		}

		c.Next()
	}
}

// ErrNoUserInContext is returned when a handler asks for the acting user on
// an unguarded route.
var ErrNoUserInContext = errors.New("no authenticated user in context")

// CurrentUserID returns the authenticated principal id set by the guard.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		return uuid.Nil, ErrNoUserInContext
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrNoUserInContext
	}
	return id, nil
}
