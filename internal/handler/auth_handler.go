package handler

import (
	"errors"
	"net/http"
	"time"

	"psms/internal/auth"
	"psms/internal/middleware"
	"psms/internal/service"
	"psms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	guard       *middleware.AuthGuard
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewAuthHandler sets up the routing dependencies for auth endpoints
func NewAuthHandler(authService service.AuthService, userService service.UserService, guard *middleware.AuthGuard, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		guard:       guard,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.guard.RequireAuth(), h.GetMe)
	}
}

// authErrorStatus maps credential-flow errors onto HTTP statuses. Anything
// outside the known sentinels is a 500 with a generic message.
func authErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden, "Account is disabled"
	case errors.Is(err, auth.ErrRefreshTokenInvalid):
		return http.StatusUnauthorized, "Invalid or expired refresh token"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// Register handles POST /auth/register for citizen self-service signup
// @Summary      Register account
// @Description  Creates a new account with the default citizen role
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login handles POST /auth/login to authenticate and return a token pair
// @Summary      Login
// @Description  Authenticates by username and password, returning an access token and a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenPairResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	pair, err := h.authService.Login(c.Request.Context(), req, c.Request.UserAgent())
	if err != nil {
		status, msg := authErrorStatus(err)
		c.JSON(status, response.Error(status, msg))
		return
	}

	middleware.SetTokenCookies(c, pair.AccessToken, pair.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pair))
}

// Refresh handles POST /auth/refresh to rotate the refresh token
// @Summary      Refresh tokens
// @Description  Rotates a valid refresh token into a new access/refresh pair; the presented token is revoked
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh Token (optional when the cookie is set)"
// @Success      200      {object}  response.Response{data=service.TokenPairResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, ok := h.extractRefreshToken(c)
	if !ok {
		return
	}

	pair, err := h.authService.Refresh(c.Request.Context(), refreshToken, c.Request.UserAgent())
	if err != nil {
		status, msg := authErrorStatus(err)
		c.JSON(status, response.Error(status, msg))
		return
	}

	middleware.SetTokenCookies(c, pair.AccessToken, pair.RefreshToken, h.accessTTL, h.refreshTTL)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, pair))
}

// Logout handles POST /auth/logout: revokes the refresh token and clears cookies
// @Summary      Logout
// @Description  Revokes the presented refresh token; revoking an unknown token is a no-op
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshTokenRequest  false  "Refresh Token (optional when the cookie is set)"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, ok := h.extractRefreshToken(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}

	middleware.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Logged out"))
}

// extractRefreshToken reads the refresh token from the cookie first, falling
// back to the JSON body. On failure it writes the 400 itself.
func (h *AuthHandler) extractRefreshToken(c *gin.Context) (string, bool) {
	if token, err := c.Cookie("refresh_token"); err == nil && token != "" {
		return token, true
	}

	var req service.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing refresh token"))
		return "", false
	}
	return req.RefreshToken, true
}

// GetMe handles GET /auth/me for the authenticated principal
// @Summary      Get current user
// @Description  Returns the authenticated user together with the roles and permissions embedded in the presented token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=object}
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID.String())
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	roles, _ := c.Get(middleware.CtxUserRoles)
	perms, _ := c.Get(middleware.CtxPermissions)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"user":        user,
		"roles":       roles,
		"permissions": perms,
	}))
}
