package service

import (
	"context"
	"errors"
	"fmt"

	"psms/internal/auth"
	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPairResponse carries the short-lived access token and the opaque
// refresh token returned on login and refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expiry
}

// --- Interface ---

// AuthService is the entry point route handlers call for every credential
// operation: registration, login, refresh-token rotation and logout.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest, deviceInfo string) (*TokenPairResponse, error)
	Refresh(ctx context.Context, refreshToken, deviceInfo string) (*TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type authService struct {
	users   repository.UserRepository
	roles   repository.RoleRepository
	hasher  *auth.PasswordHasher
	codec   *auth.TokenCodec
	refresh *auth.RefreshTokenManager
}

func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	hasher *auth.PasswordHasher,
	codec *auth.TokenCodec,
	refresh *auth.RefreshTokenManager,
) AuthService {
	return &authService{users: users, roles: roles, hasher: hasher, codec: codec, refresh: refresh}
}

// --- Implementation ---

// Register creates a user with the default citizen role. It is the only
// self-service write exempt from permission checks.
func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if len(req.Password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, errors.New("username already exists")
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		FullName:     req.FullName,
		PasswordHash: digest,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Default role; skip silently if the seed has not run yet
	if citizen, roleErr := s.roles.FindByName(ctx, model.RoleCitizen); roleErr == nil {
		if err := s.users.SetRoles(ctx, user.ID, []uuid.UUID{citizen.ID}); err != nil {
			return nil, fmt.Errorf("failed to assign default role: %w", err)
		}
	}

	created, err := s.users.GetByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}
	return mapUserToResponse(created), nil
}

// Login authenticates by username and password and returns a fresh token
// pair. Unknown user and wrong password collapse into the same error so
// responses cannot enumerate accounts.
func (s *authService) Login(ctx context.Context, req LoginRequest, deviceInfo string) (*TokenPairResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	return s.issuePair(ctx, user, deviceInfo, "")
}

// Refresh validates and rotates the presented refresh token and returns a new
// pair. The acting principal is derived from the stored token row, never from
// caller-supplied identity. Rotation is atomic: concurrent attempts on the
// same token produce exactly one winner.
func (s *authService) Refresh(ctx context.Context, refreshToken, deviceInfo string) (*TokenPairResponse, error) {
	record, err := s.refresh.FindActive(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrRefreshTokenInvalid
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	return s.issuePair(ctx, user, deviceInfo, refreshToken)
}

// Logout revokes the presented refresh token. Revoking an already-revoked or
// unknown token is a no-op.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.refresh.FindActive(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshTokenInvalid) {
			return nil
		}
		return err
	}

	_, err = s.refresh.Revoke(ctx, refreshToken, record.UserID)
	return err
}

// issuePair resolves roles and permissions fresh from the store, mints an
// access token embedding them, and issues (or rotates onto) a refresh token.
// Resolving at issuance means role changes take effect on the next token, not
// retroactively on tokens already outstanding.
func (s *authService) issuePair(ctx context.Context, user *model.User, deviceInfo, rotateFrom string) (*TokenPairResponse, error) {
	roleNames, err := s.roles.RoleNames(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve roles: %w", err)
	}
	perms, err := s.roles.EffectivePermissions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}

	accessToken, err := s.codec.Issue(user.ID, roleNames, perms)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	var refreshPlaintext string
	if rotateFrom == "" {
		refreshPlaintext, err = s.refresh.Issue(ctx, user.ID, deviceInfo)
	} else {
		refreshPlaintext, err = s.refresh.Rotate(ctx, rotateFrom, user.ID, deviceInfo)
	}
	if err != nil {
		return nil, err
	}

	return &TokenPairResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshPlaintext,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.TTL().Seconds()),
	}, nil
}
