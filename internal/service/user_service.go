package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"psms/internal/auth"
	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Password string   `json:"password" binding:"required,min=8"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email" binding:"omitempty,email"`
	Phone    string   `json:"phone"`
	RoleIDs  []string `json:"role_ids"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name"`
}

type SetUserRolesRequest struct {
	RoleIDs []string `json:"role_ids" binding:"required"`
}

// DTO for returning User without exposing sensitive data
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// UserService defines the interface for administrative user management
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeactivateUser(ctx context.Context, id string) error
	SetUserRoles(ctx context.Context, id string, req SetUserRolesRequest) (*UserResponse, error)
}

type userService struct {
	repo    repository.UserRepository
	tx      repository.TransactionManager
	hasher  *auth.PasswordHasher
	refresh *auth.RefreshTokenManager
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tx repository.TransactionManager, hasher *auth.PasswordHasher, refresh *auth.RefreshTokenManager) UserService {
	return &userService{repo: repo, tx: tx, hasher: hasher, refresh: refresh}
}

// Helper: parse model to standard json API response
func mapUserToResponse(user *model.User) *UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		Roles:     roles,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, errors.New("username already exists")
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	roleIDs, err := parseUUIDs(req.RoleIDs)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		FullName:     req.FullName,
		PasswordHash: digest,
		IsActive:     true,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		if len(roleIDs) > 0 {
			return s.repo.SetRoles(txCtx, user.ID, roleIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, user.ID.String())
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return mapUserToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapUserToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.FullName != "" {
		user.FullName = req.FullName
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.GetUserByID(ctx, id)
}

// DeactivateUser disables the account and revokes its active refresh tokens.
// Outstanding access tokens die at the guard's per-request active re-check.
func (s *userService) DeactivateUser(ctx context.Context, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return errors.New("user not found")
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Deactivate(txCtx, userID); err != nil {
			return err
		}
		return s.refresh.RevokeAllForUser(txCtx, userID)
	})
}

// SetUserRoles replaces the user's role set in full; callers must send the
// complete desired set, not a diff.
func (s *userService) SetUserRoles(ctx context.Context, id string, req SetUserRolesRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	if _, err := s.repo.GetByID(ctx, userID); err != nil {
		return nil, errors.New("user not found")
	}

	roleIDs, err := parseUUIDs(req.RoleIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetRoles(ctx, userID, roleIDs); err != nil {
		return nil, fmt.Errorf("failed to set roles: %w", err)
	}
	return s.GetUserByID(ctx, id)
}

func parseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		parsed, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid id '%s': %w", s, err)
		}
		out = append(out, parsed)
	}
	return out, nil
}
