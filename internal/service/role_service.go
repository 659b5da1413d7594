package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"psms/internal/auth"
	"psms/internal/model"
	"psms/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SeedDefaults(ctx context.Context, adminPassword string) error
}

type roleService struct {
	db     *gorm.DB
	repo   repository.RoleRepository
	hasher *auth.PasswordHasher
}

func NewRoleService(db *gorm.DB, repo repository.RoleRepository, hasher *auth.PasswordHasher) RoleService {
	return &roleService{db: db, repo: repo, hasher: hasher}
}

// --- Implementation ---

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}
	return RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	permIDs, err := parseUUIDs(req.Permissions)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role: %w", err)
		}

		if len(permIDs) > 0 {
			var perms []model.Permission
			if err := tx.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
				return fmt.Errorf("failed to fetch permissions: %w", err)
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("role not found: %w", err)
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return s.GetRole(ctx, id)
}

func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	roleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid role id: %w", err)
	}

	role, err := s.repo.FindByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("role not found: %w", err)
	}
	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s'", role.Name)
	}

	// Clear associations before deleting
	if err := s.db.WithContext(ctx).Model(role).Association("Permissions").Clear(); err != nil {
		return fmt.Errorf("failed to clear permissions: %w", err)
	}
	if err := s.repo.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	id, err := uuid.Parse(roleID)
	if err != nil {
		return nil, fmt.Errorf("invalid role id: %w", err)
	}

	permIDs, err := parseUUIDs(req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplacePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}
	return s.GetRole(ctx, roleID)
}

// SeedDefaults creates the permission vocabulary, the three well-known roles
// and an initial admin account. It is idempotent — existing rows are left
// untouched.
func (s *roleService) SeedDefaults(ctx context.Context, adminPassword string) error {
	defaultPermissions := []model.Permission{
		{Code: "user.manage", Name: "Manage users and roles", Group: "users"},
		{Code: "household.view", Name: "View households", Group: "household"},
		{Code: "household.create", Name: "Create households", Group: "household"},
		{Code: "household.split", Name: "Split household", Group: "household"},
		{Code: "person.view", Name: "View persons", Group: "person"},
		{Code: "person.create", Name: "Create person", Group: "person"},
		{Code: "person.update", Name: "Update person", Group: "person"},
		{Code: "temp_absence.create", Name: "Create temp absence", Group: "temp"},
		{Code: "temp_absence.approve", Name: "Approve temp absence", Group: "temp"},
		{Code: "temp_residence.create", Name: "Create temp residence", Group: "temp"},
		{Code: "temp_residence.approve", Name: "Approve temp residence", Group: "temp"},
		{Code: "complaint.create", Name: "Create complaint", Group: "complaint"},
		{Code: "complaint.view", Name: "View complaint", Group: "complaint"},
		{Code: "complaint.update_status", Name: "Update complaint status", Group: "complaint"},
		{Code: "report.statistics", Name: "View reports", Group: "report"},
	}

	leaderCodes := []string{
		"household.view", "household.create", "household.split",
		"person.view", "person.create", "person.update",
		"temp_absence.create", "temp_absence.approve",
		"temp_residence.create", "temp_residence.approve",
		"complaint.view", "complaint.update_status",
		"report.statistics",
	}
	citizenCodes := []string{
		"complaint.create", "temp_absence.create", "temp_residence.create",
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range defaultPermissions {
			if err := tx.Where("code = ?", defaultPermissions[i].Code).
				FirstOrCreate(&defaultPermissions[i]).Error; err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", defaultPermissions[i].Code, err)
			}
		}

		byCode := make(map[string]model.Permission, len(defaultPermissions))
		allIDs := make([]uuid.UUID, 0, len(defaultPermissions))
		for _, p := range defaultPermissions {
			byCode[p.Code] = p
			allIDs = append(allIDs, p.ID)
		}

		seedRole := func(name, description string, permIDs []uuid.UUID) (*model.Role, error) {
			role := model.Role{Name: name, Description: description, IsSystem: true}
			if err := tx.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
				return nil, fmt.Errorf("failed to seed role '%s': %w", name, err)
			}

			var perms []model.Permission
			if err := tx.Where("id IN ?", permIDs).Find(&perms).Error; err != nil {
				return nil, err
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return nil, fmt.Errorf("failed to assign permissions to '%s': %w", name, err)
			}
			return &role, nil
		}

		codesToIDs := func(codes []string) []uuid.UUID {
			ids := make([]uuid.UUID, 0, len(codes))
			for _, c := range codes {
				ids = append(ids, byCode[c].ID)
			}
			return ids
		}

		adminRole, err := seedRole(model.RoleAdmin, "System administrator", allIDs)
		if err != nil {
			return err
		}
		if _, err := seedRole(model.RoleLeader, "Neighborhood leader", codesToIDs(leaderCodes)); err != nil {
			return err
		}
		if _, err := seedRole(model.RoleCitizen, "Citizen", codesToIDs(citizenCodes)); err != nil {
			return err
		}

		// Initial admin account
		var count int64
		if err := tx.Model(&model.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			digest, hashErr := s.hasher.Hash(adminPassword)
			if hashErr != nil {
				return fmt.Errorf("failed to hash admin password: %w", hashErr)
			}
			admin := model.User{
				Username:     "admin",
				FullName:     "Administrator",
				PasswordHash: digest,
				IsActive:     true,
			}
			if err := tx.Create(&admin).Error; err != nil {
				return fmt.Errorf("failed to create admin user: %w", err)
			}
			if err := tx.Model(&admin).Association("Roles").Replace([]model.Role{*adminRole}); err != nil {
				return fmt.Errorf("failed to assign admin role: %w", err)
			}
			log.Println("Seeded initial admin account")
		}

		return nil
	})
}
