package role

import (
	"context"
	"errors"
	"log/slog"
)

// RoleService provides methods for role management
type RoleService struct {
	repo RoleRepository
}

func NewRoleService(repo RoleRepository) *RoleService {
	return &RoleService{
		repo: repo,
	}
}

func (s *RoleService) FindRoles(ctx context.Context) ([]Role, error) {
	return s.repo.FindRoles(ctx)
}

// GetSuperAdmin returns the super admin role, or ErrRoleNotFound
func (s *RoleService) GetSuperAdmin(ctx context.Context) (Role, error) {
	return s.repo.GetRoleByCode(ctx, SuperAdminCode)
}

// CreateRole adds a new role
func (s *RoleService) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	if arg.Name == "" {
		return Role{}, ErrEmptyRoleName
	}
	return s.repo.CreateRole(ctx, arg)
}

// EnsureDefaultRoles seeds the super admin, editor and author roles when they
// are missing. The SQL migration does the same for PostgreSQL.
func (s *RoleService) EnsureDefaultRoles(ctx context.Context) error {
	defaults := []CreateRoleParams{
		{Name: "Super Admin", Code: SuperAdminCode, Description: "Super Admins can access and manage all features and settings."},
		{Name: "Editor", Code: EditorCode, Description: "Editors can manage and publish contents including those of other users."},
		{Name: "Author", Code: AuthorCode, Description: "Authors can manage the content they have created."},
	}

	for _, arg := range defaults {
		_, err := s.repo.GetRoleByCode(ctx, arg.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrRoleNotFound) {
			return err
		}
		if _, err := s.repo.CreateRole(ctx, arg); err != nil {
			return err
		}
		slog.Info("Created default role", "code", arg.Code)
	}
	return nil
}
