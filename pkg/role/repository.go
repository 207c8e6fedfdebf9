package role

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	SuperAdminCode = "strapi-super-admin"
	EditorCode     = "strapi-editor"
	AuthorCode     = "strapi-author"
)

var (
	ErrEmptyRoleName = errors.New("role name cannot be empty")
	ErrRoleNotFound  = errors.New("role not found")
)

// Role is an admin role
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CreateRoleParams holds the fields of a new role
type CreateRoleParams struct {
	Name        string
	Code        string
	Description string
}

// RoleRepository defines the storage operations for admin roles
type RoleRepository interface {
	FindRoles(ctx context.Context) ([]Role, error)
	GetRoleById(ctx context.Context, id uuid.UUID) (Role, error)
	GetRoleByCode(ctx context.Context, code string) (Role, error)
	CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error)
}
