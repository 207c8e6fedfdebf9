package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

// CreateUserParams holds the fields of a new admin user. Password must
// already be hashed.
type CreateUserParams struct {
	Firstname         string
	Lastname          string
	Username          string
	Email             string
	Password          string
	IsActive          bool
	RegistrationToken string
	Roles             []role.Role
}

// UserRepository defines the storage operations for admin users
type UserRepository interface {
	CreateUser(ctx context.Context, arg CreateUserParams) (AdminUser, error)
	// UpdateUser persists the scalar fields of u. Roles are not touched.
	UpdateUser(ctx context.Context, u AdminUser) (AdminUser, error)
	GetUserById(ctx context.Context, id uuid.UUID) (AdminUser, error)
	// FindUserByEmail matches case-insensitively
	FindUserByEmail(ctx context.Context, email string) (AdminUser, error)
	FindUserByUsername(ctx context.Context, username string) (AdminUser, error)
	FindUserByRegistrationToken(ctx context.Context, token string) (AdminUser, error)
	FindUserByResetPasswordToken(ctx context.Context, token string) (AdminUser, error)
	CountUsers(ctx context.Context) (int64, error)
}
