package role

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleService(t *testing.T) {
	ctx := context.Background()

	t.Run("super admin missing", func(t *testing.T) {
		svc := NewRoleService(NewInMemoryRoleRepository())
		_, err := svc.GetSuperAdmin(ctx)
		assert.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("ensure default roles is idempotent", func(t *testing.T) {
		svc := NewRoleService(NewInMemoryRoleRepository())
		require.NoError(t, svc.EnsureDefaultRoles(ctx))
		require.NoError(t, svc.EnsureDefaultRoles(ctx))

		roles, err := svc.FindRoles(ctx)
		require.NoError(t, err)
		assert.Len(t, roles, 3)

		superAdmin, err := svc.GetSuperAdmin(ctx)
		require.NoError(t, err)
		assert.Equal(t, SuperAdminCode, superAdmin.Code)
		assert.Equal(t, "Super Admin", superAdmin.Name)
	})

	t.Run("create role requires name", func(t *testing.T) {
		svc := NewRoleService(NewInMemoryRoleRepository())
		_, err := svc.CreateRole(ctx, CreateRoleParams{Code: "x"})
		assert.ErrorIs(t, err, ErrEmptyRoleName)

		created, err := svc.CreateRole(ctx, CreateRoleParams{Name: "Reviewer", Code: "reviewer"})
		require.NoError(t, err)

		repo := svc.repo
		found, err := repo.GetRoleById(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "reviewer", found.Code)
	})
}
