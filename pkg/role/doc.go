// Package role provides admin role storage and the super-admin lookup used
// when registering the first administrator.
//
// Two repositories are available:
//
//	repo := role.NewInMemoryRoleRepository()
//	repo := role.NewPostgresRoleRepository(pool)
//
// RoleService wraps a repository:
//
//	svc := role.NewRoleService(repo)
//	superAdmin, err := svc.GetSuperAdmin(ctx)
//	if errors.Is(err, role.ErrRoleNotFound) {
//		// no super admin role seeded yet
//	}
package role
