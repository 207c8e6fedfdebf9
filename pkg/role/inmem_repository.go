package role

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRoleRepository implements RoleRepository using in-memory storage
type InMemoryRoleRepository struct {
	mu    sync.RWMutex
	roles map[uuid.UUID]Role
}

// NewInMemoryRoleRepository creates a new in-memory role repository
func NewInMemoryRoleRepository() *InMemoryRoleRepository {
	return &InMemoryRoleRepository{
		roles: make(map[uuid.UUID]Role),
	}
}

// FindRoles returns all roles ordered by name
func (r *InMemoryRoleRepository) FindRoles(ctx context.Context) ([]Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

// GetRoleById retrieves a role by ID
func (r *InMemoryRoleRepository) GetRoleById(ctx context.Context, id uuid.UUID) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[id]
	if !ok {
		return Role{}, ErrRoleNotFound
	}
	return role, nil
}

// GetRoleByCode retrieves a role by its code
func (r *InMemoryRoleRepository) GetRoleByCode(ctx context.Context, code string) (Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, role := range r.roles {
		if role.Code == code {
			return role, nil
		}
	}
	return Role{}, ErrRoleNotFound
}

// CreateRole creates a new role
func (r *InMemoryRoleRepository) CreateRole(ctx context.Context, arg CreateRoleParams) (Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	role := Role{
		ID:          uuid.New(),
		Name:        arg.Name,
		Code:        arg.Code,
		Description: arg.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.roles[role.ID] = role
	return role, nil
}
