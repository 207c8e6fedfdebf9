package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

// InMemoryUserRepository implements UserRepository using in-memory storage
type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]AdminUser
}

// NewInMemoryUserRepository creates a new in-memory user repository
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[uuid.UUID]AdminUser),
	}
}

func (r *InMemoryUserRepository) CreateUser(ctx context.Context, arg CreateUserParams) (AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := NormalizeEmail(arg.Email)
	for _, u := range r.users {
		if NormalizeEmail(u.Email) == email {
			return AdminUser{}, ErrUserAlreadyExists
		}
	}

	now := time.Now().UTC()
	u := AdminUser{
		ID:                uuid.New(),
		Firstname:         arg.Firstname,
		Lastname:          arg.Lastname,
		Username:          arg.Username,
		Email:             email,
		Password:          arg.Password,
		IsActive:          arg.IsActive,
		RegistrationToken: arg.RegistrationToken,
		Roles:             append([]role.Role(nil), arg.Roles...),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *InMemoryUserRepository) UpdateUser(ctx context.Context, u AdminUser) (AdminUser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[u.ID]
	if !ok {
		return AdminUser{}, ErrUserNotFound
	}
	u.Roles = existing.Roles
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = u
	return u, nil
}

func (r *InMemoryUserRepository) GetUserById(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return AdminUser{}, ErrUserNotFound
	}
	return u, nil
}

func (r *InMemoryUserRepository) FindUserByEmail(ctx context.Context, email string) (AdminUser, error) {
	email = NormalizeEmail(email)
	return r.find(func(u AdminUser) bool { return NormalizeEmail(u.Email) == email })
}

func (r *InMemoryUserRepository) FindUserByUsername(ctx context.Context, username string) (AdminUser, error) {
	return r.find(func(u AdminUser) bool { return u.Username != "" && u.Username == username })
}

func (r *InMemoryUserRepository) FindUserByRegistrationToken(ctx context.Context, token string) (AdminUser, error) {
	return r.find(func(u AdminUser) bool { return u.RegistrationToken != "" && u.RegistrationToken == token })
}

func (r *InMemoryUserRepository) FindUserByResetPasswordToken(ctx context.Context, token string) (AdminUser, error) {
	return r.find(func(u AdminUser) bool { return u.ResetPasswordToken != "" && u.ResetPasswordToken == token })
}

func (r *InMemoryUserRepository) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *InMemoryUserRepository) find(match func(AdminUser) bool) (AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return AdminUser{}, ErrUserNotFound
}
