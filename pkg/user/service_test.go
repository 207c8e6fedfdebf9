package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

func newTestService() *UserService {
	return NewUserService(NewInMemoryUserRepository(), WithPasswordHasher(BcryptHasher{Cost: bcrypt.MinCost}))
}

func TestCreateAndFind(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	exists, err := svc.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	superAdmin := role.Role{ID: uuid.New(), Name: "Super Admin", Code: role.SuperAdminCode}
	created, err := svc.Create(ctx, CreateUserInput{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Username:  "ada",
		Email:     "Ada@Example.com",
		Password:  "Secret123",
		IsActive:  true,
		Roles:     []role.Role{superAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotEqual(t, "Secret123", created.Password)
	require.Len(t, created.Roles, 1)
	assert.Equal(t, role.SuperAdminCode, created.Roles[0].Code)

	exists, err = svc.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("by email is case insensitive", func(t *testing.T) {
		found, err := svc.FindByIdentifier(ctx, "ADA@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("by username", func(t *testing.T) {
		found, err := svc.FindByIdentifier(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := svc.FindByIdentifier(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, CreateUserInput{Email: "ada@example.com", Password: "Secret123"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("check password", func(t *testing.T) {
		ok, err := svc.CheckPassword(created, "Secret123")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = svc.CheckPassword(created, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	invited, err := svc.Invite(ctx, CreateUserInput{Firstname: "Grace", Lastname: "Hopper", Email: "grace@example.com"}, "reg-token")
	require.NoError(t, err)
	assert.False(t, invited.IsActive)

	info, err := svc.FindRegistrationInfo(ctx, "reg-token")
	require.NoError(t, err)
	assert.Equal(t, RegistrationInfo{Email: "grace@example.com", Firstname: "Grace", Lastname: "Hopper"}, info)

	_, err = svc.FindRegistrationInfo(ctx, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	registered, err := svc.Register(ctx, RegisterInput{
		RegistrationToken: "reg-token",
		Firstname:         "Grace B.",
		Lastname:          "Hopper",
		Password:          "Cobol1959",
	})
	require.NoError(t, err)
	assert.True(t, registered.IsActive)
	assert.Empty(t, registered.RegistrationToken)
	assert.Equal(t, "Grace B.", registered.Firstname)

	_, err = svc.Register(ctx, RegisterInput{RegistrationToken: "reg-token", Password: "Cobol1959"})
	assert.ErrorIs(t, err, ErrUserNotFound, "token is single use")
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	u, err := svc.Create(ctx, CreateUserInput{Email: "reset@example.com", Password: "OldPass123", IsActive: true})
	require.NoError(t, err)

	u, err = svc.SetResetPasswordToken(ctx, u, "reset-token")
	require.NoError(t, err)

	updated, err := svc.ResetPassword(ctx, "reset-token", "NewPass123")
	require.NoError(t, err)
	assert.Empty(t, updated.ResetPasswordToken)

	ok, err := svc.CheckPassword(updated, "NewPass123")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.ResetPassword(ctx, "reset-token", "Another123")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFindActiveByEmailOrUsername(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Create(ctx, CreateUserInput{Email: "inactive@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = svc.FindActiveByEmailOrUsername(ctx, "inactive@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSanitize(t *testing.T) {
	u := AdminUser{
		ID:                 uuid.New(),
		Email:              "a@example.com",
		Password:           "$2a$10$hash",
		RegistrationToken:  "reg",
		ResetPasswordToken: "reset",
		IsActive:           true,
	}
	s := Sanitize(u)
	assert.Equal(t, u.ID, s.ID)
	assert.Equal(t, u.Email, s.Email)
	assert.True(t, s.IsActive)
	assert.NotNil(t, s.Roles)
}

func TestPasswordPolicy(t *testing.T) {
	policy := DefaultPasswordPolicy()

	tests := []struct {
		password string
		valid    bool
	}{
		{"Secret123", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"A1" + string(make([]byte, 80)), false},
	}
	for _, tt := range tests {
		err := policy.CheckPasswordComplexity(tt.password)
		if tt.valid {
			assert.NoError(t, err, tt.password)
		} else {
			assert.Error(t, err, tt.password)
		}
	}
}
