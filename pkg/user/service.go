package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/role"
)

// UserService provides admin user operations on top of a UserRepository
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	policy PasswordPolicy
}

// UserServiceOption configures a UserService
type UserServiceOption func(*UserService)

// WithPasswordHasher replaces the default bcrypt hasher
func WithPasswordHasher(h PasswordHasher) UserServiceOption {
	return func(s *UserService) {
		s.hasher = h
	}
}

// WithPasswordPolicy replaces the default password policy
func WithPasswordPolicy(p PasswordPolicy) UserServiceOption {
	return func(s *UserService) {
		s.policy = p
	}
}

func NewUserService(repo UserRepository, opts ...UserServiceOption) *UserService {
	s := &UserService{
		repo:   repo,
		hasher: BcryptHasher{},
		policy: DefaultPasswordPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUserInput is a new admin with a plain-text password
type CreateUserInput struct {
	Firstname string
	Lastname  string
	Username  string
	Email     string
	Password  string
	IsActive  bool
	Roles     []role.Role
}

// PasswordPolicy returns the policy enforced on new passwords
func (s *UserService) PasswordPolicy() PasswordPolicy {
	return s.policy
}

// Exists reports whether any admin user has been created
func (s *UserService) Exists(ctx context.Context) (bool, error) {
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create hashes the password and stores a new admin
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (AdminUser, error) {
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.CreateUser(ctx, CreateUserParams{
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		IsActive:  in.IsActive,
		Roles:     in.Roles,
	})
}

// Invite stores an inactive admin with a registration token
func (s *UserService) Invite(ctx context.Context, in CreateUserInput, registrationToken string) (AdminUser, error) {
	return s.repo.CreateUser(ctx, CreateUserParams{
		Firstname:         in.Firstname,
		Lastname:          in.Lastname,
		Email:             in.Email,
		RegistrationToken: registrationToken,
		Roles:             in.Roles,
	})
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	return s.repo.GetUserById(ctx, id)
}

// FindByIdentifier looks up a user by email first and then by username
func (s *UserService) FindByIdentifier(ctx context.Context, identifier string) (AdminUser, error) {
	u, err := s.repo.FindUserByEmail(ctx, identifier)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return AdminUser{}, err
	}
	return s.repo.FindUserByUsername(ctx, identifier)
}

// CheckPassword verifies a plain-text password against the stored hash
func (s *UserService) CheckPassword(u AdminUser, password string) (bool, error) {
	return s.hasher.Verify(password, u.Password)
}

// FindRegistrationInfo returns the invited user's identity for a registration token
func (s *UserService) FindRegistrationInfo(ctx context.Context, registrationToken string) (RegistrationInfo, error) {
	if registrationToken == "" {
		return RegistrationInfo{}, ErrUserNotFound
	}
	u, err := s.repo.FindUserByRegistrationToken(ctx, registrationToken)
	if err != nil {
		return RegistrationInfo{}, err
	}
	return RegistrationInfo{Email: u.Email, Firstname: u.Firstname, Lastname: u.Lastname}, nil
}

// RegisterInput completes an invitation
type RegisterInput struct {
	RegistrationToken string
	Firstname         string
	Lastname          string
	Password          string
}

// Register sets the invited user's names and password, activates the account
// and consumes the registration token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (AdminUser, error) {
	if in.RegistrationToken == "" {
		return AdminUser{}, ErrUserNotFound
	}
	u, err := s.repo.FindUserByRegistrationToken(ctx, in.RegistrationToken)
	if err != nil {
		return AdminUser{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	u.Firstname = in.Firstname
	u.Lastname = in.Lastname
	u.Password = hashed
	u.IsActive = true
	u.RegistrationToken = ""
	return s.repo.UpdateUser(ctx, u)
}

// FindActiveByEmailOrUsername returns an active user matching identifier
func (s *UserService) FindActiveByEmailOrUsername(ctx context.Context, identifier string) (AdminUser, error) {
	u, err := s.FindByIdentifier(ctx, identifier)
	if err != nil {
		return AdminUser{}, err
	}
	if !u.IsActive {
		return AdminUser{}, ErrUserNotFound
	}
	return u, nil
}

// SetResetPasswordToken stores a password reset token on the user
func (s *UserService) SetResetPasswordToken(ctx context.Context, u AdminUser, resetToken string) (AdminUser, error) {
	u.ResetPasswordToken = resetToken
	return s.repo.UpdateUser(ctx, u)
}

// ResetPassword replaces the password of the active user owning resetToken
// and consumes the token.
func (s *UserService) ResetPassword(ctx context.Context, resetToken, password string) (AdminUser, error) {
	if resetToken == "" {
		return AdminUser{}, ErrUserNotFound
	}
	u, err := s.repo.FindUserByResetPasswordToken(ctx, resetToken)
	if err != nil {
		return AdminUser{}, err
	}
	if !u.IsActive {
		return AdminUser{}, ErrUserNotFound
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return AdminUser{}, fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = hashed
	u.ResetPasswordToken = ""
	return s.repo.UpdateUser(ctx, u)
}
