package auth

import (
	"context"
	"errors"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

// Credentials is an identifier and password pair. It is never stored.
type Credentials struct {
	Identifier string
	Password   string
}

// CredentialVerifier checks first-factor credentials. Bad credentials are
// reported as *CredentialsError; any other error is treated as unexpected.
type CredentialVerifier interface {
	Verify(ctx context.Context, creds Credentials) (user.AdminUser, error)
}

// UserFinder is the part of user.UserService used by LocalStrategy
type UserFinder interface {
	FindByIdentifier(ctx context.Context, identifier string) (user.AdminUser, error)
	CheckPassword(u user.AdminUser, password string) (bool, error)
}

// LocalStrategy verifies an email or username and a bcrypt password
type LocalStrategy struct {
	users UserFinder
}

func NewLocalStrategy(users UserFinder) *LocalStrategy {
	return &LocalStrategy{users: users}
}

func (s *LocalStrategy) Verify(ctx context.Context, creds Credentials) (user.AdminUser, error) {
	u, err := s.users.FindByIdentifier(ctx, creds.Identifier)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.AdminUser{}, &CredentialsError{Reason: reasonInvalidCredentials}
		}
		return user.AdminUser{}, apperrors.InternalWrap(err, "failed to find user")
	}

	if u.Password == "" {
		return user.AdminUser{}, &CredentialsError{Reason: reasonInvalidCredentials}
	}

	ok, err := s.users.CheckPassword(u, creds.Password)
	if err != nil {
		return user.AdminUser{}, apperrors.InternalWrap(err, "failed to check password")
	}
	if !ok {
		return user.AdminUser{}, &CredentialsError{Reason: reasonInvalidCredentials}
	}

	if !u.IsActive {
		return user.AdminUser{}, &CredentialsError{Reason: reasonUserNotActive}
	}
	if u.Blocked {
		return user.AdminUser{}, apperrors.New(apperrors.ErrCodeLoginNotAllowed, "Your account has been blocked").
			WithDetail("code", string(apperrors.ErrCodeLoginNotAllowed))
	}
	return u, nil
}
