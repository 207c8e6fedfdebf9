package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

type stubFinder struct {
	user    user.AdminUser
	findErr error
	match   bool
}

func (f stubFinder) FindByIdentifier(ctx context.Context, identifier string) (user.AdminUser, error) {
	return f.user, f.findErr
}

func (f stubFinder) CheckPassword(u user.AdminUser, password string) (bool, error) {
	return f.match, nil
}

func TestLocalStrategyVerify(t *testing.T) {
	active := user.AdminUser{Email: "ada@example.com", Password: "hash", IsActive: true}
	inactive := active
	inactive.IsActive = false
	blocked := active
	blocked.Blocked = true
	noPassword := active
	noPassword.Password = ""

	tests := []struct {
		name       string
		finder     stubFinder
		wantReason string
		wantCode   apperrors.ErrorCode
	}{
		{"ok", stubFinder{user: active, match: true}, "", ""},
		{"not found", stubFinder{findErr: user.ErrUserNotFound}, reasonInvalidCredentials, ""},
		{"no password", stubFinder{user: noPassword, match: true}, reasonInvalidCredentials, ""},
		{"wrong password", stubFinder{user: active, match: false}, reasonInvalidCredentials, ""},
		{"inactive", stubFinder{user: inactive, match: true}, reasonUserNotActive, ""},
		{"blocked", stubFinder{user: blocked, match: true}, "", apperrors.ErrCodeLoginNotAllowed},
		{"store failure", stubFinder{findErr: errors.New("boom")}, "", apperrors.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewLocalStrategy(tt.finder).Verify(context.Background(), Credentials{Identifier: "ada@example.com", Password: "x"})

			switch {
			case tt.wantReason != "":
				var credErr *CredentialsError
				require.True(t, errors.As(err, &credErr), "got %v", err)
				assert.Equal(t, tt.wantReason, credErr.Reason)
			case tt.wantCode != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, apperrors.GetCode(err))
			default:
				require.NoError(t, err)
				assert.Equal(t, active.Email, u.Email)
			}
		})
	}
}
