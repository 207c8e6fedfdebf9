package auth

import (
	"regexp"
	"strings"

	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldErrors collects per-field validation failures
type fieldErrors map[string]interface{}

func (f fieldErrors) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = field + " is a required field"
	}
}

func (f fieldErrors) email(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = field + " is a required field"
		return
	}
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		f[field] = field + " must be a valid email"
	}
}

func (f fieldErrors) password(field, value string, policy user.PasswordPolicy) {
	if value == "" {
		f[field] = field + " is a required field"
		return
	}
	if err := policy.CheckPasswordComplexity(value); err != nil {
		f[field] = err.Error()
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	message := "Validation failed"
	if len(f) == 1 {
		for _, v := range f {
			if s, ok := v.(string); ok {
				message = s
			}
		}
	}
	return apperrors.ValidationFailed(message, f)
}

func validateLoginInput(in LoginInput) error {
	f := fieldErrors{}
	f.required("identifier", in.Identifier)
	f.required("password", in.Password)
	return f.err()
}

func validateRenewInput(in RenewInput) error {
	f := fieldErrors{}
	f.required("token", in.Token)
	return f.err()
}

func validateRegistrationInfoQuery(registrationToken string) error {
	f := fieldErrors{}
	f.required("registrationToken", registrationToken)
	return f.err()
}

func validateRegisterInput(in RegisterInput, policy user.PasswordPolicy) error {
	f := fieldErrors{}
	f.required("registrationToken", in.RegistrationToken)
	f.required("userInfo.firstname", in.UserInfo.Firstname)
	f.password("userInfo.password", in.UserInfo.Password, policy)
	return f.err()
}

func validateRegisterAdminInput(in RegisterAdminInput, policy user.PasswordPolicy) error {
	f := fieldErrors{}
	f.email("email", in.Email)
	f.required("firstname", in.Firstname)
	f.password("password", in.Password, policy)
	return f.err()
}

func validateInviteInput(in InviteInput) error {
	f := fieldErrors{}
	f.email("email", in.Email)
	f.required("firstname", in.Firstname)
	return f.err()
}

func validateForgotPasswordInput(in ForgotPasswordInput) error {
	f := fieldErrors{}
	f.email("email", in.Email)
	return f.err()
}

func validateResetPasswordInput(in ResetPasswordInput, policy user.PasswordPolicy) error {
	f := fieldErrors{}
	f.required("code", in.Code)
	f.password("password", in.Password, policy)
	return f.err()
}
