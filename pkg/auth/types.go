package auth

import (
	"github.com/tendant/simple-admin-auth/pkg/user"
)

type LoginInput struct {
	Identifier string
	Password   string
	RememberMe bool
}

type MFAInput struct {
	Code VerificationCode
}

type RenewInput struct {
	Token string
}

type RegisterUserInfo struct {
	Firstname string
	Lastname  string
	Password  string
}

type RegisterInput struct {
	RegistrationToken string
	UserInfo          RegisterUserInfo
}

type RegisterAdminInput struct {
	Email     string
	Firstname string
	Lastname  string
	Password  string
}

type InviteInput struct {
	Email     string
	Firstname string
	Lastname  string
}

type ForgotPasswordInput struct {
	Email string
}

type ResetPasswordInput struct {
	Code     string
	Password string
}

// LoginResult has an empty Token while a second factor is pending
type LoginResult struct {
	Token string
	User  user.SanitizedUser
	MFA   bool
}

type MFAResult struct {
	Token      string
	RememberMe bool
}

type TokenResult struct {
	Token string
}

// AuthResult is returned by every operation that signs the admin in
type AuthResult struct {
	Token string
	User  user.SanitizedUser
}

type InviteResult struct {
	User              user.SanitizedUser
	RegistrationToken string
}
