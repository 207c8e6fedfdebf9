package api

import (
	"strings"

	"github.com/jinzhu/copier"

	"github.com/tendant/simple-admin-auth/pkg/auth"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

// LoginRequest accepts "email" as an alias for "identifier"
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

func (req LoginRequest) toInput() (auth.LoginInput, error) {
	var in auth.LoginInput
	if err := copier.Copy(&in, &req); err != nil {
		return auth.LoginInput{}, err
	}
	if strings.TrimSpace(in.Identifier) == "" {
		in.Identifier = req.Email
	}
	return in, nil
}

type MFARequest struct {
	Code auth.VerificationCode `json:"code"`
}

type RenewTokenRequest struct {
	Token string `json:"token"`
}

type RegisterUserInfo struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
}

type RegisterRequest struct {
	RegistrationToken string           `json:"registrationToken"`
	UserInfo          RegisterUserInfo `json:"userInfo"`
}

func (req RegisterRequest) toInput() (auth.RegisterInput, error) {
	in := auth.RegisterInput{RegistrationToken: req.RegistrationToken}
	if err := copier.Copy(&in.UserInfo, &req.UserInfo); err != nil {
		return auth.RegisterInput{}, err
	}
	return in, nil
}

type RegisterAdminRequest struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Password  string `json:"password"`
}

func (req RegisterAdminRequest) toInput() (auth.RegisterAdminInput, error) {
	var in auth.RegisterAdminInput
	err := copier.Copy(&in, &req)
	return in, err
}

type InviteRequest struct {
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

func (req InviteRequest) toInput() (auth.InviteInput, error) {
	var in auth.InviteInput
	err := copier.Copy(&in, &req)
	return in, err
}

// ForgotPasswordRequest accepts "identifier" as an alias for "email"
type ForgotPasswordRequest struct {
	Email      string `json:"email"`
	Identifier string `json:"identifier"`
}

func (req ForgotPasswordRequest) toInput() auth.ForgotPasswordInput {
	if strings.TrimSpace(req.Email) == "" {
		return auth.ForgotPasswordInput{Email: req.Identifier}
	}
	return auth.ForgotPasswordInput{Email: req.Email}
}

// ResetPasswordRequest accepts "resetPasswordToken" as an alias for "code"
type ResetPasswordRequest struct {
	Code               string `json:"code"`
	ResetPasswordToken string `json:"resetPasswordToken"`
	Password           string `json:"password"`
}

func (req ResetPasswordRequest) toInput() (auth.ResetPasswordInput, error) {
	var in auth.ResetPasswordInput
	if err := copier.Copy(&in, &req); err != nil {
		return auth.ResetPasswordInput{}, err
	}
	if strings.TrimSpace(in.Code) == "" {
		in.Code = req.ResetPasswordToken
	}
	return in, nil
}

// LoginResponse has a null token while the second factor is pending
type LoginResponse struct {
	Token *string            `json:"token"`
	User  user.SanitizedUser `json:"user"`
	MFA   bool               `json:"mfa"`
}

func newLoginResponse(result auth.LoginResult) LoginResponse {
	resp := LoginResponse{User: result.User, MFA: result.MFA}
	if result.Token != "" {
		resp.Token = &result.Token
	}
	return resp
}

type MFAResponse struct {
	Token      string `json:"token"`
	RememberMe bool   `json:"rememberMe"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  user.SanitizedUser `json:"user"`
}

type InviteResponse struct {
	User              user.SanitizedUser `json:"user"`
	RegistrationToken string             `json:"registrationToken"`
}
