package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/audit"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/role"
	"github.com/tendant/simple-admin-auth/pkg/session"
	"github.com/tendant/simple-admin-auth/pkg/settings"
	"github.com/tendant/simple-admin-auth/pkg/token"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

const (
	DefaultChallengeTTL = 10 * time.Minute

	msgInvalidCredentials     = "Invalid credentials"
	msgVerificationIncorrect  = "Verification code is incorrect"
	msgInvalidToken           = "Invalid token"
	msgInvalidRegistration    = "Invalid registrationToken"
	msgSuperAdminExists       = "You cannot register a new super admin"
	msgSuperAdminRoleMissing  = "Cannot register the first admin because the super admin role doesn't exist."
	msgInvalidResetToken      = "Invalid reset password token"
	msgInvalidRegistrationInf = "Invalid registration info"
	msgEmailTaken             = "Email already taken"
)

type TokenService interface {
	CreateToken() string
	CreateJwtToken(userID uuid.UUID) (string, error)
	DecodeJwtToken(tokenString string) token.DecodeResult
	CreateVerificationToken() string
}

type UserStore interface {
	PasswordPolicy() user.PasswordPolicy
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context, in user.CreateUserInput) (user.AdminUser, error)
	GetByID(ctx context.Context, id uuid.UUID) (user.AdminUser, error)
	FindRegistrationInfo(ctx context.Context, registrationToken string) (user.RegistrationInfo, error)
	Register(ctx context.Context, in user.RegisterInput) (user.AdminUser, error)
	Invite(ctx context.Context, in user.CreateUserInput, registrationToken string) (user.AdminUser, error)
	FindActiveByEmailOrUsername(ctx context.Context, identifier string) (user.AdminUser, error)
	SetResetPasswordToken(ctx context.Context, u user.AdminUser, resetToken string) (user.AdminUser, error)
	ResetPassword(ctx context.Context, resetToken, password string) (user.AdminUser, error)
}

type RoleStore interface {
	GetSuperAdmin(ctx context.Context) (role.Role, error)
}

type EmailSender interface {
	SendVerificationCode(ctx context.Context, u user.SanitizedUser, code string) error
	SendResetPasswordEmail(ctx context.Context, u user.SanitizedUser, link string) error
}

type EventBus interface {
	Emit(ctx context.Context, name string, payload audit.Payload)
	Track(ctx context.Context, name string)
}

// SettingsReader returns the advanced settings. It is called on every login.
type SettingsReader interface {
	Advanced(ctx context.Context) (settings.AdvancedSettings, error)
}

// Dependencies holds the collaborators of the AuthService
type Dependencies struct {
	Tokens   TokenService
	Users    UserStore
	Roles    RoleStore
	Mailer   EmailSender
	Events   EventBus
	Settings SettingsReader
	Verifier CredentialVerifier
}

// AuthService orchestrates the admin authentication flow
type AuthService struct {
	deps          Dependencies
	challengeTTL  time.Duration
	adminURL      string
	allowedErrors map[apperrors.ErrorCode]bool
	now           func() time.Time

	// background tracks password reset mails still being sent
	background sync.WaitGroup
}

type Option func(*AuthService)

// WithChallengeTTL sets how long an MFA code can be answered. Zero disables expiry.
func WithChallengeTTL(ttl time.Duration) Option {
	return func(s *AuthService) {
		s.challengeTTL = ttl
	}
}

// WithAdminURL sets the base URL used in password reset links
func WithAdminURL(adminURL string) Option {
	return func(s *AuthService) {
		s.adminURL = strings.TrimRight(adminURL, "/")
	}
}

// WithAllowedErrorCodes replaces the error codes surfaced verbatim on login
func WithAllowedErrorCodes(codes ...apperrors.ErrorCode) Option {
	return func(s *AuthService) {
		s.allowedErrors = make(map[apperrors.ErrorCode]bool, len(codes))
		for _, c := range codes {
			s.allowedErrors[c] = true
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
	}
}

func NewAuthService(deps Dependencies, opts ...Option) *AuthService {
	s := &AuthService{
		deps:          deps,
		challengeTTL:  DefaultChallengeTTL,
		allowedErrors: map[apperrors.ErrorCode]bool{apperrors.ErrCodeLoginNotAllowed: true},
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login runs the first factor. With MFA enabled the result carries no token
// and the returned session holds a new challenge replacing any previous one.
func (s *AuthService) Login(ctx context.Context, sess session.Session, in LoginInput) (LoginResult, session.Session, error) {
	if err := validateLoginInput(in); err != nil {
		return LoginResult{}, sess, err
	}

	u, err := s.deps.Verifier.Verify(ctx, Credentials{Identifier: strings.TrimSpace(in.Identifier), Password: in.Password})
	if err != nil {
		return LoginResult{}, sess, s.loginError(ctx, err)
	}

	advanced, err := s.deps.Settings.Advanced(ctx)
	if err != nil {
		return LoginResult{}, sess, apperrors.InternalWrap(err, "failed to read advanced settings")
	}

	sanitized := user.Sanitize(u)
	if !advanced.MultiFactorAuthentication {
		jwt, err := s.deps.Tokens.CreateJwtToken(u.ID)
		if err != nil {
			return LoginResult{}, sess, apperrors.InternalWrap(err, "failed to create jwt")
		}
		s.deps.Events.Emit(ctx, audit.EventAuthSuccess, audit.Payload{Provider: audit.ProviderLocal, User: &sanitized})
		return LoginResult{Token: jwt, User: sanitized, MFA: false}, sess.WithoutChallenge(), nil
	}

	code := s.deps.Tokens.CreateVerificationToken()
	if err := s.deps.Mailer.SendVerificationCode(ctx, sanitized, code); err != nil {
		slog.Error("Failed to send verification code", "user_id", u.ID, "err", err)
		return LoginResult{}, sess, apperrors.InternalWrap(err, "failed to send verification code")
	}

	challenge := session.NewChallenge(code, u.ID, in.RememberMe, s.now(), s.challengeTTL)
	slog.Info("Verification challenge issued", "user_id", u.ID, "expires_at", challenge.ExpiresAt)
	return LoginResult{User: sanitized, MFA: true}, sess.WithChallenge(challenge), nil
}

func (s *AuthService) loginError(ctx context.Context, err error) error {
	var credErr *CredentialsError
	if errors.As(err, &credErr) {
		s.deps.Events.Emit(ctx, audit.EventAuthError, audit.Payload{Provider: audit.ProviderLocal, Error: credErr.Reason})
		return apperrors.Application(msgInvalidCredentials)
	}

	s.deps.Events.Emit(ctx, audit.EventAuthError, audit.Payload{Provider: audit.ProviderLocal, Error: err.Error()})
	if s.allowedErrors[apperrors.GetCode(err)] {
		return err
	}
	slog.Error("Failed to verify credentials", "err", err)
	return apperrors.NotImplemented()
}

// VerifyMFA answers the pending challenge. The returned session never holds
// a challenge once the code was checked, whatever the outcome.
func (s *AuthService) VerifyMFA(ctx context.Context, sess session.Session, in MFAInput) (MFAResult, session.Session, error) {
	submitted, err := in.Code.Value()
	if err != nil {
		return MFAResult{}, sess, err
	}

	challenge := sess.Challenge
	cleared := sess.WithoutChallenge()

	reason := ""
	switch {
	case challenge == nil:
		reason = "No pending verification"
	case challenge.Expired(s.now()):
		reason = "Verification code expired"
	case !codesMatch(submitted, challenge.Code):
		reason = "Verification code mismatch"
	}
	if reason != "" {
		s.deps.Events.Emit(ctx, audit.EventAuthError, audit.Payload{Provider: audit.ProviderLocal, Error: reason})
		return MFAResult{}, cleared, apperrors.Forbidden(msgVerificationIncorrect)
	}

	u, err := s.deps.Users.GetByID(ctx, challenge.PendingUserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.deps.Events.Emit(ctx, audit.EventAuthError, audit.Payload{Provider: audit.ProviderLocal, Error: "Pending user not found"})
			return MFAResult{}, cleared, apperrors.Forbidden(msgVerificationIncorrect)
		}
		return MFAResult{}, cleared, apperrors.InternalWrap(err, "failed to load pending user")
	}
	if !u.IsActive || u.Blocked {
		s.deps.Events.Emit(ctx, audit.EventAuthError, audit.Payload{Provider: audit.ProviderLocal, Error: "Pending user not allowed"})
		return MFAResult{}, cleared, apperrors.Forbidden(msgVerificationIncorrect)
	}

	jwt, err := s.deps.Tokens.CreateJwtToken(u.ID)
	if err != nil {
		return MFAResult{}, cleared, apperrors.InternalWrap(err, "failed to create jwt")
	}

	sanitized := user.Sanitize(u)
	s.deps.Events.Emit(ctx, audit.EventAuthSuccess, audit.Payload{Provider: audit.ProviderLocal, User: &sanitized})
	return MFAResult{Token: jwt, RememberMe: challenge.RememberMe}, cleared, nil
}

// Logout emits the logout event. Issued JWTs stay valid until they expire.
func (s *AuthService) Logout(ctx context.Context, sess session.Session, userID uuid.UUID) (session.Session, error) {
	payload := audit.Payload{}
	if userID != uuid.Nil {
		u, err := s.deps.Users.GetByID(ctx, userID)
		switch {
		case err == nil:
			sanitized := user.Sanitize(u)
			payload.User = &sanitized
		case errors.Is(err, user.ErrUserNotFound):
			slog.Warn("Logout for unknown user", "user_id", userID)
		default:
			slog.Error("Failed to load user on logout", "user_id", userID, "err", err)
		}
	}
	s.deps.Events.Emit(ctx, audit.EventLogout, payload)
	return sess.WithoutChallenge(), nil
}

func (s *AuthService) RenewToken(ctx context.Context, in RenewInput) (TokenResult, error) {
	if err := validateRenewInput(in); err != nil {
		return TokenResult{}, err
	}

	decoded := s.deps.Tokens.DecodeJwtToken(in.Token)
	if !decoded.Valid {
		return TokenResult{}, apperrors.Validation(msgInvalidToken)
	}
	userID, err := uuid.Parse(decoded.Payload.ID)
	if err != nil {
		return TokenResult{}, apperrors.Validation(msgInvalidToken)
	}

	jwt, err := s.deps.Tokens.CreateJwtToken(userID)
	if err != nil {
		return TokenResult{}, apperrors.InternalWrap(err, "failed to create jwt")
	}
	return TokenResult{Token: jwt}, nil
}

func (s *AuthService) RegistrationInfo(ctx context.Context, registrationToken string) (user.RegistrationInfo, error) {
	if err := validateRegistrationInfoQuery(registrationToken); err != nil {
		return user.RegistrationInfo{}, err
	}

	info, err := s.deps.Users.FindRegistrationInfo(ctx, registrationToken)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return user.RegistrationInfo{}, apperrors.Validation(msgInvalidRegistration)
		}
		return user.RegistrationInfo{}, apperrors.InternalWrap(err, "failed to find registration info")
	}
	return info, nil
}

// Invite creates an inactive admin and returns the registration token that
// /registration-info and /register accept. Delivering it is up to the caller.
func (s *AuthService) Invite(ctx context.Context, in InviteInput) (InviteResult, error) {
	if err := validateInviteInput(in); err != nil {
		return InviteResult{}, err
	}

	registrationToken := s.deps.Tokens.CreateToken()
	u, err := s.deps.Users.Invite(ctx, user.CreateUserInput{
		Firstname: strings.TrimSpace(in.Firstname),
		Lastname:  strings.TrimSpace(in.Lastname),
		Email:     user.NormalizeEmail(in.Email),
	}, registrationToken)
	if err != nil {
		if errors.Is(err, user.ErrUserAlreadyExists) {
			return InviteResult{}, apperrors.Application(msgEmailTaken)
		}
		return InviteResult{}, apperrors.InternalWrap(err, "failed to invite user")
	}

	return InviteResult{User: user.Sanitize(u), RegistrationToken: registrationToken}, nil
}

// Register completes an invitation and signs the new admin in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if err := validateRegisterInput(in, s.deps.Users.PasswordPolicy()); err != nil {
		return AuthResult{}, err
	}

	u, err := s.deps.Users.Register(ctx, user.RegisterInput{
		RegistrationToken: in.RegistrationToken,
		Firstname:         strings.TrimSpace(in.UserInfo.Firstname),
		Lastname:          strings.TrimSpace(in.UserInfo.Lastname),
		Password:          in.UserInfo.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return AuthResult{}, apperrors.Validation(msgInvalidRegistrationInf)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "failed to register user")
	}
	return s.signIn(u)
}

// RegisterAdmin creates the first super admin. It fails once any admin exists.
func (s *AuthService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (AuthResult, error) {
	if err := validateRegisterAdminInput(in, s.deps.Users.PasswordPolicy()); err != nil {
		return AuthResult{}, err
	}

	hasAdmin, err := s.deps.Users.Exists(ctx)
	if err != nil {
		return AuthResult{}, apperrors.InternalWrap(err, "failed to count users")
	}
	if hasAdmin {
		return AuthResult{}, apperrors.Application(msgSuperAdminExists)
	}

	superAdmin, err := s.deps.Roles.GetSuperAdmin(ctx)
	if err != nil {
		if errors.Is(err, role.ErrRoleNotFound) {
			return AuthResult{}, apperrors.Application(msgSuperAdminRoleMissing)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "failed to get super admin role")
	}

	u, err := s.deps.Users.Create(ctx, user.CreateUserInput{
		Firstname: strings.TrimSpace(in.Firstname),
		Lastname:  strings.TrimSpace(in.Lastname),
		Email:     user.NormalizeEmail(in.Email),
		Password:  in.Password,
		IsActive:  true,
		Roles:     []role.Role{superAdmin},
	})
	if err != nil {
		if errors.Is(err, user.ErrUserAlreadyExists) {
			return AuthResult{}, apperrors.Application(msgSuperAdminExists)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "failed to create super admin")
	}

	s.deps.Events.Track(ctx, audit.TelemetryFirstAdmin)
	return s.signIn(u)
}

// ForgotPassword mails a reset link to an active admin. Only input
// validation is reported: the lookup and the mail run after it returns, so
// unknown identifiers look the same as known ones in outcome and in timing.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	if err := validateForgotPasswordInput(in); err != nil {
		return err
	}

	identifier := strings.TrimSpace(in.Email)
	bg := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		s.sendResetPassword(bg, identifier)
	}()
	return nil
}

// Wait blocks until password reset mails started by ForgotPassword are done
func (s *AuthService) Wait() {
	s.background.Wait()
}

func (s *AuthService) sendResetPassword(ctx context.Context, identifier string) {
	u, err := s.deps.Users.FindActiveByEmailOrUsername(ctx, identifier)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			slog.Error("Failed to find user for password reset", "err", err)
		}
		return
	}

	resetToken := s.deps.Tokens.CreateToken()
	updated, err := s.deps.Users.SetResetPasswordToken(ctx, u, resetToken)
	if err != nil {
		slog.Error("Failed to store reset password token", "user_id", u.ID, "err", err)
		return
	}

	if err := s.deps.Mailer.SendResetPasswordEmail(ctx, user.Sanitize(updated), s.resetPasswordLink(resetToken)); err != nil {
		slog.Error("Failed to send reset password email", "user_id", u.ID, "err", err)
	}
}

func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (AuthResult, error) {
	if err := validateResetPasswordInput(in, s.deps.Users.PasswordPolicy()); err != nil {
		return AuthResult{}, err
	}

	u, err := s.deps.Users.ResetPassword(ctx, in.Code, in.Password)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return AuthResult{}, apperrors.Application(msgInvalidResetToken)
		}
		return AuthResult{}, apperrors.InternalWrap(err, "failed to reset password")
	}
	return s.signIn(u)
}

func (s *AuthService) signIn(u user.AdminUser) (AuthResult, error) {
	jwt, err := s.deps.Tokens.CreateJwtToken(u.ID)
	if err != nil {
		return AuthResult{}, apperrors.InternalWrap(err, "failed to create jwt")
	}
	return AuthResult{Token: jwt, User: user.Sanitize(u)}, nil
}

func (s *AuthService) resetPasswordLink(resetToken string) string {
	return s.adminURL + "/auth/reset-password?code=" + url.QueryEscape(resetToken)
}
