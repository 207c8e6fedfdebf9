package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-admin-auth/pkg/audit"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/notification"
	"github.com/tendant/simple-admin-auth/pkg/role"
	"github.com/tendant/simple-admin-auth/pkg/session"
	"github.com/tendant/simple-admin-auth/pkg/settings"
	"github.com/tendant/simple-admin-auth/pkg/token"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

const testPassword = "Password123"

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

type testEnv struct {
	svc      *AuthService
	userRepo *user.InMemoryUserRepository
	users    *user.UserService
	roles    *role.RoleService
	settings *settings.Service
	tokens   *token.Service
	recorder *audit.Recorder
	notifier *notification.MockNotifier
	now      time.Time
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	env := &testEnv{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	env.userRepo = user.NewInMemoryUserRepository()
	env.users = user.NewUserService(env.userRepo)
	env.roles = role.NewRoleService(role.NewInMemoryRoleRepository())
	require.NoError(t, env.roles.EnsureDefaultRoles(ctx))
	env.settings = settings.NewService(settings.NewInMemoryStore(), env.roles, settings.Config{})
	env.tokens = token.NewService("test-secret")
	env.recorder = audit.NewRecorder()
	env.notifier = &notification.MockNotifier{}

	nm, err := notification.NewNotificationManagerWithOptions(
		notification.WithNotifier(notification.EmailSystem, env.notifier),
		notification.WithDefaultTemplates(),
	)
	require.NoError(t, err)

	deps := Dependencies{
		Tokens:   env.tokens,
		Users:    env.users,
		Roles:    env.roles,
		Mailer:   NewNotificationMailer(nm, DefaultChallengeTTL),
		Events:   audit.NewHub(env.recorder.Subscriber()),
		Settings: env.settings,
		Verifier: NewLocalStrategy(env.users),
	}
	opts = append([]Option{
		WithAdminURL("https://admin.example.com/"),
		WithClock(func() time.Time { return env.now }),
	}, opts...)
	env.svc = NewAuthService(deps, opts...)
	return env
}

func (e *testEnv) createAdmin(t *testing.T, email string) user.AdminUser {
	t.Helper()
	u, err := e.users.Create(context.Background(), user.CreateUserInput{
		Firstname: "Ada",
		Lastname:  "Admin",
		Username:  "ada",
		Email:     email,
		Password:  testPassword,
		IsActive:  true,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) enableMFA(t *testing.T) {
	t.Helper()
	require.NoError(t, e.settings.UpdateAdvancedSettings(context.Background(), json.RawMessage(`{"multi_factor_authentication":true}`)))
}

func (e *testEnv) mailedCode(t *testing.T) string {
	t.Helper()
	sent := e.notifier.Sent()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1].Data["Code"]
}

func requireCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.GetCode(err), "unexpected error: %v", err)
}

func TestLoginWithoutMFA(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.createAdmin(t, "ada@example.com")

	stale := session.Session{ID: "s1"}.WithChallenge(session.NewChallenge("123456", uuid.New(), false, env.now, time.Minute))
	result, sess, err := env.svc.Login(ctx, stale, LoginInput{Identifier: "ADA@example.com", Password: testPassword})
	require.NoError(t, err)

	assert.False(t, result.MFA)
	require.NotEmpty(t, result.Token)
	decoded := env.tokens.DecodeJwtToken(result.Token)
	require.True(t, decoded.Valid)
	assert.Equal(t, admin.ID.String(), decoded.Payload.ID)
	assert.Equal(t, admin.ID, result.User.ID)
	assert.Nil(t, sess.Challenge)

	assert.Empty(t, env.notifier.Sent(), "no verification code is mailed")
	assert.Equal(t, 1, env.recorder.Count(audit.EventAuthSuccess))
	ev, _ := env.recorder.Last(audit.EventAuthSuccess)
	assert.Equal(t, audit.ProviderLocal, ev.Payload.Provider)
	assert.Equal(t, admin.ID, ev.Payload.User.ID)
}

func TestLoginByUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t, "ada@example.com")

	result, _, err := env.svc.Login(context.Background(), session.Session{}, LoginInput{Identifier: "ada", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestLoginWithMFA(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.createAdmin(t, "ada@example.com")
	env.enableMFA(t)

	result, sess, err := env.svc.Login(ctx, session.Session{ID: "s1"}, LoginInput{Identifier: "ada@example.com", Password: testPassword, RememberMe: true})
	require.NoError(t, err)

	assert.True(t, result.MFA)
	assert.Empty(t, result.Token)
	assert.Equal(t, admin.ID, result.User.ID)
	require.NotNil(t, sess.Challenge)
	assert.Regexp(t, sixDigits, sess.Challenge.Code)
	assert.Equal(t, admin.ID, sess.Challenge.PendingUserID)
	assert.True(t, sess.Challenge.RememberMe)
	assert.Equal(t, env.now.Add(DefaultChallengeTTL), sess.Challenge.ExpiresAt)
	assert.Equal(t, sess.Challenge.Code, env.mailedCode(t))
	assert.Equal(t, 0, env.recorder.Count(audit.EventAuthSuccess), "success is only final after the second factor")

	mfa, sess, err := env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(sess.Challenge.Code)})
	require.NoError(t, err)
	assert.True(t, mfa.RememberMe)
	decoded := env.tokens.DecodeJwtToken(mfa.Token)
	require.True(t, decoded.Valid)
	assert.Equal(t, admin.ID.String(), decoded.Payload.ID)
	assert.Nil(t, sess.Challenge)
	assert.Equal(t, 1, env.recorder.Count(audit.EventAuthSuccess))

	t.Run("replay is rejected", func(t *testing.T) {
		_, _, err := env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(env.mailedCode(t))})
		requireCode(t, err, apperrors.ErrCodeForbidden)
	})
}

func TestLoginOverwritesChallenge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createAdmin(t, "ada@example.com")
	env.enableMFA(t)

	_, sess, err := env.svc.Login(ctx, session.Session{ID: "s1"}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
	require.NoError(t, err)
	first := sess.Challenge

	env.now = env.now.Add(time.Minute)
	_, sess, err = env.svc.Login(ctx, sess, LoginInput{Identifier: "ada@example.com", Password: testPassword})
	require.NoError(t, err)
	require.NotNil(t, sess.Challenge)
	assert.NotSame(t, first, sess.Challenge)
	assert.Equal(t, env.now, sess.Challenge.CreatedAt)
	assert.Equal(t, env.mailedCode(t), sess.Challenge.Code)
}

func TestVerifyMFARejections(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, env *testEnv) session.Session {
		t.Helper()
		env.createAdmin(t, "ada@example.com")
		env.enableMFA(t)
		_, sess, err := env.svc.Login(ctx, session.Session{ID: "s1"}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
		require.NoError(t, err)
		return sess
	}

	wrongCode := func(code string) string {
		n, _ := parseCode(code)
		return fmt.Sprintf("%06d", (n+1)%1000000)
	}

	t.Run("mismatch discards the challenge", func(t *testing.T) {
		env := newTestEnv(t)
		sess := login(t, env)
		code := sess.Challenge.Code

		result, sess, err := env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(wrongCode(code))})
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Equal(t, msgVerificationIncorrect, err.(*apperrors.Error).Message)
		assert.Empty(t, result.Token)
		assert.Nil(t, sess.Challenge)
		assert.Equal(t, 1, env.recorder.Count(audit.EventAuthError))

		_, _, err = env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(code)})
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Equal(t, 0, env.recorder.Count(audit.EventAuthSuccess))
	})

	t.Run("expired challenge", func(t *testing.T) {
		env := newTestEnv(t, WithChallengeTTL(time.Minute))
		sess := login(t, env)

		env.now = env.now.Add(time.Minute)
		_, sess, err := env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(sess.Challenge.Code)})
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Equal(t, msgVerificationIncorrect, err.(*apperrors.Error).Message)
		assert.Nil(t, sess.Challenge)
	})

	t.Run("no challenge", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.svc.VerifyMFA(ctx, session.Session{ID: "s1"}, MFAInput{Code: NewVerificationCode("123456")})
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Equal(t, msgVerificationIncorrect, err.(*apperrors.Error).Message)
	})

	t.Run("deactivated pending user", func(t *testing.T) {
		env := newTestEnv(t)
		sess := login(t, env)

		u, err := env.userRepo.GetUserById(ctx, sess.Challenge.PendingUserID)
		require.NoError(t, err)
		u.IsActive = false
		_, err = env.userRepo.UpdateUser(ctx, u)
		require.NoError(t, err)

		_, sess, err = env.svc.VerifyMFA(ctx, sess, MFAInput{Code: NewVerificationCode(sess.Challenge.Code)})
		requireCode(t, err, apperrors.ErrCodeForbidden)
		assert.Nil(t, sess.Challenge)
	})

	t.Run("malformed codes keep the challenge", func(t *testing.T) {
		env := newTestEnv(t)
		sess := login(t, env)

		for _, raw := range []string{`null`, `"abc"`, `-1`, `1000000`, `12.5`, `""`} {
			var in struct {
				Code VerificationCode `json:"code"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"code":`+raw+`}`), &in), raw)

			_, next, err := env.svc.VerifyMFA(ctx, sess, MFAInput{Code: in.Code})
			requireCode(t, err, apperrors.ErrCodeValidationFailed)
			assert.NotNil(t, next.Challenge, raw)
		}
		assert.Equal(t, 0, env.recorder.Count(audit.EventAuthError))
	})
}

func TestVerifyMFACodeNormalization(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.createAdmin(t, "ada@example.com")
	challenge := session.NewChallenge("004217", admin.ID, false, env.now, time.Minute)

	for _, raw := range []string{`4217`, `"4217"`, `"004217"`, `004217`} {
		t.Run(raw, func(t *testing.T) {
			var in struct {
				Code VerificationCode `json:"code"`
			}
			err := json.Unmarshal([]byte(`{"code":`+raw+`}`), &in)
			if raw == `004217` {
				// leading zeros are not valid JSON numbers
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			result, _, err := env.svc.VerifyMFA(ctx, session.Session{ID: "s"}.WithChallenge(challenge), MFAInput{Code: in.Code})
			require.NoError(t, err)
			assert.NotEmpty(t, result.Token)
		})
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("validation runs first", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeValidationFailed)
		assert.Empty(t, env.recorder.Events())
	})

	t.Run("wrong password", func(t *testing.T) {
		env := newTestEnv(t)
		env.createAdmin(t, "ada@example.com")

		_, _, err := env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "ada@example.com", Password: "Wrong12345"})
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgInvalidCredentials, err.(*apperrors.Error).Message)

		ev, ok := env.recorder.Last(audit.EventAuthError)
		require.True(t, ok)
		assert.Equal(t, reasonInvalidCredentials, ev.Payload.Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "nobody@example.com", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgInvalidCredentials, err.(*apperrors.Error).Message)
	})

	t.Run("inactive user", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.createAdmin(t, "ada@example.com")
		u.IsActive = false
		_, err := env.userRepo.UpdateUser(ctx, u)
		require.NoError(t, err)

		_, _, err = env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgInvalidCredentials, err.(*apperrors.Error).Message)
		ev, _ := env.recorder.Last(audit.EventAuthError)
		assert.Equal(t, reasonUserNotActive, ev.Payload.Error)
	})

	t.Run("blocked user is allow-listed", func(t *testing.T) {
		env := newTestEnv(t)
		u := env.createAdmin(t, "ada@example.com")
		u.Blocked = true
		_, err := env.userRepo.UpdateUser(ctx, u)
		require.NoError(t, err)

		_, _, err = env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeLoginNotAllowed)
		var appErr *apperrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "LOGIN_NOT_ALLOWED", appErr.Details["code"])
		assert.Equal(t, 1, env.recorder.Count(audit.EventAuthError))
	})

	t.Run("unexpected error is opaque", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.deps.Verifier = verifierFunc(func(ctx context.Context, creds Credentials) (user.AdminUser, error) {
			return user.AdminUser{}, errors.New("connection refused")
		})

		_, _, err := env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeNotImplemented)
		assert.NotContains(t, err.Error(), "connection refused")

		ev, ok := env.recorder.Last(audit.EventAuthError)
		require.True(t, ok)
		assert.Equal(t, "connection refused", ev.Payload.Error)
	})

	t.Run("mail failure leaves no challenge", func(t *testing.T) {
		env := newTestEnv(t)
		env.createAdmin(t, "ada@example.com")
		env.enableMFA(t)
		env.notifier.Err = errors.New("smtp down")

		_, sess, err := env.svc.Login(ctx, session.Session{ID: "s1"}, LoginInput{Identifier: "ada@example.com", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeInternal)
		assert.Nil(t, sess.Challenge)
	})
}

type verifierFunc func(ctx context.Context, creds Credentials) (user.AdminUser, error)

func (f verifierFunc) Verify(ctx context.Context, creds Credentials) (user.AdminUser, error) {
	return f(ctx, creds)
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.createAdmin(t, "ada@example.com")

	sess := session.Session{ID: "s1"}.WithChallenge(session.NewChallenge("123456", admin.ID, false, env.now, time.Minute))
	sess, err := env.svc.Logout(ctx, sess, admin.ID)
	require.NoError(t, err)
	assert.Nil(t, sess.Challenge)

	ev, ok := env.recorder.Last(audit.EventLogout)
	require.True(t, ok)
	require.NotNil(t, ev.Payload.User)
	assert.Equal(t, admin.ID, ev.Payload.User.ID)

	_, err = env.svc.Logout(ctx, session.Session{}, uuid.New())
	require.NoError(t, err)
	ev, _ = env.recorder.Last(audit.EventLogout)
	assert.Nil(t, ev.Payload.User)
}

func TestRenewToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := uuid.New()
	jwt, err := env.tokens.CreateJwtToken(id)
	require.NoError(t, err)

	result, err := env.svc.RenewToken(ctx, RenewInput{Token: jwt})
	require.NoError(t, err)
	decoded := env.tokens.DecodeJwtToken(result.Token)
	require.True(t, decoded.Valid)
	assert.Equal(t, id.String(), decoded.Payload.ID)

	_, err = env.svc.RenewToken(ctx, RenewInput{Token: jwt + "x"})
	requireCode(t, err, apperrors.ErrCodeValidationFailed)
	assert.Equal(t, msgInvalidToken, err.(*apperrors.Error).Message)

	_, err = env.svc.RenewToken(ctx, RenewInput{})
	requireCode(t, err, apperrors.ErrCodeValidationFailed)
}

func TestRegistration(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	invited, err := env.svc.Invite(ctx, InviteInput{Email: " New@Example.com ", Firstname: " New "})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", invited.User.Email)
	assert.Equal(t, "New", invited.User.Firstname)
	assert.False(t, invited.User.IsActive)
	assert.Len(t, invited.RegistrationToken, 40)
	regToken := invited.RegistrationToken

	t.Run("invite validation", func(t *testing.T) {
		_, err := env.svc.Invite(ctx, InviteInput{Email: "not an email", Firstname: "X"})
		requireCode(t, err, apperrors.ErrCodeValidationFailed)
		_, err = env.svc.Invite(ctx, InviteInput{Email: "x@example.com"})
		requireCode(t, err, apperrors.ErrCodeValidationFailed)

		_, err = env.svc.Invite(ctx, InviteInput{Email: "new@example.com", Firstname: "Again"})
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgEmailTaken, err.(*apperrors.Error).Message)
	})

	info, err := env.svc.RegistrationInfo(ctx, regToken)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", info.Email)

	_, err = env.svc.RegistrationInfo(ctx, "unknown")
	requireCode(t, err, apperrors.ErrCodeValidationFailed)
	assert.Equal(t, msgInvalidRegistration, err.(*apperrors.Error).Message)

	_, err = env.svc.RegistrationInfo(ctx, "")
	requireCode(t, err, apperrors.ErrCodeValidationFailed)

	_, err = env.svc.Register(ctx, RegisterInput{RegistrationToken: regToken, UserInfo: RegisterUserInfo{Firstname: "New", Password: "weak"}})
	requireCode(t, err, apperrors.ErrCodeValidationFailed)

	result, err := env.svc.Register(ctx, RegisterInput{
		RegistrationToken: regToken,
		UserInfo:          RegisterUserInfo{Firstname: "Grace", Lastname: "Hopper", Password: testPassword},
	})
	require.NoError(t, err)
	assert.Equal(t, invited.User.ID, result.User.ID)
	assert.True(t, result.User.IsActive)
	assert.Equal(t, "Grace", result.User.Firstname)
	assert.True(t, env.tokens.DecodeJwtToken(result.Token).Valid)

	_, err = env.svc.Register(ctx, RegisterInput{
		RegistrationToken: regToken,
		UserInfo:          RegisterUserInfo{Firstname: "Grace", Password: testPassword},
	})
	requireCode(t, err, apperrors.ErrCodeValidationFailed)

	_, _, err = env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "new@example.com", Password: testPassword})
	assert.NoError(t, err)
}

func TestRegisterAdmin(t *testing.T) {
	ctx := context.Background()
	input := RegisterAdminInput{Email: "Root@Example.com", Firstname: "Root", Lastname: "Admin", Password: testPassword}

	t.Run("first admin", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.svc.RegisterAdmin(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, "root@example.com", result.User.Email)
		require.Len(t, result.User.Roles, 1)
		assert.Equal(t, role.SuperAdminCode, result.User.Roles[0].Code)
		assert.Equal(t, []string{audit.TelemetryFirstAdmin}, env.recorder.Names())

		env.recorder.Reset()
		_, err = env.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "second@example.com", Firstname: "Second", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgSuperAdminExists, err.(*apperrors.Error).Message)
		assert.Empty(t, env.recorder.Events())

		count, err := env.userRepo.CountUsers(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.RegisterAdmin(ctx, RegisterAdminInput{Email: "not-an-email", Firstname: "Root", Password: testPassword})
		requireCode(t, err, apperrors.ErrCodeValidationFailed)
	})

	t.Run("missing super admin role", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.deps.Roles = role.NewRoleService(role.NewInMemoryRoleRepository())

		_, err := env.svc.RegisterAdmin(ctx, input)
		requireCode(t, err, apperrors.ErrCodeApplication)
		assert.Equal(t, msgSuperAdminRoleMissing, err.(*apperrors.Error).Message)
		assert.Empty(t, env.recorder.Events())
	})
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := env.createAdmin(t, "ada@example.com")

	require.NoError(t, env.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "nobody@example.com"}))
	env.svc.Wait()
	assert.Empty(t, env.notifier.Sent())

	err := env.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "not an email"})
	requireCode(t, err, apperrors.ErrCodeValidationFailed)

	require.NoError(t, env.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ada@example.com"}))
	env.svc.Wait()
	sent := env.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ada@example.com", sent[0].To)

	link, err := url.Parse(sent[0].Data["Link"])
	require.NoError(t, err)
	assert.Equal(t, "admin.example.com", link.Host)
	assert.Equal(t, "/auth/reset-password", link.Path)
	code := link.Query().Get("code")
	assert.Len(t, code, 40)

	_, err = env.svc.ResetPassword(ctx, ResetPasswordInput{Code: "wrong", Password: "NewPassword1"})
	requireCode(t, err, apperrors.ErrCodeApplication)

	result, err := env.svc.ResetPassword(ctx, ResetPasswordInput{Code: code, Password: "NewPassword1"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, result.User.ID)

	_, _, err = env.svc.Login(ctx, session.Session{}, LoginInput{Identifier: "ada@example.com", Password: "NewPassword1"})
	assert.NoError(t, err)

	_, err = env.svc.ResetPassword(ctx, ResetPasswordInput{Code: code, Password: "NewPassword2"})
	requireCode(t, err, apperrors.ErrCodeApplication)
}

// blockingMailer holds reset mails until release is closed
type blockingMailer struct {
	EmailSender
	release chan struct{}
	sent    chan string
}

func (m *blockingMailer) SendResetPasswordEmail(ctx context.Context, u user.SanitizedUser, link string) error {
	<-m.release
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sent <- u.Email
	return nil
}

func TestForgotPasswordDoesNotWaitForDelivery(t *testing.T) {
	env := newTestEnv(t)
	env.createAdmin(t, "ada@example.com")

	mailer := &blockingMailer{release: make(chan struct{}), sent: make(chan string, 1)}
	deps := env.svc.deps
	deps.Mailer = mailer
	svc := NewAuthService(deps, WithAdminURL("https://admin.example.com"))

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() {
		returned <- svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "ada@example.com"})
	}()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ForgotPassword waited for the mail to be sent")
	}

	// the request is over before delivery finishes
	cancel()
	close(mailer.release)
	svc.Wait()

	select {
	case to := <-mailer.sent:
		assert.Equal(t, "ada@example.com", to)
	default:
		t.Fatal("reset mail was not sent after the request ended")
	}

	u, err := env.users.FindActiveByEmailOrUsername(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ResetPasswordToken)
}
