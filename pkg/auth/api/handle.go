package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-admin-auth/pkg/auth"
	"github.com/tendant/simple-admin-auth/pkg/client"
	"github.com/tendant/simple-admin-auth/pkg/common"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/session"
)

// Handler serves the admin authentication endpoints
type Handler struct {
	service   *auth.AuthService
	sessions  *session.Manager
	tokenAuth *jwtauth.JWTAuth
	limiter   func(http.Handler) http.Handler
	authed    []func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithRateLimiter limits the login, mfa and password reset routes
func WithRateLimiter(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.limiter = mw
	}
}

// WithAuthenticatedMiddleware adds middleware to routes requiring an admin JWT.
// It runs after the token has been verified.
func WithAuthenticatedMiddleware(mws ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.authed = append(h.authed, mws...)
	}
}

func NewHandler(service *auth.AuthService, sessions *session.Manager, tokenAuth *jwtauth.JWTAuth, opts ...Option) *Handler {
	h := &Handler{
		service:   service,
		sessions:  sessions,
		tokenAuth: tokenAuth,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	limited := r
	if h.limiter != nil {
		limited = r.With(h.limiter)
	}

	limited.Post("/login", h.Login)
	limited.Post("/mfa", h.VerifyMFA)
	limited.Post("/forgot-password", h.ForgotPassword)
	limited.Post("/reset-password", h.ResetPassword)

	r.Post("/renew-token", h.RenewToken)
	r.Get("/registration-info", h.RegistrationInfo)
	r.Post("/register", h.Register)
	r.Post("/register-admin", h.RegisterAdmin)

	r.Group(func(r chi.Router) {
		r.Use(client.Verifier(h.tokenAuth))
		r.Use(client.AuthUserMiddleware)
		r.Use(h.authed...)
		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)
		r.Post("/invite", h.Invite)
	})
}

// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to map login request"))
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	result, sess, err := h.service.Login(r.Context(), sess, in)
	if !h.saveSession(w, r, sess) {
		return
	}
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, newLoginResponse(result))
}

// POST /mfa
func (h *Handler) VerifyMFA(w http.ResponseWriter, r *http.Request) {
	var req MFARequest
	if !decode(w, r, &req) {
		return
	}
	// malformed input leaves the stored challenge untouched
	if _, err := req.Code.Value(); err != nil {
		common.RenderError(w, r, err)
		return
	}

	sess, err := h.sessions.Take(r)
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to load session"))
		return
	}
	result, sess, err := h.service.VerifyMFA(r.Context(), sess, auth.MFAInput{Code: req.Code})
	if !h.saveSession(w, r, sess) {
		return
	}
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, MFAResponse{Token: result.Token, RememberMe: result.RememberMe})
}

// GET|POST /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
		return
	}

	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	sess, err := h.service.Logout(r.Context(), sess, authUser.UserID)
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to destroy session"))
		return
	}
	common.RenderData(w, r, http.StatusOK, struct{}{})
}

// POST /renew-token
func (h *Handler) RenewToken(w http.ResponseWriter, r *http.Request) {
	var req RenewTokenRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := h.service.RenewToken(r.Context(), auth.RenewInput{Token: req.Token})
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, TokenResponse{Token: result.Token})
}

// GET /registration-info?registrationToken=
func (h *Handler) RegistrationInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.RegistrationInfo(r.Context(), r.URL.Query().Get("registrationToken"))
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, info)
}

// POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to map register request"))
		return
	}
	result, err := h.service.Register(r.Context(), in)
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, AuthResponse{Token: result.Token, User: result.User})
}

// POST /register-admin
func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req RegisterAdminRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to map register admin request"))
		return
	}
	result, err := h.service.RegisterAdmin(r.Context(), in)
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	slog.Info("First admin registered", "user_id", result.User.ID)
	common.RenderData(w, r, http.StatusOK, AuthResponse{Token: result.Token, User: result.User})
}

// POST /invite
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
		return
	}

	var req InviteRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to map invite request"))
		return
	}

	result, err := h.service.Invite(r.Context(), in)
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	slog.Info("Admin invited", "by", authUser.UserID, "user_id", result.User.ID)
	common.RenderData(w, r, http.StatusOK, InviteResponse{User: result.User, RegistrationToken: result.RegistrationToken})
}

// POST /forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.toInput()); err != nil {
		common.RenderError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to map reset password request"))
		return
	}
	result, err := h.service.ResetPassword(r.Context(), in)
	if err != nil {
		common.RenderError(w, r, err)
		return
	}
	common.RenderData(w, r, http.StatusOK, AuthResponse{Token: result.Token, User: result.User})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		slog.Warn("Unable to parse request body", "path", r.URL.Path, "err", err)
		common.RenderError(w, r, apperrors.Validation("Unable to parse request body"))
		return false
	}
	return true
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := h.sessions.Load(r)
	if err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to load session"))
		return session.Session{}, false
	}
	return sess, true
}

// saveSession persists the session returned by the flow, whatever its outcome
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, sess session.Session) bool {
	if err := h.sessions.Save(r.Context(), w, sess); err != nil {
		common.RenderError(w, r, apperrors.InternalWrap(err, "failed to save session"))
		return false
	}
	return true
}
