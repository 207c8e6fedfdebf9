package client

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/common"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
)

// AuthUser is the admin identified by a verified JWT
type AuthUser struct {
	ID     string `json:"id,omitempty"`
	UserID uuid.UUID
}

func (i AuthUser) LogValue() slog.Value {
	return slog.GroupValue(slog.String("user", i.ID))
}

// contextKey is a value for use with context.WithValue. It's used as
// a pointer so it fits in an interface{} without allocation.
type contextKey struct {
	name string
}

func (k *contextKey) String() string {
	return "admin context value " + k.name
}

const ACCESS_TOKEN_NAME = "admin_jwt"

var (
	AuthUserKey = &contextKey{"AuthUser"}
)

// Verifier verifies the bearer token, falling back to the access token cookie
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return jwtauth.Verify(ja, jwtauth.TokenFromHeader, TokenFromCookie)(next)
	}
}

func TokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(ACCESS_TOKEN_NAME)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// AuthUserMiddleware loads the AuthUser from the verified token claims.
// Must be used after Verifier.
func AuthUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			slog.Debug("Rejected unauthenticated request", "path", r.URL.Path, "err", err)
			common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
			return
		}

		id, _ := claims["id"].(string)
		if id == "" {
			common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
			return
		}

		authUser := &AuthUser{ID: id}
		if userID, err := uuid.Parse(id); err == nil {
			authUser.UserID = userID
		} else {
			slog.Warn("failed to parse user ID as UUID", "id", id, "err", err)
		}

		ctx := context.WithValue(r.Context(), AuthUserKey, authUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAuthUser returns the AuthUser set by AuthUserMiddleware
func GetAuthUser(r *http.Request) (*AuthUser, bool) {
	authUser, ok := r.Context().Value(AuthUserKey).(*AuthUser)
	return authUser, ok && authUser != nil
}
