// Package router assembles the admin routes under the configured prefix.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/tendant/simple-admin-auth/pkg/client"
)

// RouteRegistrar is implemented by the auth and settings handlers
type RouteRegistrar interface {
	RegisterRoutes(r chi.Router)
}

// Config holds the handlers and JWT verification used to build the routes
type Config struct {
	// Prefix is where the admin routes live, e.g. "/admin"
	Prefix string

	AuthHandler     RouteRegistrar
	SettingsHandler RouteRegistrar

	TokenAuth *jwtauth.JWTAuth

	// AuthenticatedMiddlewares run after the JWT has been verified
	AuthenticatedMiddlewares []func(http.Handler) http.Handler
}

// SetupRoutes mounts the auth routes at cfg.Prefix and the settings routes
// at cfg.Prefix/settings behind admin JWT verification.
func SetupRoutes(router chi.Router, cfg Config) {
	mount := func(r chi.Router) {
		if cfg.AuthHandler != nil {
			cfg.AuthHandler.RegisterRoutes(r)
		}
		if cfg.SettingsHandler != nil {
			r.Route("/settings", func(r chi.Router) {
				SetupAuthenticatedRoutes(r, cfg)
				cfg.SettingsHandler.RegisterRoutes(r)
			})
		}
	}

	// chi cannot mount a sub-router on an empty pattern
	if cfg.Prefix == "" || cfg.Prefix == "/" {
		mount(router)
		return
	}
	router.Route(cfg.Prefix, mount)
}

// SetupAuthenticatedRoutes installs the middleware that admits only requests
// carrying a valid admin JWT, as a bearer token or the admin_jwt cookie.
func SetupAuthenticatedRoutes(r chi.Router, cfg Config) {
	r.Use(client.Verifier(cfg.TokenAuth))
	r.Use(client.AuthUserMiddleware)
	for _, mw := range cfg.AuthenticatedMiddlewares {
		r.Use(mw)
	}
}
