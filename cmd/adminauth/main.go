package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/jwtauth/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"

	"github.com/tendant/simple-admin-auth/pkg/audit"
	"github.com/tendant/simple-admin-auth/pkg/auth"
	authapi "github.com/tendant/simple-admin-auth/pkg/auth/api"
	"github.com/tendant/simple-admin-auth/pkg/bootstrap"
	"github.com/tendant/simple-admin-auth/pkg/config"
	"github.com/tendant/simple-admin-auth/pkg/migration"
	"github.com/tendant/simple-admin-auth/pkg/notification"
	"github.com/tendant/simple-admin-auth/pkg/ratelimit"
	"github.com/tendant/simple-admin-auth/pkg/role"
	"github.com/tendant/simple-admin-auth/pkg/router"
	"github.com/tendant/simple-admin-auth/pkg/session"
	"github.com/tendant/simple-admin-auth/pkg/settings"
	settingsapi "github.com/tendant/simple-admin-auth/pkg/settings/api"
	"github.com/tendant/simple-admin-auth/pkg/token"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

type repositories struct {
	users    user.UserRepository
	roles    role.RoleRepository
	settings settings.Store
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := slog.New(cfg.Log.NewHandler(os.Stdout))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	tokens := token.NewService(cfg.JWT.Secret, token.WithExpiresIn(cfg.JWT.ExpiresIn))
	if err := tokens.CheckSecretIsDefined(); err != nil {
		slog.Error("Refusing to start", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos := openRepositories(ctx, cfg)
	defer closeRepos()

	roleService := role.NewRoleService(repos.roles)
	if err := roleService.EnsureDefaultRoles(ctx); err != nil {
		slog.Error("Failed to ensure default roles", "err", err)
		os.Exit(1)
	}

	settingsService := settings.NewService(repos.settings, roleService, settings.Config{
		ServerURL:  cfg.Admin.ServerURL,
		TOTPIssuer: cfg.Admin.TOTPIssuer,
	})
	if err := settingsService.EnsureDefaults(ctx); err != nil {
		slog.Error("Failed to store default settings", "err", err)
		os.Exit(1)
	}

	userService := user.NewUserService(repos.users, user.WithPasswordPolicy(cfg.Password.ToPasswordPolicy()))

	if cfg.Bootstrap.Enabled() {
		result, err := bootstrap.BootstrapSuperAdmin(ctx, bootstrap.AdminBootstrapConfig{
			Email:     cfg.Bootstrap.Email,
			Firstname: cfg.Bootstrap.Firstname,
			Lastname:  cfg.Bootstrap.Lastname,
			Password:  cfg.Bootstrap.Password,
			Roles:     roleService,
			Users:     userService,
		})
		if err != nil {
			slog.Error("Failed to bootstrap admin", "err", err)
			os.Exit(1)
		}
		bootstrap.PrintBootstrapResult(os.Stdout, result)
		bootstrap.LogBootstrapSummary(result)
	}

	notificationManager, err := notification.NewNotificationManagerWithOptions(
		notification.WithSMTP(cfg.Email.ToSMTPConfig()),
		notification.WithDefaultTemplates(),
	)
	if err != nil {
		slog.Error("Failed initializing notification manager", "err", err)
		os.Exit(1)
	}

	hub := audit.NewHub(audit.LogSubscriber)

	authService := auth.NewAuthService(auth.Dependencies{
		Tokens:   tokens,
		Users:    userService,
		Roles:    roleService,
		Mailer:   auth.NewNotificationMailer(notificationManager, cfg.Admin.MFAChallengeTTL),
		Events:   hub,
		Settings: settingsService,
		Verifier: auth.NewLocalStrategy(userService),
	},
		auth.WithAdminURL(cfg.Admin.AdminURL),
		auth.WithChallengeTTL(cfg.Admin.MFAChallengeTTL),
	)

	prefix := strings.TrimSuffix(cfg.Admin.RoutePrefix, "/")
	cookiePath := prefix
	if cookiePath == "" {
		cookiePath = "/"
	}
	sessions := session.NewManager(newSessionStore(cfg), cfg.Session.ToCookieConfig(cookiePath), cfg.Session.TTL)

	limiter := ratelimit.NewMiddleware(cfg.RateLimit.ToRateLimitConfig())
	go limiter.Limiter().Run(ctx)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)
	auditMiddleware := audit.NewMiddleware(hub)

	authHandler := authapi.NewHandler(authService, sessions, tokenAuth,
		authapi.WithRateLimiter(limiter.Handler),
		authapi.WithAuthenticatedMiddleware(auditMiddleware.AuditAuthMiddleware),
	)
	settingsHandler := settingsapi.NewHandler(settingsService, userService)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	router.SetupRoutes(server.R, router.Config{
		Prefix:                   prefix,
		AuthHandler:              authHandler,
		SettingsHandler:          settingsHandler,
		TokenAuth:                tokenAuth,
		AuthenticatedMiddlewares: []func(http.Handler) http.Handler{auditMiddleware.AuditAuthMiddleware},
	})

	slog.Info("Admin auth service ready",
		"prefix", prefix,
		"persistence", cfg.Admin.Persistence,
		"redis_sessions", cfg.Redis.Enabled(),
		"rate_limit", cfg.RateLimit.Enabled)
	server.Run()

	// let password reset mails already accepted finish
	authService.Wait()
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, func()) {
	if cfg.Admin.Persistence != config.PersistencePostgres {
		slog.Warn("Using in-memory persistence, data is lost on restart")
		return repositories{
			users:    user.NewInMemoryUserRepository(),
			roles:    role.NewInMemoryRoleRepository(),
			settings: settings.NewInMemoryStore(),
		}, func() {}
	}

	if err := migration.Up(cfg.Database.ToDatabaseURL(), cfg.Admin.MigrationsPath, slog.Default()); err != nil {
		slog.Error("Failed to apply migrations", "path", cfg.Admin.MigrationsPath, "err", err)
		os.Exit(1)
	}

	dbConfig := cfg.Database.ToDbConfig()
	pool, err := dbutils.NewDbPool(ctx, dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(1)
	}

	return postgresRepositories(pool), pool.Close
}

func postgresRepositories(pool *pgxpool.Pool) repositories {
	return repositories{
		users:    user.NewPostgresUserRepository(pool),
		roles:    role.NewPostgresRoleRepository(pool),
		settings: settings.NewPostgresStore(pool),
	}
}

func newSessionStore(cfg config.Config) session.Store {
	if !cfg.Redis.Enabled() {
		return session.NewInMemoryStore()
	}
	rdb := redis.NewClient(cfg.Redis.ToOptions())
	return session.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
}
