package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-admin-auth/pkg/ratelimit"
	"github.com/tendant/simple-admin-auth/pkg/session"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

const (
	PersistenceMemory   = "memory"
	PersistencePostgres = "postgres"
)

// Config is the complete configuration of the admin auth service
type Config struct {
	AppConfig app.AppConfig
	Admin     AdminConfig
	JWT       JWTConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Email     EmailConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Bootstrap BootstrapConfig
	Log       LogConfig
}

type AdminConfig struct {
	// AdminURL is the public URL of the admin panel, used in reset links
	AdminURL        string        `env:"ADMIN_URL" env-default:"http://localhost:1337/admin"`
	ServerURL       string        `env:"ADMIN_SERVER_URL" env-default:"http://localhost:1337"`
	RoutePrefix     string        `env:"ADMIN_ROUTE_PREFIX" env-default:"/admin"`
	Persistence     string        `env:"ADMIN_PERSISTENCE" env-default:"memory"`
	MigrationsPath  string        `env:"ADMIN_MIGRATIONS_PATH" env-default:"migrations"`
	TOTPIssuer      string        `env:"ADMIN_TOTP_ISSUER" env-default:"Admin"`
	MFAChallengeTTL time.Duration `env:"ADMIN_MFA_CHALLENGE_TTL" env-default:"10m"`
}

type JWTConfig struct {
	Secret    string        `env:"ADMIN_JWT_SECRET"`
	ExpiresIn time.Duration `env:"ADMIN_JWT_EXPIRES_IN" env-default:"720h"`
}

// RedisConfig selects the Redis session store when Addr is set
type RedisConfig struct {
	Addr      string `env:"ADMIN_REDIS_ADDR"`
	Password  string `env:"ADMIN_REDIS_PASSWORD"`
	DB        int    `env:"ADMIN_REDIS_DB" env-default:"0"`
	KeyPrefix string `env:"ADMIN_REDIS_KEY_PREFIX" env-default:"admin:session"`
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func (r RedisConfig) ToOptions() *redis.Options {
	return &redis.Options{
		Addr:     r.Addr,
		Password: r.Password,
		DB:       r.DB,
	}
}

type SessionConfig struct {
	CookieName     string        `env:"ADMIN_SESSION_COOKIE_NAME" env-default:"admin_session"`
	CookieSecure   bool          `env:"ADMIN_SESSION_COOKIE_SECURE" env-default:"false"`
	CookieSameSite string        `env:"ADMIN_SESSION_COOKIE_SAMESITE" env-default:"lax"`
	TTL            time.Duration `env:"ADMIN_SESSION_TTL" env-default:"24h"`
}

// ToCookieConfig builds the session cookie settings. The cookie is scoped to path.
func (s SessionConfig) ToCookieConfig(path string) session.CookieConfig {
	return session.CookieConfig{
		Name:     s.CookieName,
		Path:     path,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: s.sameSite(),
	}
}

func (s SessionConfig) sameSite() http.SameSite {
	switch strings.ToLower(s.CookieSameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

type RateLimitConfig struct {
	Enabled   bool          `env:"ADMIN_RATE_LIMIT_ENABLED" env-default:"true"`
	RPS       float64       `env:"ADMIN_RATE_LIMIT_RPS" env-default:"0.1667"`
	Burst     int           `env:"ADMIN_RATE_LIMIT_BURST" env-default:"10"`
	BucketTTL time.Duration `env:"ADMIN_RATE_LIMIT_BUCKET_TTL" env-default:"1h"`
	// TrustProxy reads the client address from forwarding headers
	TrustProxy bool `env:"ADMIN_RATE_LIMIT_TRUST_PROXY" env-default:"false"`
}

func (r RateLimitConfig) ToRateLimitConfig() ratelimit.Config {
	return ratelimit.Config{
		Enabled:           r.Enabled,
		RequestsPerSecond: r.RPS,
		Burst:             r.Burst,
		BucketTTL:         r.BucketTTL,
		TrustProxy:        r.TrustProxy,
	}
}

type PasswordConfig struct {
	MinLength          int  `env:"ADMIN_PASSWORD_MIN_LENGTH" env-default:"8"`
	RequireUppercase   bool `env:"ADMIN_PASSWORD_REQUIRE_UPPERCASE" env-default:"true"`
	RequireLowercase   bool `env:"ADMIN_PASSWORD_REQUIRE_LOWERCASE" env-default:"true"`
	RequireDigit       bool `env:"ADMIN_PASSWORD_REQUIRE_DIGIT" env-default:"true"`
	RequireSpecialChar bool `env:"ADMIN_PASSWORD_REQUIRE_SPECIAL" env-default:"false"`
}

func (p PasswordConfig) ToPasswordPolicy() user.PasswordPolicy {
	return user.PasswordPolicy{
		MinLength:          p.MinLength,
		RequireUppercase:   p.RequireUppercase,
		RequireLowercase:   p.RequireLowercase,
		RequireDigit:       p.RequireDigit,
		RequireSpecialChar: p.RequireSpecialChar,
	}
}

// BootstrapConfig creates the first super admin at startup when Email is set
type BootstrapConfig struct {
	Email     string `env:"ADMIN_BOOTSTRAP_EMAIL"`
	Firstname string `env:"ADMIN_BOOTSTRAP_FIRSTNAME" env-default:"Admin"`
	Lastname  string `env:"ADMIN_BOOTSTRAP_LASTNAME"`
	Password  string `env:"ADMIN_BOOTSTRAP_PASSWORD"`
}

func (b BootstrapConfig) Enabled() bool {
	return b.Email != ""
}

type LogConfig struct {
	Level  string `env:"ADMIN_LOG_LEVEL" env-default:"info"`
	Format string `env:"ADMIN_LOG_FORMAT" env-default:"text"`
}

// NewHandler returns a slog handler writing to w
func (l LogConfig) NewHandler(w io.Writer) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: true}
	if strings.EqualFold(l.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Load reads the configuration from the environment
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once
func (c Config) Validate() error {
	return Validate(
		func() ValidationErrors {
			return CollectErrors(
				RequireNonEmpty("ADMIN_JWT_SECRET", c.JWT.Secret),
				RequirePositiveDuration("ADMIN_JWT_EXPIRES_IN", c.JWT.ExpiresIn),
				RequireValidURL("ADMIN_URL", c.Admin.AdminURL),
				RequireValidURL("ADMIN_SERVER_URL", c.Admin.ServerURL),
				RequirePathPrefix("ADMIN_ROUTE_PREFIX", c.Admin.RoutePrefix),
				RequireOneOf("ADMIN_PERSISTENCE", c.Admin.Persistence, []string{PersistenceMemory, PersistencePostgres}),
				RequireNonNegativeDuration("ADMIN_MFA_CHALLENGE_TTL", c.Admin.MFAChallengeTTL),
			)
		},
		func() ValidationErrors {
			return CollectErrors(
				RequireNonEmpty("ADMIN_SESSION_COOKIE_NAME", c.Session.CookieName),
				RequireOneOf("ADMIN_SESSION_COOKIE_SAMESITE", strings.ToLower(c.Session.CookieSameSite), []string{"lax", "strict", "none"}),
				RequirePositiveDuration("ADMIN_SESSION_TTL", c.Session.TTL),
				RequireAtLeastDuration("ADMIN_SESSION_TTL", c.Session.TTL, c.Admin.MFAChallengeTTL),
			)
		},
		func() ValidationErrors {
			if !c.RateLimit.Enabled {
				return nil
			}
			return CollectErrors(
				RequirePositiveFloat("ADMIN_RATE_LIMIT_RPS", c.RateLimit.RPS),
				RequirePositive("ADMIN_RATE_LIMIT_BURST", c.RateLimit.Burst),
			)
		},
		func() ValidationErrors {
			return CollectErrors(
				RequireInRange("ADMIN_PASSWORD_MIN_LENGTH", c.Password.MinLength, 1, 72),
				RequireOneOf("ADMIN_LOG_FORMAT", strings.ToLower(c.Log.Format), []string{"text", "json"}),
			)
		},
		func() ValidationErrors {
			if c.Admin.Persistence != PersistencePostgres {
				return nil
			}
			return c.Database.validate()
		},
		c.Email.validate,
		func() ValidationErrors {
			if !c.Bootstrap.Enabled() {
				return nil
			}
			return CollectErrors(RequireValidEmail("ADMIN_BOOTSTRAP_EMAIL", c.Bootstrap.Email))
		},
	)
}
