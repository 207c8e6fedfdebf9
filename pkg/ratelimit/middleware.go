package ratelimit

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tendant/simple-admin-auth/pkg/common"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
)

// Config holds rate limiting configuration
type Config struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	// how long to keep an idle client's bucket
	BucketTTL time.Duration
	// TrustProxy keys on X-Forwarded-For or X-Real-IP. Enable it only when
	// every request arrives through a proxy that sets those headers.
	TrustProxy bool
}

// DefaultConfig allows a burst of 10 and then one request every 6 seconds per IP
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerSecond: 10.0 / 60.0,
		Burst:             10,
		BucketTTL:         time.Hour,
	}
}

// Middleware limits requests per client IP
type Middleware struct {
	config  Config
	limiter *Limiter
}

func NewMiddleware(config Config) *Middleware {
	return &Middleware{
		config:  config,
		limiter: NewLimiter(config.RequestsPerSecond, config.Burst, config.BucketTTL),
	}
}

// Limiter exposes the underlying limiter so callers can run its cleanup loop
func (m *Middleware) Limiter() *Limiter {
	return m.limiter
}

// Handler returns the rate limiting middleware handler
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := getClientIP(r, m.config.TrustProxy)
		// the same client may hit several limited routes, each gets its own bucket
		key := ip + " " + r.Method + " " + r.URL.Path
		if ok, wait := m.limiter.Allow(key); !ok {
			m.rateLimitExceeded(w, r, ip, wait)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) rateLimitExceeded(w http.ResponseWriter, r *http.Request, ip string, wait time.Duration) {
	retryAfter := strconv.Itoa(int(math.Ceil(wait.Seconds())))
	slog.Warn("Rate limit exceeded", "ip", ip, "path", r.URL.Path, "method", r.Method, "retry_after", retryAfter)

	w.Header().Set("Retry-After", retryAfter)
	common.RenderError(w, r, apperrors.RateLimitExceeded(retryAfter))
}

// getClientIP returns the address the limit applies to. Forwarding headers
// are client controlled unless a trusted proxy overwrites them, so they are
// only read when trustProxy is set.
func getClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For can contain multiple IPs, take the first one
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if ip := strings.TrimSpace(ips[0]); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
