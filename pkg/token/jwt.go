package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultExpiresIn is the lifetime of an admin JWT when none is configured.
const DefaultExpiresIn = 30 * 24 * time.Hour

var ErrSecretNotDefined = errors.New("missing admin JWT secret: set ADMIN_JWT_SECRET")

// Claims is the signed body of an admin JWT.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Payload is the decoded content of a valid admin JWT.
type Payload struct {
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// DecodeResult is returned by DecodeJwtToken. Payload is nil whenever Valid is false.
type DecodeResult struct {
	Valid   bool
	Payload *Payload
}

// Service issues and verifies admin JWTs and generates random tokens.
type Service struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithExpiresIn overrides the JWT lifetime
func WithExpiresIn(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.expiresIn = d
		}
	}
}

// WithClock sets the time source used for iat, exp and expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service signing with secret
func NewService(secret string, opts ...Option) *Service {
	s := &Service{
		secret:    []byte(secret),
		expiresIn: DefaultExpiresIn,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckSecretIsDefined fails when no signing secret is configured. It is meant
// to run once at startup.
func (s *Service) CheckSecretIsDefined() error {
	if len(s.secret) == 0 {
		return ErrSecretNotDefined
	}
	return nil
}

// ExpiresIn returns the configured JWT lifetime
func (s *Service) ExpiresIn() time.Duration {
	return s.expiresIn
}

// CreateJwtToken signs {id} for the given user.
func (s *Service) CreateJwtToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := Claims{
		ID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		slog.Error("Failed to sign admin JWT", "err", err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// DecodeJwtToken verifies signature and expiry. Malformed, tampered or
// expired tokens all yield {Valid: false, Payload: nil}.
func (s *Service) DecodeJwtToken(tokenString string) DecodeResult {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid || claims.ID == "" {
		return DecodeResult{}
	}

	payload := &Payload{ID: claims.ID}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time
	}
	return DecodeResult{Valid: true, Payload: payload}
}
