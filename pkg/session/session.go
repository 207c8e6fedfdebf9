// Package session keeps the short-lived server-side state of an admin login:
// the pending multi-factor challenge. Sessions are keyed by an opaque ID
// carried in a cookie and exist only while a challenge is outstanding.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// VerificationChallenge is the second-factor state created after a successful
// password check when multi-factor authentication is enabled.
type VerificationChallenge struct {
	Code          string    `json:"code"`
	PendingUserID uuid.UUID `json:"pendingUserId"`
	RememberMe    bool      `json:"rememberMe"`
	CreatedAt     time.Time `json:"createdAt"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// NewChallenge creates a challenge valid for ttl from now. A zero ttl never expires.
func NewChallenge(code string, pendingUserID uuid.UUID, rememberMe bool, now time.Time, ttl time.Duration) *VerificationChallenge {
	c := &VerificationChallenge{
		Code:          code,
		PendingUserID: pendingUserID,
		RememberMe:    rememberMe,
		CreatedAt:     now,
	}
	if ttl > 0 {
		c.ExpiresAt = now.Add(ttl)
	}
	return c
}

// Expired reports whether the challenge can no longer be answered
func (c *VerificationChallenge) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Session is the per-browser state of the login flow. Challenge is the only
// field the flow reads or writes; at most one challenge exists per session.
type Session struct {
	ID        string                 `json:"id"`
	Challenge *VerificationChallenge `json:"challenge,omitempty"`

	// loaded is set when the session was read from the store
	loaded bool
}

// WithChallenge returns a copy of s holding c, replacing any prior challenge
func (s Session) WithChallenge(c *VerificationChallenge) Session {
	s.Challenge = c
	return s
}

// WithoutChallenge returns a copy of s with the challenge discarded
func (s Session) WithoutChallenge() Session {
	s.Challenge = nil
	return s
}

// Store persists sessions. Take reads and removes a session in one atomic
// step so only one caller can ever hold a given challenge.
type Store interface {
	Get(ctx context.Context, id string) (Session, error)
	Take(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
