package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const DefaultCookieName = "admin_session"

// CookieConfig controls the session cookie
type CookieConfig struct {
	Name     string
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

// Manager binds sessions in a Store to a browser cookie.
type Manager struct {
	store  Store
	cookie CookieConfig
	ttl    time.Duration
	newID  func() string
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithIDGenerator overrides how new session IDs are generated
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager creates a Manager. Sessions expire ttl after their last save.
func NewManager(store Store, cookie CookieConfig, ttl time.Duration, opts ...ManagerOption) *Manager {
	if cookie.Name == "" {
		cookie.Name = DefaultCookieName
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	m := &Manager{
		store:  store,
		cookie: cookie,
		ttl:    ttl,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the session referenced by the request cookie or a new empty
// session. Store failures are returned so callers never proceed on stale state.
func (m *Manager) Load(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookie.Name)
	if err != nil || cookie.Value == "" {
		return Session{ID: m.newID()}, nil
	}

	sess, err := m.store.Get(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Session{ID: m.newID()}, nil
		}
		return Session{}, err
	}
	sess.ID = cookie.Value
	sess.loaded = true
	return sess, nil
}

// Take is Load for a request that consumes the session: the stored session
// is removed as it is read, so concurrent requests on one cookie cannot both
// receive it. Save the returned session to put it back.
func (m *Manager) Take(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(m.cookie.Name)
	if err != nil || cookie.Value == "" {
		return Session{ID: m.newID()}, nil
	}

	sess, err := m.store.Take(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Session{ID: m.newID()}, nil
		}
		return Session{}, err
	}
	sess.ID = cookie.Value
	sess.loaded = true
	return sess, nil
}

// Save persists sess. A session without a challenge holds nothing worth
// keeping, so it is removed from the store and its cookie expired.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess Session) error {
	if sess.Challenge == nil {
		if sess.loaded {
			return m.Destroy(ctx, w, sess)
		}
		return nil
	}

	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    sess.ID,
		Path:     m.cookie.Path,
		Expires:  time.Now().Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: m.cookie.HttpOnly,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
	return nil
}

// Destroy removes sess from the store and expires the cookie
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess Session) error {
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		slog.Error("Failed to delete session", "err", err)
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     m.cookie.Path,
		MaxAge:   -1,
		HttpOnly: m.cookie.HttpOnly,
		Secure:   m.cookie.Secure,
		SameSite: m.cookie.SameSite,
	})
	return nil
}
