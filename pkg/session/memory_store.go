package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// InMemoryStore implements Store in process memory. Expired entries are
// dropped when read.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memoryEntry
	now      func() time.Time
}

// NewInMemoryStore creates a new in-memory session store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *InMemoryStore) Take(ctx context.Context, id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	delete(s.sessions, id)
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		return Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

func (s *InMemoryStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	entry := memoryEntry{session: sess}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = entry
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
