package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("setting not found")

// Key addresses one configuration blob
type Key struct {
	Type string
	Name string
	Key  string
}

const (
	storeType = "plugin"
	storeName = "users-permissions"
)

var (
	EmailKey    = Key{Type: storeType, Name: storeName, Key: "email"}
	AdvancedKey = Key{Type: storeType, Name: storeName, Key: "advanced"}
	GrantKey    = Key{Type: storeType, Name: storeName, Key: "grant"}
)

// Store is a generic key/value store of JSON documents
type Store interface {
	Get(ctx context.Context, key Key) (json.RawMessage, error)
	Set(ctx context.Context, key Key, value json.RawMessage) error
}

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[Key]json.RawMessage
}

// NewInMemoryStore creates a new in-memory settings store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[Key]json.RawMessage),
	}
}

func (s *InMemoryStore) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *InMemoryStore) Set(ctx context.Context, key Key, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append(json.RawMessage(nil), value...)
	return nil
}
