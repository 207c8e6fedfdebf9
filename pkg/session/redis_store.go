package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKeyPrefix = "admin:session"

// RedisStore implements Store on Redis. Each session is one JSON value whose
// key TTL matches the session lifetime.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a Redis session store. An empty prefix uses DefaultRedisKeyPrefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}
	return decodeSession(id, data)
}

// Take uses GETDEL (Redis 6.2+), so concurrent callers never see the same value
func (s *RedisStore) Take(ctx context.Context, id string) (Session, error) {
	data, err := s.redis.GetDel(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("failed to take session: %w", err)
	}
	return decodeSession(id, data)
}

func decodeSession(id string, data []byte) (Session, error) {
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to decode session: %w", err)
	}
	sess.ID = id
	return sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess Session, ttl time.Duration) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sess.ID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if _, err := s.redis.Del(ctx, s.key(id)).Result(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
