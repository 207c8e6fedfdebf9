package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ""), mr
}

func testStoreRoundTrip(t *testing.T, store Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()

	sess := Session{ID: "sess-1"}.WithChallenge(NewChallenge("012345", userID, true, now, 10*time.Minute))
	require.NoError(t, store.Save(ctx, sess, time.Hour))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got.Challenge)
	assert.Equal(t, "012345", got.Challenge.Code)
	assert.Equal(t, userID, got.Challenge.PendingUserID)
	assert.True(t, got.Challenge.RememberMe)
	assert.True(t, got.Challenge.ExpiresAt.Equal(now.Add(10*time.Minute)))

	replaced := got.WithChallenge(NewChallenge("999999", userID, false, now, time.Minute))
	require.NoError(t, store.Save(ctx, replaced, time.Hour))
	got, err = store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "999999", got.Challenge.Code)

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Delete(ctx, "sess-1"), "delete is idempotent")

	t.Run("take removes the session", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sess, time.Hour))

		taken, err := store.Take(ctx, "sess-1")
		require.NoError(t, err)
		require.NotNil(t, taken.Challenge)
		assert.Equal(t, "012345", taken.Challenge.Code)

		_, err = store.Take(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = store.Get(ctx, "sess-1")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("concurrent take hands the session to one caller", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sess, time.Hour))

		const callers = 20
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			found int
		)
		start := make(chan struct{})
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := store.Take(ctx, "sess-1"); err == nil {
					mu.Lock()
					found++
					mu.Unlock()
				}
			}()
		}
		close(start)
		wg.Wait()
		assert.Equal(t, 1, found)
	})
}

func TestInMemoryStore(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		testStoreRoundTrip(t, NewInMemoryStore())
	})

	t.Run("take of expired session", func(t *testing.T) {
		ctx := context.Background()
		store := NewInMemoryStore()
		now := time.Now()
		store.now = func() time.Time { return now }

		require.NoError(t, store.Save(ctx, Session{ID: "s"}, time.Minute))
		now = now.Add(2 * time.Minute)
		_, err := store.Take(ctx, "s")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.Empty(t, store.sessions)
	})

	t.Run("expiry", func(t *testing.T) {
		ctx := context.Background()
		store := NewInMemoryStore()
		now := time.Now()
		store.now = func() time.Time { return now }

		require.NoError(t, store.Save(ctx, Session{ID: "s"}, time.Minute))
		_, err := store.Get(ctx, "s")
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = store.Get(ctx, "s")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestRedisStore(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		store, _ := newRedisStore(t)
		testStoreRoundTrip(t, store)
	})

	t.Run("key ttl", func(t *testing.T) {
		ctx := context.Background()
		store, mr := newRedisStore(t)

		require.NoError(t, store.Save(ctx, Session{ID: "s"}, time.Minute))
		assert.True(t, mr.Exists(DefaultRedisKeyPrefix+":s"))
		assert.Equal(t, time.Minute, mr.TTL(DefaultRedisKeyPrefix+":s"))

		mr.FastForward(2 * time.Minute)
		_, err := store.Get(ctx, "s")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestChallengeExpired(t *testing.T) {
	now := time.Now()
	c := NewChallenge("123456", uuid.New(), false, now, time.Minute)
	assert.False(t, c.Expired(now))
	assert.False(t, c.Expired(now.Add(59*time.Second)))
	assert.True(t, c.Expired(now.Add(time.Minute)))

	forever := NewChallenge("123456", uuid.New(), false, now, 0)
	assert.False(t, forever.Expired(now.Add(24*time.Hour)))
}
