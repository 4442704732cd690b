package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dododo1295/studyroute/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSessionContract(t *testing.T, store SessionStore) {
	ctx := context.Background()

	t.Run("SaveGetDelete", func(t *testing.T) {
		session := &model.Session{
			SessionID:   uuid.NewString(),
			Email:       "ana@x.com",
			DisplayName: "Chrome on Windows (Desktop)",
			CreatedAt:   time.Now().UTC().Truncate(time.Second),
			ExpiresAt:   time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}
		require.NoError(t, store.Save(ctx, session))

		got, err := store.Get(ctx, session.SessionID)
		require.NoError(t, err)
		assert.Equal(t, session.Email, got.Email)
		assert.Equal(t, session.DisplayName, got.DisplayName)
		assert.True(t, session.ExpiresAt.Equal(got.ExpiresAt))

		require.NoError(t, store.Delete(ctx, session.SessionID))
		_, err = store.Get(ctx, session.SessionID)
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := store.Get(ctx, uuid.NewString())
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
		_, err = store.Get(ctx, "")
		assert.ErrorIs(t, err, model.ErrSessionNotFound)
	})

	t.Run("MissingID", func(t *testing.T) {
		assert.Error(t, store.Save(ctx, &model.Session{Email: "ana@x.com", ExpiresAt: time.Now().Add(time.Hour)}))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, store.Ping(ctx))
	})
}

func TestMemorySessionStore(t *testing.T) {
	runSessionContract(t, NewMemorySessionStore())
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &model.Session{SessionID: "s1", Email: "ana@x.com", ExpiresAt: now.Add(time.Minute)}))

	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	assert.Empty(t, store.sessions, "expired sessions are dropped on read")
}

func TestRedisSessionStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set")
	}

	store, err := OpenSessionStore(context.Background(), redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, ok := store.(*RedisSessionStore)
	require.True(t, ok)
	runSessionContract(t, store)

	assert.Error(t, store.Save(context.Background(), &model.Session{SessionID: "old", ExpiresAt: time.Now().Add(-time.Minute)}),
		"an already expired session is refused")
}

func TestOpenSessionStoreFallsBackToMemory(t *testing.T) {
	store, err := OpenSessionStore(context.Background(), "")
	require.NoError(t, err)
	_, ok := store.(*MemorySessionStore)
	assert.True(t, ok)
}
