package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SessionStore tracks the login sessions behind issued tokens. A token whose
// session is gone is treated as revoked.
type SessionStore interface {
	Save(ctx context.Context, session *model.Session) error
	// Get returns model.ErrSessionNotFound for unknown or expired sessions.
	Get(ctx context.Context, sessionID string) (*model.Session, error)
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}

// OpenSessionStore uses Redis when redisURL is set and falls back to process
// memory otherwise.
func OpenSessionStore(ctx context.Context, redisURL string) (SessionStore, error) {
	if redisURL == "" {
		utils.Logger().Info("no redis configured, sessions kept in memory")
		return NewMemorySessionStore(), nil
	}
	return NewRedisSessionStore(ctx, redisURL)
}

type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(ctx context.Context, redisURL string) (*RedisSessionStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisSessionStore{client: client}, nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *RedisSessionStore) Save(ctx context.Context, session *model.Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("cannot store session without id")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session has already expired")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.SessionID), data, ttl).Err(); err != nil {
		utils.TrackError("session_cache")
		return fmt.Errorf("failed to cache session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, model.ErrSessionNotFound
	}

	data, err := s.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrSessionNotFound
	}
	if err != nil {
		utils.TrackError("session_cache")
		return nil, fmt.Errorf("failed to get session from cache: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if session.Expired(time.Now()) {
		if err := s.Delete(ctx, sessionID); err != nil {
			utils.Logger().Warn("failed to drop expired session", zap.Error(err))
		}
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session from cache: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// MemorySessionStore is the single-process fallback.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]model.Session), now: time.Now}
}

func (s *MemorySessionStore) Save(_ context.Context, session *model.Session) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("cannot store session without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = *session
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		delete(s.sessions, sessionID)
		return nil, model.ErrSessionNotFound
	}
	return &session, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemorySessionStore) Ping(context.Context) error { return nil }

func (s *MemorySessionStore) Close() error { return nil }
