package repository

import (
	"context"
	"sync"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"
)

// MemoryStore keeps users in process memory. Used for tests and local runs.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*model.User)}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*model.User, error) {
	timer := utils.TrackStoreOperation("memory", "find")
	defer timer.ObserveDuration()

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[model.NormalizeEmail(email)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) Insert(_ context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation("memory", "insert")
	defer timer.ObserveDuration()

	u := prepareInsert(user)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.Email]; exists {
		return nil, model.ErrDuplicateUser
	}
	s.users[u.Email] = u
	return u.Clone(), nil
}

func (s *MemoryStore) Replace(_ context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation("memory", "replace")
	defer timer.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.Key()]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := prepareReplace(user, existing)
	s.users[u.Email] = u
	return u.Clone(), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
