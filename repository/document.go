package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"go.uber.org/zap"
)

// Document is the single-JSON layout shared by the file and jsonbin drivers:
// { "users": { "<email>": { ...record } } }.
type Document struct {
	Users map[string]*model.User `json:"users"`
}

// DecodeDocument parses a document, keying every record by its normalized email.
func DecodeDocument(r io.Reader) (*Document, error) {
	var raw Document
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return &Document{Users: map[string]*model.User{}}, nil
		}
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return normalizeDocument(&raw), nil
}

func normalizeDocument(raw *Document) *Document {
	doc := &Document{Users: make(map[string]*model.User, len(raw.Users))}
	for key, u := range raw.Users {
		if u == nil {
			continue
		}
		if u.Email == "" {
			u.Email = key
		}
		u.Ensure()
		doc.Users[u.Email] = u
	}
	return doc
}

// documentBackend loads and saves the whole document in one round trip.
type documentBackend interface {
	name() string
	load(ctx context.Context) (*Document, error)
	save(ctx context.Context, doc *Document) error
	ping(ctx context.Context) error
}

// documentStore implements UserStore as read-whole-document, mutate, write-whole-document.
// The mutex serializes writers inside this process only.
type documentStore struct {
	mu      sync.Mutex
	backend documentBackend
}

func (s *documentStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.backend.name(), "find")
	defer timer.ObserveDuration()

	doc, err := s.backend.load(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(s.backend.name(), "load", err)
	}
	u, ok := doc.Users[model.NormalizeEmail(email)]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (s *documentStore) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.backend.name(), "insert")
	defer timer.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.load(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(s.backend.name(), "load", err)
	}

	u := prepareInsert(user)
	if _, exists := doc.Users[u.Email]; exists {
		return nil, model.ErrDuplicateUser
	}
	doc.Users[u.Email] = u

	if err := s.backend.save(ctx, doc); err != nil {
		utils.Logger().Error("document save failed", zap.String("driver", s.backend.name()), zap.String("op", "insert"), zap.Error(err))
		return nil, model.NewPersistenceError(s.backend.name(), "save", err)
	}
	return u.Clone(), nil
}

func (s *documentStore) Replace(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation(s.backend.name(), "replace")
	defer timer.ObserveDuration()

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.backend.load(ctx)
	if err != nil {
		return nil, model.NewPersistenceError(s.backend.name(), "load", err)
	}

	existing, ok := doc.Users[user.Key()]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := prepareReplace(user, existing)
	doc.Users[u.Email] = u

	if err := s.backend.save(ctx, doc); err != nil {
		utils.Logger().Error("document save failed", zap.String("driver", s.backend.name()), zap.String("op", "replace"), zap.Error(err))
		return nil, model.NewPersistenceError(s.backend.name(), "save", err)
	}
	return u.Clone(), nil
}

func (s *documentStore) Ping(ctx context.Context) error {
	return model.NewPersistenceError(s.backend.name(), "ping", s.backend.ping(ctx))
}

func (s *documentStore) Close(context.Context) error { return nil }
