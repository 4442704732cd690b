package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/repository"
	"github.com/dododo1295/studyroute/services"
	"github.com/dododo1295/studyroute/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	store    repository.UserStore
	sessions repository.SessionStore
	tokens   *services.TokenService
	events   services.Publisher
	now      func() time.Time
}

func NewAuthService(store repository.UserStore, sessions repository.SessionStore, tokens *services.TokenService, events services.Publisher) *AuthService {
	if events == nil {
		events = services.NoopPublisher{}
	}
	return &AuthService{store: store, sessions: sessions, tokens: tokens, events: events, now: time.Now}
}

type registration struct {
	Name     string `validate:"notblank,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,password"`
}

// ClientInfo describes the device a session is opened from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// AuthResult is what a successful login or registration hands back to the client.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
	Session   *model.Session
}

// Register creates a user with zero points and no routes or notes. An
// existing email fails with model.ErrDuplicateUser and is left untouched.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	in := registration{Name: strings.TrimSpace(name), Email: model.NormalizeEmail(email), Password: password}
	if err := utils.ValidateStruct(in); err != nil {
		utils.TrackAuthAttempt("invalid", "register")
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidInput, utils.ValidationMessage(err))
	}

	_, err := s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		utils.TrackAuthAttempt("duplicate", "register")
		return nil, model.ErrDuplicateUser
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, err
	}

	hash, err := services.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.store.Insert(ctx, &model.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Points:   0,
		Routes:   []model.Route{},
		Notes:    []model.Note{},
	})
	if err != nil {
		if errors.Is(err, model.ErrDuplicateUser) {
			utils.TrackAuthAttempt("duplicate", "register")
		}
		return nil, err
	}

	utils.TrackAuthAttempt("success", "register")
	utils.Logger().Info("user registered", zap.String("email", created.Email))
	services.PublishQuietly(ctx, s.events, services.NewEvent(services.EventUserRegistered, created.Email, created.Summary()))
	return created, nil
}

// Login verifies the password in constant time. Legacy records with a
// plaintext or older hash are upgraded to argon2id on the first success.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			utils.TrackAuthAttempt("unknown_user", "login")
		}
		return nil, err
	}

	match, needsRehash, err := services.VerifyPassword(user.Password, password)
	if err != nil {
		utils.Logger().Warn("stored password unreadable", zap.String("email", user.Email), zap.Error(err))
		match = false
	}
	if !match {
		utils.TrackAuthAttempt("failure", "login")
		return nil, model.ErrInvalidCredentials
	}

	if needsRehash {
		user = s.rehash(ctx, user, password)
	}

	utils.TrackAuthAttempt("success", "login")
	return user, nil
}

func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) *model.User {
	hash, err := services.HashPassword(password)
	if err != nil {
		utils.Logger().Warn("rehash failed", zap.String("email", user.Email), zap.Error(err))
		return user
	}
	upgraded := user.Clone()
	upgraded.Password = hash
	saved, err := s.store.Replace(ctx, upgraded)
	if err != nil {
		// the login still succeeds; the upgrade is retried next time
		utils.Logger().Warn("rehash not persisted", zap.String("email", user.Email), zap.Error(err))
		return user
	}
	utils.Logger().Info("legacy password upgraded", zap.String("email", user.Email))
	return saved
}

// StartSession records a session for user and signs a token bound to it.
func (s *AuthService) StartSession(ctx context.Context, user *model.User, client ClientInfo) (*AuthResult, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := s.tokens.Generate(user.Email, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	session := &model.Session{
		SessionID:      sessionID,
		Email:          user.Email,
		DisplayName:    utils.GenerateSessionName(client.UserAgent),
		DeviceInfo:     client.UserAgent,
		IPAddress:      client.IPAddress,
		CreatedAt:      now,
		ExpiresAt:      expiresAt.UTC(),
		LastActivityAt: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	utils.TrackTokenUsage("issued")
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt, Session: session}, nil
}

// Authenticate resolves a bearer token to its claims, rejecting tokens whose
// session was closed.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*services.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		utils.TrackTokenUsage("invalid")
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		utils.TrackTokenUsage("revoked")
		return nil, err
	}
	if session.Email != claims.Email() {
		utils.TrackTokenUsage("invalid")
		return nil, model.ErrSessionNotFound
	}
	utils.TrackTokenUsage("valid")
	return claims, nil
}

// Logout closes the session so its token stops working.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return model.ErrNotAuthenticated
	}
	return s.sessions.Delete(ctx, sessionID)
}
