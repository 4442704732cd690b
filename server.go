package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dododo1295/studyroute/config"
	"github.com/dododo1295/studyroute/handler"
	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/repository"
	"github.com/dododo1295/studyroute/services"
	"github.com/dododo1295/studyroute/usecase"
	"github.com/dododo1295/studyroute/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// app holds everything the API needs so shutdown can release it in order.
type app struct {
	store    repository.UserStore
	sessions repository.SessionStore
	events   services.Publisher
	router   *gin.Engine
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions, err := repository.OpenSessionStore(ctx, cfg.RedisURL)
	if err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("open session store: %w", err)
	}

	events := services.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiration)

	auth := usecase.NewAuthService(store, sessions, tokens, events)
	progress := usecase.NewProgressService(store, usecase.NewPointsPolicy(cfg.Points), events)
	notes := usecase.NewNotesService(store, events)
	stats := usecase.NewStatsService(store)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handler.NewRouter(handler.RouterConfig{
		Auth:          handler.NewAuthHandler(auth),
		Progress:      handler.NewProgressHandler(progress),
		Notes:         handler.NewNotesHandler(notes),
		Stats:         handler.NewStatsHandler(stats, store, sessions, cfg.Store.Driver),
		Authenticator: auth,
		CORSOrigins:   cfg.CORSOrigins,
	})

	return &app{store: store, sessions: sessions, events: events, router: router}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.events.Close(); err != nil {
		utils.Logger().Warn("closing event publisher", zap.Error(err))
	}
	if err := a.sessions.Close(); err != nil {
		utils.Logger().Warn("closing session store", zap.Error(err))
	}
	if err := a.store.Close(ctx); err != nil {
		utils.Logger().Warn("closing user store", zap.Error(err))
	}
}

// openStore opens the configured driver and creates its schema when it has one.
func openStore(ctx context.Context, cfg config.Config) (repository.UserStore, error) {
	store, err := repository.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	if m, ok := store.(repository.Migrator); ok {
		if err := m.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("migrate %s store: %w", cfg.Store.Driver, err)
		}
	}
	return store, nil
}

// runServer serves the API until ctx is cancelled, then drains in-flight
// requests before releasing the stores.
func runServer(ctx context.Context, cfg config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Logger().Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	utils.Logger().Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger().Error("graceful shutdown failed", zap.Error(err))
	}
	a.close(shutdownCtx)
	utils.Logger().Info("server stopped")
	return nil
}

func runMigrate(ctx context.Context, cfg config.Config) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	if _, ok := store.(repository.Migrator); !ok {
		utils.Logger().Info("store has no schema to migrate", zap.String("driver", cfg.Store.Driver))
		return nil
	}
	utils.Logger().Info("store migrated", zap.String("driver", cfg.Store.Driver))
	return nil
}

func runImport(ctx context.Context, cfg config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := repository.DecodeDocument(f)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	imported, skipped, err := importDocument(ctx, store, doc)
	utils.Logger().Info("import finished",
		zap.String("file", path),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped))
	return err
}

// importDocument inserts every user in doc that store does not already hold.
func importDocument(ctx context.Context, store repository.UserStore, doc *repository.Document) (imported, skipped int, err error) {
	for email, user := range doc.Users {
		if _, err := store.Insert(ctx, user); err != nil {
			if errors.Is(err, model.ErrDuplicateUser) {
				utils.Logger().Debug("user already present", zap.String("email", email))
				skipped++
				continue
			}
			return imported, skipped, fmt.Errorf("import %s: %w", email, err)
		}
		imported++
	}
	return imported, skipped, nil
}
