package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dododo1295/studyroute/config"
	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"go.uber.org/zap"
)

// UserStore persists whole user records keyed by normalized email. Every
// driver offers the same contract; concurrent writers to one record race and
// the last write wins.
type UserStore interface {
	// FindByEmail returns model.ErrUserNotFound when no record exists.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Insert returns model.ErrDuplicateUser when the email is taken.
	Insert(ctx context.Context, user *model.User) (*model.User, error)
	// Replace overwrites the stored record; model.ErrUserNotFound when absent.
	Replace(ctx context.Context, user *model.User) (*model.User, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Migrator is implemented by drivers that need indexes or tables created.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open builds the driver named in cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (UserStore, error) {
	utils.Logger().Info("opening user store", zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile:
		return NewFileStore(cfg.DataFile), nil
	case config.DriverJSONBin:
		return NewJSONBinStore(cfg.JSONBin, nil), nil
	case config.DriverMongo:
		client, err := ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return NewMongoStore(client, cfg.Mongo), nil
	case config.DriverPostgres:
		return OpenSQLStore(ctx, "pgx", cfg.DatabaseURL)
	case config.DriverSQLite:
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "file:studyroute.db?_pragma=foreign_keys(1)"
		}
		return OpenSQLStore(ctx, "sqlite", dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// prepareInsert normalizes a record before it is written for the first time.
func prepareInsert(user *model.User) *model.User {
	u := user.Clone()
	u.Ensure()
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return u
}

// prepareReplace normalizes a record before it overwrites an existing one.
func prepareReplace(user *model.User, existing *model.User) *model.User {
	u := user.Clone()
	u.Ensure()
	if u.CreatedAt.IsZero() && existing != nil {
		u.CreatedAt = existing.CreatedAt
	}
	u.UpdatedAt = time.Now().UTC()
	return u
}
