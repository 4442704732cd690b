package repository

import (
	"context"
	"errors"

	"github.com/dododo1295/studyroute/config"
	"github.com/dododo1295/studyroute/model"
	"github.com/dododo1295/studyroute/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectMongo opens a pooled client and verifies it with a ping.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	clientOptions := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, model.NewPersistenceError("mongo", "connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, model.NewPersistenceError("mongo", "ping", err)
	}
	return client, nil
}

// MongoStore keeps one document per user, looked up by the email field.
type MongoStore struct {
	client          *mongo.Client
	MongoCollection *mongo.Collection
}

func NewMongoStore(client *mongo.Client, cfg config.MongoConfig) *MongoStore {
	return &MongoStore{
		client:          client,
		MongoCollection: client.Database(cfg.DatabaseName).Collection(cfg.UsersCollection),
	}
}

func (r *MongoStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	timer := utils.TrackStoreOperation("mongo", "find")
	defer timer.ObserveDuration()

	var user model.User
	filter := bson.D{{Key: "email", Value: model.NormalizeEmail(email)}}

	err := r.MongoCollection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrUserNotFound
		}
		utils.Logger().Error("user lookup failed", zap.String("driver", "mongo"), zap.Error(err))
		return nil, model.NewPersistenceError("mongo", "find", err)
	}

	user.Ensure()
	return &user, nil
}

// Insert relies on the unique email index to reject duplicates atomically.
func (r *MongoStore) Insert(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation("mongo", "insert")
	defer timer.ObserveDuration()

	u := prepareInsert(user)

	if _, err := r.MongoCollection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, model.ErrDuplicateUser
		}
		utils.Logger().Error("user insert failed", zap.String("driver", "mongo"), zap.Error(err))
		return nil, model.NewPersistenceError("mongo", "insert", err)
	}

	return u.Clone(), nil
}

func (r *MongoStore) Replace(ctx context.Context, user *model.User) (*model.User, error) {
	timer := utils.TrackStoreOperation("mongo", "replace")
	defer timer.ObserveDuration()

	u := prepareReplace(user, nil)
	filter := bson.M{"email": u.Email}

	if u.CreatedAt.IsZero() {
		existing, err := r.FindByEmail(ctx, u.Email)
		if err != nil {
			return nil, err
		}
		u.CreatedAt = existing.CreatedAt
	}

	result, err := r.MongoCollection.ReplaceOne(ctx, filter, u)
	if err != nil {
		utils.Logger().Error("user replace failed", zap.String("driver", "mongo"), zap.Error(err))
		return nil, model.NewPersistenceError("mongo", "replace", err)
	}
	if result.MatchedCount == 0 {
		return nil, model.ErrUserNotFound
	}

	return u.Clone(), nil
}

func (r *MongoStore) Ping(ctx context.Context) error {
	return model.NewPersistenceError("mongo", "ping", r.client.Ping(ctx, readpref.Primary()))
}

func (r *MongoStore) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
