package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dododo1295/studyroute/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Migrate creates the indexes the Mongo driver depends on.
func (r *MongoStore) Migrate(ctx context.Context) error {
	return SetupIndexes(ctx, r.MongoCollection)
}

func SetupIndexes(ctx context.Context, users *mongo.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	userIndexes := []mongo.IndexModel{
		// Uniqueness of the login key is enforced by the database, not by a read-then-write check
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("user_email_unique").
				SetUnique(true),
		},
		// Notes lookups by composite key
		{
			Keys: bson.D{
				{Key: "email", Value: 1},
				{Key: "notes.key", Value: 1},
			},
			Options: options.Index().
				SetName("user_note_keys"),
		},
		{
			Keys: bson.D{{Key: "points", Value: -1}},
			Options: options.Index().
				SetName("user_points"),
		},
	}

	if _, err := users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	utils.Logger().Info("created mongo indexes", zap.String("collection", users.Name()))
	return nil
}
