package model

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
)

const (
	MarketsCollection      = "markets"
	StakeChangesCollection = "stake_changes"
	SnapshotsCollection    = "snapshots"
)

type index struct {
	Keys   bson.D
	Unique bool
}

var collections = map[string][]index{
	MarketsCollection: {},
	StakeChangesCollection: {
		{
			Keys:   bson.D{{Key: "market", Value: 1}, {Key: "block_height", Value: 1}, {Key: "log_index", Value: 1}},
			Unique: true,
		},
	},
	SnapshotsCollection: {
		{Keys: bson.D{{Key: "seeded", Value: 1}, {Key: "_id", Value: -1}}},
	},
}

// Setup creates the collections and indexes the distributor relies on.
// It is safe to run on every start.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to disconnect setup client")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)

	for name, indexes := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range indexes {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	log.Ctx(ctx).Info().Msg("Collections and indexes created successfully")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	names, err := database.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}

	if err := database.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	log.Ctx(ctx).Debug().Str("collection", name).Msg("Collection created")
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collection string, idx index) error {
	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	_, err := database.Collection(collection).Indexes().CreateOne(ctx, indexModel)
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collection, err)
	}
	return nil
}
