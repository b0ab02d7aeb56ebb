package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
)

func (db *Database) SaveSnapshot(ctx context.Context, doc *model.SnapshotDocument) error {
	_, err := db.collection(model.SnapshotsCollection).InsertOne(ctx, doc)
	// nil check is inside IsDuplicateKeyError
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     strconv.FormatUint(doc.PeriodID, 10),
			Message: fmt.Sprintf("snapshot of period %d already exists", doc.PeriodID),
		}
	}
	return err
}

func (db *Database) GetSnapshot(ctx context.Context, periodID uint64) (*model.SnapshotDocument, error) {
	res := db.collection(model.SnapshotsCollection).FindOne(ctx, bson.M{"_id": periodID})

	var doc model.SnapshotDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     strconv.FormatUint(periodID, 10),
				Message: fmt.Sprintf("snapshot of period %d not found", periodID),
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) GetLastSnapshot(ctx context.Context) (*model.SnapshotDocument, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})
	res := db.collection(model.SnapshotsCollection).FindOne(ctx, bson.M{}, opts)

	var doc model.SnapshotDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Message: "no snapshot stored yet",
			}
		}
		return nil, err
	}

	return &doc, nil
}

func (db *Database) MarkSnapshotSeeded(ctx context.Context, periodID uint64) error {
	filter := bson.M{"_id": periodID}
	update := bson.M{"$set": bson.M{"seeded": true}}

	res, err := db.collection(model.SnapshotsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return &NotFoundError{
			Key:     strconv.FormatUint(periodID, 10),
			Message: fmt.Sprintf("snapshot of period %d not found", periodID),
		}
	}
	return nil
}

func (db *Database) GetUnseededSnapshots(ctx context.Context) ([]*model.SnapshotDocument, error) {
	filter := bson.M{
		"seeded": false,
		"leaves": bson.M{"$gt": 0},
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := db.collection(model.SnapshotsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []*model.SnapshotDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
