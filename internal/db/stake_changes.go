package db

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

type stakeChangeCursor struct {
	BlockHeight uint64 `json:"block_height"`
	LogIndex    uint64 `json:"log_index"`
}

func encodeCursor(p stake.Position) (string, error) {
	raw, err := json.Marshal(stakeChangeCursor{BlockHeight: p.BlockHeight, LogIndex: p.LogIndex})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

func decodeCursor(token string) (*stakeChangeCursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, &InvalidPaginationTokenError{
			Message: "invalid pagination token: " + err.Error(),
		}
	}

	var c stakeChangeCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &InvalidPaginationTokenError{
			Message: "invalid pagination token: " + err.Error(),
		}
	}
	return &c, nil
}

func (db *Database) SaveMarket(ctx context.Context, name string) error {
	filter := bson.M{"_id": name}
	update := bson.M{"$setOnInsert": model.MarketDocument{Name: name}}

	_, err := db.collection(model.MarketsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (db *Database) marketExists(ctx context.Context, name string) (bool, error) {
	count, err := db.collection(model.MarketsCollection).CountDocuments(ctx, bson.M{"_id": name})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *Database) SaveStakeChanges(ctx context.Context, docs []*model.StakeChangeDocument) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]any, len(docs))
	for i, doc := range docs {
		items[i] = doc
	}

	// unordered so a replayed batch still inserts its new records
	_, err := db.collection(model.StakeChangesCollection).InsertMany(ctx, items, options.InsertMany().SetOrdered(false))
	// nil check is inside IsDuplicateKeyError
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     docs[0].Market,
			Message: err.Error(),
		}
	}
	return err
}

func (db *Database) FetchStakeChanges(
	ctx context.Context, market string, r types.BlockRange, cursor string, limit int64,
) (*stake.Page, error) {
	if err := r.Validate(); err != nil {
		return nil, types.NewError(types.BadRequest, err)
	}

	exists, err := db.marketExists(ctx, market)
	if err != nil {
		return nil, types.NewError(types.Unavailable, err)
	}
	if !exists {
		return nil, types.NewErrorWithMsg(types.Unsupported, fmt.Sprintf("unknown market %q", market))
	}

	if limit <= 0 || limit > db.cfg.MaxPaginationLimit {
		limit = db.cfg.MaxPaginationLimit
	}

	filter := bson.M{
		"market":       market,
		"block_height": bson.M{"$gte": r.From, "$lt": r.To},
	}
	if cursor != "" {
		c, err := decodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		filter["$or"] = bson.A{
			bson.M{"block_height": bson.M{"$gt": c.BlockHeight}},
			bson.M{"block_height": c.BlockHeight, "log_index": bson.M{"$gt": c.LogIndex}},
		}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "block_height", Value: 1}, {Key: "log_index", Value: 1}}).
		// one extra document tells whether another page exists
		SetLimit(limit + 1)

	cur, err := db.collection(model.StakeChangesCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, types.NewError(types.Unavailable, err)
	}
	defer cur.Close(ctx)

	var docs []model.StakeChangeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, types.NewError(types.Unavailable, err)
	}

	page := &stake.Page{Done: int64(len(docs)) <= limit}
	if !page.Done {
		docs = docs[:limit]
	}

	page.Records = make([]stake.StakeChangeRecord, 0, len(docs))
	for _, doc := range docs {
		rec, err := toStakeChangeRecord(doc)
		if err != nil {
			return nil, types.NewError(types.BadRequest, err)
		}
		page.Records = append(page.Records, rec)
	}

	if !page.Done {
		last := page.Records[len(page.Records)-1]
		page.NextCursor, err = encodeCursor(last.Position())
		if err != nil {
			return nil, err
		}
	}

	return page, nil
}

func toStakeChangeRecord(doc model.StakeChangeDocument) (stake.StakeChangeRecord, error) {
	if !common.IsHexAddress(doc.Address) {
		return stake.StakeChangeRecord{}, fmt.Errorf("invalid address %q at %d:%d", doc.Address, doc.BlockHeight, doc.LogIndex)
	}
	balance, err := types.ParseAmount(doc.NewBalance)
	if err != nil {
		return stake.StakeChangeRecord{}, errors.Join(
			fmt.Errorf("invalid balance at %d:%d", doc.BlockHeight, doc.LogIndex), err,
		)
	}

	return stake.StakeChangeRecord{
		Market:       doc.Market,
		Address:      common.HexToAddress(doc.Address),
		SubAccountID: doc.SubAccountID,
		NewBalance:   balance,
		BlockHeight:  doc.BlockHeight,
		LogIndex:     doc.LogIndex,
	}, nil
}
