package db

import (
	"context"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

//go:generate mockery --name=DbInterface --output=../../tests/mocks --outpkg=mocks --filename=mock_db_client.go
type DbInterface interface {
	Ping(ctx context.Context) error
	// SaveMarket registers a market. Registering twice is a no-op.
	SaveMarket(ctx context.Context, name string) error
	// SaveStakeChanges inserts stake change documents. A record already
	// present at the same position returns DuplicateKeyError.
	SaveStakeChanges(ctx context.Context, docs []*model.StakeChangeDocument) error
	// FetchStakeChanges returns one page of the ordered change log of a
	// market restricted to the given block range. An empty cursor starts
	// at the beginning of the range.
	FetchStakeChanges(
		ctx context.Context, market string, r types.BlockRange, cursor string, limit int64,
	) (*stake.Page, error)
	SaveSnapshot(ctx context.Context, doc *model.SnapshotDocument) error
	GetSnapshot(ctx context.Context, periodID uint64) (*model.SnapshotDocument, error)
	// GetLastSnapshot returns the snapshot with the highest period id.
	GetLastSnapshot(ctx context.Context) (*model.SnapshotDocument, error)
	MarkSnapshotSeeded(ctx context.Context, periodID uint64) error
	// GetUnseededSnapshots returns the snapshots that have leaves but were
	// not seeded yet, in ascending period order.
	GetUnseededSnapshots(ctx context.Context) ([]*model.SnapshotDocument, error)
}
