package db

import (
	"context"
	"time"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveMarket(ctx context.Context, name string) error {
	return d.run("SaveMarket", func() error {
		return d.db.SaveMarket(ctx, name)
	})
}

func (d *DbWithMetrics) SaveStakeChanges(ctx context.Context, docs []*model.StakeChangeDocument) error {
	return d.run("SaveStakeChanges", func() error {
		return d.db.SaveStakeChanges(ctx, docs)
	})
}

func (d *DbWithMetrics) FetchStakeChanges(
	ctx context.Context, market string, r types.BlockRange, cursor string, limit int64,
) (result *stake.Page, err error) {
	//nolint:errcheck
	d.run("FetchStakeChanges", func() error {
		result, err = d.db.FetchStakeChanges(ctx, market, r, cursor, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveSnapshot(ctx context.Context, doc *model.SnapshotDocument) error {
	return d.run("SaveSnapshot", func() error {
		return d.db.SaveSnapshot(ctx, doc)
	})
}

func (d *DbWithMetrics) GetUnseededSnapshots(ctx context.Context) (result []*model.SnapshotDocument, err error) {
	//nolint:errcheck
	d.run("GetUnseededSnapshots", func() error {
		result, err = d.db.GetUnseededSnapshots(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) GetSnapshot(ctx context.Context, periodID uint64) (result *model.SnapshotDocument, err error) {
	//nolint:errcheck
	d.run("GetSnapshot", func() error {
		result, err = d.db.GetSnapshot(ctx, periodID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetLastSnapshot(ctx context.Context) (result *model.SnapshotDocument, err error) {
	//nolint:errcheck
	d.run("GetLastSnapshot", func() error {
		result, err = d.db.GetLastSnapshot(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) MarkSnapshotSeeded(ctx context.Context, periodID uint64) error {
	return d.run("MarkSnapshotSeeded", func() error {
		return d.db.MarkSnapshotSeeded(ctx, periodID)
	})
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
