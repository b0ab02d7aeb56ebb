package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/queue"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/snapshot"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

// SeedPeriod commits the stored snapshot of a period to the ledger as the
// operator. The artifact is re-fetched from the publisher and verified
// first, so only what claimants can download gets seeded.
func (s *Service) SeedPeriod(ctx context.Context, period uint64) error {
	if s.ledger == nil {
		return ErrLedgerDisabled
	}
	ctx = tracing.InjectPeriod(ctx, period)
	log := log.Ctx(ctx)

	doc, err := s.db.GetSnapshot(ctx, period)
	if err != nil {
		return err
	}
	if doc.Seeded {
		log.Debug().Msg("Period already seeded")
		return nil
	}

	payload, err := s.publisher.Fetch(ctx, doc.ContentID)
	if err != nil {
		return fmt.Errorf("failed to fetch published snapshot %s: %w", doc.ContentID, err)
	}
	if !bytes.Equal(payload, []byte(doc.Payload)) {
		return fmt.Errorf("published snapshot %s differs from the stored one", doc.ContentID)
	}

	snap, err := snapshot.Unmarshal(payload)
	if err != nil {
		return err
	}
	if err := snap.Verify(); err != nil {
		return fmt.Errorf("snapshot of period %d failed verification: %w", period, err)
	}
	if snap.IsEmpty() {
		return fmt.Errorf("%w: period %d", ErrNothingToSeed, period)
	}

	total, err := types.ToUint256(snap.TotalAllocation)
	if err != nil {
		return err
	}

	err = s.ledger.Seed(ctx, s.ledger.Operator(), period, snap.Root, total)
	metrics.RecordLedgerOperation("seed", err != nil)
	if errors.Is(err, ledger.ErrRootAlreadySet) {
		// a previous run seeded but did not record it
		p, getErr := s.ledger.Period(period)
		if getErr != nil {
			return getErr
		}
		if p == nil || p.Root != snap.Root {
			return fmt.Errorf("period %d is seeded with a different root: %w", period, err)
		}
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed period %d: %w", period, err)
	}

	if err := s.db.MarkSnapshotSeeded(ctx, period); err != nil {
		return err
	}

	log.Info().
		Str("root", snap.Root.Hex()).
		Str("total_allocation", snap.TotalAllocation.String()).
		Msg("Period seeded")
	s.notify(ctx, queue.PeriodSeededEvent, snap, doc.ContentID)
	return nil
}
