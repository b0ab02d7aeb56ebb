package services

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/queue"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/reward"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/snapshot"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
)

type marketResult struct {
	market   config.MarketConfig
	current  *stake.WindowAverages
	previous *stake.WindowAverages
	supply   sdkmath.Int
}

// PeriodResult is the outcome of one snapshot run.
type PeriodResult struct {
	Snapshot  *snapshot.Snapshot
	ContentID string
	// Existing is set when the period had already been computed.
	Existing bool
}

// RunPeriod computes, publishes and stores the snapshot of a period. A
// period that was already computed is returned as stored.
func (s *Service) RunPeriod(ctx context.Context, period uint64) (*PeriodResult, error) {
	ctx = tracing.InjectPeriod(ctx, period)
	log := log.Ctx(ctx)

	existing, err := s.loadSnapshot(ctx, period)
	if err == nil {
		log.Info().Str("content_id", existing.ContentID).Msg("Period already computed")
		existing.Existing = true
		return existing, nil
	}
	if !db.IsNotFoundError(err) {
		return nil, err
	}

	lastAmount, err := s.lastAmount(ctx, period)
	if err != nil {
		return nil, err
	}

	dist := &s.cfg.Distribution
	window := dist.Window(period)
	previousWindow := dist.PreviousWindow(period)

	head, err := s.eth.HeadHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get head height: %w", err)
	}
	if head < window.End {
		return nil, fmt.Errorf("%w: period %d ends at %d, head is %d", ErrWindowNotClosed, period, window.End, head)
	}

	results, err := s.computeMarkets(ctx, window, previousWindow)
	if err != nil {
		return nil, err
	}

	current := make([]*stake.WindowAverages, 0, len(results))
	previous := make([]*stake.WindowAverages, 0, len(results))
	summaries := make([]snapshot.MarketSummary, 0, len(results))
	supply := sdkmath.ZeroInt()
	seenTokens := make(map[common.Address]struct{}, len(results))
	for _, res := range results {
		current = append(current, res.current)
		previous = append(previous, res.previous)
		// markets sharing a token count its supply once
		if _, ok := seenTokens[res.market.Token()]; !ok {
			seenTokens[res.market.Token()] = struct{}{}
			supply = supply.Add(res.supply)
		}
		summaries = append(summaries, snapshot.MarketSummary{
			Market:                    res.market.Name,
			AverageTotalStake:         res.current.Total,
			PreviousAverageTotalStake: res.previous.Total,
			TotalSupply:               res.supply,
			Participants:              len(res.current.Stakes),
		})
	}

	sizing, err := reward.SizePool(dist.Reward, period, lastAmount, reward.SumTotals(previous...), supply)
	if err != nil {
		return nil, fmt.Errorf("failed to size pool of period %d: %w", period, err)
	}

	alloc, err := reward.Allocate(sizing.Pool, reward.MergeAverages(current...))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate period %d: %w", period, err)
	}

	snap, err := snapshot.Build(snapshot.BuildInput{
		PeriodID:       period,
		Window:         window,
		PreviousWindow: previousWindow,
		Sizing:         sizing,
		Allocation:     alloc,
		AverageTotal:   reward.SumTotals(current...),
		Markets:        summaries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot of period %d: %w", period, err)
	}

	payload, err := snapshot.Marshal(snap)
	if err != nil {
		return nil, err
	}

	// the artifact must be retrievable before the period becomes seedable
	cid, err := s.publisher.Publish(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to publish snapshot of period %d: %w", period, err)
	}

	err = s.db.SaveSnapshot(ctx, &model.SnapshotDocument{
		PeriodID:        period,
		ContentID:       cid,
		Root:            snap.Root.Hex(),
		Pool:            snap.Pool.String(),
		TotalAllocation: snap.TotalAllocation.String(),
		Leaves:          len(snap.Leaves),
		Payload:         string(payload),
		CreatedAt:       time.Now().Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot of period %d: %w", period, err)
	}

	metrics.RecordPeriodAmounts(period, toFloat(snap.Pool), toFloat(snap.TotalAllocation))
	log.Info().
		Str("content_id", cid).
		Str("root", snap.Root.Hex()).
		Str("pool", snap.Pool.String()).
		Str("distributed", snap.TotalAllocation.String()).
		Str("remainder", alloc.Remainder.String()).
		Int("leaves", len(snap.Leaves)).
		Msg("Period snapshot computed")

	s.notify(ctx, queue.SnapshotPublishedEvent, snap, cid)

	return &PeriodResult{Snapshot: snap, ContentID: cid}, nil
}

// computeMarkets replays every market concurrently. Results keep the
// configured market order.
func (s *Service) computeMarkets(
	ctx context.Context, window, previousWindow stake.Window,
) ([]*marketResult, error) {
	dist := &s.cfg.Distribution

	p := pool.NewWithResults[*marketResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for _, market := range s.cfg.Markets {
		p.Go(func(ctx context.Context) (*marketResult, error) {
			r, err := replayMarket(ctx, s.db, dist, market.Name, window.End)
			if err != nil {
				return nil, err
			}

			current, err := stake.ComputeAverages(r, window)
			if err != nil {
				return nil, err
			}
			previous, err := stake.ComputeAverages(r, previousWindow)
			if err != nil {
				return nil, err
			}

			supply, err := s.eth.TotalSupply(ctx, market.Token())
			if err != nil {
				return nil, fmt.Errorf("failed to get total supply of %s: %w", market.Name, err)
			}

			return &marketResult{
				market:   market,
				current:  current,
				previous: previous,
				supply:   supply,
			}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*marketResult, len(results))
	for _, res := range results {
		byName[res.market.Name] = res
	}
	ordered := make([]*marketResult, 0, len(results))
	for _, market := range s.cfg.Markets {
		ordered = append(ordered, byName[market.Name])
	}
	return ordered, nil
}

// lastAmount is the amount distributed in the period before. Period 0
// starts from the configured initial amount. A period that allocated
// nothing carries its pool forward so the feedback loop does not stall.
func (s *Service) lastAmount(ctx context.Context, period uint64) (sdkmath.Int, error) {
	if period == 0 {
		return s.cfg.Distribution.Initial(), nil
	}

	prev, err := s.loadSnapshot(ctx, period-1)
	if err != nil {
		if db.IsNotFoundError(err) {
			return sdkmath.Int{}, fmt.Errorf("%w: period %d", ErrMissingPreviousPeriod, period-1)
		}
		return sdkmath.Int{}, err
	}

	if prev.Snapshot.TotalAllocation.IsZero() {
		return prev.Snapshot.Pool, nil
	}
	return prev.Snapshot.TotalAllocation, nil
}

func (s *Service) loadSnapshot(ctx context.Context, period uint64) (*PeriodResult, error) {
	doc, err := s.db.GetSnapshot(ctx, period)
	if err != nil {
		return nil, err
	}

	snap, err := snapshot.Unmarshal([]byte(doc.Payload))
	if err != nil {
		return nil, fmt.Errorf("stored snapshot of period %d: %w", period, err)
	}
	return &PeriodResult{Snapshot: snap, ContentID: doc.ContentID}, nil
}

func (s *Service) notify(ctx context.Context, event queue.EventType, snap *snapshot.Snapshot, cid string) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.PublishSnapshot(ctx, queue.SnapshotMessage{
		EventType:       event,
		PeriodID:        snap.PeriodID,
		ContentID:       cid,
		Root:            snap.Root.Hex(),
		TotalAllocation: snap.TotalAllocation.String(),
		Leaves:          len(snap.Leaves),
	})
	if err != nil {
		// consumers can always fall back to the stored snapshot
		log.Ctx(ctx).Error().Err(err).Str("event_type", string(event)).Msg("Failed to send notification")
	}
}

func toFloat(v sdkmath.Int) float64 {
	f, _ := v.BigInt().Float64()
	return f
}
