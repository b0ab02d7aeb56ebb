package services

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

// StakeChangeSource pages through the append-only stake change log of a
// market. db.Database implements it over the indexer's collection.
type StakeChangeSource interface {
	FetchStakeChanges(
		ctx context.Context, market string, r types.BlockRange, cursor string, limit int64,
	) (*stake.Page, error)
}

// fetchStakeChanges pulls one page, retrying transient failures. Unknown
// markets and broken cursors are not retried.
func fetchStakeChanges(
	ctx context.Context,
	src StakeChangeSource,
	cfg *config.DistributionConfig,
	market string,
	r types.BlockRange,
	cursor string,
) (*stake.Page, error) {
	call := func() (*stake.Page, error) {
		page, err := src.FetchStakeChanges(ctx, market, r, cursor, cfg.FetchPageSize)
		if err != nil {
			if types.IsFatal(err) || db.IsInvalidPaginationTokenError(err) {
				return nil, retry.Unrecoverable(err)
			}
			return nil, err
		}
		return page, nil
	}

	return retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			metrics.IncFetchRetries(market)
			log.Ctx(ctx).Warn().
				Str("market", market).
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("Failed to fetch stake changes")
		}))
}

// replayMarket rebuilds the stake timelines of a market from the start of
// the log up to, but excluding, height until.
func replayMarket(
	ctx context.Context,
	src StakeChangeSource,
	cfg *config.DistributionConfig,
	market string,
	until uint64,
) (*stake.Reconstructor, error) {
	r := stake.NewReconstructor()
	rng := types.BlockRange{From: 0, To: until}

	cursor := ""
	for {
		page, err := fetchStakeChanges(ctx, src, cfg, market, rng, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch stake changes of %s: %w", market, err)
		}
		if err := r.ApplyAll(page.Records); err != nil {
			return nil, fmt.Errorf("failed to replay stake changes of %s: %w", market, err)
		}
		metrics.AddStakeChanges(market, len(page.Records))

		if page.Done {
			break
		}
		cursor = page.NextCursor
	}

	log.Ctx(ctx).Debug().
		Str("market", market).
		Int("records", r.Applied()).
		Int("addresses", len(r.Addresses())).
		Msg("Stake changes replayed")
	return r, nil
}
