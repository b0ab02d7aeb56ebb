package services

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
)

// nextPeriod returns the first period without a stored snapshot.
func (s *Service) nextPeriod(ctx context.Context) (uint64, error) {
	last, err := s.db.GetLastSnapshot(ctx)
	if db.IsNotFoundError(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.PeriodID + 1, nil
}

// seedPending retries the stored periods whose seeding failed on an
// earlier run, oldest first.
func (s *Service) seedPending(ctx context.Context) error {
	docs, err := s.db.GetUnseededSnapshots(ctx)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		log.Ctx(ctx).Info().Uint64("period", doc.PeriodID).Msg("Retrying seed of a stored period")
		if err := s.seed(ctx, doc.PeriodID); err != nil {
			return err
		}
	}
	return nil
}

// seed seeds one period and tolerates snapshots without claims.
func (s *Service) seed(ctx context.Context, period uint64) error {
	err := s.SeedPeriod(ctx, period)
	if errors.Is(err, ErrNothingToSeed) {
		log.Ctx(ctx).Warn().Uint64("period", period).Msg("Period has no claims, not seeded")
		return nil
	}
	return err
}

// RunDue seeds stored periods left unseeded by an earlier run, then
// computes every period whose window closed since the last run and seeds
// them when a ledger is configured. Periods are processed in order
// because each pool depends on the previous period.
func (s *Service) RunDue(ctx context.Context) error {
	head, err := s.eth.HeadHeight(ctx)
	if err != nil {
		return err
	}
	metrics.RecordHeadHeight("head", head)

	last, ok := s.cfg.Distribution.PeriodAt(head)
	if !ok {
		log.Ctx(ctx).Debug().Uint64("head", head).Msg("No period has ended yet")
		return nil
	}

	if s.ledger != nil {
		if err := s.seedPending(ctx); err != nil {
			return err
		}
	}

	next, err := s.nextPeriod(ctx)
	if err != nil {
		return err
	}

	for period := next; period <= last; period++ {
		if _, err := s.RunPeriod(ctx, period); err != nil {
			return err
		}
		if s.ledger == nil {
			continue
		}
		if err := s.seed(ctx, period); err != nil {
			return err
		}
	}
	return nil
}

// StartDistributor schedules RunDue with the configured cron spec and
// blocks until ctx is done.
func (s *Service) StartDistributor(ctx context.Context) error {
	logger := log.Ctx(ctx)
	cronLogger := cron.PrintfLogger(logger)

	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	job := metrics.RecordJobDuration("distribution", s.RunDue)
	run := func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(tracing.InjectTraceID(ctx), s.cfg.Scheduler.RunTimeout)
		defer cancel()
		if err := job(rctx); err != nil {
			log.Ctx(rctx).Error().Err(err).Msg("Distribution run failed")
		}
	}

	if _, err := c.AddFunc(s.cfg.Scheduler.Spec, run); err != nil {
		return err
	}

	if s.cfg.Scheduler.RunOnStart {
		run()
	}

	c.Start()
	logger.Info().Str("spec", s.cfg.Scheduler.Spec).Msg("Distributor scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Msg("Distributor scheduler stopped")
	return nil
}
