package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/clients/ethclient"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/publisher"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/queue"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/services"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg     *config.Config
	db      *db.Database
	store   *ledger.LevelDBStore
	queue   *queue.QueueManager
	service *services.Service
}

func loadConfig() (*config.Config, error) {
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, fmt.Errorf("error while creating db client: %w", err)
	}
	a.db = dbClient

	ethClient, err := ethclient.NewEthClient(ctx, &cfg.Eth)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("error while creating eth client: %w", err)
	}

	pub, err := publisher.NewFileStore(cfg.Publisher.Dir)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("error while creating publisher: %w", err)
	}

	var notifier queue.Notifier
	if cfg.Queue != nil {
		a.queue, err = queue.NewQueueManager(cfg.Queue)
		if err != nil {
			a.close(ctx)
			return nil, fmt.Errorf("error while creating queue manager: %w", err)
		}
		notifier = a.queue
	}

	a.store, err = ledger.NewLevelDBStore(cfg.Ledger.Path)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("error while opening ledger: %w", err)
	}
	l := ledger.New(a.store, a.store.Token(), cfg.Ledger.OperatorAddress(), cfg.Ledger.EscrowAddress())

	a.service = services.NewService(
		cfg,
		db.NewDbWithMetrics(dbClient),
		ethclient.NewEthClientWithMetrics(ethClient),
		pub,
		notifier,
		l,
	)
	return a, nil
}

func (a *app) close(ctx context.Context) {
	if a.queue != nil {
		a.queue.Shutdown()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("error while closing ledger")
		}
	}
	if a.db != nil {
		if err := a.db.Close(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("error while closing db client")
		}
	}
}
