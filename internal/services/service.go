package services

import (
	"errors"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/clients/ethclient"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/publisher"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/queue"
)

var (
	ErrWindowNotClosed       = errors.New("period window is not closed yet")
	ErrMissingPreviousPeriod = errors.New("previous period has not been computed")
	ErrLedgerDisabled        = errors.New("no ledger configured")
	ErrNothingToSeed         = errors.New("period has no claims to seed")
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	eth       ethclient.EthInterface
	publisher publisher.Publisher
	// notifier and ledger are optional
	notifier queue.Notifier
	ledger   *ledger.Ledger
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	eth ethclient.EthInterface,
	pub publisher.Publisher,
	notifier queue.Notifier,
	l *ledger.Ledger,
) *Service {
	return &Service{
		cfg:       cfg,
		db:        db,
		eth:       eth,
		publisher: pub,
		notifier:  notifier,
		ledger:    l,
	}
}
