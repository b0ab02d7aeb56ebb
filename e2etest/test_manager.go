package e2etest

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-rewards-distributor/e2etest/container"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/clients/ethclient"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/publisher"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/queue"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/reward"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/services"
)

var (
	eventuallyWaitTimeOut = 20 * time.Second
	eventuallyPollTime    = 200 * time.Millisecond
)

const (
	testMarket   = "main"
	testExchange = "rewards"
	testRouting  = "rewards.snapshots"
)

var (
	tokenAddress    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	operatorAddress = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	escrowAddress   = common.HexToAddress("0x00000000000000000000000000000000000000f1")
)

// chainBackend stands in for the execution client: a fixed total supply and
// a head the test moves forward.
type chainBackend struct {
	head   atomic.Uint64
	supply *uint256.Int
}

func (b *chainBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if msg.To == nil || *msg.To != tokenAddress {
		return nil, fmt.Errorf("unexpected call to %v", msg.To)
	}
	word := b.supply.Bytes32()
	return word[:], nil
}

func (b *chainBackend) BlockNumber(context.Context) (uint64, error) {
	return b.head.Load(), nil
}

type TestManager struct {
	Config   *config.Config
	DbClient *db.Database
	Chain    *chainBackend
	Service  *services.Service
	Ledger   *ledger.Ledger
	Token    *ledger.LevelDBToken
	Messages <-chan amqp.Delivery

	manager *container.Manager
	store   *ledger.LevelDBStore
	queue   *queue.QueueManager
	conn    *amqp.Connection
}

// StartManager starts MongoDB and RabbitMQ and wires the distributor
// against them with a file publisher and a LevelDB ledger.
func StartManager(t *testing.T) *TestManager {
	manager, err := container.NewManager(t)
	require.NoError(t, err)

	mongoAddress, err := manager.RunMongoResource()
	require.NoError(t, err)
	rabbitAddress, err := manager.RunRabbitMQResource()
	require.NoError(t, err)

	dir := t.TempDir()
	cfg := DefaultDistributorConfig(dir)
	cfg.Db.Address = mongoAddress
	cfg.Queue.URL = rabbitAddress
	require.NoError(t, cfg.Validate())

	ctx := context.Background()
	require.NoError(t, model.Setup(ctx, &cfg.Db))
	dbClient, err := db.New(ctx, cfg.Db)
	require.NoError(t, err)
	require.NoError(t, dbClient.SaveMarket(ctx, testMarket))

	qm, err := queue.NewQueueManager(cfg.Queue)
	require.NoError(t, err)
	conn, messages := consumeNotifications(t, cfg.Queue)

	chain := &chainBackend{supply: uint256.NewInt(1000)}
	ethClient := ethclient.New(chain, &cfg.Eth)

	pub, err := publisher.NewFileStore(cfg.Publisher.Dir)
	require.NoError(t, err)

	store, err := ledger.NewLevelDBStore(cfg.Ledger.Path)
	require.NoError(t, err)
	token := store.Token()
	l := ledger.New(store, token, cfg.Ledger.OperatorAddress(), cfg.Ledger.EscrowAddress())

	service := services.NewService(cfg, db.NewDbWithMetrics(dbClient), ethClient, pub, qm, l)

	return &TestManager{
		Config:   cfg,
		DbClient: dbClient,
		Chain:    chain,
		Service:  service,
		Ledger:   l,
		Token:    token,
		Messages: messages,
		manager:  manager,
		store:    store,
		queue:    qm,
		conn:     conn,
	}
}

// consumeNotifications binds an exclusive queue to the snapshot exchange.
func consumeNotifications(t *testing.T, cfg *config.QueueConfig) (*amqp.Connection, <-chan amqp.Delivery) {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.URL))
	require.NoError(t, err)
	ch, err := conn.Channel()
	require.NoError(t, err)

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return conn, deliveries
}

func uint256From(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func (tm *TestManager) Stop(t *testing.T) {
	ctx := context.Background()
	tm.queue.Shutdown()
	require.NoError(t, tm.conn.Close())
	require.NoError(t, tm.store.Close())
	require.NoError(t, tm.DbClient.Close(ctx))
	require.NoError(t, tm.manager.ClearResources())
}

// DefaultDistributorConfig sizes period 0 of a 30 block calendar to exactly
// the initial amount when 346 of a supply of 1000 is staked on average.
func DefaultDistributorConfig(dir string) *config.Config {
	return &config.Config{
		Db: config.DbConfig{
			Username:           container.MongoUser,
			Password:           container.MongoPassword,
			DbName:             "rewards-e2e",
			MaxPaginationLimit: 100,
		},
		Eth: config.EthConfig{
			RPCAddr:       "http://localhost:8545",
			Timeout:       5 * time.Second,
			MaxRetryTimes: 3,
			RetryInterval: 100 * time.Millisecond,
		},
		Markets: []config.MarketConfig{{Name: testMarket, TokenAddress: tokenAddress.Hex()}},
		Distribution: config.DistributionConfig{
			GenesisHeight: 0,
			PeriodLength:  30,
			InitialAmount: "1000",
			Reward: reward.Params{
				BasisPoints: reward.DefaultBasisPoints,
				Ramp: reward.TargetRamp{
					Initial: 346_000_000,
					Cap:     reward.DefaultBasisPoints,
				},
			},
			FetchPageSize: 2,
		},
		Ledger: config.LedgerConfig{
			Path:     filepath.Join(dir, "ledger"),
			Operator: operatorAddress.Hex(),
			Escrow:   escrowAddress.Hex(),
		},
		Publisher: config.PublisherConfig{Dir: filepath.Join(dir, "snapshots")},
		Scheduler: config.SchedulerConfig{
			Spec:       "*/1 * * * * *",
			RunTimeout: 30 * time.Second,
		},
		Metrics: config.MetricsConfig{Host: "0.0.0.0", Port: 2112},
		Queue: &config.QueueConfig{
			User:           container.RabbitMQUser,
			Password:       container.RabbitMQPassword,
			Exchange:       testExchange,
			RoutingKey:     testRouting,
			PublishTimeout: 5 * time.Second,
		},
	}
}
