package services_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/publisher"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/reward"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
	"github.com/babylonlabs-io/staking-rewards-distributor/tests/mocks"
)

const testMarket = "main"

var (
	addrA    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	addrB    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	token    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	operator = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	escrow   = common.HexToAddress("0x00000000000000000000000000000000000000f1")

	// A=166 and B=180 averaged over [0, 30)
	expectedRoot = common.HexToHash("0xeb5ab28c813983a69c680b1405bdb33e22b6a525757542f0c22571e2bf7c64b2")
)

// testConfig sizes the pool of period 0 to exactly the initial amount:
// the supply of 1000 against an average total of 346 gives a stake
// percent equal to the ramp target.
func testConfig() *config.Config {
	return &config.Config{
		Markets: []config.MarketConfig{{Name: testMarket, TokenAddress: token.Hex()}},
		Distribution: config.DistributionConfig{
			GenesisHeight: 0,
			PeriodLength:  30,
			InitialAmount: "1000",
			Reward: reward.Params{
				BasisPoints: reward.DefaultBasisPoints,
				Ramp: reward.TargetRamp{
					Initial: 346_000_000,
					Floor:   0,
					Cap:     reward.DefaultBasisPoints,
				},
			},
			FetchPageSize: 2,
			MaxRetryTimes: 3,
			RetryInterval: time.Millisecond,
		},
		Scheduler: config.SchedulerConfig{
			Spec:       "@every 1h",
			RunTimeout: time.Minute,
		},
	}
}

func record(addr common.Address, balance int64, height uint64) stake.StakeChangeRecord {
	return stake.StakeChangeRecord{
		Market:      testMarket,
		Address:     addr,
		NewBalance:  sdkmath.NewInt(balance),
		BlockHeight: height,
	}
}

func scenarioRecords() []stake.StakeChangeRecord {
	return []stake.StakeChangeRecord{
		record(addrA, 100, 10),
		record(addrB, 300, 12),
		record(addrA, 400, 20),
	}
}

// expectStakeChanges serves records in pages of cfg.FetchPageSize for
// every range requested.
func expectStakeChanges(dbMock *mocks.DbInterface, records []stake.StakeChangeRecord) {
	dbMock.On("FetchStakeChanges", mock.Anything, testMarket, mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, _ string, r types.BlockRange, cursor string, limit int64) (*stake.Page, error) {
			inRange := make([]stake.StakeChangeRecord, 0, len(records))
			for _, rec := range records {
				if r.Contains(rec.BlockHeight) {
					inRange = append(inRange, rec)
				}
			}

			offset := 0
			if cursor != "" {
				if _, err := fmt.Sscanf(cursor, "offset-%d", &offset); err != nil {
					return nil, &db.InvalidPaginationTokenError{Message: err.Error()}
				}
			}
			end := offset + int(limit)
			if end >= len(inRange) {
				return &stake.Page{Records: inRange[offset:], Done: true}, nil
			}
			return &stake.Page{
				Records:    inRange[offset:end],
				NextCursor: fmt.Sprintf("offset-%d", end),
			}, nil
		})
}

// snapshotStore backs the snapshot methods of a DbInterface mock with a map.
type snapshotStore struct {
	mu   sync.Mutex
	docs map[uint64]*model.SnapshotDocument
}

func expectSnapshotStore(dbMock *mocks.DbInterface) *snapshotStore {
	s := &snapshotStore{docs: make(map[uint64]*model.SnapshotDocument)}

	dbMock.On("GetSnapshot", mock.Anything, mock.Anything).
		Return(func(_ context.Context, period uint64) (*model.SnapshotDocument, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			doc, ok := s.docs[period]
			if !ok {
				return nil, &db.NotFoundError{Key: fmt.Sprint(period), Message: "snapshot not found"}
			}
			c := *doc
			return &c, nil
		}).Maybe()

	dbMock.On("GetLastSnapshot", mock.Anything).
		Return(func(_ context.Context) (*model.SnapshotDocument, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var last *model.SnapshotDocument
			for _, doc := range s.docs {
				if last == nil || doc.PeriodID > last.PeriodID {
					last = doc
				}
			}
			if last == nil {
				return nil, &db.NotFoundError{Message: "no snapshot stored"}
			}
			c := *last
			return &c, nil
		}).Maybe()

	dbMock.On("GetUnseededSnapshots", mock.Anything).
		Return(func(_ context.Context) ([]*model.SnapshotDocument, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			var out []*model.SnapshotDocument
			for _, doc := range s.docs {
				if !doc.Seeded && doc.Leaves > 0 {
					c := *doc
					out = append(out, &c)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].PeriodID < out[j].PeriodID })
			return out, nil
		}).Maybe()

	dbMock.On("SaveSnapshot", mock.Anything, mock.Anything).
		Return(func(_ context.Context, doc *model.SnapshotDocument) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.docs[doc.PeriodID]; ok {
				return &db.DuplicateKeyError{Key: fmt.Sprint(doc.PeriodID), Message: "duplicate period"}
			}
			c := *doc
			s.docs[doc.PeriodID] = &c
			return nil
		}).Maybe()

	dbMock.On("MarkSnapshotSeeded", mock.Anything, mock.Anything).
		Return(func(_ context.Context, period uint64) error {
			s.mu.Lock()
			defer s.mu.Unlock()
			doc, ok := s.docs[period]
			if !ok {
				return &db.NotFoundError{Message: "snapshot not found"}
			}
			doc.Seeded = true
			return nil
		}).Maybe()

	return s
}

func (s *snapshotStore) get(period uint64) *model.SnapshotDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[period]
}

func newFileStore(t *testing.T) *publisher.FileStore {
	t.Helper()
	pub, err := publisher.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return pub
}

func newLedger(operatorBalance uint64) (*ledger.Ledger, *ledger.MemoryToken) {
	tok := ledger.NewMemoryToken(map[common.Address]*uint256.Int{
		operator: uint256.NewInt(operatorBalance),
	})
	return ledger.New(ledger.NewMemoryStore(), tok, operator, escrow), tok
}

func balanceOf(t *testing.T, tok ledger.Token, addr common.Address) uint64 {
	t.Helper()
	b, err := tok.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return b.Uint64()
}
