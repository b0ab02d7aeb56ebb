package services_test

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/services"
	"github.com/babylonlabs-io/staking-rewards-distributor/tests/mocks"
)

func TestRunDue(t *testing.T) {
	ctx := context.Background()

	t.Run("computes and seeds every closed period", func(t *testing.T) {
		dbMock := mocks.NewDbInterface(t)
		ethMock := mocks.NewEthInterface(t)
		store := expectSnapshotStore(dbMock)
		expectStakeChanges(dbMock, scenarioRecords())
		ethMock.On("HeadHeight", mock.Anything).Return(uint64(65), nil)
		ethMock.On("TotalSupply", mock.Anything, token).Return(sdkmath.NewInt(1000), nil)

		l, tok := newLedger(2000)
		svc := services.NewService(testConfig(), dbMock, ethMock, newFileStore(t), nil, l)
		require.NoError(t, svc.RunDue(ctx))

		for _, period := range []uint64{0, 1} {
			doc := store.get(period)
			require.NotNil(t, doc, "period %d", period)
			assert.True(t, doc.Seeded, "period %d", period)
		}
		assert.Nil(t, store.get(2))
		assert.Equal(t, uint64(999+998), balanceOf(t, tok, escrow))

		// nothing new until the next window closes
		require.NoError(t, svc.RunDue(ctx))
		assert.Len(t, store.docs, 2)
	})

	t.Run("no period ended yet", func(t *testing.T) {
		dbMock := mocks.NewDbInterface(t)
		ethMock := mocks.NewEthInterface(t)
		ethMock.On("HeadHeight", mock.Anything).Return(uint64(29), nil)

		svc := services.NewService(testConfig(), dbMock, ethMock, newFileStore(t), nil, nil)
		require.NoError(t, svc.RunDue(ctx))
	})

	t.Run("period left unseeded is seeded on a later run", func(t *testing.T) {
		dbMock := mocks.NewDbInterface(t)
		ethMock := mocks.NewEthInterface(t)
		store := expectSnapshotStore(dbMock)
		expectStakeChanges(dbMock, scenarioRecords())
		ethMock.On("HeadHeight", mock.Anything).Return(uint64(30), nil).Once()
		ethMock.On("HeadHeight", mock.Anything).Return(uint64(65), nil)
		ethMock.On("TotalSupply", mock.Anything, token).Return(sdkmath.NewInt(1000), nil)

		treasury := common.HexToAddress("0x00000000000000000000000000000000000000f2")
		tok := ledger.NewMemoryToken(map[common.Address]*uint256.Int{
			operator: uint256.NewInt(10),
			treasury: uint256.NewInt(5000),
		})
		l := ledger.New(ledger.NewMemoryStore(), tok, operator, escrow)
		svc := services.NewService(testConfig(), dbMock, ethMock, newFileStore(t), nil, l)

		err := svc.RunDue(ctx)
		require.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		require.NotNil(t, store.get(0))
		assert.False(t, store.get(0).Seeded)

		require.NoError(t, tok.Transfer(ctx, treasury, operator, uint256.NewInt(2000)))
		require.NoError(t, svc.RunDue(ctx))

		for _, period := range []uint64{0, 1} {
			doc := store.get(period)
			require.NotNil(t, doc, "period %d", period)
			assert.True(t, doc.Seeded, "period %d", period)
		}
		assert.Equal(t, uint64(999+998), balanceOf(t, tok, escrow))
		assert.Equal(t, uint64(10+2000-1997), balanceOf(t, tok, operator))
	})

	t.Run("empty periods are stored but not seeded", func(t *testing.T) {
		dbMock := mocks.NewDbInterface(t)
		ethMock := mocks.NewEthInterface(t)
		store := expectSnapshotStore(dbMock)
		expectStakeChanges(dbMock, nil)
		ethMock.On("HeadHeight", mock.Anything).Return(uint64(30), nil)
		ethMock.On("TotalSupply", mock.Anything, token).Return(sdkmath.NewInt(1000), nil)

		l, tok := newLedger(2000)
		svc := services.NewService(testConfig(), dbMock, ethMock, newFileStore(t), nil, l)
		require.NoError(t, svc.RunDue(ctx))

		require.NotNil(t, store.get(0))
		assert.False(t, store.get(0).Seeded)
		assert.Equal(t, uint64(2000), balanceOf(t, tok, operator))
	})
}

func TestStartDistributor(t *testing.T) {
	dbMock := mocks.NewDbInterface(t)
	ethMock := mocks.NewEthInterface(t)
	store := expectSnapshotStore(dbMock)
	expectStakeChanges(dbMock, scenarioRecords())
	ethMock.On("HeadHeight", mock.Anything).Return(uint64(30), nil)
	ethMock.On("TotalSupply", mock.Anything, token).Return(sdkmath.NewInt(1000), nil)

	cfg := testConfig()
	cfg.Scheduler.RunOnStart = true
	svc := services.NewService(cfg, dbMock, ethMock, newFileStore(t), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.StartDistributor(ctx)
	}()

	require.Eventually(t, func() bool {
		return store.get(0) != nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("distributor did not stop")
	}
}
