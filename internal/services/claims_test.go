package services_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/services"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/snapshot"
)

func uint256From(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestVerifyClaim(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(1000)
	svc, _ := computedPeriod(t, nil, l)

	status, err := svc.VerifyClaim(ctx, 0, addrA)
	require.NoError(t, err)
	assert.Equal(t, "479", status.Amount.String())
	assert.Equal(t, expectedRoot, status.Root)
	assert.True(t, status.ProofOK)
	assert.False(t, status.Seeded)
	assert.False(t, status.RootMatch)
	assert.False(t, status.Claimed)

	require.NoError(t, svc.SeedPeriod(ctx, 0))
	_, err = svc.ClaimPeriods(ctx, addrA, []uint64{0})
	require.NoError(t, err)

	status, err = svc.VerifyClaim(ctx, 0, addrA)
	require.NoError(t, err)
	assert.True(t, status.Seeded)
	assert.True(t, status.RootMatch)
	assert.True(t, status.Claimed)

	_, err = svc.VerifyClaim(ctx, 0, common.HexToAddress("0x9999999999999999999999999999999999999999"))
	require.ErrorIs(t, err, snapshot.ErrNoClaim)
}

func TestClaimPeriods(t *testing.T) {
	ctx := context.Background()
	l, tok := newLedger(1000)
	svc, _ := computedPeriod(t, nil, l)
	require.NoError(t, svc.SeedPeriod(ctx, 0))

	claimed, err := svc.ClaimPeriods(ctx, addrA, []uint64{0})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, claimed)
	assert.Equal(t, uint64(479), balanceOf(t, tok, addrA))
	assert.Equal(t, uint64(520), balanceOf(t, tok, escrow))

	// already claimed periods are skipped
	claimed, err = svc.ClaimPeriods(ctx, addrA, []uint64{0})
	require.NoError(t, err)
	assert.Empty(t, claimed)
	assert.Equal(t, uint64(479), balanceOf(t, tok, addrA))

	// addresses outside the snapshot have nothing to claim
	claimed, err = svc.ClaimPeriods(ctx, common.HexToAddress("0x9999999999999999999999999999999999999999"), []uint64{0})
	require.NoError(t, err)
	assert.Empty(t, claimed)

	claimed, err = svc.ClaimPeriods(ctx, addrB, []uint64{0})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, claimed)
	assert.Equal(t, uint64(520), balanceOf(t, tok, addrB))
	// the truncation remainder was never escrowed
	assert.Equal(t, uint64(0), balanceOf(t, tok, escrow))
	assert.Equal(t, uint64(1), balanceOf(t, tok, operator))
}

func TestClaimPeriods_NotSeeded(t *testing.T) {
	ctx := context.Background()
	l, tok := newLedger(1000)
	svc, _ := computedPeriod(t, nil, l)

	claimed, err := svc.ClaimPeriods(ctx, addrA, []uint64{0})
	require.NoError(t, err)
	assert.Empty(t, claimed)

	// an unseeded period does not hold back the seeded ones
	require.NoError(t, svc.SeedPeriod(ctx, 0))
	claimed, err = svc.ClaimPeriods(ctx, addrA, []uint64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0}, claimed)
	assert.Equal(t, uint64(479), balanceOf(t, tok, addrA))

	roots, err := l.RootsRange(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []common.Hash{{}}, roots)
	_, err = l.Period(1)
	require.ErrorIs(t, err, ledger.ErrPeriodNotSeeded)
}

func TestClaimPeriods_LedgerDisabled(t *testing.T) {
	svc, _ := computedPeriod(t, nil, nil)
	_, err := svc.ClaimPeriods(context.Background(), addrA, []uint64{0})
	require.ErrorIs(t, err, services.ErrLedgerDisabled)
}
