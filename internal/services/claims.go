package services

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/merkle"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/snapshot"
)

// ClaimStatus describes the claim of one address in one period.
type ClaimStatus struct {
	PeriodID  uint64
	Address   common.Address
	Amount    sdkmath.Int
	Proof     []common.Hash
	Root      common.Hash
	ProofOK   bool
	Seeded    bool
	RootMatch bool
	Claimed   bool
}

// VerifyClaim checks the proof of addr against the stored snapshot and,
// when a ledger is configured, against the seeded root.
func (s *Service) VerifyClaim(ctx context.Context, period uint64, addr common.Address) (*ClaimStatus, error) {
	stored, err := s.loadSnapshot(ctx, period)
	if err != nil {
		return nil, err
	}
	snap := stored.Snapshot

	claim, err := snap.Claim(addr)
	if err != nil {
		return nil, err
	}

	status := &ClaimStatus{
		PeriodID: period,
		Address:  addr,
		Amount:   snap.Claims[addr].Amount,
		Proof:    claim.Proof,
		Root:     snap.Root,
		ProofOK:  merkle.VerifyLeaf(snap.Root, addr, claim.Amount, claim.Proof),
	}
	if s.ledger == nil {
		return status, nil
	}

	roots, err := s.ledger.RootsRange(period, period)
	if err != nil {
		return nil, err
	}
	claimed, err := s.ledger.ClaimedRange(addr, period, period)
	if err != nil {
		return nil, err
	}
	status.Seeded = roots[0] != (common.Hash{})
	status.RootMatch = roots[0] == snap.Root
	status.Claimed = claimed[0]
	return status, nil
}

// ClaimPeriods claims the shares of addr in the given periods with one
// batch. Periods already claimed or not seeded yet are skipped; nothing is
// sent when no period is left.
func (s *Service) ClaimPeriods(ctx context.Context, addr common.Address, periods []uint64) ([]uint64, error) {
	if s.ledger == nil {
		return nil, ErrLedgerDisabled
	}

	claims := make([]ledger.Claim, 0, len(periods))
	claimed := make([]uint64, 0, len(periods))
	for _, period := range periods {
		done, err := s.ledger.ClaimedRange(addr, period, period)
		if err != nil {
			return nil, err
		}
		if done[0] {
			continue
		}
		roots, err := s.ledger.RootsRange(period, period)
		if err != nil {
			return nil, err
		}
		if roots[0] == (common.Hash{}) {
			log.Ctx(ctx).Warn().Uint64("period", period).Msg("Period not seeded yet, skipping claim")
			continue
		}

		stored, err := s.loadSnapshot(ctx, period)
		if err != nil {
			return nil, err
		}
		c, err := stored.Snapshot.Claim(addr)
		if errors.Is(err, snapshot.ErrNoClaim) {
			continue
		}
		if err != nil {
			return nil, err
		}
		claims = append(claims, c)
		claimed = append(claimed, period)
	}

	if len(claims) == 0 {
		return nil, nil
	}

	err := s.ledger.ClaimBatch(ctx, addr, claims)
	metrics.RecordLedgerOperation("claim", err != nil)
	if err != nil {
		return nil, fmt.Errorf("failed to claim %d periods for %s: %w", len(claims), addr.Hex(), err)
	}

	log.Ctx(ctx).Info().
		Str("address", addr.Hex()).
		Interface("periods", claimed).
		Msg("Rewards claimed")
	return claimed, nil
}
