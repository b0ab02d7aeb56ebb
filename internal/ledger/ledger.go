// Package ledger holds the distribution ledger: one Merkle root and one
// escrowed allocation per period, and exactly-once claims against them.
//
// Every operation checks first, commits its state changes to the Store,
// and only then moves tokens. The token transfer runs outside the ledger
// lock, so a claim re-entering from the token observes the claim flags
// already set. A failed transfer rolls the committed changes back.
//
// When the token is an AtomicToken backed by the ledger's own store, the
// state changes and the balance move are committed in a single write
// instead.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/merkle"
)

// MaxRangeSize bounds the range queries.
const MaxRangeSize = 1 << 16

type Claim struct {
	PeriodID uint64
	Amount   *uint256.Int
	Proof    []common.Hash
}

type Ledger struct {
	mu    sync.Mutex
	store Store
	token Token
	// atomic is set when token commits into store
	atomic   AtomicToken
	operator common.Address
	escrow   common.Address
}

func New(store Store, token Token, operator, escrow common.Address) *Ledger {
	l := &Ledger{
		store:    store,
		token:    token,
		operator: operator,
		escrow:   escrow,
	}
	if at, ok := token.(AtomicToken); ok && at.Backs(store) {
		l.atomic = at
	}
	return l
}

func (l *Ledger) Operator() common.Address {
	return l.operator
}

func (l *Ledger) Escrow() common.Address {
	return l.escrow
}

// Seed fixes the root of a period and pulls totalAllocation from the
// operator into escrow. It can succeed at most once per period.
func (l *Ledger) Seed(ctx context.Context, caller common.Address, periodID uint64, root common.Hash, totalAllocation *uint256.Int) error {
	if caller != l.operator {
		return ErrUnauthorized
	}
	if root == (common.Hash{}) {
		return ErrInvalidRoot
	}
	if totalAllocation == nil || totalAllocation.IsZero() {
		return fmt.Errorf("%w: allocation must be positive", ErrInvalidAmount)
	}

	pending := Period{
		ID:              periodID,
		Root:            root,
		TotalAllocation: totalAllocation,
		Distributed:     new(uint256.Int),
	}

	var err error
	if l.atomic != nil {
		err = l.seedAtomic(ctx, pending)
	} else {
		err = l.seedThenFund(ctx, pending)
	}
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Uint64("period", periodID).
		Str("root", root.Hex()).
		Str("total_allocation", totalAllocation.Dec()).
		Msg("period seeded")
	return nil
}

func (l *Ledger) seedAtomic(ctx context.Context, p Period) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkUnset(p.ID); err != nil {
		return err
	}
	p.Funded = true
	err := l.atomic.TransferAndWrite(ctx, l.operator, l.escrow, p.TotalAllocation, NewBatch().PutPeriod(p))
	if err != nil {
		return fmt.Errorf("failed to escrow allocation of period %d: %w", p.ID, err)
	}
	return nil
}

// seedThenFund reserves the period, pulls the allocation and marks the
// period funded. Every failure leaves neither a reservation nor escrowed
// tokens behind, unless the refund itself fails.
func (l *Ledger) seedThenFund(ctx context.Context, p Period) error {
	if err := l.reservePeriod(p); err != nil {
		return err
	}

	if err := l.token.Transfer(ctx, l.operator, l.escrow, p.TotalAllocation); err != nil {
		l.rollback(ctx, NewBatch().DeletePeriod(p.ID))
		return fmt.Errorf("failed to escrow allocation of period %d: %w", p.ID, err)
	}

	p.Funded = true
	l.mu.Lock()
	err := l.store.Write(NewBatch().PutPeriod(p))
	l.mu.Unlock()
	if err != nil {
		l.refundSeed(ctx, p)
		return fmt.Errorf("failed to mark period %d funded: %w", p.ID, err)
	}
	return nil
}

// refundSeed returns an escrowed allocation whose period could not be
// marked funded. The reservation is only dropped once the tokens are back,
// so a failed refund can never lead to a second escrow pull.
func (l *Ledger) refundSeed(ctx context.Context, p Period) {
	if err := l.token.Transfer(ctx, l.escrow, l.operator, p.TotalAllocation); err != nil {
		log.Ctx(ctx).Error().Err(err).
			Uint64("period", p.ID).
			Str("total_allocation", p.TotalAllocation.Dec()).
			Msg("failed to refund allocation of an unfunded period")
		return
	}
	l.rollback(ctx, NewBatch().DeletePeriod(p.ID))
}

func (l *Ledger) checkUnset(id uint64) error {
	existing, err := l.store.Period(id)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("period %d: %w", id, ErrRootAlreadySet)
	}
	return nil
}

func (l *Ledger) reservePeriod(p Period) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkUnset(p.ID); err != nil {
		return err
	}
	return l.store.Write(NewBatch().PutPeriod(p))
}

// ClaimSingle pays amount to addr for one period if the proof places
// (addr, amount) under the period root.
func (l *Ledger) ClaimSingle(ctx context.Context, addr common.Address, periodID uint64, amount *uint256.Int, proof []common.Hash) error {
	return l.ClaimBatch(ctx, addr, []Claim{{PeriodID: periodID, Amount: amount, Proof: proof}})
}

// ClaimBatch verifies every claim like ClaimSingle would and pays the sum
// with one transfer. A single bad claim fails the whole batch.
func (l *Ledger) ClaimBatch(ctx context.Context, addr common.Address, claims []Claim) error {
	if len(claims) == 0 {
		return ErrEmptyBatch
	}

	var (
		total *uint256.Int
		err   error
	)
	if l.atomic != nil {
		total, err = l.claimAtomic(ctx, addr, claims)
	} else {
		total, err = l.claimThenPay(ctx, addr, claims)
	}
	if err != nil {
		return err
	}

	log.Ctx(ctx).Debug().
		Str("address", addr.Hex()).
		Int("claims", len(claims)).
		Str("amount", total.Dec()).
		Msg("claims paid")
	return nil
}

func (l *Ledger) claimAtomic(ctx context.Context, addr common.Address, claims []Claim) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total, batch, err := l.prepareClaims(addr, claims)
	if err != nil {
		return nil, err
	}
	if err := l.atomic.TransferAndWrite(ctx, l.escrow, addr, total, batch); err != nil {
		return nil, fmt.Errorf("failed to pay %s: %w", addr.Hex(), err)
	}
	return total, nil
}

func (l *Ledger) claimThenPay(ctx context.Context, addr common.Address, claims []Claim) (*uint256.Int, error) {
	total, err := l.markClaimed(addr, claims)
	if err != nil {
		return nil, err
	}
	if !total.IsZero() {
		if err := l.token.Transfer(ctx, l.escrow, addr, total); err != nil {
			l.revertClaims(ctx, addr, claims)
			return nil, fmt.Errorf("failed to pay %s: %w", addr.Hex(), err)
		}
	}
	return total, nil
}

// markClaimed validates the claims and commits the claim flags and
// distributed counters. It returns the amount to pay.
func (l *Ledger) markClaimed(addr common.Address, claims []Claim) (*uint256.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total, batch, err := l.prepareClaims(addr, claims)
	if err != nil {
		return nil, err
	}
	if err := l.store.Write(batch); err != nil {
		return nil, err
	}
	return total, nil
}

// prepareClaims validates the claims against the stored state and builds
// the batch that marks them claimed. The caller holds l.mu.
func (l *Ledger) prepareClaims(addr common.Address, claims []Claim) (*uint256.Int, *Batch, error) {
	total := new(uint256.Int)
	periods := make(map[uint64]*Period, len(claims))

	for _, c := range claims {
		if c.Amount == nil {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrInvalidAmount)
		}
		if _, dup := periods[c.PeriodID]; dup {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrAlreadyClaimed)
		}

		p, err := l.store.Period(c.PeriodID)
		if err != nil {
			return nil, nil, err
		}
		if p == nil || !p.Funded {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrPeriodNotSeeded)
		}

		claimed, err := l.store.Claimed(c.PeriodID, addr)
		if err != nil {
			return nil, nil, err
		}
		if claimed {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrAlreadyClaimed)
		}

		if !merkle.VerifyLeaf(p.Root, addr, c.Amount, c.Proof) {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrInvalidProof)
		}

		distributed, overflow := new(uint256.Int).AddOverflow(p.Distributed, c.Amount)
		if overflow || distributed.Gt(p.TotalAllocation) {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrAllocationExceeded)
		}
		if _, overflow := total.AddOverflow(total, c.Amount); overflow {
			return nil, nil, fmt.Errorf("period %d: %w", c.PeriodID, ErrInvalidAmount)
		}

		p.Distributed = distributed
		periods[c.PeriodID] = p
	}

	batch := NewBatch()
	for _, c := range claims {
		batch.PutClaimed(c.PeriodID, addr).PutPeriod(*periods[c.PeriodID])
	}
	return total, batch, nil
}

// revertClaims undoes a committed markClaimed after a failed payout.
// Distributed counters are decreased from their current value since
// other addresses may have claimed in the meantime.
func (l *Ledger) revertClaims(ctx context.Context, addr common.Address, claims []Claim) {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := NewBatch()
	for _, c := range claims {
		p, err := l.store.Period(c.PeriodID)
		if err != nil || p == nil {
			log.Ctx(ctx).Error().Err(err).Uint64("period", c.PeriodID).Msg("failed to load period for claim rollback")
			continue
		}
		p.Distributed.Sub(p.Distributed, c.Amount)
		batch.DeleteClaimed(c.PeriodID, addr).PutPeriod(*p)
	}
	if err := l.store.Write(batch); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("address", addr.Hex()).Msg("failed to roll back claims")
	}
}

func (l *Ledger) rollback(ctx context.Context, undo *Batch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Write(undo); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to roll back ledger changes")
	}
}

// ClaimedRange reports for every period in [begin, end] whether addr has
// claimed it.
func (l *Ledger) ClaimedRange(addr common.Address, begin, end uint64) ([]bool, error) {
	if err := validateRange(begin, end); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]bool, 0, end-begin+1)
	for id := begin; ; id++ {
		claimed, err := l.store.Claimed(id, addr)
		if err != nil {
			return nil, err
		}
		out = append(out, claimed)
		if id == end {
			break
		}
	}
	return out, nil
}

// RootsRange returns the root of every period in [begin, end], the zero
// hash for periods that are not seeded.
func (l *Ledger) RootsRange(begin, end uint64) ([]common.Hash, error) {
	if err := validateRange(begin, end); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]common.Hash, 0, end-begin+1)
	for id := begin; ; id++ {
		p, err := l.store.Period(id)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Funded {
			out = append(out, p.Root)
		} else {
			out = append(out, common.Hash{})
		}
		if id == end {
			break
		}
	}
	return out, nil
}

// Period returns the seeded state of a period.
func (l *Ledger) Period(id uint64) (*Period, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, err := l.store.Period(id)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Funded {
		return nil, fmt.Errorf("period %d: %w", id, ErrPeriodNotSeeded)
	}
	return p, nil
}

func validateRange(begin, end uint64) error {
	if begin > end {
		return fmt.Errorf("%w: begin %d after end %d", ErrInvalidRange, begin, end)
	}
	if end-begin >= MaxRangeSize {
		return fmt.Errorf("%w: more than %d periods", ErrInvalidRange, MaxRangeSize)
	}
	return nil
}

// IsClaimRejection reports whether err is a claim the ledger refused, as
// opposed to a storage or transfer failure.
func IsClaimRejection(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrInvalidProof) ||
		errors.Is(err, ErrPeriodNotSeeded) ||
		errors.Is(err, ErrAllocationExceeded) ||
		errors.Is(err, ErrInvalidAmount)
}
