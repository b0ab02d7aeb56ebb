package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/merkle"
)

var (
	operator = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	escrow   = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol    = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// hookedToken wraps a MemoryToken, counts transfers and lets tests fail
// or re-enter from inside a transfer.
type hookedToken struct {
	*MemoryToken
	transfers atomic.Int32
	before    func(from, to common.Address, amount *uint256.Int) error
}

func (h *hookedToken) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	h.transfers.Add(1)
	if h.before != nil {
		if err := h.before(from, to, amount); err != nil {
			return err
		}
	}
	return h.MemoryToken.Transfer(ctx, from, to, amount)
}

// flakyStore fails the write numbered failOn, counting from one.
type flakyStore struct {
	Store
	writes atomic.Int32
	failOn int32
}

var errDiskFull = errors.New("disk full")

func (s *flakyStore) Write(b *Batch) error {
	if s.writes.Add(1) == s.failOn {
		return errDiskFull
	}
	return s.Store.Write(b)
}

type fixture struct {
	ledger *Ledger
	token  *hookedToken
	tree   *merkle.Tree
}

func fixtureTree(t *testing.T) *merkle.Tree {
	t.Helper()

	tree, err := merkle.NewTree([]merkle.Leaf{
		{Address: alice, Amount: uint256.NewInt(100)},
		{Address: bob, Amount: uint256.NewInt(50)},
		{Address: carol, Amount: uint256.NewInt(25)},
	})
	require.NoError(t, err)
	return tree
}

func newFixture(t *testing.T, store Store) *fixture {
	t.Helper()

	tree := fixtureTree(t)
	token := &hookedToken{MemoryToken: NewMemoryToken(map[common.Address]*uint256.Int{
		operator: uint256.NewInt(10_000),
	})}
	return &fixture{
		ledger: New(store, token, operator, escrow),
		token:  token,
		tree:   tree,
	}
}

func (f *fixture) claim(t *testing.T, addr common.Address, period uint64) Claim {
	t.Helper()
	leaf, proof, err := f.tree.ProofFor(addr)
	require.NoError(t, err)
	return Claim{PeriodID: period, Amount: leaf.Amount, Proof: proof}
}

func (f *fixture) balance(t *testing.T, addr common.Address) uint64 {
	t.Helper()
	bal, err := f.token.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return bal.Uint64()
}

func stores(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"leveldb": func() Store {
			s, err := NewLevelDBStore(t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestLedger(t *testing.T) {
	for name, newStore := range stores(t) {
		t.Run(name, func(t *testing.T) {
			testLedger(t, newStore)
		})
	}
}

func testLedger(t *testing.T, newStore func() Store) {
	ctx := context.Background()

	t.Run("seed is operator only", func(t *testing.T) {
		f := newFixture(t, newStore())
		err := f.ledger.Seed(ctx, alice, 1, f.tree.Root(), uint256.NewInt(175))
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, uint64(0), f.balance(t, escrow))
	})

	t.Run("seed rejects empty root and allocation", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.ErrorIs(t, f.ledger.Seed(ctx, operator, 1, common.Hash{}, uint256.NewInt(1)), ErrInvalidRoot)
		require.ErrorIs(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(0)), ErrInvalidAmount)
	})

	t.Run("root immutability", func(t *testing.T) {
		f := newFixture(t, newStore())
		rootX := f.tree.Root()
		rootY := common.HexToHash("0x0101010101010101010101010101010101010101010101010101010101010101")

		require.NoError(t, f.ledger.Seed(ctx, operator, 1, rootX, uint256.NewInt(1000)))
		err := f.ledger.Seed(ctx, operator, 1, rootY, uint256.NewInt(500))
		require.ErrorIs(t, err, ErrRootAlreadySet)

		roots, err := f.ledger.RootsRange(1, 1)
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{rootX}, roots)

		p, err := f.ledger.Period(1)
		require.NoError(t, err)
		assert.Equal(t, uint64(1000), p.TotalAllocation.Uint64())
		assert.Equal(t, uint64(1000), f.balance(t, escrow))
		assert.Equal(t, uint64(9000), f.balance(t, operator))
	})

	t.Run("claim idempotence", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))

		c := f.claim(t, alice, 1)
		require.NoError(t, f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof))
		assert.Equal(t, uint64(75), f.balance(t, escrow))
		assert.Equal(t, uint64(100), f.balance(t, alice))

		err := f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof)
		require.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.True(t, IsClaimRejection(err))
		assert.Equal(t, uint64(75), f.balance(t, escrow))
		assert.Equal(t, uint64(100), f.balance(t, alice))

		claimed, err := f.ledger.ClaimedRange(alice, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []bool{true}, claimed)
	})

	t.Run("invalid proof", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))

		c := f.claim(t, alice, 1)
		err := f.ledger.ClaimSingle(ctx, alice, 1, uint256.NewInt(101), c.Proof)
		require.ErrorIs(t, err, ErrInvalidProof)

		// bob cannot use alice's leaf
		err = f.ledger.ClaimSingle(ctx, bob, 1, c.Amount, c.Proof)
		require.ErrorIs(t, err, ErrInvalidProof)

		claimed, err := f.ledger.ClaimedRange(alice, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []bool{false}, claimed)
		assert.Equal(t, int32(1), f.token.transfers.Load())
	})

	t.Run("period not seeded", func(t *testing.T) {
		f := newFixture(t, newStore())
		c := f.claim(t, alice, 7)
		require.ErrorIs(t, f.ledger.ClaimSingle(ctx, alice, 7, c.Amount, c.Proof), ErrPeriodNotSeeded)
		_, err := f.ledger.Period(7)
		require.ErrorIs(t, err, ErrPeriodNotSeeded)
	})

	t.Run("batch pays once", func(t *testing.T) {
		f := newFixture(t, newStore())
		for period := uint64(1); period <= 3; period++ {
			require.NoError(t, f.ledger.Seed(ctx, operator, period, f.tree.Root(), uint256.NewInt(175)))
		}
		transfersBefore := f.token.transfers.Load()

		err := f.ledger.ClaimBatch(ctx, bob, []Claim{f.claim(t, bob, 1), f.claim(t, bob, 2), f.claim(t, bob, 3)})
		require.NoError(t, err)

		assert.Equal(t, transfersBefore+1, f.token.transfers.Load())
		assert.Equal(t, uint64(150), f.balance(t, bob))

		claimed, err := f.ledger.ClaimedRange(bob, 0, 4)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, true, true, true, false}, claimed)
	})

	t.Run("batch atomicity", func(t *testing.T) {
		f := newFixture(t, newStore())
		for period := uint64(1); period <= 3; period++ {
			require.NoError(t, f.ledger.Seed(ctx, operator, period, f.tree.Root(), uint256.NewInt(175)))
		}
		transfersBefore := f.token.transfers.Load()

		bad := f.claim(t, carol, 3)
		bad.Amount = uint256.NewInt(26)
		err := f.ledger.ClaimBatch(ctx, carol, []Claim{f.claim(t, carol, 1), f.claim(t, carol, 2), bad})
		require.ErrorIs(t, err, ErrInvalidProof)

		claimed, err := f.ledger.ClaimedRange(carol, 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []bool{false, false, false}, claimed)
		assert.Equal(t, transfersBefore, f.token.transfers.Load())
		assert.Equal(t, uint64(0), f.balance(t, carol))
	})

	t.Run("batch with an already claimed period", func(t *testing.T) {
		f := newFixture(t, newStore())
		for period := uint64(1); period <= 2; period++ {
			require.NoError(t, f.ledger.Seed(ctx, operator, period, f.tree.Root(), uint256.NewInt(175)))
		}
		c1 := f.claim(t, carol, 1)
		require.NoError(t, f.ledger.ClaimSingle(ctx, carol, 1, c1.Amount, c1.Proof))

		err := f.ledger.ClaimBatch(ctx, carol, []Claim{f.claim(t, carol, 2), c1})
		require.ErrorIs(t, err, ErrAlreadyClaimed)

		claimed, err := f.ledger.ClaimedRange(carol, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false}, claimed)
	})

	t.Run("duplicate period inside a batch", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))

		c := f.claim(t, alice, 1)
		err := f.ledger.ClaimBatch(ctx, alice, []Claim{c, c})
		require.ErrorIs(t, err, ErrAlreadyClaimed)
		assert.Equal(t, uint64(0), f.balance(t, alice))
	})

	t.Run("empty batch", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.ErrorIs(t, f.ledger.ClaimBatch(ctx, alice, nil), ErrEmptyBatch)
	})

	t.Run("claims cannot exceed allocation", func(t *testing.T) {
		f := newFixture(t, newStore())
		// allocation below the tree total
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(120)))

		c := f.claim(t, alice, 1)
		require.NoError(t, f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof))
		c = f.claim(t, bob, 1)
		require.ErrorIs(t, f.ledger.ClaimSingle(ctx, bob, 1, c.Amount, c.Proof), ErrAllocationExceeded)
	})

	t.Run("failed payout rolls back", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))

		transferErr := errors.New("token paused")
		f.token.before = func(_, _ common.Address, _ *uint256.Int) error { return transferErr }

		c := f.claim(t, alice, 1)
		err := f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof)
		require.ErrorIs(t, err, transferErr)
		assert.False(t, IsClaimRejection(err))

		claimed, err := f.ledger.ClaimedRange(alice, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, []bool{false}, claimed)
		p, err := f.ledger.Period(1)
		require.NoError(t, err)
		assert.True(t, p.Distributed.IsZero())

		f.token.before = nil
		require.NoError(t, f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof))
		assert.Equal(t, uint64(100), f.balance(t, alice))
	})

	t.Run("failed escrow pull leaves the period unset", func(t *testing.T) {
		f := newFixture(t, newStore())
		err := f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(1_000_000))
		require.ErrorIs(t, err, ErrInsufficientBalance)

		roots, err := f.ledger.RootsRange(1, 1)
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{{}}, roots)

		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))
	})

	t.Run("reentrant claim observes the claim flag", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))

		c := f.claim(t, alice, 1)
		var reentryErr error
		f.token.before = func(from, to common.Address, _ *uint256.Int) error {
			if from == escrow && to == alice && reentryErr == nil {
				reentryErr = f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof)
			}
			return nil
		}

		require.NoError(t, f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof))
		require.ErrorIs(t, reentryErr, ErrAlreadyClaimed)
		assert.Equal(t, uint64(100), f.balance(t, alice))
	})

	t.Run("concurrent claims for the same leaf pay once", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))
		c := f.claim(t, bob, 1)

		var (
			wg        sync.WaitGroup
			successes atomic.Int32
			rejected  atomic.Int32
		)
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := f.ledger.ClaimSingle(ctx, bob, 1, c.Amount, c.Proof)
				switch {
				case err == nil:
					successes.Add(1)
				case errors.Is(err, ErrAlreadyClaimed):
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), successes.Load())
		assert.Equal(t, int32(15), rejected.Load())
		assert.Equal(t, uint64(50), f.balance(t, bob))
	})

	t.Run("ranges", func(t *testing.T) {
		f := newFixture(t, newStore())
		require.NoError(t, f.ledger.Seed(ctx, operator, 2, f.tree.Root(), uint256.NewInt(175)))

		roots, err := f.ledger.RootsRange(1, 3)
		require.NoError(t, err)
		assert.Equal(t, []common.Hash{{}, f.tree.Root(), {}}, roots)

		_, err = f.ledger.RootsRange(3, 1)
		require.ErrorIs(t, err, ErrInvalidRange)
		_, err = f.ledger.ClaimedRange(alice, 0, MaxRangeSize)
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestLevelDBStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	f := newFixture(t, store)
	require.NoError(t, f.ledger.Seed(ctx, operator, 4, f.tree.Root(), uint256.NewInt(175)))
	c := f.claim(t, carol, 4)
	require.NoError(t, f.ledger.ClaimSingle(ctx, carol, 4, c.Amount, c.Proof))
	require.NoError(t, store.Close())

	reopened, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	p, err := reopened.Period(4)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, f.tree.Root(), p.Root)
	assert.True(t, p.Funded)
	assert.Equal(t, uint64(175), p.TotalAllocation.Uint64())
	assert.Equal(t, uint64(25), p.Distributed.Uint64())

	claimed, err := reopened.Claimed(4, carol)
	require.NoError(t, err)
	assert.True(t, claimed)

	missing, err := reopened.Period(5)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLevelDBToken(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	token := store.Token()

	require.NoError(t, token.Mint(ctx, operator, uint256.NewInt(500)))
	require.NoError(t, token.Transfer(ctx, operator, escrow, uint256.NewInt(200)))
	require.NoError(t, token.Transfer(ctx, escrow, escrow, uint256.NewInt(200)))

	err = token.Transfer(ctx, escrow, alice, uint256.NewInt(201))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	// ledger state and balances share one database
	l := New(store, token, operator, escrow)
	tree := fixtureTree(t)
	require.NoError(t, l.Seed(ctx, operator, 1, tree.Root(), uint256.NewInt(175)))
	require.NoError(t, store.Close())

	reopened, err := NewLevelDBStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	bal, err := reopened.Token().BalanceOf(ctx, operator)
	require.NoError(t, err)
	assert.Equal(t, uint64(125), bal.Uint64())

	bal, err = reopened.Token().BalanceOf(ctx, escrow)
	require.NoError(t, err)
	assert.Equal(t, uint64(375), bal.Uint64())
}

func TestSeed_FundedWriteFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("allocation is refunded and the period released", func(t *testing.T) {
		store := &flakyStore{Store: NewMemoryStore(), failOn: 2}
		f := newFixture(t, store)

		err := f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175))
		require.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, uint64(10_000), f.balance(t, operator))
		assert.Equal(t, uint64(0), f.balance(t, escrow))

		p, err := store.Period(1)
		require.NoError(t, err)
		assert.Nil(t, p)

		require.NoError(t, f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175)))
		c := f.claim(t, alice, 1)
		require.NoError(t, f.ledger.ClaimSingle(ctx, alice, 1, c.Amount, c.Proof))
		assert.Equal(t, uint64(100), f.balance(t, alice))
		assert.Equal(t, uint64(75), f.balance(t, escrow))
	})

	t.Run("failed refund keeps the reservation", func(t *testing.T) {
		store := &flakyStore{Store: NewMemoryStore(), failOn: 2}
		f := newFixture(t, store)
		f.token.before = func(from, _ common.Address, _ *uint256.Int) error {
			if from == escrow {
				return errors.New("token paused")
			}
			return nil
		}

		err := f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175))
		require.ErrorIs(t, err, errDiskFull)
		assert.Equal(t, uint64(175), f.balance(t, escrow))

		err = f.ledger.Seed(ctx, operator, 1, f.tree.Root(), uint256.NewInt(175))
		require.ErrorIs(t, err, ErrRootAlreadySet)
		assert.Equal(t, uint64(9_825), f.balance(t, operator))
	})
}

func TestLevelDBToken_AtomicWrites(t *testing.T) {
	ctx := context.Background()

	newLedger := func(t *testing.T) (*Ledger, *LevelDBStore, *LevelDBToken) {
		store, err := NewLevelDBStore(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		token := store.Token()
		require.NoError(t, token.Mint(ctx, operator, uint256.NewInt(175)))

		l := New(store, token, operator, escrow)
		require.NotNil(t, l.atomic)
		return l, store, token
	}

	t.Run("short operator balance stores nothing", func(t *testing.T) {
		l, store, _ := newLedger(t)
		tree := fixtureTree(t)

		err := l.Seed(ctx, operator, 1, tree.Root(), uint256.NewInt(176))
		require.ErrorIs(t, err, ErrInsufficientBalance)
		p, err := store.Period(1)
		require.NoError(t, err)
		assert.Nil(t, p)

		require.NoError(t, l.Seed(ctx, operator, 1, tree.Root(), uint256.NewInt(175)))
		err = l.Seed(ctx, operator, 1, tree.Root(), uint256.NewInt(175))
		require.ErrorIs(t, err, ErrRootAlreadySet)
	})

	t.Run("short escrow leaves the claim unset", func(t *testing.T) {
		l, store, token := newLedger(t)
		tree := fixtureTree(t)
		require.NoError(t, l.Seed(ctx, operator, 1, tree.Root(), uint256.NewInt(175)))
		require.NoError(t, token.Transfer(ctx, escrow, carol, uint256.NewInt(100)))

		leaf, proof, err := tree.ProofFor(alice)
		require.NoError(t, err)
		err = l.ClaimSingle(ctx, alice, 1, leaf.Amount, proof)
		require.ErrorIs(t, err, ErrInsufficientBalance)
		assert.False(t, IsClaimRejection(err))

		claimed, err := store.Claimed(1, alice)
		require.NoError(t, err)
		assert.False(t, claimed)
		p, err := store.Period(1)
		require.NoError(t, err)
		assert.True(t, p.Distributed.IsZero())

		leaf, proof, err = tree.ProofFor(bob)
		require.NoError(t, err)
		require.NoError(t, l.ClaimSingle(ctx, bob, 1, leaf.Amount, proof))
		bal, err := token.BalanceOf(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, uint64(50), bal.Uint64())
		claimed, err = store.Claimed(1, bob)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("token of another store is not atomic", func(t *testing.T) {
		_, _, token := newLedger(t)
		l := New(NewMemoryStore(), token, operator, escrow)
		assert.Nil(t, l.atomic)
	})
}
