package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Token moves the distributed asset. The ledger calls Transfer to pull the
// allocation into escrow when seeding and to pay claimants out of it.
type Token interface {
	Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) error
	BalanceOf(ctx context.Context, addr common.Address) (*uint256.Int, error)
}

// AtomicToken is a Token that can commit a transfer and a ledger batch in
// one write. Backs reports whether batches it writes land in store.
type AtomicToken interface {
	Token
	Backs(store Store) bool
	TransferAndWrite(ctx context.Context, from, to common.Address, amount *uint256.Int, b *Batch) error
}

// MemoryToken is an in-process balance sheet.
type MemoryToken struct {
	mu       sync.Mutex
	balances map[common.Address]*uint256.Int
}

func NewMemoryToken(balances map[common.Address]*uint256.Int) *MemoryToken {
	t := &MemoryToken{balances: make(map[common.Address]*uint256.Int, len(balances))}
	for addr, bal := range balances {
		t.balances[addr] = cloneAmount(bal)
	}
	return t
}

func (t *MemoryToken) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fromBalance := cloneAmount(t.balances[from])
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance.Dec(), amount.Dec())
	}
	t.balances[from] = fromBalance.Sub(fromBalance, amount)
	toBalance := cloneAmount(t.balances[to])
	t.balances[to] = toBalance.Add(toBalance, amount)
	return nil
}

func (t *MemoryToken) BalanceOf(_ context.Context, addr common.Address) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneAmount(t.balances[addr]), nil
}
