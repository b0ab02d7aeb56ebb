package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
)

const balancePrefix byte = 'b'

// LevelDBToken keeps token balances next to the ledger state so a local
// ledger survives restarts together with its escrow. It commits ledger
// batches of its own store together with the balance move.
type LevelDBToken struct {
	mu    sync.Mutex
	db    *leveldb.DB
	store *LevelDBStore
}

// Token returns a token sharing the store's database.
func (s *LevelDBStore) Token() *LevelDBToken {
	return &LevelDBToken{db: s.db, store: s}
}

func (t *LevelDBToken) Backs(store Store) bool {
	s, ok := store.(*LevelDBStore)
	return ok && s == t.store
}

func balanceKey(addr common.Address) []byte {
	key := make([]byte, 1+common.AddressLength)
	key[0] = balancePrefix
	copy(key[1:], addr.Bytes())
	return key
}

func (t *LevelDBToken) balance(addr common.Address) (*uint256.Int, error) {
	val, err := t.db.Get(balanceKey(addr), &readOpt)
	if errors.Is(err, leveldb.ErrNotFound) {
		return new(uint256.Int), nil
	}
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(val), nil
}

func (t *LevelDBToken) BalanceOf(_ context.Context, addr common.Address) (*uint256.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balance(addr)
}

func (t *LevelDBToken) Transfer(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := new(leveldb.Batch)
	if err := t.move(batch, from, to, amount); err != nil {
		return err
	}
	return t.db.Write(batch, &writeOpt)
}

// TransferAndWrite moves amount and applies b in a single leveldb batch.
// Nothing is written if the balance is short.
func (t *LevelDBToken) TransferAndWrite(_ context.Context, from, to common.Address, amount *uint256.Int, b *Batch) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := toLevelDBBatch(b)
	if err := t.move(batch, from, to, amount); err != nil {
		return err
	}
	return t.db.Write(batch, &writeOpt)
}

func (t *LevelDBToken) move(batch *leveldb.Batch, from, to common.Address, amount *uint256.Int) error {
	fromBalance, err := t.balance(from)
	if err != nil {
		return err
	}
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance.Dec(), amount.Dec())
	}
	toBalance, err := t.balance(to)
	if err != nil {
		return err
	}

	fromBalance.Sub(fromBalance, amount)
	if from == to {
		toBalance = fromBalance.Add(fromBalance, amount)
	} else {
		toBalance.Add(toBalance, amount)
	}

	fromBytes := fromBalance.Bytes32()
	toBytes := toBalance.Bytes32()
	batch.Put(balanceKey(from), fromBytes[:])
	batch.Put(balanceKey(to), toBytes[:])
	return nil
}

// Mint credits addr out of thin air. It funds the operator of a local ledger.
func (t *LevelDBToken) Mint(_ context.Context, addr common.Address, amount *uint256.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bal, err := t.balance(addr)
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(bal, amount)
	if overflow {
		return fmt.Errorf("balance of %s overflows", addr.Hex())
	}
	val := sum.Bytes32()
	return t.db.Put(balanceKey(addr), val[:], &writeOpt)
}
