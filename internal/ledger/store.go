package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Period is the stored state of one distribution round. A period becomes
// claimable once Funded is set, which happens after the escrow pull.
type Period struct {
	ID              uint64
	Root            common.Hash
	TotalAllocation *uint256.Int
	Distributed     *uint256.Int
	Funded          bool
}

func (p Period) copy() Period {
	out := p
	out.TotalAllocation = cloneAmount(p.TotalAllocation)
	out.Distributed = cloneAmount(p.Distributed)
	return out
}

func cloneAmount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// Store persists periods and claim flags. Write must apply a batch
// atomically: either every operation is visible or none is.
type Store interface {
	Period(id uint64) (*Period, error)
	Claimed(periodID uint64, addr common.Address) (bool, error)
	Write(b *Batch) error
	Close() error
}

type opKind int

const (
	opPutPeriod opKind = iota
	opDeletePeriod
	opPutClaimed
	opDeleteClaimed
)

type op struct {
	kind     opKind
	period   Period
	periodID uint64
	address  common.Address
}

type Batch struct {
	ops []op
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) PutPeriod(p Period) *Batch {
	b.ops = append(b.ops, op{kind: opPutPeriod, period: p.copy(), periodID: p.ID})
	return b
}

func (b *Batch) DeletePeriod(id uint64) *Batch {
	b.ops = append(b.ops, op{kind: opDeletePeriod, periodID: id})
	return b
}

func (b *Batch) PutClaimed(periodID uint64, addr common.Address) *Batch {
	b.ops = append(b.ops, op{kind: opPutClaimed, periodID: periodID, address: addr})
	return b
}

func (b *Batch) DeleteClaimed(periodID uint64, addr common.Address) *Batch {
	b.ops = append(b.ops, op{kind: opDeleteClaimed, periodID: periodID, address: addr})
	return b
}

func (b *Batch) Len() int {
	return len(b.ops)
}
