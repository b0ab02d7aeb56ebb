package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type claimKey struct {
	periodID uint64
	address  common.Address
}

type MemoryStore struct {
	mu      sync.RWMutex
	periods map[uint64]Period
	claims  map[claimKey]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		periods: make(map[uint64]Period),
		claims:  make(map[claimKey]struct{}),
	}
}

func (s *MemoryStore) Period(id uint64) (*Period, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.periods[id]
	if !ok {
		return nil, nil
	}
	out := p.copy()
	return &out, nil
}

func (s *MemoryStore) Claimed(periodID uint64, addr common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.claims[claimKey{periodID: periodID, address: addr}]
	return ok, nil
}

func (s *MemoryStore) Write(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range b.ops {
		switch o.kind {
		case opPutPeriod:
			s.periods[o.periodID] = o.period.copy()
		case opDeletePeriod:
			delete(s.periods, o.periodID)
		case opPutClaimed:
			s.claims[claimKey{periodID: o.periodID, address: o.address}] = struct{}{}
		case opDeleteClaimed:
			delete(s.claims, claimKey{periodID: o.periodID, address: o.address})
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
