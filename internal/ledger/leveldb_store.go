package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const (
	periodPrefix byte = 'p'
	claimPrefix  byte = 'c'

	// root | total allocation | distributed | funded
	periodValueLen = common.HashLength + 32 + 32 + 1
)

var (
	writeOpt = opt.WriteOptions{Sync: true}
	readOpt  = opt.ReadOptions{}
)

// LevelDBStore keeps the ledger state in a leveldb database. Every Write
// is a single leveldb batch.
type LevelDBStore struct {
	db *leveldb.DB
}

func NewLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger db at %s: %w", path, err)
	}
	return &LevelDBStore{db: db}, nil
}

func periodKey(id uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = periodPrefix
	binary.BigEndian.PutUint64(key[1:], id)
	return key
}

func claimKeyBytes(periodID uint64, addr common.Address) []byte {
	key := make([]byte, 1+8+common.AddressLength)
	key[0] = claimPrefix
	binary.BigEndian.PutUint64(key[1:9], periodID)
	copy(key[9:], addr.Bytes())
	return key
}

func encodePeriod(p Period) []byte {
	val := make([]byte, 0, periodValueLen)
	val = append(val, p.Root.Bytes()...)
	total := cloneAmount(p.TotalAllocation).Bytes32()
	val = append(val, total[:]...)
	distributed := cloneAmount(p.Distributed).Bytes32()
	val = append(val, distributed[:]...)
	if p.Funded {
		val = append(val, 1)
	} else {
		val = append(val, 0)
	}
	return val
}

func decodePeriod(id uint64, val []byte) (*Period, error) {
	if len(val) != periodValueLen {
		return nil, fmt.Errorf("corrupted period %d: unexpected length %d", id, len(val))
	}
	return &Period{
		ID:              id,
		Root:            common.BytesToHash(val[:32]),
		TotalAllocation: new(uint256.Int).SetBytes(val[32:64]),
		Distributed:     new(uint256.Int).SetBytes(val[64:96]),
		Funded:          val[96] == 1,
	}, nil
}

func (s *LevelDBStore) Period(id uint64) (*Period, error) {
	val, err := s.db.Get(periodKey(id), &readOpt)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodePeriod(id, val)
}

func (s *LevelDBStore) Claimed(periodID uint64, addr common.Address) (bool, error) {
	return s.db.Has(claimKeyBytes(periodID, addr), &readOpt)
}

func (s *LevelDBStore) Write(b *Batch) error {
	return s.db.Write(toLevelDBBatch(b), &writeOpt)
}

func toLevelDBBatch(b *Batch) *leveldb.Batch {
	batch := new(leveldb.Batch)
	for _, o := range b.ops {
		switch o.kind {
		case opPutPeriod:
			batch.Put(periodKey(o.periodID), encodePeriod(o.period))
		case opDeletePeriod:
			batch.Delete(periodKey(o.periodID))
		case opPutClaimed:
			batch.Put(claimKeyBytes(o.periodID, o.address), []byte{1})
		case opDeleteClaimed:
			batch.Delete(claimKeyBytes(o.periodID, o.address))
		}
	}
	return batch
}

func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
