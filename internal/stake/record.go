package stake

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// StakeChangeRecord is a single balance assignment emitted by the staking
// contract. NewBalance replaces whatever the sub-account held before.
type StakeChangeRecord struct {
	Market       string
	Address      common.Address
	SubAccountID uint64
	NewBalance   sdkmath.Int
	BlockHeight  uint64
	LogIndex     uint64
}

// Position is the ordering key of a record inside a stream.
type Position struct {
	BlockHeight uint64
	LogIndex    uint64
}

func (p Position) Before(other Position) bool {
	if p.BlockHeight != other.BlockHeight {
		return p.BlockHeight < other.BlockHeight
	}
	return p.LogIndex < other.LogIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.BlockHeight, p.LogIndex)
}

func (r StakeChangeRecord) Position() Position {
	return Position{BlockHeight: r.BlockHeight, LogIndex: r.LogIndex}
}

// Page is one batch returned by a paged stake change source. NextCursor is
// opaque to the consumer and only valid when Done is false.
type Page struct {
	Records    []StakeChangeRecord
	NextCursor string
	Done       bool
}
