package stake

import (
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
)

type Checkpoint struct {
	Height  uint64
	Balance sdkmath.Int
}

// Timeline is a piecewise-constant balance function over block height.
// Only the reconstructor appends to it; readers get copies.
type Timeline struct {
	checkpoints []Checkpoint
}

// record appends a checkpoint. Several assignments at the same height
// collapse into the last one.
func (t *Timeline) record(height uint64, balance sdkmath.Int) {
	n := len(t.checkpoints)
	if n > 0 && t.checkpoints[n-1].Height == height {
		t.checkpoints[n-1].Balance = balance
		return
	}
	t.checkpoints = append(t.checkpoints, Checkpoint{Height: height, Balance: balance})
}

func (t *Timeline) Len() int {
	if t == nil {
		return 0
	}
	return len(t.checkpoints)
}

func (t *Timeline) Checkpoints() []Checkpoint {
	if t == nil {
		return nil
	}
	out := make([]Checkpoint, len(t.checkpoints))
	copy(out, t.checkpoints)
	return out
}

// BalanceAt returns the last assignment at or before height, zero if none.
func (t *Timeline) BalanceAt(height uint64) sdkmath.Int {
	if t.Len() == 0 {
		return sdkmath.ZeroInt()
	}
	idx := t.firstAfter(height)
	if idx == 0 {
		return sdkmath.ZeroInt()
	}
	return t.checkpoints[idx-1].Balance
}

// firstAfter returns the index of the first checkpoint strictly above height.
func (t *Timeline) firstAfter(height uint64) int {
	return sort.Search(len(t.checkpoints), func(i int) bool {
		return t.checkpoints[i].Height > height
	})
}

// Window is the half-open block range [Start, End) a period averages over.
type Window struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

func (w Window) Validate() error {
	if w.Start >= w.End {
		return fmt.Errorf("%w: start %d must be below end %d", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

func (w Window) Length() uint64 {
	return w.End - w.Start
}
