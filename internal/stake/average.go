package stake

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

type AverageStake struct {
	Address common.Address
	Average sdkmath.Int
}

// WindowAverages holds the per-address averages of one market over a
// window, ordered by address, and the average of the market total.
type WindowAverages struct {
	Window Window
	Stakes []AverageStake
	Total  sdkmath.Int
}

// Sum adds up the per-address averages. Because every average is
// truncated on its own, Sum can be slightly below Total.
func (a *WindowAverages) Sum() sdkmath.Int {
	sum := sdkmath.ZeroInt()
	for _, s := range a.Stakes {
		sum = sum.Add(s.Average)
	}
	return sum
}

// TimeWeightedAverage integrates tl over w and divides by the window
// length. The opening balance is the last checkpoint at or before
// w.Start; each checkpoint inside (Start, End) closes a segment. The
// integral is computed exactly and divided once at the end.
func TimeWeightedAverage(tl *Timeline, w Window) sdkmath.Int {
	if tl.Len() == 0 || w.Start >= w.End {
		return sdkmath.ZeroInt()
	}

	idx := tl.firstAfter(w.Start)
	balance := sdkmath.ZeroInt()
	if idx > 0 {
		balance = tl.checkpoints[idx-1].Balance
	}

	integral := sdkmath.ZeroInt()
	cursor := w.Start
	for _, cp := range tl.checkpoints[idx:] {
		if cp.Height >= w.End {
			break
		}
		integral = integral.Add(balance.Mul(sdkmath.NewIntFromUint64(cp.Height - cursor)))
		cursor = cp.Height
		balance = cp.Balance
	}
	integral = integral.Add(balance.Mul(sdkmath.NewIntFromUint64(w.End - cursor)))

	return integral.Quo(sdkmath.NewIntFromUint64(w.Length()))
}

// ComputeAverages runs TimeWeightedAverage for every address known to r
// and once for the running total. Addresses averaging zero are dropped.
func ComputeAverages(r *Reconstructor, w Window) (*WindowAverages, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	result := &WindowAverages{
		Window: w,
		Stakes: make([]AverageStake, 0, len(r.timelines)),
		Total:  TimeWeightedAverage(r.TotalTimeline(), w),
	}
	for _, addr := range r.Addresses() {
		avg := TimeWeightedAverage(r.Timeline(addr), w)
		if avg.IsZero() {
			continue
		}
		result.Stakes = append(result.Stakes, AverageStake{Address: addr, Average: avg})
	}
	return result, nil
}
