package reward

import (
	"bytes"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
)

type Share struct {
	Address common.Address
	Amount  sdkmath.Int
}

// Allocation is the split of a pool. Remainder is what truncation left
// undistributed; it is below the number of participants with a non-zero
// average, which bounds len(Shares) from above.
type Allocation struct {
	Pool        sdkmath.Int
	Shares      []Share
	Distributed sdkmath.Int
	Remainder   sdkmath.Int
}

// Allocate splits pool proportionally to the averages:
//
//	share = pool * average / sum(averages)
//
// each share truncated on its own. Zero shares are left out. If the
// averages sum to zero nothing is allocated.
func Allocate(pool sdkmath.Int, stakes []stake.AverageStake) (*Allocation, error) {
	if pool.IsNegative() {
		return nil, ErrNegativePool
	}

	sum := sdkmath.ZeroInt()
	for _, s := range stakes {
		if s.Average.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeAverages, s.Address.Hex())
		}
		sum = sum.Add(s.Average)
	}

	alloc := &Allocation{
		Pool:        pool,
		Shares:      make([]Share, 0, len(stakes)),
		Distributed: sdkmath.ZeroInt(),
		Remainder:   pool,
	}
	if sum.IsZero() || pool.IsZero() {
		return alloc, nil
	}

	for _, s := range stakes {
		amount := pool.Mul(s.Average).Quo(sum)
		if amount.IsZero() {
			continue
		}
		alloc.Shares = append(alloc.Shares, Share{Address: s.Address, Amount: amount})
		alloc.Distributed = alloc.Distributed.Add(amount)
	}
	sort.Slice(alloc.Shares, func(i, j int) bool {
		return bytes.Compare(alloc.Shares[i].Address.Bytes(), alloc.Shares[j].Address.Bytes()) < 0
	})
	alloc.Remainder = pool.Sub(alloc.Distributed)

	return alloc, nil
}

// MergeAverages adds up the per-address averages of several markets.
func MergeAverages(markets ...*stake.WindowAverages) []stake.AverageStake {
	merged := make(map[common.Address]sdkmath.Int)
	for _, m := range markets {
		if m == nil {
			continue
		}
		for _, s := range m.Stakes {
			current, ok := merged[s.Address]
			if !ok {
				current = sdkmath.ZeroInt()
			}
			merged[s.Address] = current.Add(s.Average)
		}
	}

	out := make([]stake.AverageStake, 0, len(merged))
	for addr, avg := range merged {
		out = append(out, stake.AverageStake{Address: addr, Average: avg})
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Address.Bytes(), out[j].Address.Bytes()) < 0
	})
	return out
}

// SumTotals adds up the market-wide averages.
func SumTotals(markets ...*stake.WindowAverages) sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, m := range markets {
		if m == nil {
			continue
		}
		total = total.Add(m.Total)
	}
	return total
}
