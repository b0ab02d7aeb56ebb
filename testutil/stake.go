package testutil

import (
	"github.com/brianvoe/gofakeit/v7"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
)

// RandomStakeStream builds a strictly ordered stream of n stake changes
// for the given market spread over the addresses and a few sub-accounts.
func RandomStakeStream(f *gofakeit.Faker, market string, addresses int, n int) []stake.StakeChangeRecord {
	pool := RandomAddresses(f, addresses)
	records := make([]stake.StakeChangeRecord, 0, n)

	height := uint64(f.IntRange(1, 10))
	logIndex := uint64(0)
	for range n {
		// stay on the same block from time to time to exercise log index ordering
		if f.IntRange(0, 3) == 0 {
			logIndex++
		} else {
			height += uint64(f.IntRange(1, 20))
			logIndex = 0
		}
		records = append(records, stake.StakeChangeRecord{
			Market:       market,
			Address:      pool[f.IntRange(0, len(pool)-1)],
			SubAccountID: uint64(f.IntRange(0, 2)),
			NewBalance:   RandomBalance(f, 1_000_000),
			BlockHeight:  height,
			LogIndex:     logIndex,
		})
	}
	return records
}
