package reward

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

// DefaultBasisPoints is the fixed-point unit for ratios: 1e9 means 100%.
const DefaultBasisPoints = 1_000_000_000

var (
	ErrZeroSupply       = errors.New("total supply is zero")
	ErrNegativePool     = errors.New("reward pool is negative")
	ErrInvalidRamp      = errors.New("invalid target ramp")
	ErrInvalidBasis     = errors.New("basis points must be positive")
	ErrNegativeAverages = errors.New("negative average stake")
)

// TargetRamp is the target stake ratio per period, in basis points:
// Initial + Step*period clamped into [Floor, Cap].
type TargetRamp struct {
	Initial int64  `mapstructure:"initial"`
	Step    int64  `mapstructure:"step"`
	Floor   uint64 `mapstructure:"floor"`
	Cap     uint64 `mapstructure:"cap"`
}

func (r TargetRamp) Validate() error {
	if r.Floor > r.Cap {
		return fmt.Errorf("%w: floor %d above cap %d", ErrInvalidRamp, r.Floor, r.Cap)
	}
	return nil
}

func (r TargetRamp) Target(period uint64) sdkmath.Int {
	target := sdkmath.NewInt(r.Initial).Add(sdkmath.NewInt(r.Step).Mul(sdkmath.NewIntFromUint64(period)))

	floor := sdkmath.NewIntFromUint64(r.Floor)
	if target.LT(floor) {
		return floor
	}
	capped := sdkmath.NewIntFromUint64(r.Cap)
	if target.GT(capped) {
		return capped
	}
	return target
}

// StakePercent is totalStaked * basis / totalSupply, truncated.
func StakePercent(totalStaked, totalSupply, basis sdkmath.Int) (sdkmath.Int, error) {
	if !totalSupply.IsPositive() {
		return sdkmath.Int{}, ErrZeroSupply
	}
	return totalStaked.Mul(basis).Quo(totalSupply), nil
}

// PoolSize is the damped feedback step
//
//	lastAmount * (basis + target - stakePercent) / basis
//
// The multiplication happens before the division. A stake ratio at or
// above basis + target yields an empty pool instead of going negative.
func PoolSize(lastAmount, target, stakePercent, basis sdkmath.Int) sdkmath.Int {
	factor := basis.Add(target).Sub(stakePercent)
	if !factor.IsPositive() || !lastAmount.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return lastAmount.Mul(factor).Quo(basis)
}

// Params configures pool sizing.
type Params struct {
	BasisPoints uint64     `mapstructure:"basis-points"`
	Ramp        TargetRamp `mapstructure:"target-ramp"`
}

func (p Params) Validate() error {
	if p.BasisPoints == 0 {
		return ErrInvalidBasis
	}
	return p.Ramp.Validate()
}

type PoolSizing struct {
	Target       sdkmath.Int
	StakePercent sdkmath.Int
	Pool         sdkmath.Int
}

// SizePool computes the pool of a period from the amount distributed in
// the previous period and the stake observed over the previous window.
func SizePool(p Params, period uint64, lastAmount, previousStaked, totalSupply sdkmath.Int) (*PoolSizing, error) {
	basis := sdkmath.NewIntFromUint64(p.BasisPoints)
	stakePercent, err := StakePercent(previousStaked, totalSupply, basis)
	if err != nil {
		return nil, err
	}

	target := p.Ramp.Target(period)
	return &PoolSizing{
		Target:       target,
		StakePercent: stakePercent,
		Pool:         PoolSize(lastAmount, target, stakePercent, basis),
	}, nil
}
