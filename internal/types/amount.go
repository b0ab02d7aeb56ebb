package types

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
)

var ErrAmountOutOfRange = errors.New("amount does not fit in uint256")

// ToUint256 converts an off-chain amount into the 256 bit word the
// ledger and the leaf encoding work with.
func ToUint256(amount sdkmath.Int) (*uint256.Int, error) {
	if amount.IsNil() || amount.IsNegative() {
		return nil, fmt.Errorf("%w: %v", ErrAmountOutOfRange, amount)
	}
	out, overflow := uint256.FromBig(amount.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount)
	}
	return out, nil
}

func FromUint256(amount *uint256.Int) sdkmath.Int {
	if amount == nil {
		return sdkmath.ZeroInt()
	}
	return sdkmath.NewIntFromBigInt(amount.ToBig())
}

// ParseAmount parses a base-10 amount as stored in documents and artifacts.
func ParseAmount(s string) (sdkmath.Int, error) {
	amount, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid amount %q", s)
	}
	if amount.IsNegative() {
		return sdkmath.Int{}, fmt.Errorf("negative amount %q", s)
	}
	return amount, nil
}
