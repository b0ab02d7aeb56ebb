package pkg

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var ErrZeroAddress = errors.New("zero address")

// ParseAddress accepts a 20 byte hex address with or without the 0x prefix.
// The zero address is rejected since nothing can hold or claim rewards there.
func ParseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("invalid address %q", address)
	}
	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return common.Address{}, ErrZeroAddress
	}
	return addr, nil
}

func ValidateAddress(address string) error {
	_, err := ParseAddress(address)
	return err
}
