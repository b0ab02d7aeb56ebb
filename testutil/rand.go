package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/ethereum/go-ethereum/common"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomAddress draws a 20 byte address from the faker.
func RandomAddress(f *gofakeit.Faker) common.Address {
	var addr common.Address
	for i := range addr {
		addr[i] = f.Uint8()
	}
	return addr
}

// RandomAddresses returns n distinct addresses.
func RandomAddresses(f *gofakeit.Faker, n int) []common.Address {
	seen := make(map[common.Address]struct{}, n)
	out := make([]common.Address, 0, n)
	for len(out) < n {
		addr := RandomAddress(f)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// RandomBalance returns a non-negative balance below max.
func RandomBalance(f *gofakeit.Faker, max int) sdkmath.Int {
	return sdkmath.NewInt(int64(f.IntRange(0, max)))
}
