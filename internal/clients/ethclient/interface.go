package ethclient

import (
	"context"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
)

//go:generate mockery --name=EthInterface --output=../../../tests/mocks --outpkg=mocks --filename=mock_eth_client.go
type EthInterface interface {
	// TotalSupply returns the ERC20 total supply of token at the latest block.
	TotalSupply(ctx context.Context, token common.Address) (sdkmath.Int, error)
	HeadHeight(ctx context.Context) (uint64, error)
}

// Backend is the subset of the go-ethereum RPC client the distributor
// needs. *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
}
