package ethclient

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gethclient "github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

// totalSupplySelector is the 4 byte selector of `totalSupply()`.
var totalSupplySelector = crypto.Keccak256([]byte("totalSupply()"))[:4]

type EthClient struct {
	backend Backend
	cfg     *config.EthConfig
}

func NewEthClient(ctx context.Context, cfg *config.EthConfig) (*EthClient, error) {
	backend, err := gethclient.DialContext(ctx, cfg.RPCAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial eth rpc %s: %w", cfg.RPCAddr, err)
	}
	return New(backend, cfg), nil
}

func New(backend Backend, cfg *config.EthConfig) *EthClient {
	return &EthClient{backend: backend, cfg: cfg}
}

func (c *EthClient) TotalSupply(ctx context.Context, token common.Address) (sdkmath.Int, error) {
	msg := ethereum.CallMsg{
		To:   &token,
		Data: totalSupplySelector,
	}

	callForSupply := func() (*sdkmath.Int, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		out, err := c.backend.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, err
		}
		if len(out) != 32 {
			return nil, retry.Unrecoverable(types.NewErrorWithMsg(
				types.Unsupported,
				fmt.Sprintf("token %s returned %d bytes for totalSupply()", token.Hex(), len(out)),
			))
		}

		supply := sdkmath.NewIntFromBigInt(new(uint256.Int).SetBytes(out).ToBig())
		return &supply, nil
	}

	supply, err := clientCallWithRetry(ctx, callForSupply, c.cfg)
	if err != nil {
		return sdkmath.Int{}, fmt.Errorf("failed to get total supply of %s: %w", token.Hex(), err)
	}
	return *supply, nil
}

func (c *EthClient) HeadHeight(ctx context.Context) (uint64, error) {
	callForHead := func() (*uint64, error) {
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		height, err := c.backend.BlockNumber(ctx)
		if err != nil {
			return nil, err
		}
		return &height, nil
	}

	height, err := clientCallWithRetry(ctx, callForHead, c.cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get head height: %w", err)
	}
	return *height, nil
}

func clientCallWithRetry[T any](
	ctx context.Context, call retry.RetryableFuncWithData[*T], cfg *config.EthConfig,
) (*T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the eth RPC client")
		}))

	if err != nil {
		return nil, err
	}
	return result, nil
}
