package ethclient

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
)

type ethClientWithMetrics struct {
	eth EthInterface
}

func NewEthClientWithMetrics(eth EthInterface) *ethClientWithMetrics {
	return &ethClientWithMetrics{eth: eth}
}

func (e *ethClientWithMetrics) TotalSupply(ctx context.Context, token common.Address) (sdkmath.Int, error) {
	return runEthClientMethodWithMetrics("TotalSupply", func() (sdkmath.Int, error) {
		return e.eth.TotalSupply(ctx, token)
	})
}

func (e *ethClientWithMetrics) HeadHeight(ctx context.Context) (uint64, error) {
	return runEthClientMethodWithMetrics("HeadHeight", func() (uint64, error) {
		return e.eth.HeadHeight(ctx)
	})
}

func runEthClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	result, err := f()
	duration := time.Since(startTime)

	metrics.RecordEthClientLatency(duration, method, err != nil)
	return result, err
}
