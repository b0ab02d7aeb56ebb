package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonlabs-io/staking-rewards-distributor/pkg"
)

type EthConfig struct {
	RPCAddr       string        `mapstructure:"rpc-addr"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetryTimes uint          `mapstructure:"maxretrytimes"`
	RetryInterval time.Duration `mapstructure:"retryinterval"`
}

func (cfg *EthConfig) Validate() error {
	if cfg.RPCAddr == "" {
		return errors.New("eth rpc address is required")
	}
	if cfg.Timeout <= 0 {
		return errors.New("eth timeout must be positive")
	}
	if cfg.MaxRetryTimes <= 0 {
		return errors.New("max retry times should be positive")
	}
	if cfg.RetryInterval <= 0 {
		return errors.New("retry interval should be positive")
	}

	return nil
}

// MarketConfig binds a stake change stream to the token whose total
// supply is used for the stake percent of that market.
type MarketConfig struct {
	Name         string `mapstructure:"name"`
	TokenAddress string `mapstructure:"token-address"`
}

func (m *MarketConfig) Token() common.Address {
	return common.HexToAddress(m.TokenAddress)
}

func validateMarkets(markets []MarketConfig) error {
	if len(markets) == 0 {
		return errors.New("at least one market must be configured")
	}

	seen := make(map[string]struct{}, len(markets))
	for _, m := range markets {
		if m.Name == "" {
			return errors.New("market name is required")
		}
		if _, ok := seen[m.Name]; ok {
			return fmt.Errorf("duplicate market %q", m.Name)
		}
		seen[m.Name] = struct{}{}

		if err := pkg.ValidateAddress(m.TokenAddress); err != nil {
			return fmt.Errorf("market %q has an invalid token: %w", m.Name, err)
		}
	}

	return nil
}
