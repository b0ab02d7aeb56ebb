package config

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/reward"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/stake"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

const (
	defaultFetchPageSize = 500
	defaultMaxRetryTimes = 5
	defaultRetryInterval = 500 * time.Millisecond
)

// DistributionConfig describes the period calendar and pool sizing.
// Period p covers blocks [GenesisHeight + p*PeriodLength, GenesisHeight + (p+1)*PeriodLength).
type DistributionConfig struct {
	GenesisHeight uint64        `mapstructure:"genesis-height"`
	PeriodLength  uint64        `mapstructure:"period-length"`
	InitialAmount string        `mapstructure:"initial-amount"`
	Reward        reward.Params `mapstructure:"reward"`
	FetchPageSize int64         `mapstructure:"fetch-page-size"`
	MaxRetryTimes uint          `mapstructure:"maxretrytimes"`
	RetryInterval time.Duration `mapstructure:"retryinterval"`
}

func (cfg *DistributionConfig) Validate() error {
	if cfg.PeriodLength == 0 {
		return errors.New("period length must be positive")
	}
	if _, err := types.ParseAmount(cfg.InitialAmount); err != nil {
		return fmt.Errorf("invalid initial amount: %w", err)
	}
	if cfg.Reward.BasisPoints == 0 {
		cfg.Reward.BasisPoints = reward.DefaultBasisPoints
	}
	if err := cfg.Reward.Validate(); err != nil {
		return err
	}

	if cfg.FetchPageSize < 0 {
		return errors.New("fetch page size must be positive")
	}
	if cfg.FetchPageSize == 0 {
		cfg.FetchPageSize = defaultFetchPageSize
	}
	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultMaxRetryTimes
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}

	return nil
}

// Initial is the pool of period 0, used until a previous period exists.
func (cfg *DistributionConfig) Initial() sdkmath.Int {
	amount, err := types.ParseAmount(cfg.InitialAmount)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	return amount
}

func (cfg *DistributionConfig) Window(period uint64) stake.Window {
	start := cfg.GenesisHeight + period*cfg.PeriodLength
	return stake.Window{Start: start, End: start + cfg.PeriodLength}
}

// PreviousWindow is the window the stake percent of a period is measured
// on. Period 0 has no predecessor and measures its own window.
func (cfg *DistributionConfig) PreviousWindow(period uint64) stake.Window {
	if period == 0 {
		return cfg.Window(0)
	}
	return cfg.Window(period - 1)
}

// PeriodAt returns the last period whose window is complete at head,
// false when no period has ended yet.
func (cfg *DistributionConfig) PeriodAt(head uint64) (uint64, bool) {
	if head < cfg.GenesisHeight+cfg.PeriodLength {
		return 0, false
	}
	return (head-cfg.GenesisHeight)/cfg.PeriodLength - 1, true
}
