package config

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/babylonlabs-io/staking-rewards-distributor/pkg"
)

type LedgerConfig struct {
	Path     string `mapstructure:"path"`
	Operator string `mapstructure:"operator"`
	Escrow   string `mapstructure:"escrow"`
}

func (cfg *LedgerConfig) Validate() error {
	if cfg.Path == "" {
		return errors.New("ledger path is required")
	}
	if err := pkg.ValidateAddress(cfg.Operator); err != nil {
		return fmt.Errorf("invalid operator: %w", err)
	}
	if err := pkg.ValidateAddress(cfg.Escrow); err != nil {
		return fmt.Errorf("invalid escrow: %w", err)
	}
	if cfg.OperatorAddress() == cfg.EscrowAddress() {
		return errors.New("operator and escrow must differ")
	}

	return nil
}

func (cfg *LedgerConfig) OperatorAddress() common.Address {
	return common.HexToAddress(cfg.Operator)
}

func (cfg *LedgerConfig) EscrowAddress() common.Address {
	return common.HexToAddress(cfg.Escrow)
}
