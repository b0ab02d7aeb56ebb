package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/ledger"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/types"
)

func FundOperatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fund-operator",
		Short: "Credits reward tokens to the operator account of the ledger",
		Args:  cobra.ExactArgs(0),
		RunE:  fundOperator,
	}
	cmd.Flags().String("amount", "", "amount in base units")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func fundOperator(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	rawAmount, err := cmd.Flags().GetString("amount")
	if err != nil {
		return err
	}
	amount, err := types.ParseAmount(rawAmount)
	if err != nil {
		return err
	}
	value, err := types.ToUint256(amount)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// only the ledger is needed here
	store, err := ledger.NewLevelDBStore(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	token := store.Token()
	operator := cfg.Ledger.OperatorAddress()
	if err := token.Mint(ctx, operator, value); err != nil {
		return err
	}

	balance, err := token.BalanceOf(ctx, operator)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "operator %s balance %s\n", operator.Hex(), balance.Dec())
	return nil
}
