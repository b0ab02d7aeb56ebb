package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-rewards-distributor/pkg"
)

func ClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claims the rewards of an address for one or more periods",
		Long:  "Claims the rewards of an address for one or more periods. Periods already claimed or not seeded yet are skipped.",
		Args:  cobra.ExactArgs(0),
		RunE:  claim,
	}
	cmd.Flags().String("address", "", "claimant address")
	cmd.Flags().UintSlice("periods", nil, "periods to claim")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("periods")

	return cmd
}

func claim(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	rawAddr, err := cmd.Flags().GetString("address")
	if err != nil {
		return err
	}
	addr, err := pkg.ParseAddress(rawAddr)
	if err != nil {
		return err
	}
	rawPeriods, err := cmd.Flags().GetUintSlice("periods")
	if err != nil {
		return err
	}
	periods := make([]uint64, 0, len(rawPeriods))
	for _, p := range rawPeriods {
		periods = append(periods, uint64(p))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	claimed, err := a.service.ClaimPeriods(ctx, addr, periods)
	if err != nil {
		return err
	}
	if len(claimed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to claim")
		return nil
	}

	balance, err := a.store.Token().BalanceOf(ctx, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "claimed periods %v, balance %s\n", claimed, balance.Dec())
	return nil
}
