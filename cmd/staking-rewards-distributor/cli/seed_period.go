package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
)

func SeedPeriodCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed-period",
		Short: "Commits a computed period to the ledger",
		Args:  cobra.ExactArgs(0),
		RunE:  seedPeriod,
	}
	cmd.Flags().Uint64("period", 0, "period to seed")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func seedPeriod(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	period, err := cmd.Flags().GetUint64("period")
	if err != nil {
		return err
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

	if err := a.service.SeedPeriod(ctx, period); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "period %d seeded\n", period)
	return nil
}
