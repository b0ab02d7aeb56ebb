package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
)

func RunSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-snapshot",
		Short: "Computes and publishes the snapshot of one period",
		Args:  cobra.ExactArgs(0),
		RunE:  runSnapshot,
	}
	cmd.Flags().Uint64("period", 0, "period to compute")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runSnapshot(cmd *cobra.Command, args []string) error {
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

	res, err := a.service.RunPeriod(ctx, period)
	if err != nil {
		return err
	}

	snap := res.Snapshot
	fmt.Fprintf(cmd.OutOrStdout(), "period:           %d\n", snap.PeriodID)
	fmt.Fprintf(cmd.OutOrStdout(), "content id:       %s\n", res.ContentID)
	fmt.Fprintf(cmd.OutOrStdout(), "root:             %s\n", snap.Root.Hex())
	fmt.Fprintf(cmd.OutOrStdout(), "pool:             %s\n", snap.Pool)
	fmt.Fprintf(cmd.OutOrStdout(), "total allocation: %s\n", snap.TotalAllocation)
	fmt.Fprintf(cmd.OutOrStdout(), "leaves:           %d\n", len(snap.Leaves))
	if res.Existing {
		fmt.Fprintln(cmd.OutOrStdout(), "period was already computed")
	}
	return nil
}
