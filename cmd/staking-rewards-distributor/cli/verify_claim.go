package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
	"github.com/babylonlabs-io/staking-rewards-distributor/pkg"
)

func VerifyClaimCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-claim",
		Short: "Checks the proof of an address in a period",
		Args:  cobra.ExactArgs(0),
		RunE:  verifyClaim,
	}
	cmd.Flags().Uint64("period", 0, "period of the claim")
	cmd.Flags().String("address", "", "claimant address")
	_ = cmd.MarkFlagRequired("period")
	_ = cmd.MarkFlagRequired("address")

	return cmd
}

func verifyClaim(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	period, err := cmd.Flags().GetUint64("period")
	if err != nil {
		return err
	}
	rawAddr, err := cmd.Flags().GetString("address")
	if err != nil {
		return err
	}
	addr, err := pkg.ParseAddress(rawAddr)
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

	status, err := a.service.VerifyClaim(ctx, period, addr)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "address:    %s\n", status.Address.Hex())
	fmt.Fprintf(out, "amount:     %s\n", status.Amount)
	fmt.Fprintf(out, "root:       %s\n", status.Root.Hex())
	fmt.Fprintf(out, "proof ok:   %t\n", status.ProofOK)
	fmt.Fprintf(out, "seeded:     %t\n", status.Seeded)
	fmt.Fprintf(out, "root match: %t\n", status.RootMatch)
	fmt.Fprintf(out, "claimed:    %t\n", status.Claimed)
	for i, h := range status.Proof {
		fmt.Fprintf(out, "proof[%d]:   %s\n", i, h.Hex())
	}
	if !status.ProofOK {
		return fmt.Errorf("proof of %s does not verify against period %d", addr.Hex(), period)
	}
	return nil
}
