package cli

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	dbmodel "github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/tracing"
)

func StartDistributorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-distributor",
		Short: "Starts the scheduled reward distributor",
		Args:  cobra.ExactArgs(0),
		RunE:  startDistributor,
	}

	return cmd
}

func startDistributor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up distributor db model")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	return a.service.StartDistributor(ctx)
}
