package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/db"
	dbmodel "github.com/babylonlabs-io/staking-rewards-distributor/internal/db/model"
)

const importBatchSize = 1000

func ImportStakeChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-stake-changes [file]",
		Short: "Imports stake change records from a JSON lines file",
		Args:  cobra.ExactArgs(1),
		RunE:  importStakeChanges,
	}

	return cmd
}

func importStakeChanges(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}
	defer dbClient.Close(ctx)

	for _, market := range cfg.MarketNames() {
		if err := dbClient.SaveMarket(ctx, market); err != nil {
			return err
		}
	}

	fd, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer fd.Close()

	batch := make([]*dbmodel.StakeChangeDocument, 0, importBatchSize)
	processed := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := dbClient.SaveStakeChanges(ctx, batch)
		if db.IsDuplicateKeyError(err) {
			log.Ctx(ctx).Warn().Err(err).Msg("batch contains records that were already imported")
		} else if err != nil {
			return err
		}
		processed += len(batch)
		batch = batch[:0]
		return nil
	}

	sc := bufio.NewScanner(fd)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var doc dbmodel.StakeChangeDocument
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, &doc)

		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d stake changes processed\n", processed)
	return nil
}
