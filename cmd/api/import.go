package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ArowuTest/loyalty-backend/internal/utils"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

func importRewardsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-rewards <file.csv>",
		Short: "Import the reward catalog from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open CSV file: %w", err)
			}
			defer file.Close()

			ctx := context.Background()
			b, err := openBackend(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.close(ctx)

			result, err := utils.NewRewardCSVImporter(b.repos.Rewards).ImportRewards(ctx, file)
			if err != nil {
				return err
			}
			for _, rowErr := range result.Errors {
				slog.Warn("Skipped row", "error", rowErr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d rewards\n", result.Imported, result.TotalRows)
			return nil
		},
	}
}
