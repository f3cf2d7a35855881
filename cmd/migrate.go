package cmd

import (
	"context"
	"fmt"

	"contacts-api/pkg/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate [up|down|status|reset]",
		Short:     "Run database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync()

			command := args[0]
			logger.Info("Running migrations", zap.String("command", command))

			if err := database.Migrate(context.Background(), config.Database, command); err != nil {
				logger.Error("Migration failed", zap.Error(err), zap.String("command", command))
				return fmt.Errorf("migrate %s: %w", command, err)
			}

			logger.Info("Migrations finished", zap.String("command", command))
			return nil
		},
	}

	return cmd
}
