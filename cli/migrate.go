package cli

import (
	"github.com/spf13/cobra"

	"github.com/fieldops/dispatch/engine/infra/postgres"
	"github.com/fieldops/dispatch/pkg/logger"
)

func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setupContext(cmd)
			if err != nil {
				return err
			}
			dsn := postgres.FromAppConfig(cfg).DSN()
			if err := postgres.ApplyMigrationsWithLock(ctx, dsn); err != nil {
				return err
			}
			logger.FromContext(ctx).Info("Migrations applied")
			return nil
		},
	}
}
