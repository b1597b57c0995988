// Package cli defines the dispatch command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldops/dispatch/pkg/config"
	"github.com/fieldops/dispatch/pkg/logger"
)

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Field service dispatch server",
		Long: "Dispatch turns free-text problem reports into geocoded, " +
			"trackable field service tasks.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON")
	cmd.PersistentFlags().Bool("log-source", false, "Include source locations in logs")
	cmd.PersistentFlags().String("env-file", "", "Env file loaded before configuration")
	cmd.AddCommand(ServeCmd())
	cmd.AddCommand(MigrateCmd())
	cmd.AddCommand(VersionCmd())
	return cmd
}

// setupContext loads the env file, builds the logger and loads the
// validated configuration.
func setupContext(cmd *cobra.Command) (context.Context, *config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	} else {
		// A missing default .env is not an error.
		_ = godotenv.Load()
	}

	level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := logger.SetupLogger(level, logJSON, logSource)
	ctx := logger.ContextWithLogger(cmd.Context(), log)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return ctx, cfg, nil
}
