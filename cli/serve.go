package cli

import (
	"github.com/spf13/cobra"

	"github.com/fieldops/dispatch/engine/infra/server"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dispatch HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cfg, err := setupContext(cmd)
			if err != nil {
				return err
			}
			return server.NewServer(cfg).Run(ctx)
		},
	}
}
