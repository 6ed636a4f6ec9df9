package main

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server"
	"github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/spf13/cobra"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers and the job scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, app *server.App) error {
				return app.Run(ctx)
			})
		},
	}
}
