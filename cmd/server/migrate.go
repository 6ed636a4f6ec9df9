package main

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server"
	"github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/spf13/cobra"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, app *server.App) error {
				return app.Migrate(ctx)
			})
		},
	}
}
