package main

import (
	"context"

	"github.com/dmitrijs2005/lifecycle/internal/server"
	"github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/spf13/cobra"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	// Read by config.LoadConfig before cobra parses; declared here so the
	// command tree accepts it and lists it in help.
	var configPath string

	cmd := &cobra.Command{
		Use:          "lifecycle-server",
		Short:        "Entity lifecycle and reconciliation service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to JSON config file")

	cmd.AddCommand(
		newServeCmd(cfg),
		newRunCmd(cfg),
		newMigrateCmd(cfg),
	)

	return cmd
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, cfg *config.Config, fn func(context.Context, *server.App) error) (err error) {
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(ctx, app)
}
