package main

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/server"
	"github.com/dmitrijs2005/lifecycle/internal/server/config"
	"github.com/spf13/cobra"
)

func newRunCmd(cfg *config.Config) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:       "run <job>",
		Short:     "Run one job now and wait for it",
		Long:      fmt.Sprintf("Run one job now and wait for it. Jobs: %s, %s.", common.JobCascadeDelete, common.JobAlarmDispatch),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{common.JobCascadeDelete, common.JobAlarmDispatch},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), cfg, func(ctx context.Context, app *server.App) error {
				if err := app.RunJob(ctx, args[0], force); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s finished\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "dispatch alarms even if today was already dispatched")

	return cmd
}
