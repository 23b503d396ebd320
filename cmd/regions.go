/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/geotask/internal/ui"
	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Inspect region monitoring",
}

var regionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the regions registered for monitoring",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		regions := env.engine.ListRegions()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, regions)
		}
		out := cmd.OutOrStdout()
		ui.RenderRegions(out, env.cfg.Platform.TaskName, regions)
		ui.RenderFallback(out, env.engine.MonitoringError())
		return nil
	},
}

var regionsReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Register the regions of every task with complete geometry",
	Long: `Compare the regions derived from the tasks with what is registered and,
if they differ, replace the registered set. Useful after granting location
permission.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		out := cmd.OutOrStdout()
		res, err := env.engine.Reconcile(ctx)
		if err != nil {
			ui.RenderFallback(out, err)
			return err
		}
		if res.Changed {
			fmt.Fprintf(out, "✓ Monitoring %d region(s)\n", len(res.Regions))
		} else {
			fmt.Fprintf(out, "Regions are up to date (%d monitored)\n", len(env.engine.ListRegions()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
	regionsCmd.AddCommand(regionsListCmd, regionsReconcileCmd)
	regionsListCmd.Flags().Bool("json", false, "print JSON")
}
