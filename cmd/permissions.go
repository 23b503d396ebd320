/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"

	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/ui"
	"github.com/spf13/cobra"
)

var permissionsCmd = &cobra.Command{
	Use:     "permissions",
	Aliases: []string{"perm"},
	Short:   "Manage location and notification permissions",
	Long: `Region monitoring needs location permission both while in use and in the
background. Statuses are stored in the data directory.

Kinds: foreground_location (foreground), background_location (background),
notifications.`,
}

var permissionsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show permission statuses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPermissionProvider(GetConfig(), nil)
		table := &ui.Table{Headers: []string{"Permission", "Status"}}
		for _, k := range permission.Kinds {
			st, err := p.Status(cmd.Context(), k)
			if err != nil {
				return err
			}
			table.Rows = append(table.Rows, []string{string(k), string(st)})
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, table.Render())
		if err := permission.Check(cmd.Context(), p); err != nil {
			fmt.Fprintln(out, ui.StyleWarning.Render(" Region monitoring is off until both location permissions are granted."))
		}
		return nil
	},
}

var permissionsGrantCmd = &cobra.Command{
	Use:   "grant <kind>",
	Short: "Mark a permission as granted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPermission(cmd, args[0], permission.Granted)
	},
}

var permissionsRevokeCmd = &cobra.Command{
	Use:   "revoke <kind>",
	Short: "Mark a permission as denied",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPermission(cmd, args[0], permission.Denied)
	},
}

var permissionsRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Ask for every permission that has not been decided",
	Long: `Ask for foreground location, then background location, then notifications.
Background location is only asked for once foreground location is granted.
Without an interactive terminal undecided permissions are denied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var prompt permission.Prompter
		if ui.IsInteractive() {
			prompt = terminalPrompter()
		}
		p := newPermissionProvider(GetConfig(), prompt)
		got, err := permission.RequestAll(cmd.Context(), p)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, k := range permission.Kinds {
			if st, ok := got[k]; ok {
				fmt.Fprintf(out, "%s: %s\n", k, st)
			}
		}
		return reconcileAfterPermissionChange(cmd)
	},
}

func setPermission(cmd *cobra.Command, arg string, status permission.Status) error {
	kind, err := permission.ParseKind(arg)
	if err != nil {
		return err
	}
	if err := newPermissionProvider(GetConfig(), nil).Set(kind, status); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s\n", kind, status)
	return reconcileAfterPermissionChange(cmd)
}

// reconcileAfterPermissionChange loads the engine, which reconciles, and
// reports whether monitoring is now active.
func reconcileAfterPermissionChange(cmd *cobra.Command) error {
	env, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	out := cmd.OutOrStdout()
	if err := env.engine.MonitoringError(); err != nil {
		ui.RenderFallback(out, err)
		return nil
	}
	fmt.Fprintf(out, "Region monitoring is active (%d region(s))\n", len(env.engine.ListRegions()))
	return nil
}

func init() {
	rootCmd.AddCommand(permissionsCmd)
	permissionsCmd.AddCommand(permissionsStatusCmd, permissionsGrantCmd, permissionsRevokeCmd, permissionsRequestCmd)
}
