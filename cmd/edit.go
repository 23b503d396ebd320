/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"errors"

	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/ui"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Open the interactive task editor",
	Long: `Open the terminal editor. Without a task id it starts on the task list.

Opening a task starts an editing session; going back, quitting or switching
away from the terminal ends it and saves the changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsInteractive() {
			return errors.New("the editor needs an interactive terminal; use 'geotask task' and 'geotask item' instead")
		}
		var id geo.TaskID
		if len(args) == 1 {
			var err error
			if id, err = parseTaskID(args[0]); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if id != 0 {
			if _, err := env.engine.GetTask(id); err != nil {
				return err
			}
		}
		res, err := ui.RunEditor(ctx, env.engine, id)
		if res.SessionID != "" {
			ui.RenderFlush(cmd.OutOrStdout(), res)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
