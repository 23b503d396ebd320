/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/spf13/cobra"
)

var itemCmd = &cobra.Command{
	Use:     "item",
	Aliases: []string{"items", "i"},
	Short:   "Change the checklist of a task",
}

var itemAddCmd = &cobra.Command{
	Use:   "add <task-id> <details>",
	Short: "Add an item to a task's checklist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		details := strings.Join(args[1:], " ")

		ctx := cmd.Context()
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		e := env.engine
		var temp geo.ItemID
		res, err := runSession(ctx, cmd, e, taskID, func() error {
			it, err := e.AddItem(taskID)
			if err != nil {
				return err
			}
			temp = it.ID
			return e.UpdateItemDetails(it.ID, details)
		})
		if err != nil {
			return err
		}
		if id, ok := res.Inserted[temp]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added item #%d to task #%d\n", id, taskID)
		}
		return nil
	},
}

var itemEditCmd = &cobra.Command{
	Use:   "edit <item-id> <details>",
	Short: "Change an item's text",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(args[0])
		if err != nil {
			return err
		}
		details := strings.Join(args[1:], " ")
		return editItem(cmd, id, func(e *app.Engine) error {
			return e.UpdateItemDetails(id, details)
		})
	},
}

var itemDoneCmd = &cobra.Command{
	Use:     "done <item-id>",
	Aliases: []string{"toggle"},
	Short:   "Toggle an item between done and not done",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(args[0])
		if err != nil {
			return err
		}
		return editItem(cmd, id, func(e *app.Engine) error {
			if err := e.ToggleItemDone(id); err != nil {
				return err
			}
			it, err := e.GetItem(id)
			if err != nil {
				return err
			}
			state := "not done"
			if it.Done {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item #%d is now %s\n", id, state)
			return nil
		})
	},
}

var itemDeleteCmd = &cobra.Command{
	Use:     "delete <item-id>",
	Aliases: []string{"rm"},
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseItemID(args[0])
		if err != nil {
			return err
		}
		return editItem(cmd, id, func(e *app.Engine) error {
			return e.DeleteItem(id)
		})
	},
}

// editItem opens a session on the item's task and runs fn in it.
func editItem(cmd *cobra.Command, id geo.ItemID, fn func(e *app.Engine) error) error {
	ctx := cmd.Context()
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	it, err := env.engine.GetItem(id)
	if err != nil {
		return err
	}
	_, err = runSession(ctx, cmd, env.engine, it.TaskID, func() error { return fn(env.engine) })
	return err
}

func init() {
	rootCmd.AddCommand(itemCmd)
	itemCmd.AddCommand(itemAddCmd, itemEditCmd, itemDoneCmd, itemDeleteCmd)
}
