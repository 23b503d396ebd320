/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/ui"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks", "t"},
	Short:   "Create, inspect and change tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a task",
	Long: `Create a task. Without a name it is called "Untitled".

Give --lat, --lon and --radius together to monitor a region for it:
  geotask task add Groceries --lat 40.7128 --lon -74.006 --radius 150`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lon, radius, hasGeo, err := geometryFlags(cmd)
		if err != nil {
			return err
		}
		if hasGeo {
			if err := geo.ValidateGeometry(lat, lon, radius); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		e := env.engine
		t, err := e.AddTask(ctx)
		if err != nil {
			return err
		}

		name := strings.TrimSpace(strings.Join(args, " "))
		if name != "" || hasGeo {
			_, err := runSession(ctx, cmd, e, t.ID, func() error {
				if name != "" {
					if err := e.RenameTask(t.ID, name); err != nil {
						return err
					}
				}
				if hasGeo {
					return e.UpdateTaskGeometry(ctx, t.ID, lat, lon, radius)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		t, _ = e.GetTask(t.ID)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created task #%d %s\n", t.ID, t.Name)
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, most recently updated first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		tasks := env.engine.ListTasks()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, tasks)
		}
		out := cmd.OutOrStdout()
		ui.RenderTasks(out, tasks, env.engine.ListRegions())
		ui.RenderFallback(out, env.engine.MonitoringError())
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task and its checklist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		env, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.engine.GetTask(id)
		if err != nil {
			return err
		}
		items, err := env.engine.ListItems(id)
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, struct {
				geo.Task
				Items []geo.Item `json:"items"`
			}{t, items})
		}
		ui.RenderTask(cmd.OutOrStdout(), t, items)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete <task-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task and its items",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		t, err := env.engine.GetTask(id)
		if err != nil {
			return err
		}
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			if !ui.IsInteractive() {
				return errors.New("refusing to delete without --yes in a non-interactive shell")
			}
			ok, err := ui.Confirm(fmt.Sprintf("Delete %q and all of its items?", t.Name), cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		if err := env.engine.DeleteTask(ctx, id); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Deleted task #%d %s\n", id, t.Name)
		ui.RenderFallback(out, env.engine.MonitoringError())
		return nil
	},
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename <task-id> <name>",
	Short: "Rename a task",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		return editTask(cmd, id, func(e *app.Engine) error {
			return e.RenameTask(id, name)
		})
	},
}

var taskGeoCmd = &cobra.Command{
	Use:   "geo <task-id> --lat <degrees> --lon <degrees> --radius <meters>",
	Short: "Set the region monitored for a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		lat, lon, radius, hasGeo, err := geometryFlags(cmd)
		if err != nil {
			return err
		}
		if !hasGeo {
			return errors.New("--lat, --lon and --radius are required")
		}
		return editTask(cmd, id, func(e *app.Engine) error {
			return e.UpdateTaskGeometry(cmd.Context(), id, lat, lon, radius)
		})
	},
}

var taskClearGeoCmd = &cobra.Command{
	Use:   "clear-geo <task-id>",
	Short: "Stop monitoring a task's region",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseTaskID(args[0])
		if err != nil {
			return err
		}
		return editTask(cmd, id, func(e *app.Engine) error {
			return e.ClearTaskGeometry(cmd.Context(), id)
		})
	},
}

// editTask runs fn inside an editing session on id.
func editTask(cmd *cobra.Command, id geo.TaskID, fn func(e *app.Engine) error) error {
	ctx := cmd.Context()
	env, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	_, err = runSession(ctx, cmd, env.engine, id, func() error { return fn(env.engine) })
	return err
}

// geometryFlags reads --lat, --lon and --radius. They must be given together.
func geometryFlags(cmd *cobra.Command) (lat, lon, radius float64, ok bool, err error) {
	names := []string{"lat", "lon", "radius"}
	set := 0
	for _, n := range names {
		if cmd.Flags().Changed(n) {
			set++
		}
	}
	switch set {
	case 0:
		return 0, 0, 0, false, nil
	case len(names):
	default:
		return 0, 0, 0, false, errors.New("--lat, --lon and --radius must be given together")
	}
	lat, _ = cmd.Flags().GetFloat64("lat")
	lon, _ = cmd.Flags().GetFloat64("lon")
	radius, _ = cmd.Flags().GetFloat64("radius")
	return lat, lon, radius, true, nil
}

func addGeometryFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "latitude of the region center in degrees")
	cmd.Flags().Float64("lon", 0, "longitude of the region center in degrees")
	cmd.Flags().Float64("radius", 0, "region radius in meters")
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(taskCmd)
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskDeleteCmd, taskRenameCmd, taskGeoCmd, taskClearGeoCmd)

	addGeometryFlags(taskAddCmd)
	addGeometryFlags(taskGeoCmd)
	taskListCmd.Flags().Bool("json", false, "print JSON")
	taskShowCmd.Flags().Bool("json", false, "print JSON")
	taskDeleteCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}
