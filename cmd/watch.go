/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/notify"
	"github.com/josephgoksu/geotask/internal/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Deliver region reminders until interrupted",
	Long: `Watch the event inbox and show a reminder for every region crossing.

Events name a region by its task id. The task name is read from the
database when the event arrives, so reminders reflect the latest saved
name. Events for deleted tasks are dropped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		store, err := memory.NewSQLiteStore(cfg.Data.Path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		bg := newBackground(cmd, store, nil)
		once, _ := cmd.Flags().GetBool("once")
		if once {
			if err := fs.MkdirAll(cfg.Platform.Inbox, 0755); err != nil {
				return err
			}
			return bg.Inbox.Drain(cmd.Context())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Fprintf(cmd.OutOrStdout(), "👀 Watching %s (Ctrl+C to stop)\n", bg.Inbox.Dir())
		if err := bg.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// newBackground wires the correlator to the inbox. Reminders go to the
// terminal and the log.
func newBackground(cmd *cobra.Command, lookup memory.TaskNameLookup, m *metrics.Metrics) *app.Background {
	cfg := GetConfig()
	if m == nil {
		m = metrics.New(prometheus.NewRegistry())
	}
	return app.NewBackground(app.BackgroundConfig{
		Lookup: lookup,
		Presenter: notify.Multi{
			notify.NewTerminalPresenter(cmd.OutOrStdout()),
			notify.LogPresenter{Logger: log},
		},
		Fs:        fs,
		InboxDir:  cfg.Platform.Inbox,
		Monitor:   platform.NewFileMonitor(fs, cfg.RegionsFile()),
		TaskName:  cfg.Platform.TaskName,
		Logger:    log,
		Metrics:   m,
		Telemetry: newTelemetryClient(cfg),
	})
}

var emitCmd = &cobra.Command{
	Use:       "emit <enter|exit> <region-id>",
	Short:     "Report a region crossing, as the operating system would",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(platform.Enter), string(platform.Exit)},
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := platform.ParseEventType(args[0])
		if err != nil {
			return err
		}
		cfg := GetConfig()
		inbox := platform.NewInbox(platform.InboxConfig{
			Fs:       fs,
			Dir:      cfg.Platform.Inbox,
			TaskName: cfg.Platform.TaskName,
			Logger:   log,
		})
		path, err := inbox.Emit(context.WithoutCancel(cmd.Context()), platform.Event{Type: typ, RegionID: args[1]})
		if err != nil {
			return err
		}
		log.Debug("event emitted", "path", path)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Queued %s event for region %s\n", typ, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd, emitCmd)
	watchCmd.Flags().Bool("once", false, "process queued events and exit")
}
