package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/josephgoksu/geotask/internal/app"
	"github.com/josephgoksu/geotask/internal/config"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/platform"
	"github.com/josephgoksu/geotask/internal/session"
	"github.com/josephgoksu/geotask/internal/telemetry"
	"github.com/josephgoksu/geotask/internal/ui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// fs is the filesystem every file-backed component uses.
var fs afero.Fs = afero.NewOsFs()

// appEnv is what a command needs to talk to the engine.
type appEnv struct {
	cfg      *config.AppConfig
	store    *memory.SQLiteStore
	engine   *app.Engine
	monitor  *platform.FileMonitor
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	tel      telemetry.Client
}

// openEnv opens the store and loads the engine. Close must be called to
// wait for flushes and release the database.
func openEnv(ctx context.Context) (*appEnv, error) {
	cfg := GetConfig()
	store, err := memory.NewSQLiteStore(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	rt := &appEnv{
		cfg:      cfg,
		store:    store,
		monitor:  platform.NewFileMonitor(fs, cfg.RegionsFile()),
		registry: prometheus.NewRegistry(),
		tel:      newTelemetryClient(cfg),
	}
	rt.metrics = metrics.New(rt.registry)

	rt.engine, err = app.New(app.Options{
		Store:           store,
		Monitor:         rt.monitor,
		Permissions:     newPermissionProvider(cfg, nil),
		TaskName:        cfg.Platform.TaskName,
		BestEffortFlush: !cfg.Sync.TransactionalFlush,
		Logger:          log,
		Metrics:         rt.metrics,
		Telemetry:       rt.tel,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if err := rt.engine.Load(ctx); err != nil {
		_ = rt.engine.Close()
		return nil, err
	}
	return rt, nil
}

// Close waits for in-flight flushes, then closes telemetry and the store.
func (rt *appEnv) Close() error {
	return rt.engine.Close()
}

// newPermissionProvider returns the file-backed provider. Requests are
// prompted for only when a prompter is given.
func newPermissionProvider(cfg *config.AppConfig, prompt permission.Prompter) *permission.FileProvider {
	return permission.NewFileProvider(fs, cfg.Permissions.File, prompt)
}

// terminalPrompter asks on the terminal with a yes/no prompt.
func terminalPrompter() permission.Prompter {
	return permission.PrompterFunc(func(_ context.Context, kind permission.Kind) (bool, error) {
		return ui.Confirm(fmt.Sprintf("Allow geotask to use %s?", kindLabel(kind)), os.Stdin, os.Stdout)
	})
}

func kindLabel(k permission.Kind) string {
	switch k {
	case permission.ForegroundLocation:
		return "your location while in use"
	case permission.BackgroundLocation:
		return "your location in the background"
	case permission.Notifications:
		return "notifications"
	}
	return string(k)
}

// newTelemetryClient returns a PostHog client when telemetry is enabled in
// config, an API key is set and the user has consented. Otherwise events
// are dropped.
func newTelemetryClient(cfg *config.AppConfig) telemetry.Client {
	if !cfg.Telemetry.Enabled || cfg.Telemetry.APIKey == "" {
		return telemetry.NoopClient{}
	}
	consent, err := telemetry.NewStore(fs, cfg.Data.Path).Load()
	if err != nil || !consent.IsEnabled() {
		return telemetry.NoopClient{}
	}
	c, err := telemetry.NewPostHogClient(telemetry.ClientConfig{
		APIKey:   cfg.Telemetry.APIKey,
		Version:  version,
		Config:   consent,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		log.Debug("telemetry disabled", "error", err)
		return telemetry.NoopClient{}
	}
	return c
}

// runSession opens an editing session on taskID, applies edit and ends the
// session, waiting for the flush. The flush summary and any monitoring
// problem are printed.
func runSession(ctx context.Context, cmd *cobra.Command, e *app.Engine, taskID geo.TaskID, edit func() error) (session.FlushResult, error) {
	if _, err := e.BeginEditing(ctx, taskID); err != nil {
		return session.FlushResult{}, err
	}
	editErr := edit()

	ch, err := e.EndEditing(ctx)
	if err != nil {
		return session.FlushResult{}, err
	}
	res := <-ch
	if editErr != nil {
		return res, editErr
	}

	out := cmd.OutOrStdout()
	ui.RenderFlush(out, res)
	ui.RenderFallback(out, e.MonitoringError())
	return res, res.Err
}

func parseTaskID(s string) (geo.TaskID, error) {
	id, err := geo.ParseTaskID(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseItemID(s string) (geo.ItemID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return geo.ItemID(n), nil
}
