package app

import (
	"context"
	"log/slog"

	"github.com/josephgoksu/geotask/internal/correlator"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/notify"
	"github.com/josephgoksu/geotask/internal/platform"
	"github.com/josephgoksu/geotask/internal/telemetry"
	"github.com/spf13/afero"
)

// BackgroundConfig wires the background event path. It needs only a name
// lookup on the store; no Engine or cache is involved.
type BackgroundConfig struct {
	Lookup    memory.TaskNameLookup
	Presenter notify.Presenter
	Fs        afero.Fs
	InboxDir  string
	Monitor   platform.Monitor
	TaskName  string
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Telemetry telemetry.Client
}

// Background receives region events and turns them into notifications.
type Background struct {
	Registry   *platform.Registry
	Inbox      *platform.Inbox
	Correlator *correlator.Correlator
}

// NewBackground defines the correlator under the task name and attaches an
// inbox that dispatches to it.
func NewBackground(cfg BackgroundConfig) *Background {
	if cfg.TaskName == "" {
		cfg.TaskName = platform.DefaultTaskName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.NoopClient{}
	}

	c := correlator.New(cfg.Lookup, cfg.Presenter,
		correlator.WithLogger(cfg.Logger),
		correlator.WithMetrics(cfg.Metrics),
		correlator.WithObserver(func(ev correlator.Event, delivered bool) {
			telemetry.RegionEvent(cfg.Telemetry, string(ev.Type), delivered)
		}),
	)

	reg := platform.NewRegistry()
	reg.Define(cfg.TaskName, c.Handler())

	inbox := platform.NewInbox(platform.InboxConfig{
		Fs:       cfg.Fs,
		Dir:      cfg.InboxDir,
		TaskName: cfg.TaskName,
		Registry: reg,
		Monitor:  cfg.Monitor,
		Logger:   cfg.Logger,
	})
	return &Background{Registry: reg, Inbox: inbox, Correlator: c}
}

// Run processes events until ctx is cancelled.
func (b *Background) Run(ctx context.Context) error {
	return b.Inbox.Run(ctx)
}
