// Package app is the engine every user-facing surface talks to. The CLI, the
// terminal editor and the HTTP adapter are thin layers over Engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/memory"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/platform"
	"github.com/josephgoksu/geotask/internal/region"
	"github.com/josephgoksu/geotask/internal/session"
	"github.com/josephgoksu/geotask/internal/telemetry"
)

var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrNoSession     = errors.New("no editing session for this task")
	ErrSessionActive = errors.New("another editing session is active")
)

// Options wires an Engine. Store, Monitor and Permissions are required.
type Options struct {
	Store       memory.Store
	Monitor     platform.Monitor
	Permissions permission.Provider

	// TaskName is the background handler regions are registered under.
	TaskName string
	// BestEffortFlush disables the per-flush transaction.
	BestEffortFlush bool

	Clock     func() time.Time
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Telemetry telemetry.Client
}

// Engine owns the cache, the active editing session and in-flight flushes.
// It is safe for concurrent use.
type Engine struct {
	store     memory.Store
	cache     *cache.Cache
	tempIDs   cache.TempIDs
	flusher   *session.Flusher
	regions   *region.Manager
	clock     func() time.Time
	log       *slog.Logger
	metrics   *metrics.Metrics
	telemetry telemetry.Client

	mu      sync.Mutex
	active  *session.Tracker
	pending map[geo.TaskID]chan struct{}
	carry   map[geo.TaskID]session.Dirty
	monErr  error
	flushes sync.WaitGroup
}

// New builds an engine. Call Load before use.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil || opts.Monitor == nil || opts.Permissions == nil {
		return nil, fmt.Errorf("app: store, monitor and permissions are required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.NoopClient{}
	}

	e := &Engine{
		store:     opts.Store,
		cache:     cache.New(cache.WithClock(opts.Clock)),
		clock:     opts.Clock,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		telemetry: opts.Telemetry,
		pending:   make(map[geo.TaskID]chan struct{}),
		carry:     make(map[geo.TaskID]session.Dirty),
	}

	flushOpts := []session.FlusherOption{session.WithLogger(opts.Logger), session.WithMetrics(opts.Metrics)}
	if opts.BestEffortFlush {
		flushOpts = append(flushOpts, session.WithBestEffort())
	}
	e.flusher = session.NewFlusher(opts.Store, flushOpts...)

	e.regions = region.NewManager(region.Config{
		Cache:       e.cache,
		Monitor:     opts.Monitor,
		Permissions: opts.Permissions,
		TaskName:    opts.TaskName,
		Logger:      opts.Logger,
		Metrics:     opts.Metrics,
		Observe: func(out region.Outcome, err error) {
			telemetry.RegionsReconciled(e.telemetry, out, err)
		},
	})
	return e, nil
}

// Load hydrates the cache from the store, restores the region set the
// platform already monitors and reconciles. A reconcile failure does not
// fail Load; see MonitoringError.
func (e *Engine) Load(ctx context.Context) error {
	tasks, err := e.store.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	items, err := e.store.ListAllItems(ctx)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	e.cache.Dispatch(cache.LoadAll{Tasks: tasks, Items: items})

	if err := e.regions.Restore(ctx); err != nil {
		e.log.Warn("restore registered regions", "error", err)
	}
	e.reconcile(ctx)
	return nil
}

// Reconcile brings platform monitoring in line with the cached tasks.
func (e *Engine) Reconcile(ctx context.Context) (region.Outcome, error) {
	out, err := e.regions.Reconcile(ctx)
	e.mu.Lock()
	e.monErr = err
	e.mu.Unlock()
	return out, err
}

func (e *Engine) reconcile(ctx context.Context) {
	_, _ = e.Reconcile(ctx)
}

// MonitoringError returns why the last reconcile failed, or nil when region
// monitoring is active. Permission problems wrap permission.ErrPermissionDenied.
func (e *Engine) MonitoringError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monErr
}

// Wait blocks until every started flush has finished.
func (e *Engine) Wait() {
	e.flushes.Wait()
}

// Close waits for in-flight flushes, then closes telemetry and the store.
func (e *Engine) Close() error {
	e.Wait()
	return errors.Join(e.telemetry.Close(), e.store.Close())
}

// GetTask returns a cached task.
func (e *Engine) GetTask(id geo.TaskID) (geo.Task, error) {
	t, ok := e.cache.GetTask(id)
	if !ok {
		return geo.Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return t, nil
}

// ListTasks returns every task, most recently updated first.
func (e *Engine) ListTasks() []geo.Task {
	return e.cache.ListTasks()
}

// ListItems returns a task's items.
func (e *Engine) ListItems(taskID geo.TaskID) ([]geo.Item, error) {
	if _, ok := e.cache.GetTask(taskID); !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, taskID)
	}
	return e.cache.ListItems(taskID), nil
}

// GetItem returns a cached item.
func (e *Engine) GetItem(id geo.ItemID) (geo.Item, error) {
	it, ok := e.cache.GetItem(id)
	if !ok {
		return geo.Item{}, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return it, nil
}

// ListRegions returns the region set the platform was last given.
func (e *Engine) ListRegions() []geo.Region {
	return e.cache.ListRegions()
}
