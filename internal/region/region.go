// Package region keeps the platform's monitored region set equal to the set
// derived from the tasks in the cache.
package region

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/josephgoksu/geotask/internal/cache"
	"github.com/josephgoksu/geotask/internal/geo"
	"github.com/josephgoksu/geotask/internal/metrics"
	"github.com/josephgoksu/geotask/internal/permission"
	"github.com/josephgoksu/geotask/internal/platform"
)

// ErrPermissionDenied is returned by Reconcile when location permission is
// missing. The cached region set is left as it was.
var ErrPermissionDenied = permission.ErrPermissionDenied

// Desired returns one region per task with complete geometry, sorted by
// identifier.
func Desired(snap cache.Snapshot) []geo.Region {
	var out []geo.Region
	for _, t := range snap.Tasks() {
		if r, ok := geo.RegionFor(t); ok {
			out = append(out, r)
		}
	}
	cache.SortRegions(out)
	return out
}

// Outcome describes one reconciliation.
type Outcome struct {
	// Changed is true when the platform was given a new set.
	Changed bool
	Regions []geo.Region
}

// Manager reconciles the cache's tasks against the platform.
type Manager struct {
	mu          sync.Mutex
	cache       *cache.Cache
	monitor     platform.Monitor
	permissions permission.Provider
	taskName    string
	log         *slog.Logger
	metrics     *metrics.Metrics
	observe     func(Outcome, error)
}

// Config wires a Manager.
type Config struct {
	Cache       *cache.Cache
	Monitor     platform.Monitor
	Permissions permission.Provider
	// TaskName is the background handler every region is delivered to.
	TaskName string
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Observe, when set, is called after every reconcile attempt.
	Observe func(Outcome, error)
}

// NewManager creates a manager.
func NewManager(cfg Config) *Manager {
	if cfg.TaskName == "" {
		cfg.TaskName = platform.DefaultTaskName
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		cache:       cfg.Cache,
		monitor:     cfg.Monitor,
		permissions: cfg.Permissions,
		taskName:    cfg.TaskName,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		observe:     cfg.Observe,
	}
}

// TaskName returns the handler name regions are registered under.
func (m *Manager) TaskName() string { return m.taskName }

// Restore seeds the cache with whatever the platform already monitors, so
// the first Reconcile after a restart is a no-op when nothing changed.
// Regions registered under another handler name are not adopted; the next
// Reconcile registers the full set under the current name.
func (m *Manager) Restore(ctx context.Context) error {
	name, regions, err := m.monitor.Registered(ctx)
	if err != nil {
		return fmt.Errorf("read registered regions: %w", err)
	}
	if name != m.taskName {
		if len(regions) > 0 {
			m.log.Info("regions registered under another handler", "registered", name, "task_name", m.taskName, "regions", len(regions))
		}
		m.cache.SetRegions(nil)
		return nil
	}
	m.cache.SetRegions(regions)
	return nil
}

// Reconcile submits the complete desired set to the platform when it differs
// from the registered set. The cache's region set only changes after the
// platform accepted the new set, so a failed attempt is retried by the next
// call.
func (m *Manager) Reconcile(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out, err := m.reconcile(ctx)
	if m.observe != nil {
		m.observe(out, err)
	}
	return out, err
}

func (m *Manager) reconcile(ctx context.Context) (Outcome, error) {
	snap := m.cache.Snapshot()
	desired := Desired(snap)
	if slices.Equal(desired, snap.Regions()) {
		m.metrics.Reconciled(metrics.ReconcileUnchanged)
		return Outcome{Regions: desired}, nil
	}

	if err := permission.Check(ctx, m.permissions); err != nil {
		if errors.Is(err, permission.ErrPermissionDenied) {
			m.metrics.Reconciled(metrics.ReconcileDenied)
			m.log.Warn("region monitoring inactive", "reason", err, "regions", len(desired))
		} else {
			m.metrics.Reconciled(metrics.ReconcileFailed)
			m.log.Error("read permissions", "error", err)
		}
		return Outcome{}, err
	}

	if err := m.monitor.StartMonitoring(ctx, m.taskName, desired); err != nil {
		m.metrics.Reconciled(metrics.ReconcileFailed)
		m.log.Error("register regions", "task", m.taskName, "regions", len(desired), "error", err)
		return Outcome{}, fmt.Errorf("start monitoring: %w", err)
	}

	m.cache.SetRegions(desired)
	m.metrics.Reconciled(metrics.ReconcileApplied)
	m.log.Debug("regions registered", "task", m.taskName, "regions", len(desired))
	return Outcome{Changed: true, Regions: desired}, nil
}
