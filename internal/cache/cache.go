package cache

import (
	"sync"
	"time"

	"github.com/josephgoksu/geotask/internal/geo"
)

// Cache is the single in-memory mirror the UI reads from. It is owned by
// the engine and passed explicitly; there is no package-level instance.
type Cache struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source used to stamp task mutations.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch applies cmd and returns the new snapshot.
func (c *Cache) Dispatch(cmd Command) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = Reduce(c.snap, cmd, c.now().UTC())
	return c.snap
}

// Snapshot returns the current version of the cache.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// GetTask returns a task by id.
func (c *Cache) GetTask(id geo.TaskID) (geo.Task, bool) {
	return c.Snapshot().Task(id)
}

// ListTasks returns all tasks, most recently updated first.
func (c *Cache) ListTasks() []geo.Task {
	return c.Snapshot().Tasks()
}

// UpsertTask inserts or replaces a task, refreshing its UpdatedAt.
func (c *Cache) UpsertTask(t geo.Task) {
	c.Dispatch(PutTask{Task: t})
}

// RemoveTask drops a task and its items.
func (c *Cache) RemoveTask(id geo.TaskID) {
	c.Dispatch(RemoveTask{ID: id})
}

// ListItems returns the items of a task.
func (c *Cache) ListItems(taskID geo.TaskID) []geo.Item {
	return c.Snapshot().Items(taskID)
}

// GetItem returns an item by id.
func (c *Cache) GetItem(id geo.ItemID) (geo.Item, bool) {
	return c.Snapshot().Item(id)
}

// UpsertItem inserts or replaces an item.
func (c *Cache) UpsertItem(it geo.Item) {
	c.Dispatch(PutItem{Item: it})
}

// RemoveItem drops an item.
func (c *Cache) RemoveItem(id geo.ItemID) {
	c.Dispatch(RemoveItem{ID: id})
}

// ListRegions returns the currently registered region set.
func (c *Cache) ListRegions() []geo.Region {
	return c.Snapshot().Regions()
}

// SetRegions records the region set the platform now monitors.
func (c *Cache) SetRegions(regions []geo.Region) {
	c.Dispatch(SetRegions{Regions: regions})
}
